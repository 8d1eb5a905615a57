package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	domainerrors "testquest/contexts/community-experience/leaderboard-service/domain/errors"
	"testquest/contexts/community-experience/leaderboard-service/ports"
)

const (
	leaderboardSize = 50

	approvedWeight = 10
	criticalWeight = 50
	majorWeight    = 25

	firstBloodThreshold  = 1
	bugHunterThreshold   = 10
	eliteTesterThreshold = 100
)

// Service owns tester profiles and the ranking projection. The leaderboard
// is recomputed from full report history on demand, never maintained
// incrementally, so a run can always be repeated to the same result.
type Service struct {
	Profiles ports.Repository
	Reports  ports.ReportHistory
	Credits  ports.CreditsReader
	Clock    ports.Clock
	Logger   *slog.Logger
}

type tally struct {
	totalReports     int
	approvedReports  int
	approvedCritical int
	approvedMajor    int
	totalRewards     int64
	projects         map[string]struct{}
}

// ComputeLeaderboard rebuilds the ranking and reassigns badges. Rank
// badges are cleared everywhere first and set on the new top three;
// persistent milestones are only ever granted.
func (s Service) ComputeLeaderboard(ctx context.Context) (ports.Leaderboard, error) {
	reports, err := s.Reports.ListAllReports(ctx)
	if err != nil {
		return ports.Leaderboard{}, err
	}

	tallies := make(map[string]*tally)
	var rewardsPaid int64
	for _, report := range reports {
		t, ok := tallies[report.SubmittedBy]
		if !ok {
			t = &tally{projects: make(map[string]struct{})}
			tallies[report.SubmittedBy] = t
		}
		t.totalReports++
		t.projects[report.ProjectID] = struct{}{}
		if report.Status == "approved" || report.Status == "resolved" {
			t.approvedReports++
			switch report.Severity {
			case "critical":
				t.approvedCritical++
			case "major":
				t.approvedMajor++
			}
		}
		if report.RewardStatus == "paid" {
			t.totalRewards += report.RewardAmount
			rewardsPaid += report.RewardAmount
		}
	}

	userIDs := make([]string, 0, len(tallies))
	for userID := range tallies {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	now := s.now()
	entries := make([]ports.RankingEntry, 0, len(userIDs))
	for _, userID := range userIDs {
		t := tallies[userID]
		if t.totalReports == 0 {
			continue
		}

		profile, err := s.Profiles.EnsureProfile(ctx, userID, now)
		if err != nil {
			return ports.Leaderboard{}, err
		}
		credits, err := s.Credits.TotalCreditsAcquired(ctx, userID)
		if err != nil {
			return ports.Leaderboard{}, err
		}

		entries = append(entries, ports.RankingEntry{
			UserID:                userID,
			Name:                  profile.Name,
			TotalBugReports:       t.totalReports,
			ApprovedBugReports:    t.approvedReports,
			ApprovedCriticalCount: t.approvedCritical,
			ApprovedMajorCount:    t.approvedMajor,
			TotalRewards:          t.totalRewards,
			ProjectsParticipated:  len(t.projects),
			ReputationScore: int64(approvedWeight*t.approvedReports +
				criticalWeight*t.approvedCritical +
				majorWeight*t.approvedMajor),
			TotalCreditsAcquired: credits,
			Badges:               profile.Badges,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalCreditsAcquired != b.TotalCreditsAcquired {
			return a.TotalCreditsAcquired > b.TotalCreditsAcquired
		}
		if a.ReputationScore != b.ReputationScore {
			return a.ReputationScore > b.ReputationScore
		}
		if a.TotalRewards != b.TotalRewards {
			return a.TotalRewards > b.TotalRewards
		}
		if a.ApprovedBugReports != b.ApprovedBugReports {
			return a.ApprovedBugReports > b.ApprovedBugReports
		}
		return a.UserID < b.UserID
	})

	// Milestone badges are healed for every active tester, not just the
	// ranked slice.
	for i := range entries {
		grant := persistentBadgesFor(entries[i].ApprovedBugReports)
		if grant == (ports.Badges{}) {
			continue
		}
		if err := s.Profiles.GrantPersistentBadges(ctx, entries[i].UserID, grant, now); err != nil {
			return ports.Leaderboard{}, err
		}
	}

	totalActive := len(entries)
	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if err := s.Profiles.ClearRankBadges(ctx, now); err != nil {
		return ports.Leaderboard{}, err
	}
	rankBadges := []string{ports.RankBadgeBugConqueror, ports.RankBadgeBugMaster, ports.RankBadgeBugExpert}
	for i, badge := range rankBadges {
		if i >= len(entries) {
			break
		}
		if err := s.Profiles.SetRankBadge(ctx, entries[i].UserID, badge, now); err != nil {
			return ports.Leaderboard{}, err
		}
	}

	// Re-read badge state so the returned snapshot reflects this run's
	// assignments.
	for i := range entries {
		profile, err := s.Profiles.GetProfile(ctx, entries[i].UserID)
		if err != nil {
			return ports.Leaderboard{}, err
		}
		entries[i].Badges = profile.Badges
	}

	resolveLogger(s.Logger).Info("leaderboard recomputed",
		"event", "leaderboard_recomputed",
		"module", "community-experience/leaderboard-service",
		"layer", "application",
		"active_testers", totalActive,
		"ranked", len(entries),
	)
	return ports.Leaderboard{
		Rankings: entries,
		Statistics: ports.Statistics{
			TotalActiveTesters: totalActive,
			TotalBugReports:    len(reports),
			TotalRewardsPaid:   rewardsPaid,
		},
	}, nil
}

func (s Service) GetProfile(ctx context.Context, userID string) (ports.TesterProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ports.TesterProfile{}, domainerrors.ErrProfileNotFound
	}
	return s.Profiles.GetProfile(ctx, userID)
}

// OnReportSubmitted, OnReportApproved, OnReportRejected, and
// RecordDeveloperRating are the triage lifecycle sinks. They keep the
// profile counters current between leaderboard runs.

func (s Service) OnReportSubmitted(ctx context.Context, userID string) error {
	now := s.now()
	if _, err := s.Profiles.EnsureProfile(ctx, userID, now); err != nil {
		return err
	}
	_, err := s.Profiles.ApplyStatsDelta(ctx, userID, ports.StatsDelta{Submitted: 1}, now)
	return err
}

func (s Service) OnReportApproved(ctx context.Context, userID string, severity string) error {
	now := s.now()
	if _, err := s.Profiles.EnsureProfile(ctx, userID, now); err != nil {
		return err
	}
	profile, err := s.Profiles.ApplyStatsDelta(ctx, userID, ports.StatsDelta{Approved: 1}, now)
	if err != nil {
		return err
	}
	grant := persistentBadgesFor(profile.Stats.TotalApproved)
	if grant == (ports.Badges{}) {
		return nil
	}
	return s.Profiles.GrantPersistentBadges(ctx, userID, grant, now)
}

func (s Service) OnReportRejected(ctx context.Context, userID string) error {
	now := s.now()
	if _, err := s.Profiles.EnsureProfile(ctx, userID, now); err != nil {
		return err
	}
	_, err := s.Profiles.ApplyStatsDelta(ctx, userID, ports.StatsDelta{Rejected: 1}, now)
	return err
}

func (s Service) RecordDeveloperRating(ctx context.Context, userID string, rating int) error {
	if rating < 1 || rating > 5 {
		return domainerrors.ErrInvalidRating
	}
	now := s.now()
	if _, err := s.Profiles.EnsureProfile(ctx, userID, now); err != nil {
		return err
	}
	return s.Profiles.RecordRating(ctx, userID, rating, now)
}

func persistentBadgesFor(approved int) ports.Badges {
	var grant ports.Badges
	if approved >= firstBloodThreshold {
		grant.FirstBlood = true
	}
	if approved >= bugHunterThreshold {
		grant.BugHunter = true
	}
	if approved >= eliteTesterThreshold {
		grant.EliteTester = true
	}
	return grant
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
