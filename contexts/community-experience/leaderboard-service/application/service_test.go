package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"testquest/contexts/community-experience/leaderboard-service/adapters/memory"
	domainerrors "testquest/contexts/community-experience/leaderboard-service/domain/errors"
	"testquest/contexts/community-experience/leaderboard-service/ports"
)

type testHistory struct {
	reports []ports.ReportRecord
}

func (h *testHistory) ListAllReports(_ context.Context) ([]ports.ReportRecord, error) {
	return h.reports, nil
}

type testCredits struct {
	byUser map[string]int64
}

func (c *testCredits) TotalCreditsAcquired(_ context.Context, userID string) (int64, error) {
	return c.byUser[userID], nil
}

func newLeaderboardService(reports []ports.ReportRecord, credits map[string]int64) (Service, *memory.Store) {
	store := memory.NewStore(nil)
	if credits == nil {
		credits = map[string]int64{}
	}
	return Service{
		Profiles: store,
		Reports:  &testHistory{reports: reports},
		Credits:  &testCredits{byUser: credits},
		Clock:    store,
	}, store
}

func approvedReport(id, user, severity string, reward int64) ports.ReportRecord {
	return ports.ReportRecord{
		ReportID:     id,
		ProjectID:    "proj-1",
		SubmittedBy:  user,
		Severity:     severity,
		Status:       "approved",
		RewardAmount: reward,
		RewardStatus: "paid",
	}
}

func TestComputeLeaderboardReputationWeights(t *testing.T) {
	svc, _ := newLeaderboardService([]ports.ReportRecord{
		approvedReport("r1", "tester-1", "critical", 500),
		approvedReport("r2", "tester-1", "major", 200),
		approvedReport("r3", "tester-1", "minor", 50),
		{ReportID: "r4", ProjectID: "proj-1", SubmittedBy: "tester-1", Severity: "minor", Status: "rejected"},
	}, nil)

	board, err := svc.ComputeLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if len(board.Rankings) != 1 {
		t.Fatalf("expected one entry, got %d", len(board.Rankings))
	}
	entry := board.Rankings[0]
	// 3 approved x10, 1 critical x50, 1 major x25.
	if entry.ReputationScore != 105 {
		t.Fatalf("expected reputation 105, got %d", entry.ReputationScore)
	}
	if entry.TotalBugReports != 4 || entry.ApprovedBugReports != 3 {
		t.Fatalf("unexpected counts: %+v", entry)
	}
	if entry.TotalRewards != 750 {
		t.Fatalf("expected 750 in paid rewards, got %d", entry.TotalRewards)
	}
}

func TestComputeLeaderboardOrdersByCreditsFirst(t *testing.T) {
	svc, _ := newLeaderboardService([]ports.ReportRecord{
		approvedReport("r1", "tester-low", "critical", 500),
		approvedReport("r2", "tester-high", "minor", 50),
	}, map[string]int64{"tester-low": 100, "tester-high": 900})

	board, err := svc.ComputeLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if board.Rankings[0].UserID != "tester-high" || board.Rankings[1].UserID != "tester-low" {
		t.Fatalf("credits must outrank reputation, got %q then %q",
			board.Rankings[0].UserID, board.Rankings[1].UserID)
	}
	if board.Rankings[0].Rank != 1 || board.Rankings[1].Rank != 2 {
		t.Fatalf("ranks not assigned in order: %+v", board.Rankings)
	}
}

func TestComputeLeaderboardBreaksFullTiesByUserID(t *testing.T) {
	svc, _ := newLeaderboardService([]ports.ReportRecord{
		approvedReport("r1", "tester-b", "minor", 50),
		approvedReport("r2", "tester-a", "minor", 50),
	}, nil)

	board, err := svc.ComputeLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if board.Rankings[0].UserID != "tester-a" {
		t.Fatalf("expected tester-a first on full tie, got %q", board.Rankings[0].UserID)
	}
}

func TestComputeLeaderboardIsRepeatable(t *testing.T) {
	svc, _ := newLeaderboardService([]ports.ReportRecord{
		approvedReport("r1", "tester-1", "critical", 500),
		approvedReport("r2", "tester-2", "major", 200),
		approvedReport("r3", "tester-3", "minor", 50),
	}, map[string]int64{"tester-2": 40})

	first, err := svc.ComputeLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("first compute failed: %v", err)
	}
	second, err := svc.ComputeLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("second compute failed: %v", err)
	}
	if len(first.Rankings) != len(second.Rankings) {
		t.Fatalf("entry counts differ: %d vs %d", len(first.Rankings), len(second.Rankings))
	}
	for i := range first.Rankings {
		if first.Rankings[i].UserID != second.Rankings[i].UserID ||
			first.Rankings[i].Rank != second.Rankings[i].Rank {
			t.Fatalf("order differs at %d: %q vs %q",
				i, first.Rankings[i].UserID, second.Rankings[i].UserID)
		}
	}
}

func TestComputeLeaderboardReassignsRankBadges(t *testing.T) {
	svc, store := newLeaderboardService([]ports.ReportRecord{
		approvedReport("r1", "tester-1", "critical", 500),
		approvedReport("r2", "tester-2", "major", 200),
		approvedReport("r3", "tester-3", "minor", 50),
		approvedReport("r4", "tester-4", "minor", 10),
	}, nil)

	board, err := svc.ComputeLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	top := board.Rankings
	if !top[0].Badges.BugConqueror || !top[1].Badges.BugMaster || !top[2].Badges.BugExpert {
		t.Fatalf("rank badges not assigned to top three: %+v %+v %+v",
			top[0].Badges, top[1].Badges, top[2].Badges)
	}
	if top[3].Badges.BugConqueror || top[3].Badges.BugMaster || top[3].Badges.BugExpert {
		t.Fatalf("fourth place must carry no rank badge: %+v", top[3].Badges)
	}

	// Previous holder drops out of the top three once the history shifts.
	svc.Reports = &testHistory{reports: []ports.ReportRecord{
		approvedReport("r1", "tester-1", "minor", 10),
		approvedReport("r5", "tester-4", "critical", 500),
		approvedReport("r6", "tester-4", "critical", 500),
		approvedReport("r2", "tester-2", "major", 200),
		approvedReport("r3", "tester-3", "minor", 50),
	}}
	if _, err := svc.ComputeLeaderboard(context.Background()); err != nil {
		t.Fatalf("second compute failed: %v", err)
	}
	profile, err := store.GetProfile(context.Background(), "tester-1")
	if err != nil {
		t.Fatalf("profile lookup failed: %v", err)
	}
	if profile.Badges.BugConqueror {
		t.Fatalf("rank badge must be cleared when the holder falls off the podium")
	}
	if !profile.Badges.FirstBlood {
		t.Fatalf("persistent badge must survive the rank reshuffle")
	}
}

func TestComputeLeaderboardStatistics(t *testing.T) {
	svc, _ := newLeaderboardService([]ports.ReportRecord{
		approvedReport("r1", "tester-1", "critical", 500),
		approvedReport("r2", "tester-2", "minor", 50),
		{ReportID: "r3", ProjectID: "proj-1", SubmittedBy: "tester-2", Severity: "minor", Status: "pending"},
	}, nil)

	board, err := svc.ComputeLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	stats := board.Statistics
	if stats.TotalActiveTesters != 2 || stats.TotalBugReports != 3 || stats.TotalRewardsPaid != 550 {
		t.Fatalf("unexpected statistics: %+v", stats)
	}
}

func TestOnReportApprovedGrantsMilestones(t *testing.T) {
	svc, store := newLeaderboardService(nil, nil)

	if err := svc.OnReportApproved(context.Background(), "tester-1", "minor"); err != nil {
		t.Fatalf("first approval failed: %v", err)
	}
	profile, err := store.GetProfile(context.Background(), "tester-1")
	if err != nil {
		t.Fatalf("profile lookup failed: %v", err)
	}
	if !profile.Badges.FirstBlood || profile.Badges.BugHunter {
		t.Fatalf("expected only first blood after one approval: %+v", profile.Badges)
	}

	for i := 0; i < 9; i++ {
		if err := svc.OnReportApproved(context.Background(), "tester-1", "minor"); err != nil {
			t.Fatalf("approval %d failed: %v", i+2, err)
		}
	}
	profile, err = store.GetProfile(context.Background(), "tester-1")
	if err != nil {
		t.Fatalf("profile lookup failed: %v", err)
	}
	if profile.Stats.TotalApproved != 10 || !profile.Badges.BugHunter {
		t.Fatalf("expected bug hunter at ten approvals: %+v", profile)
	}
	if profile.Badges.EliteTester {
		t.Fatalf("elite tester requires one hundred approvals")
	}
}

func TestLifecycleSinksTrackCounters(t *testing.T) {
	svc, store := newLeaderboardService(nil, nil)

	if err := svc.OnReportSubmitted(context.Background(), "tester-1"); err != nil {
		t.Fatalf("submitted sink failed: %v", err)
	}
	if err := svc.OnReportSubmitted(context.Background(), "tester-1"); err != nil {
		t.Fatalf("submitted sink failed: %v", err)
	}
	if err := svc.OnReportRejected(context.Background(), "tester-1"); err != nil {
		t.Fatalf("rejected sink failed: %v", err)
	}

	profile, err := store.GetProfile(context.Background(), "tester-1")
	if err != nil {
		t.Fatalf("profile lookup failed: %v", err)
	}
	if profile.Stats.TotalSubmitted != 2 || profile.Stats.TotalRejected != 1 {
		t.Fatalf("unexpected stats: %+v", profile.Stats)
	}
}

func TestRecordDeveloperRatingBoundsAndAverage(t *testing.T) {
	svc, store := newLeaderboardService(nil, nil)

	if err := svc.RecordDeveloperRating(context.Background(), "tester-1", 0); !errors.Is(err, domainerrors.ErrInvalidRating) {
		t.Fatalf("expected invalid rating for 0, got %v", err)
	}
	if err := svc.RecordDeveloperRating(context.Background(), "tester-1", 6); !errors.Is(err, domainerrors.ErrInvalidRating) {
		t.Fatalf("expected invalid rating for 6, got %v", err)
	}

	if err := svc.RecordDeveloperRating(context.Background(), "tester-1", 4); err != nil {
		t.Fatalf("rating failed: %v", err)
	}
	if err := svc.RecordDeveloperRating(context.Background(), "tester-1", 5); err != nil {
		t.Fatalf("rating failed: %v", err)
	}

	profile, err := store.GetProfile(context.Background(), "tester-1")
	if err != nil {
		t.Fatalf("profile lookup failed: %v", err)
	}
	if profile.Stats.TotalDeveloperRatings != 2 || profile.Stats.AverageDeveloperRating != 4.5 {
		t.Fatalf("unexpected rating stats: %+v", profile.Stats)
	}
}

func TestComputeLeaderboardGrantsMilestonesBeyondRankedSlice(t *testing.T) {
	reports := make([]ports.ReportRecord, 0, 55)
	credits := make(map[string]int64, 55)
	for i := 1; i <= 55; i++ {
		user := fmt.Sprintf("tester-%02d", i)
		reports = append(reports, approvedReport(fmt.Sprintf("r%02d", i), user, "minor", 50))
		// Descending credits so tester-55 sorts last and falls off the board.
		credits[user] = int64(1000 - i)
	}
	svc, store := newLeaderboardService(reports, credits)

	board, err := svc.ComputeLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if len(board.Rankings) != 50 {
		t.Fatalf("expected 50 ranked entries, got %d", len(board.Rankings))
	}
	if board.Statistics.TotalActiveTesters != 55 {
		t.Fatalf("expected 55 active testers, got %d", board.Statistics.TotalActiveTesters)
	}

	profile, err := store.GetProfile(context.Background(), "tester-55")
	if err != nil {
		t.Fatalf("profile lookup failed: %v", err)
	}
	if !profile.Badges.FirstBlood {
		t.Fatalf("unranked tester must still earn the first approval badge: %+v", profile.Badges)
	}
	if profile.Badges.BugConqueror || profile.Badges.BugMaster || profile.Badges.BugExpert {
		t.Fatalf("unranked tester must not hold a rank badge: %+v", profile.Badges)
	}
}

func TestGetProfileRequiresUserID(t *testing.T) {
	svc, _ := newLeaderboardService(nil, nil)

	if _, err := svc.GetProfile(context.Background(), "  "); !errors.Is(err, domainerrors.ErrProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
	if _, err := svc.GetProfile(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
}
