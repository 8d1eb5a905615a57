package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "testquest/contexts/community-experience/leaderboard-service/domain/errors"
	"testquest/contexts/community-experience/leaderboard-service/ports"
)

type Store struct {
	mu       sync.RWMutex
	profiles map[string]ports.TesterProfile
}

func NewStore(seed []ports.TesterProfile) *Store {
	store := &Store{
		profiles: make(map[string]ports.TesterProfile, len(seed)),
	}
	for _, profile := range seed {
		store.profiles[profile.UserID] = profile
	}
	return store
}

func (s *Store) SeedProfile(profile ports.TesterProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
}

func (s *Store) GetProfile(_ context.Context, userID string) (ports.TesterProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[strings.TrimSpace(userID)]
	if !ok {
		return ports.TesterProfile{}, domainerrors.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Store) EnsureProfile(_ context.Context, userID string, now time.Time) (ports.TesterProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID = strings.TrimSpace(userID)
	if profile, ok := s.profiles[userID]; ok {
		return profile, nil
	}
	profile := ports.TesterProfile{
		UserID:    userID,
		UpdatedAt: now.UTC(),
	}
	s.profiles[userID] = profile
	return profile, nil
}

func (s *Store) ListProfiles(_ context.Context) ([]ports.TesterProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.TesterProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		items = append(items, profile)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UserID < items[j].UserID
	})
	return items, nil
}

func (s *Store) ApplyStatsDelta(_ context.Context, userID string, delta ports.StatsDelta, now time.Time) (ports.TesterProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[strings.TrimSpace(userID)]
	if !ok {
		return ports.TesterProfile{}, domainerrors.ErrProfileNotFound
	}
	profile.Stats.TotalSubmitted += delta.Submitted
	profile.Stats.TotalApproved += delta.Approved
	profile.Stats.TotalRejected += delta.Rejected
	profile.UpdatedAt = now.UTC()
	s.profiles[profile.UserID] = profile
	return profile, nil
}

func (s *Store) RecordRating(_ context.Context, userID string, rating int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[strings.TrimSpace(userID)]
	if !ok {
		return domainerrors.ErrProfileNotFound
	}
	count := profile.Stats.TotalDeveloperRatings
	total := profile.Stats.AverageDeveloperRating*float64(count) + float64(rating)
	profile.Stats.TotalDeveloperRatings = count + 1
	profile.Stats.AverageDeveloperRating = total / float64(count+1)
	profile.UpdatedAt = now.UTC()
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *Store) GrantPersistentBadges(_ context.Context, userID string, grant ports.Badges, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[strings.TrimSpace(userID)]
	if !ok {
		return domainerrors.ErrProfileNotFound
	}
	profile.Badges.FirstBlood = profile.Badges.FirstBlood || grant.FirstBlood
	profile.Badges.BugHunter = profile.Badges.BugHunter || grant.BugHunter
	profile.Badges.EliteTester = profile.Badges.EliteTester || grant.EliteTester
	profile.UpdatedAt = now.UTC()
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *Store) ClearRankBadges(_ context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, profile := range s.profiles {
		if !profile.Badges.BugConqueror && !profile.Badges.BugMaster && !profile.Badges.BugExpert {
			continue
		}
		profile.Badges.BugConqueror = false
		profile.Badges.BugMaster = false
		profile.Badges.BugExpert = false
		profile.UpdatedAt = now.UTC()
		s.profiles[userID] = profile
	}
	return nil
}

func (s *Store) SetRankBadge(_ context.Context, userID string, badge string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[strings.TrimSpace(userID)]
	if !ok {
		return domainerrors.ErrProfileNotFound
	}
	switch badge {
	case ports.RankBadgeBugConqueror:
		profile.Badges.BugConqueror = true
	case ports.RankBadgeBugMaster:
		profile.Badges.BugMaster = true
	case ports.RankBadgeBugExpert:
		profile.Badges.BugExpert = true
	default:
		return domainerrors.ErrInvalidBadge
	}
	profile.UpdatedAt = now.UTC()
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
