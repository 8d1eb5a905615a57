package ports

import (
	"context"
	"time"
)

const (
	RankBadgeBugConqueror = "bug_conqueror"
	RankBadgeBugMaster    = "bug_master"
	RankBadgeBugExpert    = "bug_expert"
)

// Badges split into two families: the persistent milestones are monotonic
// and never unset; the rank badges belong to the current top three and are
// cleared and reassigned on every leaderboard run.
type Badges struct {
	FirstBlood   bool
	BugHunter    bool
	EliteTester  bool
	BugConqueror bool
	BugMaster    bool
	BugExpert    bool
}

type Stats struct {
	TotalSubmitted         int
	TotalApproved          int
	TotalRejected          int
	AverageDeveloperRating float64
	TotalDeveloperRatings  int
}

type TesterProfile struct {
	UserID    string
	Name      string
	Badges    Badges
	Stats     Stats
	UpdatedAt time.Time
}

type StatsDelta struct {
	Submitted int
	Approved  int
	Rejected  int
}

// Repository applies profile mutations as per-field updates so badge
// writes never race with a concurrent stat increment on the same row.
type Repository interface {
	GetProfile(ctx context.Context, userID string) (TesterProfile, error)
	EnsureProfile(ctx context.Context, userID string, now time.Time) (TesterProfile, error)
	ListProfiles(ctx context.Context) ([]TesterProfile, error)
	ApplyStatsDelta(ctx context.Context, userID string, delta StatsDelta, now time.Time) (TesterProfile, error)
	// RecordRating folds one rating into the running average atomically.
	RecordRating(ctx context.Context, userID string, rating int, now time.Time) error
	// GrantPersistentBadges ORs the persistent flags in; rank flags in the
	// argument are ignored.
	GrantPersistentBadges(ctx context.Context, userID string, grant Badges, now time.Time) error
	ClearRankBadges(ctx context.Context, now time.Time) error
	SetRankBadge(ctx context.Context, userID string, badge string, now time.Time) error
}

// ReportRecord is the slice of a bug report the ranking math needs.
type ReportRecord struct {
	ReportID     string
	ProjectID    string
	SubmittedBy  string
	Severity     string
	Status       string
	RewardAmount int64
	RewardStatus string
}

type ReportHistory interface {
	ListAllReports(ctx context.Context) ([]ReportRecord, error)
}

type CreditsReader interface {
	TotalCreditsAcquired(ctx context.Context, userID string) (int64, error)
}

type RankingEntry struct {
	Rank                  int
	UserID                string
	Name                  string
	TotalBugReports       int
	ApprovedBugReports    int
	ApprovedCriticalCount int
	ApprovedMajorCount    int
	TotalRewards          int64
	ProjectsParticipated  int
	ReputationScore       int64
	TotalCreditsAcquired  int64
	Badges                Badges
}

type Statistics struct {
	TotalActiveTesters int
	TotalBugReports    int
	TotalRewardsPaid   int64
}

type Leaderboard struct {
	Rankings   []RankingEntry
	Statistics Statistics
}

type Clock interface {
	Now() time.Time
}
