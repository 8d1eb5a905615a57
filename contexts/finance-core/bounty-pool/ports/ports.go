package ports

import (
	"context"
	"time"
)

const (
	ProjectStatusApproved  = "approved"
	ProjectStatusCompleted = "completed"
)

// BugRewards is the per-severity reward schedule for a project. The legacy
// free-text form is parsed at the HTTP boundary; inside the core only this
// validated structure exists.
type BugRewards struct {
	Critical int64
	Major    int64
	Minor    int64
}

func (r BugRewards) ForSeverity(severity string) int64 {
	switch severity {
	case "critical":
		return r.Critical
	case "major":
		return r.Major
	case "minor":
		return r.Minor
	default:
		return 0
	}
}

// Project carries the bounty budget. TotalBounty is fixed at funding time;
// RemainingBounty is the mutable pool that pays rewards.
type Project struct {
	ProjectID       string
	Name            string
	OwnerID         string
	TotalBudget     int64
	PlatformFee     int64
	TotalBounty     int64
	RemainingBounty int64
	BugRewards      BugRewards
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type FundProjectInput struct {
	Name        string
	OwnerID     string
	TotalBudget int64
	BugRewards  BugRewards
}

type Repository interface {
	CreateProject(ctx context.Context, project Project) error
	GetProject(ctx context.Context, projectID string) (Project, error)
	ListProjects(ctx context.Context, limit int, offset int) ([]Project, error)
	// AdjustRemainingBounty atomically applies a signed delta to the pool.
	// A negative delta that would drive RemainingBounty below zero fails
	// with ErrInsufficientBounty and leaves the row untouched. Adapters
	// that use optimistic concurrency surface ErrConcurrencyConflict on a
	// lost race; the application retries a bounded number of times.
	AdjustRemainingBounty(ctx context.Context, projectID string, delta int64, updatedAt time.Time) (Project, error)
}

// LedgerRecorder appends funding and platform-fee rows to the reward ledger.
type LedgerRecorder interface {
	RecordFunding(ctx context.Context, entry FundingEntry) error
}

type FundingEntry struct {
	Type        string
	UserID      string
	ProjectID   string
	Amount      int64
	Description string
	Metadata    map[string]string
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
