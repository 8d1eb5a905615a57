package ports

import (
	"context"
	"time"

	"testquest/internal/shared/events"
)

const (
	SeverityCritical = "critical"
	SeverityMajor    = "major"
	SeverityMinor    = "minor"

	ReportStatusPending  = "pending"
	ReportStatusApproved = "approved"
	ReportStatusRejected = "rejected"
	ReportStatusResolved = "resolved"

	RewardStatusPending  = "pending"
	RewardStatusApproved = "approved"
	RewardStatusPaid     = "paid"
)

func ValidSeverity(severity string) bool {
	switch severity {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	default:
		return false
	}
}

// Reward tracks how much a report pays and whether payment landed.
// RewardStatusPaid is the idempotency anchor: a paid report is never
// paid again.
type Reward struct {
	Amount int64
	Status string
}

type BugReport struct {
	ReportID         string
	ProjectID        string
	SubmittedBy      string
	Title            string
	Description      string
	StepsToReproduce string
	ExpectedBehavior string
	ActualBehavior   string
	Severity         string
	Status           string
	Reward           Reward
	QualityScore     int
	DeveloperRating  int
	AdminNotes       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DisclosedReport is a BugReport annotated with the visibility verdict of
// the disclosure sequencer. The annotation is derived, never stored.
type DisclosedReport struct {
	BugReport
	IsBlurred  bool
	BlurReason string
}

type SubmitReportInput struct {
	ProjectID        string
	SubmittedBy      string
	Title            string
	Description      string
	StepsToReproduce string
	ExpectedBehavior string
	ActualBehavior   string
	Severity         string
}

type Repository interface {
	CreateReport(ctx context.Context, report BugReport) error
	GetReport(ctx context.Context, reportID string) (BugReport, error)
	UpdateReport(ctx context.Context, report BugReport) error
	DeleteReport(ctx context.Context, reportID string) error
	ListProjectReports(ctx context.Context, projectID string) ([]BugReport, error)
	ListAllReports(ctx context.Context) ([]BugReport, error)
}

type RewardSchedule struct {
	Critical int64
	Major    int64
	Minor    int64
}

func (r RewardSchedule) ForSeverity(severity string) int64 {
	switch severity {
	case SeverityCritical:
		return r.Critical
	case SeverityMajor:
		return r.Major
	case SeverityMinor:
		return r.Minor
	default:
		return 0
	}
}

type ProjectSnapshot struct {
	ProjectID       string
	Name            string
	OwnerID         string
	Status          string
	RemainingBounty int64
	Rewards         RewardSchedule
}

// ProjectGateway is the bounty-pool seam. ApplyBounty is the atomic
// sufficient-funds check and decrement; ReleaseBounty returns credits to
// the pool on reversal paths.
type ProjectGateway interface {
	GetProject(ctx context.Context, projectID string) (ProjectSnapshot, error)
	ApplyBounty(ctx context.Context, projectID string, amount int64) error
	ReleaseBounty(ctx context.Context, projectID string, amount int64) error
}

type RewardEntry struct {
	Type        string
	UserID      string
	ProjectID   string
	ReportID    string
	Amount      int64
	Description string
}

// Ledger moves tester balances and records the paired transaction row in
// one call, so a credit can never land without its audit entry.
type Ledger interface {
	CreditReward(ctx context.Context, entry RewardEntry) error
	DebitReward(ctx context.Context, entry RewardEntry) error
}

// TesterProfiles receives lifecycle notifications that feed submission
// counters, persistent badges, and the running developer-rating average.
// Failures here never roll back the triage decision.
type TesterProfiles interface {
	OnReportSubmitted(ctx context.Context, userID string) error
	OnReportApproved(ctx context.Context, userID string, severity string) error
	OnReportRejected(ctx context.Context, userID string) error
	RecordDeveloperRating(ctx context.Context, userID string, rating int) error
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID  string
	EventType string
	EntityID  string
	Payload   []byte
	CreatedAt time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
