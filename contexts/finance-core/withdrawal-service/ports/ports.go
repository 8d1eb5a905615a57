package ports

import (
	"context"
	"time"

	"testquest/internal/shared/events"
)

const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusRejected   = "rejected"
	WithdrawalStatusFailed     = "failed"

	MinWithdrawalAmount int64 = 500
	MaxWithdrawalAmount int64 = 1_000_000
)

// WithdrawalRequest moves credits out of the platform. ProcessedAt marks
// when funds were reserved; CompletedAt when the provider confirmed payout.
type WithdrawalRequest struct {
	WithdrawalID  string
	UserID        string
	Amount        int64
	PayoutEmail   string
	Status        string
	AdminNotes    string
	FailureReason string
	ProcessedAt   *time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Repository interface {
	CreateWithdrawal(ctx context.Context, request WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, withdrawalID string) (WithdrawalRequest, error)
	UpdateWithdrawal(ctx context.Context, request WithdrawalRequest) error
	ListUserWithdrawals(ctx context.Context, userID string, limit int, offset int) ([]WithdrawalRequest, error)
	// ListStuckProcessing returns requests that entered processing before
	// cutoff and never heard back from the provider.
	ListStuckProcessing(ctx context.Context, cutoff time.Time, limit int) ([]WithdrawalRequest, error)
}

type WithdrawalEntry struct {
	UserID       string
	WithdrawalID string
	Amount       int64
	Description  string
}

// Ledger reserves and refunds user balances. Debit and refund both record
// their paired transaction row in the same call.
type Ledger interface {
	BalanceOf(ctx context.Context, userID string) (int64, error)
	DebitWithdrawal(ctx context.Context, entry WithdrawalEntry) error
	RefundWithdrawal(ctx context.Context, entry WithdrawalEntry) error
}

type Payout struct {
	WithdrawalID string
	Email        string
	Amount       int64
	Note         string
}

type PayoutReceipt struct {
	ProviderReference string
}

// PayoutProvider is the external money-out gateway. Calls are bounded by a
// caller-supplied context deadline; a timeout counts as failure.
type PayoutProvider interface {
	SendPayout(ctx context.Context, payout Payout) (PayoutReceipt, error)
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
