package ports

import (
	"context"
	"time"
)

// Transaction types recorded by the ledger. Rows are append-only and are
// never mutated or deleted once written.
const (
	TransactionBugReward        = "bug_reward"
	TransactionRewardAdjustment = "reward_adjustment"
	TransactionRewardReversal   = "reward_reversal"
	TransactionWithdrawal       = "withdrawal"
	TransactionWithdrawalRefund = "withdrawal_refund"
	TransactionProjectFunding   = "project_funding"
	TransactionPlatformFee      = "platform_fee"
)

// UserAccount holds the spendable credit state for one user. Balance is
// mutated only through ledger credits and debits.
type UserAccount struct {
	UserID               string
	Name                 string
	Balance              int64
	TotalEarnings        int64
	TotalCreditsAcquired int64
	UpdatedAt            time.Time
}

type Transaction struct {
	TransactionID string
	Type          string
	Amount        int64
	UserID        string
	ProjectID     string
	ReportID      string
	WithdrawalID  string
	Description   string
	Metadata      map[string]string
	CreatedAt     time.Time
}

type EntryInput struct {
	UserID       string
	Amount       int64
	Type         string
	ProjectID    string
	ReportID     string
	WithdrawalID string
	Description  string
	Metadata     map[string]string

	// CountsAsEarnings marks reward credits that also bump TotalEarnings
	// and TotalCreditsAcquired (bug rewards, positive adjustments).
	CountsAsEarnings bool
}

type Repository interface {
	GetAccount(ctx context.Context, userID string) (UserAccount, error)
	// ApplyAndRecord mutates the account balance and appends the paired
	// transaction in one atomic scope. balanceDelta may be negative; the
	// mutation fails with ErrInsufficientBalance when it would drive the
	// balance below zero, and nothing is written.
	ApplyAndRecord(
		ctx context.Context,
		userID string,
		balanceDelta int64,
		earningsDelta int64,
		acquiredDelta int64,
		tx Transaction,
	) (UserAccount, error)
	// AppendTransaction records a ledger row with no balance movement
	// (project funding and platform fee entries settle externally).
	AppendTransaction(ctx context.Context, tx Transaction) error
	ListUserTransactions(ctx context.Context, userID string, limit int, offset int) ([]Transaction, error)
	ListProjectTransactions(ctx context.Context, projectID string, limit int, offset int) ([]Transaction, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
