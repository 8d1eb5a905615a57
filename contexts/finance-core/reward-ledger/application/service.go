package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domainerrors "testquest/contexts/finance-core/reward-ledger/domain/errors"
	"testquest/contexts/finance-core/reward-ledger/ports"
)

// Service is the append-only reward ledger. Every balance-affecting
// operation in the platform lands here as exactly one credit or debit with
// its paired transaction row.
type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Credit adds credits to a user balance and appends the paired transaction.
func (s Service) Credit(ctx context.Context, input ports.EntryInput) (ports.UserAccount, ports.Transaction, error) {
	if err := validateEntry(input); err != nil {
		return ports.UserAccount{}, ports.Transaction{}, err
	}

	tx, err := s.buildTransaction(ctx, input, input.Amount)
	if err != nil {
		return ports.UserAccount{}, ports.Transaction{}, err
	}

	earningsDelta := int64(0)
	acquiredDelta := int64(0)
	if input.CountsAsEarnings {
		earningsDelta = input.Amount
		acquiredDelta = input.Amount
	}

	account, err := s.Repo.ApplyAndRecord(ctx, tx.UserID, input.Amount, earningsDelta, acquiredDelta, tx)
	if err != nil {
		return ports.UserAccount{}, ports.Transaction{}, err
	}

	resolveLogger(s.Logger).Info("ledger credit recorded",
		"event", "ledger_credit_recorded",
		"module", "finance-core/reward-ledger",
		"layer", "application",
		"transaction_id", tx.TransactionID,
		"transaction_type", tx.Type,
		"user_id", tx.UserID,
		"amount", tx.Amount,
		"balance", account.Balance,
	)
	return account, tx, nil
}

// Debit removes credits from a user balance and appends the paired
// transaction. Fails with ErrInsufficientBalance and writes nothing when the
// balance cannot cover the amount.
func (s Service) Debit(ctx context.Context, input ports.EntryInput) (ports.UserAccount, ports.Transaction, error) {
	if err := validateEntry(input); err != nil {
		return ports.UserAccount{}, ports.Transaction{}, err
	}

	tx, err := s.buildTransaction(ctx, input, -input.Amount)
	if err != nil {
		return ports.UserAccount{}, ports.Transaction{}, err
	}

	earningsDelta := int64(0)
	acquiredDelta := int64(0)
	if input.CountsAsEarnings {
		earningsDelta = -input.Amount
		acquiredDelta = -input.Amount
	}

	account, err := s.Repo.ApplyAndRecord(ctx, tx.UserID, -input.Amount, earningsDelta, acquiredDelta, tx)
	if err != nil {
		return ports.UserAccount{}, ports.Transaction{}, err
	}

	resolveLogger(s.Logger).Info("ledger debit recorded",
		"event", "ledger_debit_recorded",
		"module", "finance-core/reward-ledger",
		"layer", "application",
		"transaction_id", tx.TransactionID,
		"transaction_type", tx.Type,
		"user_id", tx.UserID,
		"amount", tx.Amount,
		"balance", account.Balance,
	)
	return account, tx, nil
}

// Record appends a transaction row without moving any balance. Used for
// funding and platform-fee entries whose money settles with the external
// payment provider.
func (s Service) Record(ctx context.Context, input ports.EntryInput) (ports.Transaction, error) {
	if strings.TrimSpace(input.UserID) == "" || strings.TrimSpace(input.Type) == "" || input.Amount <= 0 {
		return ports.Transaction{}, domainerrors.ErrInvalidEntry
	}

	tx, err := s.buildTransaction(ctx, input, input.Amount)
	if err != nil {
		return ports.Transaction{}, err
	}
	if err := s.Repo.AppendTransaction(ctx, tx); err != nil {
		return ports.Transaction{}, err
	}
	return tx, nil
}

func (s Service) GetAccount(ctx context.Context, userID string) (ports.UserAccount, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ports.UserAccount{}, domainerrors.ErrInvalidEntry
	}
	return s.Repo.GetAccount(ctx, userID)
}

func (s Service) ListUserTransactions(ctx context.Context, userID string, limit int, offset int) ([]ports.Transaction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidEntry
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListUserTransactions(ctx, userID, limit, offset)
}

func (s Service) ListProjectTransactions(ctx context.Context, projectID string, limit int, offset int) ([]ports.Transaction, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, domainerrors.ErrInvalidEntry
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListProjectTransactions(ctx, projectID, limit, offset)
}

func (s Service) buildTransaction(ctx context.Context, input ports.EntryInput, signedAmount int64) (ports.Transaction, error) {
	transactionID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.Transaction{}, err
	}
	return ports.Transaction{
		TransactionID: strings.TrimSpace(transactionID),
		Type:          strings.TrimSpace(input.Type),
		Amount:        signedAmount,
		UserID:        strings.TrimSpace(input.UserID),
		ProjectID:     strings.TrimSpace(input.ProjectID),
		ReportID:      strings.TrimSpace(input.ReportID),
		WithdrawalID:  strings.TrimSpace(input.WithdrawalID),
		Description:   strings.TrimSpace(input.Description),
		Metadata:      input.Metadata,
		CreatedAt:     s.now(),
	}, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func validateEntry(input ports.EntryInput) error {
	if strings.TrimSpace(input.UserID) == "" || strings.TrimSpace(input.Type) == "" {
		return domainerrors.ErrInvalidEntry
	}
	if input.Amount <= 0 {
		return domainerrors.ErrInvalidEntry
	}
	return nil
}
