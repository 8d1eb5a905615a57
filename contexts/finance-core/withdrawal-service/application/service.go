package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	domainerrors "testquest/contexts/finance-core/withdrawal-service/domain/errors"
	"testquest/contexts/finance-core/withdrawal-service/ports"
)

const defaultPayoutTimeout = 15 * time.Second

// Service runs the withdrawal lifecycle. Funds are reserved at approval
// time, so a request in processing always has its amount already debited;
// every exit from processing either confirms the payout or refunds.
type Service struct {
	Repo          ports.Repository
	Ledger        ports.Ledger
	Payout        ports.PayoutProvider
	Outbox        ports.OutboxWriter
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	PayoutTimeout time.Duration
	Logger        *slog.Logger
}

// Request files a pending withdrawal after checking limits and that the
// balance covers the amount at request time. The balance is not reserved
// yet; that happens at approval.
func (s Service) Request(ctx context.Context, userID string, amount int64, payoutEmail string) (ports.WithdrawalRequest, error) {
	userID = strings.TrimSpace(userID)
	payoutEmail = strings.TrimSpace(payoutEmail)
	if userID == "" || payoutEmail == "" || !strings.Contains(payoutEmail, "@") {
		return ports.WithdrawalRequest{}, domainerrors.ErrInvalidWithdrawal
	}
	if amount < ports.MinWithdrawalAmount || amount > ports.MaxWithdrawalAmount {
		return ports.WithdrawalRequest{}, domainerrors.ErrInvalidAmount
	}

	balance, err := s.Ledger.BalanceOf(ctx, userID)
	if err != nil {
		return ports.WithdrawalRequest{}, err
	}
	if balance < amount {
		return ports.WithdrawalRequest{}, domainerrors.ErrInsufficientBalance
	}

	withdrawalID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.WithdrawalRequest{}, err
	}
	now := s.now()
	request := ports.WithdrawalRequest{
		WithdrawalID: strings.TrimSpace(withdrawalID),
		UserID:       userID,
		Amount:       amount,
		PayoutEmail:  payoutEmail,
		Status:       ports.WithdrawalStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.CreateWithdrawal(ctx, request); err != nil {
		return ports.WithdrawalRequest{}, err
	}

	ResolveLogger(s.Logger).Info("withdrawal requested",
		"event", "withdrawal_requested",
		"module", "finance-core/withdrawal-service",
		"layer", "application",
		"withdrawal_id", request.WithdrawalID,
		"user_id", userID,
		"amount", amount,
	)
	return request, nil
}

// Approve reserves the funds and moves the request to processing. An
// uncovered balance leaves the request pending and nothing debited.
func (s Service) Approve(ctx context.Context, withdrawalID string, actorID string, notes string) (ports.WithdrawalRequest, error) {
	request, err := s.getWithdrawal(ctx, withdrawalID)
	if err != nil {
		return ports.WithdrawalRequest{}, err
	}
	if request.Status != ports.WithdrawalStatusPending {
		return ports.WithdrawalRequest{}, domainerrors.ErrWithdrawalNotPending
	}

	if err := s.Ledger.DebitWithdrawal(ctx, ports.WithdrawalEntry{
		UserID:       request.UserID,
		WithdrawalID: request.WithdrawalID,
		Amount:       request.Amount,
		Description:  "Withdrawal to " + request.PayoutEmail,
	}); err != nil {
		return ports.WithdrawalRequest{}, err
	}

	now := s.now()
	request.Status = ports.WithdrawalStatusProcessing
	request.ProcessedAt = &now
	if notes = strings.TrimSpace(notes); notes != "" {
		request.AdminNotes = notes
	}
	request.UpdatedAt = now

	if err := s.Repo.UpdateWithdrawal(ctx, request); err != nil {
		s.refundBestEffort(ctx, request, "approve_save_failed")
		return ports.WithdrawalRequest{}, err
	}

	ResolveLogger(s.Logger).Info("withdrawal approved",
		"event", "withdrawal_approved",
		"module", "finance-core/withdrawal-service",
		"layer", "application",
		"withdrawal_id", request.WithdrawalID,
		"actor_id", strings.TrimSpace(actorID),
		"amount", request.Amount,
	)
	return request, nil
}

// Reject closes a request without paying out. If funds were already
// reserved the user is refunded.
func (s Service) Reject(ctx context.Context, withdrawalID string, actorID string, notes string) (ports.WithdrawalRequest, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return ports.WithdrawalRequest{}, domainerrors.ErrMissingNotes
	}

	request, err := s.getWithdrawal(ctx, withdrawalID)
	if err != nil {
		return ports.WithdrawalRequest{}, err
	}
	if request.Status != ports.WithdrawalStatusPending && request.Status != ports.WithdrawalStatusProcessing {
		return ports.WithdrawalRequest{}, domainerrors.ErrWithdrawalNotPending
	}

	reserved := request.Status == ports.WithdrawalStatusProcessing
	if reserved {
		if err := s.Ledger.RefundWithdrawal(ctx, ports.WithdrawalEntry{
			UserID:       request.UserID,
			WithdrawalID: request.WithdrawalID,
			Amount:       request.Amount,
			Description:  "Refund for rejected withdrawal",
		}); err != nil {
			return ports.WithdrawalRequest{}, err
		}
	}

	request.Status = ports.WithdrawalStatusRejected
	request.AdminNotes = notes
	request.UpdatedAt = s.now()
	if err := s.Repo.UpdateWithdrawal(ctx, request); err != nil {
		return ports.WithdrawalRequest{}, err
	}

	ResolveLogger(s.Logger).Info("withdrawal rejected",
		"event", "withdrawal_rejected",
		"module", "finance-core/withdrawal-service",
		"layer", "application",
		"withdrawal_id", request.WithdrawalID,
		"actor_id", strings.TrimSpace(actorID),
		"refunded", reserved,
	)
	return request, nil
}

// Complete sends the payout through the external provider under a bounded
// timeout. Provider failure or timeout drives the request through the
// MarkFailed refund path and surfaces ErrPayoutFailed.
func (s Service) Complete(ctx context.Context, withdrawalID string, actorID string, notes string) (ports.WithdrawalRequest, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return ports.WithdrawalRequest{}, domainerrors.ErrMissingNotes
	}

	request, err := s.getWithdrawal(ctx, withdrawalID)
	if err != nil {
		return ports.WithdrawalRequest{}, err
	}
	if request.Status != ports.WithdrawalStatusProcessing {
		return ports.WithdrawalRequest{}, domainerrors.ErrWithdrawalNotProcessing
	}

	timeout := s.PayoutTimeout
	if timeout <= 0 {
		timeout = defaultPayoutTimeout
	}
	payoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	receipt, payoutErr := s.Payout.SendPayout(payoutCtx, ports.Payout{
		WithdrawalID: request.WithdrawalID,
		Email:        request.PayoutEmail,
		Amount:       request.Amount,
		Note:         notes,
	})
	if payoutErr != nil {
		ResolveLogger(s.Logger).Error("payout provider call failed",
			"event", "withdrawal_payout_failed",
			"module", "finance-core/withdrawal-service",
			"layer", "application",
			"withdrawal_id", request.WithdrawalID,
			"error", payoutErr.Error(),
		)
		if _, err := s.MarkFailed(ctx, request.WithdrawalID, payoutErr.Error()); err != nil {
			return ports.WithdrawalRequest{}, err
		}
		return ports.WithdrawalRequest{}, domainerrors.ErrPayoutFailed
	}

	now := s.now()
	request.Status = ports.WithdrawalStatusCompleted
	request.CompletedAt = &now
	request.AdminNotes = notes
	request.UpdatedAt = now
	if err := s.Repo.UpdateWithdrawal(ctx, request); err != nil {
		return ports.WithdrawalRequest{}, err
	}

	s.appendCompletedOutbox(ctx, request, receipt.ProviderReference)

	ResolveLogger(s.Logger).Info("withdrawal completed",
		"event", "withdrawal_completed",
		"module", "finance-core/withdrawal-service",
		"layer", "application",
		"withdrawal_id", request.WithdrawalID,
		"actor_id", strings.TrimSpace(actorID),
		"provider_reference", receipt.ProviderReference,
	)
	return request, nil
}

// MarkFailed abandons a processing request and refunds the reserved funds.
func (s Service) MarkFailed(ctx context.Context, withdrawalID string, failureReason string) (ports.WithdrawalRequest, error) {
	request, err := s.getWithdrawal(ctx, withdrawalID)
	if err != nil {
		return ports.WithdrawalRequest{}, err
	}
	if request.Status != ports.WithdrawalStatusProcessing {
		return ports.WithdrawalRequest{}, domainerrors.ErrWithdrawalNotProcessing
	}

	request.Status = ports.WithdrawalStatusFailed
	request.FailureReason = strings.TrimSpace(failureReason)
	request.UpdatedAt = s.now()
	if err := s.Repo.UpdateWithdrawal(ctx, request); err != nil {
		return ports.WithdrawalRequest{}, err
	}

	// The refund runs only after the failed state is durable. A save
	// failure leaves the request in processing with its reservation
	// intact, so a retry or the reconciler sweep cannot refund twice.
	if err := s.Ledger.RefundWithdrawal(ctx, ports.WithdrawalEntry{
		UserID:       request.UserID,
		WithdrawalID: request.WithdrawalID,
		Amount:       request.Amount,
		Description:  "Refund for failed withdrawal",
	}); err != nil {
		ResolveLogger(s.Logger).Error("withdrawal refund compensation failed",
			"event", "withdrawal_compensation_failed",
			"module", "finance-core/withdrawal-service",
			"layer", "application",
			"withdrawal_id", request.WithdrawalID,
			"stage", "mark_failed_refund",
			"error", err.Error(),
		)
	}

	ResolveLogger(s.Logger).Warn("withdrawal marked failed",
		"event", "withdrawal_failed",
		"module", "finance-core/withdrawal-service",
		"layer", "application",
		"withdrawal_id", request.WithdrawalID,
		"failure_reason", request.FailureReason,
	)
	return request, nil
}

func (s Service) GetWithdrawal(ctx context.Context, withdrawalID string) (ports.WithdrawalRequest, error) {
	return s.getWithdrawal(ctx, withdrawalID)
}

func (s Service) ListUserWithdrawals(ctx context.Context, userID string, limit int, offset int) ([]ports.WithdrawalRequest, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidWithdrawal
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListUserWithdrawals(ctx, userID, limit, offset)
}

func (s Service) getWithdrawal(ctx context.Context, withdrawalID string) (ports.WithdrawalRequest, error) {
	withdrawalID = strings.TrimSpace(withdrawalID)
	if withdrawalID == "" {
		return ports.WithdrawalRequest{}, domainerrors.ErrWithdrawalNotFound
	}
	return s.Repo.GetWithdrawal(ctx, withdrawalID)
}

func (s Service) refundBestEffort(ctx context.Context, request ports.WithdrawalRequest, stage string) {
	if err := s.Ledger.RefundWithdrawal(ctx, ports.WithdrawalEntry{
		UserID:       request.UserID,
		WithdrawalID: request.WithdrawalID,
		Amount:       request.Amount,
		Description:  "Refund after failed withdrawal state save",
	}); err != nil {
		ResolveLogger(s.Logger).Error("withdrawal refund compensation failed",
			"event", "withdrawal_compensation_failed",
			"module", "finance-core/withdrawal-service",
			"layer", "application",
			"withdrawal_id", request.WithdrawalID,
			"stage", stage,
			"error", err.Error(),
		)
	}
}

func (s Service) appendCompletedOutbox(ctx context.Context, request ports.WithdrawalRequest, providerReference string) {
	if s.Outbox == nil {
		return
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"withdrawal_id":      request.WithdrawalID,
		"user_id":            request.UserID,
		"amount":             request.Amount,
		"provider_reference": providerReference,
		"completed_at":       request.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:        strings.TrimSpace(eventID),
		EventType:      "withdrawal.completed",
		SourceService:  "withdrawal-service",
		OccurredAtUTC:  request.UpdatedAt.UTC(),
		CorrelationID:  request.WithdrawalID,
		EntityType:     "withdrawal",
		EntityID:       request.WithdrawalID,
		PayloadVersion: 1,
		Payload:        json.RawMessage(payload),
	}); err != nil {
		ResolveLogger(s.Logger).Warn("outbox append failed",
			"event", "withdrawal_outbox_append_failed",
			"module", "finance-core/withdrawal-service",
			"layer", "application",
			"withdrawal_id", request.WithdrawalID,
			"error", err.Error(),
		)
	}
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
