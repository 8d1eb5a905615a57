package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	ledgerports "testquest/contexts/finance-core/reward-ledger/ports"
	withdrawal "testquest/contexts/finance-core/withdrawal-service"
	withdrawalworkers "testquest/contexts/finance-core/withdrawal-service/application/workers"
	withdrawaldomainerrors "testquest/contexts/finance-core/withdrawal-service/domain/errors"
	withdrawalports "testquest/contexts/finance-core/withdrawal-service/ports"
	withdrawaltransport "testquest/contexts/finance-core/withdrawal-service/transport/http"
)

type stubPayoutProvider struct {
	calls int
	fail  bool
}

func (p *stubPayoutProvider) SendPayout(_ context.Context, _ withdrawalports.Payout) (withdrawalports.PayoutReceipt, error) {
	p.calls++
	if p.fail {
		return withdrawalports.PayoutReceipt{}, errors.New("provider rejected the batch")
	}
	return withdrawalports.PayoutReceipt{ProviderReference: "pp-batch-9"}, nil
}

type withdrawalFixture struct {
	*platformFixture
	withdrawals withdrawal.Module
	payout      *stubPayoutProvider
}

func newWithdrawalFixture(t *testing.T, balance int64) *withdrawalFixture {
	t.Helper()
	platform := newPlatformFixture()
	platform.ledger.Store.SeedAccount(ledgerports.UserAccount{
		UserID:               "tester-1",
		Name:                 "Ada",
		Balance:              balance,
		TotalEarnings:        balance,
		TotalCreditsAcquired: balance,
	})
	payout := &stubPayoutProvider{}
	module := withdrawal.NewInMemoryModule(nil, userBalanceLedger{ledger: platform.ledger.Service}, payout, nil)
	return &withdrawalFixture{platformFixture: platform, withdrawals: module, payout: payout}
}

func (f *withdrawalFixture) requestAndApprove(t *testing.T, amount int64) withdrawaltransport.WithdrawalResponse {
	t.Helper()
	ctx := context.Background()
	request, err := f.withdrawals.Handler.RequestHandler(ctx, "tester-1", withdrawaltransport.RequestWithdrawalRequest{
		Amount:      amount,
		PayoutEmail: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	approved, err := f.withdrawals.Handler.ActionHandler(ctx, request.WithdrawalID, "admin-1", withdrawaltransport.WithdrawalActionRequest{
		Action: "approve",
		Notes:  "verified account",
	})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	return approved
}

func (f *withdrawalFixture) balance(t *testing.T) int64 {
	t.Helper()
	account, err := f.ledger.Handler.GetAccountHandler(context.Background(), "tester-1")
	if err != nil {
		t.Fatalf("account lookup failed: %v", err)
	}
	return account.Balance
}

func TestWithdrawalCompletionSettlesThroughProvider(t *testing.T) {
	f := newWithdrawalFixture(t, 1000)
	approved := f.requestAndApprove(t, 600)
	if approved.Status != "processing" {
		t.Fatalf("expected processing after approval, got %q", approved.Status)
	}
	if got := f.balance(t); got != 400 {
		t.Fatalf("expected 600 reserved, balance %d", got)
	}

	completed, err := f.withdrawals.Handler.ActionHandler(context.Background(), approved.WithdrawalID, "admin-1", withdrawaltransport.WithdrawalActionRequest{
		Action: "complete",
		Notes:  "batch run 12",
	})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != "completed" || completed.CompletedAt == "" {
		t.Fatalf("unexpected completed withdrawal: %+v", completed)
	}
	if f.payout.calls != 1 {
		t.Fatalf("expected one provider call, got %d", f.payout.calls)
	}
	if got := f.balance(t); got != 400 {
		t.Fatalf("completed payout must not touch the balance again, got %d", got)
	}
}

func TestWithdrawalPayoutFailureRefundsAndSurfaces(t *testing.T) {
	f := newWithdrawalFixture(t, 1000)
	approved := f.requestAndApprove(t, 600)
	f.payout.fail = true

	_, err := f.withdrawals.Handler.ActionHandler(context.Background(), approved.WithdrawalID, "admin-1", withdrawaltransport.WithdrawalActionRequest{
		Action: "complete",
		Notes:  "batch run 13",
	})
	if !errors.Is(err, withdrawaldomainerrors.ErrPayoutFailed) {
		t.Fatalf("expected payout failure, got %v", err)
	}

	stored, err := f.withdrawals.Handler.GetWithdrawalHandler(context.Background(), approved.WithdrawalID)
	if err != nil {
		t.Fatalf("withdrawal lookup failed: %v", err)
	}
	if stored.Status != "failed" || stored.FailureReason == "" {
		t.Fatalf("expected failed withdrawal with reason, got %+v", stored)
	}
	if got := f.balance(t); got != 1000 {
		t.Fatalf("expected full refund, balance %d", got)
	}
	if got := f.ledger.Store.CountTransactions(ledgerports.TransactionWithdrawalRefund); got != 1 {
		t.Fatalf("expected one refund row, got %d", got)
	}
}

func TestWithdrawalOutboxRelayPublishesCompletion(t *testing.T) {
	f := newWithdrawalFixture(t, 1000)
	approved := f.requestAndApprove(t, 600)
	if _, err := f.withdrawals.Handler.ActionHandler(context.Background(), approved.WithdrawalID, "admin-1", withdrawaltransport.WithdrawalActionRequest{
		Action: "complete",
		Notes:  "batch run 14",
	}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	publisher := &recordingPublisher{}
	relay := withdrawalworkers.OutboxRelay{
		Outbox:    f.withdrawals.Store,
		Publisher: publisher,
		Clock:     f.withdrawals.Store,
		BatchSize: 50,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "withdrawal.completed" {
		t.Fatalf("expected one withdrawal.completed publish, got %+v", publisher.topics)
	}
}

func TestPayoutReconcilerFailsStuckProcessing(t *testing.T) {
	f := newWithdrawalFixture(t, 1000)
	staleProcessed := time.Now().UTC().Add(-2 * time.Hour)
	f.withdrawals.Store.SeedWithdrawal(withdrawalports.WithdrawalRequest{
		WithdrawalID: "wd-stuck-1",
		UserID:       "tester-1",
		Amount:       300,
		PayoutEmail:  "ada@example.com",
		Status:       withdrawalports.WithdrawalStatusProcessing,
		ProcessedAt:  &staleProcessed,
		CreatedAt:    staleProcessed,
		UpdatedAt:    staleProcessed,
	})

	reconciler := withdrawalworkers.PayoutReconciler{
		Withdrawals: f.withdrawals.Store,
		Service:     f.withdrawals.Service,
		Clock:       f.withdrawals.Store,
		StuckAfter:  30 * time.Minute,
		BatchSize:   50,
	}
	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("reconciler run failed: %v", err)
	}

	swept, err := f.withdrawals.Handler.GetWithdrawalHandler(context.Background(), "wd-stuck-1")
	if err != nil {
		t.Fatalf("withdrawal lookup failed: %v", err)
	}
	if swept.Status != "failed" || swept.FailureReason != "payout confirmation timed out" {
		t.Fatalf("stuck withdrawal not swept: %+v", swept)
	}
	if got := f.balance(t); got != 1300 {
		t.Fatalf("expected reserved amount refunded, balance %d", got)
	}
}
