package application

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	domainerrors "testquest/contexts/finance-core/withdrawal-service/domain/errors"
	"testquest/contexts/finance-core/withdrawal-service/ports"
)

type testWithdrawals struct {
	requests    map[string]ports.WithdrawalRequest
	failUpdates int
}

func newTestWithdrawals() *testWithdrawals {
	return &testWithdrawals{requests: make(map[string]ports.WithdrawalRequest)}
}

func (r *testWithdrawals) CreateWithdrawal(_ context.Context, request ports.WithdrawalRequest) error {
	r.requests[request.WithdrawalID] = request
	return nil
}

func (r *testWithdrawals) GetWithdrawal(_ context.Context, withdrawalID string) (ports.WithdrawalRequest, error) {
	request, ok := r.requests[withdrawalID]
	if !ok {
		return ports.WithdrawalRequest{}, domainerrors.ErrWithdrawalNotFound
	}
	return request, nil
}

func (r *testWithdrawals) UpdateWithdrawal(_ context.Context, request ports.WithdrawalRequest) error {
	if r.failUpdates > 0 {
		r.failUpdates--
		return errors.New("storage unavailable")
	}
	if _, ok := r.requests[request.WithdrawalID]; !ok {
		return domainerrors.ErrWithdrawalNotFound
	}
	r.requests[request.WithdrawalID] = request
	return nil
}

func (r *testWithdrawals) ListUserWithdrawals(_ context.Context, userID string, _ int, _ int) ([]ports.WithdrawalRequest, error) {
	items := make([]ports.WithdrawalRequest, 0, len(r.requests))
	for _, request := range r.requests {
		if request.UserID == userID {
			items = append(items, request)
		}
	}
	return items, nil
}

func (r *testWithdrawals) ListStuckProcessing(_ context.Context, cutoff time.Time, _ int) ([]ports.WithdrawalRequest, error) {
	items := make([]ports.WithdrawalRequest, 0)
	for _, request := range r.requests {
		if request.Status == ports.WithdrawalStatusProcessing &&
			request.ProcessedAt != nil && request.ProcessedAt.Before(cutoff) {
			items = append(items, request)
		}
	}
	return items, nil
}

type testBalance struct {
	balance  int64
	debited  int64
	refunded int64
}

func (l *testBalance) BalanceOf(_ context.Context, _ string) (int64, error) {
	return l.balance, nil
}

func (l *testBalance) DebitWithdrawal(_ context.Context, entry ports.WithdrawalEntry) error {
	if l.balance < entry.Amount {
		return domainerrors.ErrInsufficientBalance
	}
	l.balance -= entry.Amount
	l.debited += entry.Amount
	return nil
}

func (l *testBalance) RefundWithdrawal(_ context.Context, entry ports.WithdrawalEntry) error {
	l.balance += entry.Amount
	l.refunded += entry.Amount
	return nil
}

type testPayout struct {
	calls int
	fail  bool
}

func (p *testPayout) SendPayout(_ context.Context, _ ports.Payout) (ports.PayoutReceipt, error) {
	p.calls++
	if p.fail {
		return ports.PayoutReceipt{}, errors.New("provider unreachable")
	}
	return ports.PayoutReceipt{ProviderReference: "batch-77"}, nil
}

type testOutbox struct {
	envelopes []ports.EventEnvelope
}

func (o *testOutbox) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	o.envelopes = append(o.envelopes, envelope)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type sequenceIDs struct {
	next int
}

func (g *sequenceIDs) NewID(_ context.Context) (string, error) {
	g.next++
	return "wd-" + strconv.Itoa(g.next), nil
}

type withdrawalFixture struct {
	service Service
	repo    *testWithdrawals
	ledger  *testBalance
	payout  *testPayout
	outbox  *testOutbox
}

func newWithdrawalFixture(balance int64) *withdrawalFixture {
	repo := newTestWithdrawals()
	ledger := &testBalance{balance: balance}
	payout := &testPayout{}
	outbox := &testOutbox{}
	return &withdrawalFixture{
		service: Service{
			Repo:   repo,
			Ledger: ledger,
			Payout: payout,
			Outbox: outbox,
			Clock:  fixedClock{now: time.Date(2026, time.March, 3, 11, 0, 0, 0, time.UTC)},
			IDGen:  &sequenceIDs{},
		},
		repo:   repo,
		ledger: ledger,
		payout: payout,
		outbox: outbox,
	}
}

func (f *withdrawalFixture) request(t *testing.T, amount int64) ports.WithdrawalRequest {
	t.Helper()
	request, err := f.service.Request(context.Background(), "tester-1", amount, "tester@example.com")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return request
}

func TestRequestEnforcesLimits(t *testing.T) {
	f := newWithdrawalFixture(2_000_000)

	if _, err := f.service.Request(context.Background(), "tester-1", 499, "t@example.com"); !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount below minimum, got %v", err)
	}
	if _, err := f.service.Request(context.Background(), "tester-1", 1_000_001, "t@example.com"); !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount above maximum, got %v", err)
	}
	if _, err := f.service.Request(context.Background(), "tester-1", 500, "not-an-email"); !errors.Is(err, domainerrors.ErrInvalidWithdrawal) {
		t.Fatalf("expected invalid payout email, got %v", err)
	}
}

func TestRequestChecksBalanceWithoutReserving(t *testing.T) {
	f := newWithdrawalFixture(400)

	if _, err := f.service.Request(context.Background(), "tester-1", 500, "t@example.com"); !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	f.ledger.balance = 800
	request := f.request(t, 600)
	if request.Status != ports.WithdrawalStatusPending {
		t.Fatalf("expected pending, got %q", request.Status)
	}
	if f.ledger.debited != 0 {
		t.Fatalf("request must not reserve funds, debited %d", f.ledger.debited)
	}
}

func TestApproveReservesFunds(t *testing.T) {
	f := newWithdrawalFixture(1000)
	request := f.request(t, 600)

	approved, err := f.service.Approve(context.Background(), request.WithdrawalID, "admin-1", "looks fine")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != ports.WithdrawalStatusProcessing {
		t.Fatalf("expected processing, got %q", approved.Status)
	}
	if approved.ProcessedAt == nil {
		t.Fatalf("expected ProcessedAt set")
	}
	if f.ledger.debited != 600 || f.ledger.balance != 400 {
		t.Fatalf("expected 600 reserved, debited=%d balance=%d", f.ledger.debited, f.ledger.balance)
	}

	if _, err := f.service.Approve(context.Background(), request.WithdrawalID, "admin-1", ""); !errors.Is(err, domainerrors.ErrWithdrawalNotPending) {
		t.Fatalf("expected not pending on second approval, got %v", err)
	}
}

func TestRejectProcessingRefunds(t *testing.T) {
	f := newWithdrawalFixture(1000)
	request := f.request(t, 600)
	if _, err := f.service.Approve(context.Background(), request.WithdrawalID, "admin-1", ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	rejected, err := f.service.Reject(context.Background(), request.WithdrawalID, "admin-1", "account flagged")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != ports.WithdrawalStatusRejected {
		t.Fatalf("expected rejected, got %q", rejected.Status)
	}
	if f.ledger.refunded != 600 || f.ledger.balance != 1000 {
		t.Fatalf("expected full refund, refunded=%d balance=%d", f.ledger.refunded, f.ledger.balance)
	}
}

func TestRejectRequiresNotes(t *testing.T) {
	f := newWithdrawalFixture(1000)
	request := f.request(t, 600)

	if _, err := f.service.Reject(context.Background(), request.WithdrawalID, "admin-1", "  "); !errors.Is(err, domainerrors.ErrMissingNotes) {
		t.Fatalf("expected missing notes, got %v", err)
	}
}

func TestRejectPendingDoesNotRefund(t *testing.T) {
	f := newWithdrawalFixture(1000)
	request := f.request(t, 600)

	if _, err := f.service.Reject(context.Background(), request.WithdrawalID, "admin-1", "duplicate request"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if f.ledger.refunded != 0 {
		t.Fatalf("nothing was reserved, nothing to refund, got %d", f.ledger.refunded)
	}
}

func TestCompleteSendsPayoutAndAppendsOutbox(t *testing.T) {
	f := newWithdrawalFixture(1000)
	request := f.request(t, 600)
	if _, err := f.service.Approve(context.Background(), request.WithdrawalID, "admin-1", ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	completed, err := f.service.Complete(context.Background(), request.WithdrawalID, "admin-1", "batch run 3")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != ports.WithdrawalStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp, got %+v", completed)
	}
	if f.payout.calls != 1 {
		t.Fatalf("expected one payout call, got %d", f.payout.calls)
	}
	if len(f.outbox.envelopes) != 1 || f.outbox.envelopes[0].EventType != "withdrawal.completed" {
		t.Fatalf("expected withdrawal.completed envelope, got %+v", f.outbox.envelopes)
	}
	if f.ledger.refunded != 0 {
		t.Fatalf("successful payout must not refund")
	}
}

func TestCompletePayoutFailureRefundsAndFails(t *testing.T) {
	f := newWithdrawalFixture(1000)
	request := f.request(t, 600)
	if _, err := f.service.Approve(context.Background(), request.WithdrawalID, "admin-1", ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	f.payout.fail = true

	_, err := f.service.Complete(context.Background(), request.WithdrawalID, "admin-1", "batch run 4")
	if !errors.Is(err, domainerrors.ErrPayoutFailed) {
		t.Fatalf("expected payout failed, got %v", err)
	}

	stored, getErr := f.repo.GetWithdrawal(context.Background(), request.WithdrawalID)
	if getErr != nil {
		t.Fatalf("lookup failed: %v", getErr)
	}
	if stored.Status != ports.WithdrawalStatusFailed {
		t.Fatalf("expected failed status, got %q", stored.Status)
	}
	if stored.FailureReason == "" {
		t.Fatalf("expected failure reason recorded")
	}
	if f.ledger.refunded != 600 || f.ledger.balance != 1000 {
		t.Fatalf("expected refund on payout failure, refunded=%d balance=%d", f.ledger.refunded, f.ledger.balance)
	}
	if len(f.outbox.envelopes) != 0 {
		t.Fatalf("failed payout must not publish completion")
	}
}

func TestCompleteRequiresProcessing(t *testing.T) {
	f := newWithdrawalFixture(1000)
	request := f.request(t, 600)

	if _, err := f.service.Complete(context.Background(), request.WithdrawalID, "admin-1", "batch"); !errors.Is(err, domainerrors.ErrWithdrawalNotProcessing) {
		t.Fatalf("expected not processing, got %v", err)
	}
}

func TestMarkFailedRefundsReservedFunds(t *testing.T) {
	f := newWithdrawalFixture(1000)
	request := f.request(t, 600)
	if _, err := f.service.Approve(context.Background(), request.WithdrawalID, "admin-1", ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	failed, err := f.service.MarkFailed(context.Background(), request.WithdrawalID, "payout confirmation timed out")
	if err != nil {
		t.Fatalf("mark failed errored: %v", err)
	}
	if failed.Status != ports.WithdrawalStatusFailed || failed.FailureReason != "payout confirmation timed out" {
		t.Fatalf("unexpected failed request: %+v", failed)
	}
	if f.ledger.balance != 1000 {
		t.Fatalf("expected balance restored, got %d", f.ledger.balance)
	}
}

func TestMarkFailedRefundsOnceAcrossSaveRetry(t *testing.T) {
	f := newWithdrawalFixture(1000)
	request := f.request(t, 600)
	if _, err := f.service.Approve(context.Background(), request.WithdrawalID, "admin-1", ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	f.repo.failUpdates = 1
	if _, err := f.service.MarkFailed(context.Background(), request.WithdrawalID, "payout confirmation timed out"); err == nil {
		t.Fatalf("expected save failure to surface")
	}
	if f.ledger.refunded != 0 {
		t.Fatalf("failed save must not refund, refunded=%d", f.ledger.refunded)
	}
	stored, err := f.repo.GetWithdrawal(context.Background(), request.WithdrawalID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.Status != ports.WithdrawalStatusProcessing {
		t.Fatalf("expected request still processing after save failure, got %q", stored.Status)
	}

	if _, err := f.service.MarkFailed(context.Background(), request.WithdrawalID, "payout confirmation timed out"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if f.ledger.refunded != 600 || f.ledger.balance != 1000 {
		t.Fatalf("expected a single refund, refunded=%d balance=%d", f.ledger.refunded, f.ledger.balance)
	}

	if _, err := f.service.MarkFailed(context.Background(), request.WithdrawalID, "sweep"); !errors.Is(err, domainerrors.ErrWithdrawalNotProcessing) {
		t.Fatalf("expected not processing on repeat, got %v", err)
	}
	if f.ledger.refunded != 600 {
		t.Fatalf("repeat must not refund again, refunded=%d", f.ledger.refunded)
	}
}
