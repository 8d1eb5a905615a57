package unit

import (
	"context"
	"errors"
	"testing"

	leaderboard "testquest/contexts/community-experience/leaderboard-service"
	leaderboardports "testquest/contexts/community-experience/leaderboard-service/ports"
	bountypool "testquest/contexts/finance-core/bounty-pool"
	poolapplication "testquest/contexts/finance-core/bounty-pool/application"
	pooldomainerrors "testquest/contexts/finance-core/bounty-pool/domain/errors"
	poolports "testquest/contexts/finance-core/bounty-pool/ports"
	pooltransport "testquest/contexts/finance-core/bounty-pool/transport/http"
	rewardledger "testquest/contexts/finance-core/reward-ledger"
	ledgerapplication "testquest/contexts/finance-core/reward-ledger/application"
	ledgerdomainerrors "testquest/contexts/finance-core/reward-ledger/domain/errors"
	ledgerports "testquest/contexts/finance-core/reward-ledger/ports"
	withdrawaldomainerrors "testquest/contexts/finance-core/withdrawal-service/domain/errors"
	withdrawalports "testquest/contexts/finance-core/withdrawal-service/ports"
	bugreport "testquest/contexts/triage-review/bug-report-service"
	reportmemory "testquest/contexts/triage-review/bug-report-service/adapters/memory"
	reportdomainerrors "testquest/contexts/triage-review/bug-report-service/domain/errors"
	reportports "testquest/contexts/triage-review/bug-report-service/ports"
	reporttransport "testquest/contexts/triage-review/bug-report-service/transport/http"
	"testquest/internal/shared/events"
)

// The adapters below mirror the composition-root bridges: each bounded
// context only sees its own ports, and errors are translated into the
// consuming context's sentinels at the seam.

type fundingRecorder struct {
	ledger ledgerapplication.Service
}

func (a fundingRecorder) RecordFunding(ctx context.Context, entry poolports.FundingEntry) error {
	_, err := a.ledger.Record(ctx, ledgerports.EntryInput{
		Type:        entry.Type,
		UserID:      entry.UserID,
		ProjectID:   entry.ProjectID,
		Amount:      entry.Amount,
		Description: entry.Description,
		Metadata:    entry.Metadata,
	})
	return err
}

type poolGateway struct {
	pool poolapplication.Service
}

func (a poolGateway) GetProject(ctx context.Context, projectID string) (reportports.ProjectSnapshot, error) {
	project, err := a.pool.GetProject(ctx, projectID)
	if err != nil {
		return reportports.ProjectSnapshot{}, translatePoolErr(err)
	}
	return reportports.ProjectSnapshot{
		ProjectID:       project.ProjectID,
		Name:            project.Name,
		OwnerID:         project.OwnerID,
		Status:          project.Status,
		RemainingBounty: project.RemainingBounty,
		Rewards: reportports.RewardSchedule{
			Critical: project.BugRewards.Critical,
			Major:    project.BugRewards.Major,
			Minor:    project.BugRewards.Minor,
		},
	}, nil
}

func (a poolGateway) ApplyBounty(ctx context.Context, projectID string, amount int64) error {
	_, err := a.pool.Apply(ctx, projectID, amount)
	return translatePoolErr(err)
}

func (a poolGateway) ReleaseBounty(ctx context.Context, projectID string, amount int64) error {
	_, err := a.pool.Release(ctx, projectID, amount)
	return translatePoolErr(err)
}

func translatePoolErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pooldomainerrors.ErrProjectNotFound):
		return reportdomainerrors.ErrProjectNotFound
	case errors.Is(err, pooldomainerrors.ErrInsufficientBounty):
		return reportdomainerrors.ErrInsufficientBounty
	default:
		return err
	}
}

type testerRewardLedger struct {
	ledger ledgerapplication.Service
}

func (a testerRewardLedger) CreditReward(ctx context.Context, entry reportports.RewardEntry) error {
	_, _, err := a.ledger.Credit(ctx, ledgerports.EntryInput{
		Type:             entry.Type,
		UserID:           entry.UserID,
		ProjectID:        entry.ProjectID,
		ReportID:         entry.ReportID,
		Amount:           entry.Amount,
		Description:      entry.Description,
		CountsAsEarnings: true,
	})
	return translateLedgerErr(err)
}

func (a testerRewardLedger) DebitReward(ctx context.Context, entry reportports.RewardEntry) error {
	_, _, err := a.ledger.Debit(ctx, ledgerports.EntryInput{
		Type:             entry.Type,
		UserID:           entry.UserID,
		ProjectID:        entry.ProjectID,
		ReportID:         entry.ReportID,
		Amount:           entry.Amount,
		Description:      entry.Description,
		CountsAsEarnings: true,
	})
	return translateLedgerErr(err)
}

func translateLedgerErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledgerdomainerrors.ErrInsufficientBalance),
		errors.Is(err, ledgerdomainerrors.ErrAccountNotFound):
		return reportdomainerrors.ErrInsufficientBalance
	default:
		return err
	}
}

type userBalanceLedger struct {
	ledger ledgerapplication.Service
}

func (a userBalanceLedger) BalanceOf(ctx context.Context, userID string) (int64, error) {
	account, err := a.ledger.GetAccount(ctx, userID)
	if errors.Is(err, ledgerdomainerrors.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (a userBalanceLedger) DebitWithdrawal(ctx context.Context, entry withdrawalports.WithdrawalEntry) error {
	_, _, err := a.ledger.Debit(ctx, ledgerports.EntryInput{
		Type:         ledgerports.TransactionWithdrawal,
		UserID:       entry.UserID,
		WithdrawalID: entry.WithdrawalID,
		Amount:       entry.Amount,
		Description:  entry.Description,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledgerdomainerrors.ErrInsufficientBalance),
		errors.Is(err, ledgerdomainerrors.ErrAccountNotFound):
		return withdrawaldomainerrors.ErrInsufficientBalance
	default:
		return err
	}
}

func (a userBalanceLedger) RefundWithdrawal(ctx context.Context, entry withdrawalports.WithdrawalEntry) error {
	_, _, err := a.ledger.Credit(ctx, ledgerports.EntryInput{
		Type:         ledgerports.TransactionWithdrawalRefund,
		UserID:       entry.UserID,
		WithdrawalID: entry.WithdrawalID,
		Amount:       entry.Amount,
		Description:  entry.Description,
	})
	return err
}

type reportHistorySource struct {
	store *reportmemory.Store
}

func (a *reportHistorySource) ListAllReports(ctx context.Context) ([]leaderboardports.ReportRecord, error) {
	if a.store == nil {
		return nil, nil
	}
	reports, err := a.store.ListAllReports(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]leaderboardports.ReportRecord, 0, len(reports))
	for _, report := range reports {
		records = append(records, leaderboardports.ReportRecord{
			ReportID:     report.ReportID,
			ProjectID:    report.ProjectID,
			SubmittedBy:  report.SubmittedBy,
			Severity:     report.Severity,
			Status:       report.Status,
			RewardAmount: report.Reward.Amount,
			RewardStatus: report.Reward.Status,
		})
	}
	return records, nil
}

type acquiredCreditsSource struct {
	ledger ledgerapplication.Service
}

func (a acquiredCreditsSource) TotalCreditsAcquired(ctx context.Context, userID string) (int64, error) {
	account, err := a.ledger.GetAccount(ctx, userID)
	if errors.Is(err, ledgerdomainerrors.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.TotalCreditsAcquired, nil
}

// recordingPublisher captures relay traffic instead of fanning it out.
type recordingPublisher struct {
	published []events.Envelope
	topics    []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event events.Envelope) error {
	p.topics = append(p.topics, topic)
	p.published = append(p.published, event)
	return nil
}

type platformFixture struct {
	ledger  rewardledger.Module
	pool    bountypool.Module
	reports bugreport.Module
	board   leaderboard.Module
}

// newPlatformFixture wires the four always-on contexts together the way
// the composition root does, all against in-memory stores.
func newPlatformFixture() *platformFixture {
	ledgerModule := rewardledger.NewInMemoryModule(nil, nil)
	poolModule := bountypool.NewInMemoryModule(nil, fundingRecorder{ledger: ledgerModule.Service}, nil)

	history := &reportHistorySource{}
	boardModule := leaderboard.NewInMemoryModule(nil, history, acquiredCreditsSource{ledger: ledgerModule.Service}, nil)

	reportModule := bugreport.NewInMemoryModule(
		nil,
		poolGateway{pool: poolModule.Service},
		testerRewardLedger{ledger: ledgerModule.Service},
		boardModule.Service,
		nil,
	)
	history.store = reportModule.Store

	return &platformFixture{
		ledger:  ledgerModule,
		pool:    poolModule,
		reports: reportModule,
		board:   boardModule,
	}
}

func (f *platformFixture) seedAccount(userID string, name string) {
	f.ledger.Store.SeedAccount(ledgerports.UserAccount{UserID: userID, Name: name})
}

func (f *platformFixture) fundProject(t *testing.T, ownerID string, budget int64, critical, major, minor int64) pooltransport.ProjectResponse {
	t.Helper()
	project, err := f.pool.Handler.FundProjectHandler(context.Background(), ownerID, pooltransport.FundProjectRequest{
		Name:        "Checkout flow bounty",
		TotalBudget: budget,
		BugRewards:  pooltransport.BugRewardsPayload{Critical: critical, Major: major, Minor: minor},
	})
	if err != nil {
		t.Fatalf("fund project failed: %v", err)
	}
	return project
}

func (f *platformFixture) submitReport(t *testing.T, testerID string, projectID string, severity string, title string) reporttransport.BugReportResponse {
	t.Helper()
	report, err := f.reports.Handler.SubmitHandler(context.Background(), testerID, reporttransport.SubmitBugReportRequest{
		ProjectID:        projectID,
		Title:            title,
		Description:      "Adding the same voucher twice applies the discount twice and the order total goes negative on checkout.",
		StepsToReproduce: "Add a voucher, remove it, add the same voucher again, proceed to payment.",
		ExpectedBehavior: "The discount is applied exactly once.",
		ActualBehavior:   "The discount stacks and the total underflows.",
		Severity:         severity,
	})
	if err != nil {
		t.Fatalf("submit report failed: %v", err)
	}
	return report
}
