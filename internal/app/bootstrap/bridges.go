package bootstrap

import (
	"context"
	"errors"

	leaderboardports "testquest/contexts/community-experience/leaderboard-service/ports"
	poolapplication "testquest/contexts/finance-core/bounty-pool/application"
	pooldomainerrors "testquest/contexts/finance-core/bounty-pool/domain/errors"
	poolports "testquest/contexts/finance-core/bounty-pool/ports"
	ledgerapplication "testquest/contexts/finance-core/reward-ledger/application"
	ledgerdomainerrors "testquest/contexts/finance-core/reward-ledger/domain/errors"
	ledgerports "testquest/contexts/finance-core/reward-ledger/ports"
	withdrawaldomainerrors "testquest/contexts/finance-core/withdrawal-service/domain/errors"
	withdrawalports "testquest/contexts/finance-core/withdrawal-service/ports"
	reportdomainerrors "testquest/contexts/triage-review/bug-report-service/domain/errors"
	reportports "testquest/contexts/triage-review/bug-report-service/ports"
)

// The bounded contexts stay import-isolated: each declares the ports it
// needs and the composition root carries these adapters between them,
// translating sentinel errors at the boundary.

// ledgerFundingRecorder feeds funding and platform-fee rows from the bounty
// pool into the reward ledger as balance-neutral transactions.
type ledgerFundingRecorder struct {
	ledger ledgerapplication.Service
}

func (a ledgerFundingRecorder) RecordFunding(ctx context.Context, entry poolports.FundingEntry) error {
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

// projectGateway exposes the bounty pool to the bug-report service.
type projectGateway struct {
	pool poolapplication.Service
}

func (a projectGateway) GetProject(ctx context.Context, projectID string) (reportports.ProjectSnapshot, error) {
	project, err := a.pool.GetProject(ctx, projectID)
	if err != nil {
		return reportports.ProjectSnapshot{}, translatePoolError(err)
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

func (a projectGateway) ApplyBounty(ctx context.Context, projectID string, amount int64) error {
	_, err := a.pool.Apply(ctx, projectID, amount)
	return translatePoolError(err)
}

func (a projectGateway) ReleaseBounty(ctx context.Context, projectID string, amount int64) error {
	_, err := a.pool.Release(ctx, projectID, amount)
	return translatePoolError(err)
}

func translatePoolError(err error) error {
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

// rewardLedger lets the bug-report service move tester credits. Reward
// credits count as earnings so reversals must subtract them again.
type rewardLedger struct {
	ledger ledgerapplication.Service
}

func (a rewardLedger) CreditReward(ctx context.Context, entry reportports.RewardEntry) error {
	_, _, err := a.ledger.Credit(ctx, ledgerports.EntryInput{
		Type:             entry.Type,
		UserID:           entry.UserID,
		ProjectID:        entry.ProjectID,
		ReportID:         entry.ReportID,
		Amount:           entry.Amount,
		Description:      entry.Description,
		CountsAsEarnings: true,
	})
	return translateLedgerError(err)
}

func (a rewardLedger) DebitReward(ctx context.Context, entry reportports.RewardEntry) error {
	_, _, err := a.ledger.Debit(ctx, ledgerports.EntryInput{
		Type:             entry.Type,
		UserID:           entry.UserID,
		ProjectID:        entry.ProjectID,
		ReportID:         entry.ReportID,
		Amount:           entry.Amount,
		Description:      entry.Description,
		CountsAsEarnings: true,
	})
	return translateLedgerError(err)
}

func translateLedgerError(err error) error {
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

// withdrawalLedger moves balances for withdrawal requests. Withdrawals do
// not touch lifetime earnings.
type withdrawalLedger struct {
	ledger ledgerapplication.Service
}

func (a withdrawalLedger) BalanceOf(ctx context.Context, userID string) (int64, error) {
	account, err := a.ledger.GetAccount(ctx, userID)
	if errors.Is(err, ledgerdomainerrors.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (a withdrawalLedger) DebitWithdrawal(ctx context.Context, entry withdrawalports.WithdrawalEntry) error {
	_, _, err := a.ledger.Debit(ctx, ledgerports.EntryInput{
		Type:         "withdrawal",
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

func (a withdrawalLedger) RefundWithdrawal(ctx context.Context, entry withdrawalports.WithdrawalEntry) error {
	_, _, err := a.ledger.Credit(ctx, ledgerports.EntryInput{
		Type:         "withdrawal_refund",
		UserID:       entry.UserID,
		WithdrawalID: entry.WithdrawalID,
		Amount:       entry.Amount,
		Description:  entry.Description,
	})
	return err
}

// reportHistory feeds the full triage record into leaderboard computation.
type reportHistory struct {
	reports reportports.Repository
}

func (a reportHistory) ListAllReports(ctx context.Context) ([]leaderboardports.ReportRecord, error) {
	reports, err := a.reports.ListAllReports(ctx)
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

// creditsReader surfaces lifetime acquired credits for ranking. Testers
// with no ledger account yet rank with zero credits.
type creditsReader struct {
	ledger ledgerapplication.Service
}

func (a creditsReader) TotalCreditsAcquired(ctx context.Context, userID string) (int64, error) {
	account, err := a.ledger.GetAccount(ctx, userID)
	if errors.Is(err, ledgerdomainerrors.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.TotalCreditsAcquired, nil
}
