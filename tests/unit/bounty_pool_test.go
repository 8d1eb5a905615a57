package unit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	pooldomainerrors "testquest/contexts/finance-core/bounty-pool/domain/errors"
	pooltransport "testquest/contexts/finance-core/bounty-pool/transport/http"
	ledgerports "testquest/contexts/finance-core/reward-ledger/ports"
)

func TestBountyPoolFundingSplitsFeeAndRecordsLedgerRows(t *testing.T) {
	f := newPlatformFixture()

	project := f.fundProject(t, "dev-1", 1000, 500, 200, 50)
	if project.PlatformFee != 150 || project.TotalBounty != 850 || project.RemainingBounty != 850 {
		t.Fatalf("unexpected funding split: %+v", project)
	}
	if project.Status != "approved" {
		t.Fatalf("expected approved project, got %q", project.Status)
	}

	if got := f.ledger.Store.CountTransactions(ledgerports.TransactionProjectFunding); got != 1 {
		t.Fatalf("expected one project_funding row, got %d", got)
	}
	if got := f.ledger.Store.CountTransactions(ledgerports.TransactionPlatformFee); got != 1 {
		t.Fatalf("expected one platform_fee row, got %d", got)
	}

	rows, err := f.ledger.Handler.ListProjectTransactionsHandler(context.Background(), project.ProjectID, 50, 0)
	if err != nil {
		t.Fatalf("list project transactions failed: %v", err)
	}
	if len(rows.Transactions) != 2 {
		t.Fatalf("expected two project rows, got %d", len(rows.Transactions))
	}
}

func TestBountyPoolAcceptsLegacyRewardString(t *testing.T) {
	f := newPlatformFixture()

	var req pooltransport.FundProjectRequest
	payload := []byte(`{
		"name": "Legacy import",
		"total_budget": 1000,
		"bug_rewards": "critical:500, major:200, minor:50"
	}`)
	if err := json.Unmarshal(payload, &req); err != nil {
		t.Fatalf("decode legacy payload failed: %v", err)
	}

	project, err := f.pool.Handler.FundProjectHandler(context.Background(), "dev-1", req)
	if err != nil {
		t.Fatalf("fund with legacy rewards failed: %v", err)
	}
	rewards := project.BugRewards
	if rewards.Critical != 500 || rewards.Major != 200 || rewards.Minor != 50 {
		t.Fatalf("legacy reward string parsed wrong: %+v", rewards)
	}
}

func TestBountyPoolRejectsMalformedLegacyRewardString(t *testing.T) {
	var req pooltransport.FundProjectRequest
	payload := []byte(`{"name": "Bad import", "total_budget": 1000, "bug_rewards": "critical=500"}`)
	if err := json.Unmarshal(payload, &req); err == nil {
		t.Fatalf("expected decode error for malformed legacy rewards")
	}
}

func TestBountyPoolRejectsUnderfundedBudget(t *testing.T) {
	f := newPlatformFixture()

	_, err := f.pool.Handler.FundProjectHandler(context.Background(), "dev-1", pooltransport.FundProjectRequest{
		Name:        "Too small",
		TotalBudget: 19,
		BugRewards:  pooltransport.BugRewardsPayload{Minor: 5},
	})
	if !errors.Is(err, pooldomainerrors.ErrInvalidFunding) {
		t.Fatalf("expected invalid funding, got %v", err)
	}
}

func TestBountyPoolListsFundedProjects(t *testing.T) {
	f := newPlatformFixture()
	f.fundProject(t, "dev-1", 1000, 500, 200, 50)
	f.fundProject(t, "dev-2", 400, 200, 100, 20)

	list, err := f.pool.Handler.ListProjectsHandler(context.Background(), 50, 0)
	if err != nil {
		t.Fatalf("list projects failed: %v", err)
	}
	if len(list.Projects) != 2 {
		t.Fatalf("expected two projects, got %d", len(list.Projects))
	}
}
