package unit

import (
	"context"
	"testing"

	reporttransport "testquest/contexts/triage-review/bug-report-service/transport/http"
)

func TestLeaderboardRanksTestersAcrossTheWorkflow(t *testing.T) {
	f := newPlatformFixture()
	f.seedAccount("tester-1", "Ada")
	f.seedAccount("tester-2", "Grace")
	project := f.fundProject(t, "dev-1", 2000, 500, 200, 50)
	ctx := context.Background()

	critical := f.submitReport(t, "tester-2", project.ProjectID, "critical", "Privilege escalation via stale token")
	minor := f.submitReport(t, "tester-1", project.ProjectID, "minor", "Broken link on help page")
	rejected := f.submitReport(t, "tester-1", project.ProjectID, "major", "Cannot reproduce this one")

	if _, err := f.reports.Handler.ActionHandler(ctx, critical.ReportID, "dev-1", reporttransport.BugReportActionRequest{
		Action: "approve",
		Rating: 5,
	}); err != nil {
		t.Fatalf("approve critical failed: %v", err)
	}
	if _, err := f.reports.Handler.ActionHandler(ctx, minor.ReportID, "dev-1", reporttransport.BugReportActionRequest{
		Action: "approve",
		Rating: 4,
	}); err != nil {
		t.Fatalf("approve minor failed: %v", err)
	}
	if _, err := f.reports.Handler.ActionHandler(ctx, rejected.ReportID, "dev-1", reporttransport.BugReportActionRequest{
		Action: "reject",
		Notes:  "not reproducible on any supported browser",
	}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	board, err := f.board.Handler.GetLeaderboardHandler(ctx)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(board.Rankings) != 2 {
		t.Fatalf("expected two ranked testers, got %d", len(board.Rankings))
	}

	top := board.Rankings[0]
	if top.UserID != "tester-2" || top.Rank != 1 {
		t.Fatalf("expected tester-2 on top, got %+v", top)
	}
	if top.TotalCreditsAcquired != 500 || top.TotalRewards != 500 {
		t.Fatalf("unexpected top money columns: %+v", top)
	}
	// One approval at 10 plus the critical bonus of 50.
	if top.ReputationScore != 60 {
		t.Fatalf("expected reputation 60, got %d", top.ReputationScore)
	}
	if !top.Badges.BugConqueror || !top.Badges.FirstBlood {
		t.Fatalf("expected rank and milestone badges on top tester: %+v", top.Badges)
	}

	second := board.Rankings[1]
	if second.UserID != "tester-1" || second.Rank != 2 {
		t.Fatalf("expected tester-1 second, got %+v", second)
	}
	if second.TotalBugReports != 2 || second.ApprovedBugReports != 1 {
		t.Fatalf("unexpected second-place counts: %+v", second)
	}
	if !second.Badges.BugMaster || second.Badges.BugConqueror {
		t.Fatalf("expected bug_master on second place: %+v", second.Badges)
	}

	stats := board.Statistics
	if stats.TotalActiveTesters != 2 || stats.TotalBugReports != 3 || stats.TotalRewardsPaid != 550 {
		t.Fatalf("unexpected statistics: %+v", stats)
	}
}

func TestLeaderboardProfileTracksLifecycleAndRatings(t *testing.T) {
	f := newPlatformFixture()
	f.seedAccount("tester-1", "Ada")
	project := f.fundProject(t, "dev-1", 1000, 500, 200, 50)
	ctx := context.Background()

	report := f.submitReport(t, "tester-1", project.ProjectID, "major", "Race on invoice numbering")
	if _, err := f.reports.Handler.ActionHandler(ctx, report.ReportID, "dev-1", reporttransport.BugReportActionRequest{
		Action: "approve",
		Rating: 4,
	}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	profile, err := f.board.Handler.GetProfileHandler(ctx, "tester-1")
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.Stats.TotalSubmitted != 1 || profile.Stats.TotalApproved != 1 {
		t.Fatalf("lifecycle counters wrong: %+v", profile.Stats)
	}
	if profile.Stats.TotalDeveloperRatings != 1 || profile.Stats.AverageDeveloperRating != 4 {
		t.Fatalf("rating not recorded: %+v", profile.Stats)
	}
	if !profile.Badges.FirstBlood {
		t.Fatalf("first approval must grant first blood: %+v", profile.Badges)
	}
}
