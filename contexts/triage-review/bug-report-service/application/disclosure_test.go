package application

import (
	"testing"
	"time"

	"testquest/contexts/triage-review/bug-report-service/ports"
)

func disclosureFixture() []ports.BugReport {
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	return []ports.BugReport{
		{ReportID: "r-3", ProjectID: "proj-1", Severity: ports.SeverityCritical, Status: ports.ReportStatusPending, CreatedAt: base.Add(2 * time.Minute)},
		{ReportID: "r-1", ProjectID: "proj-1", Severity: ports.SeverityCritical, Status: ports.ReportStatusPending, CreatedAt: base},
		{ReportID: "r-2", ProjectID: "proj-1", Severity: ports.SeverityMajor, Status: ports.ReportStatusPending, CreatedAt: base.Add(time.Minute)},
		{ReportID: "r-4", ProjectID: "proj-1", Severity: ports.SeverityCritical, Status: ports.ReportStatusApproved, CreatedAt: base.Add(3 * time.Minute)},
		{ReportID: "r-5", ProjectID: "proj-1", Severity: ports.SeverityMinor, Status: ports.ReportStatusRejected, CreatedAt: base.Add(4 * time.Minute)},
	}
}

func byID(t *testing.T, items []ports.DisclosedReport, reportID string) ports.DisclosedReport {
	t.Helper()
	for _, item := range items {
		if item.ReportID == reportID {
			return item
		}
	}
	t.Fatalf("report %s missing from disclosure output", reportID)
	return ports.DisclosedReport{}
}

func TestDiscloseBlursLaterPendingOfSameSeverity(t *testing.T) {
	disclosed := Disclose(disclosureFixture())

	first := byID(t, disclosed, "r-1")
	if first.IsBlurred {
		t.Fatalf("earliest pending critical must stay visible")
	}
	later := byID(t, disclosed, "r-3")
	if !later.IsBlurred {
		t.Fatalf("later pending critical must be blurred")
	}
	if later.BlurReason != "Waiting for first critical bug to be reviewed" {
		t.Fatalf("unexpected blur reason %q", later.BlurReason)
	}
}

func TestDiscloseTracksSeveritiesIndependently(t *testing.T) {
	disclosed := Disclose(disclosureFixture())

	major := byID(t, disclosed, "r-2")
	if major.IsBlurred {
		t.Fatalf("only pending major must stay visible")
	}
}

func TestDiscloseNeverBlursDecidedReports(t *testing.T) {
	disclosed := Disclose(disclosureFixture())

	if byID(t, disclosed, "r-4").IsBlurred {
		t.Fatalf("approved report must not be blurred")
	}
	if byID(t, disclosed, "r-5").IsBlurred {
		t.Fatalf("rejected report must not be blurred")
	}
}

func TestDiscloseOrdersByCreationTime(t *testing.T) {
	disclosed := Disclose(disclosureFixture())

	if disclosed[0].ReportID != "r-1" || disclosed[1].ReportID != "r-2" {
		t.Fatalf("expected creation-time ordering, got %s then %s", disclosed[0].ReportID, disclosed[1].ReportID)
	}
}

func TestDiscloseBreaksCreatedAtTiesByReportID(t *testing.T) {
	created := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	disclosed := Disclose([]ports.BugReport{
		{ReportID: "r-b", ProjectID: "proj-1", Severity: ports.SeverityMinor, Status: ports.ReportStatusPending, CreatedAt: created},
		{ReportID: "r-a", ProjectID: "proj-1", Severity: ports.SeverityMinor, Status: ports.ReportStatusPending, CreatedAt: created},
	})

	if disclosed[0].ReportID != "r-a" {
		t.Fatalf("expected r-a first on equal timestamps, got %s", disclosed[0].ReportID)
	}
	if disclosed[0].IsBlurred || !disclosed[1].IsBlurred {
		t.Fatalf("expected r-a visible and r-b blurred")
	}
}
