package application

import (
	"sort"

	"testquest/contexts/triage-review/bug-report-service/ports"
)

// Disclose applies the sequencing rule to a project's reports: within each
// severity, only the earliest-created pending report is open for review;
// every later pending report of that severity is blurred until the first
// one is decided. Non-pending reports are always visible. The verdict is
// derived from the snapshot passed in, never cached.
func Disclose(reports []ports.BugReport) []ports.DisclosedReport {
	ordered := make([]ports.BugReport, len(reports))
	copy(ordered, reports)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ReportID < ordered[j].ReportID
	})

	firstPending := make(map[string]string, 3)
	for _, report := range ordered {
		if report.Status != ports.ReportStatusPending {
			continue
		}
		if _, ok := firstPending[report.Severity]; !ok {
			firstPending[report.Severity] = report.ReportID
		}
	}

	disclosed := make([]ports.DisclosedReport, 0, len(ordered))
	for _, report := range ordered {
		item := ports.DisclosedReport{BugReport: report}
		if report.Status == ports.ReportStatusPending && firstPending[report.Severity] != report.ReportID {
			item.IsBlurred = true
			item.BlurReason = "Waiting for first " + report.Severity + " bug to be reviewed"
		}
		disclosed = append(disclosed, item)
	}
	return disclosed
}
