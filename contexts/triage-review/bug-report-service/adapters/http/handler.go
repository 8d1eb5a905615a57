package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"testquest/contexts/triage-review/bug-report-service/application"
	domainerrors "testquest/contexts/triage-review/bug-report-service/domain/errors"
	"testquest/contexts/triage-review/bug-report-service/ports"
	httptransport "testquest/contexts/triage-review/bug-report-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) SubmitHandler(
	ctx context.Context,
	submitterID string,
	req httptransport.SubmitBugReportRequest,
) (httptransport.BugReportResponse, error) {
	report, err := h.Service.Submit(ctx, ports.SubmitReportInput{
		ProjectID:        req.ProjectID,
		SubmittedBy:      submitterID,
		Title:            req.Title,
		Description:      req.Description,
		StepsToReproduce: req.StepsToReproduce,
		ExpectedBehavior: req.ExpectedBehavior,
		ActualBehavior:   req.ActualBehavior,
		Severity:         req.Severity,
	})
	if err != nil {
		return httptransport.BugReportResponse{}, err
	}
	return reportResponse(report), nil
}

// ActionHandler dispatches the triage action kinds on one endpoint and
// returns the updated report together with the project's remaining bounty.
func (h Handler) ActionHandler(
	ctx context.Context,
	reportID string,
	actorID string,
	req httptransport.BugReportActionRequest,
) (httptransport.BugReportActionResponse, error) {
	var (
		report ports.DisclosedReport
		err    error
	)
	switch strings.TrimSpace(strings.ToLower(req.Action)) {
	case "approve":
		report, err = h.Service.Approve(ctx, reportID, actorID, req.OverrideSeverity, req.Rating)
	case "reject":
		report, err = h.Service.Reject(ctx, reportID, actorID, req.Notes)
	case "resolve":
		report, err = h.Service.Resolve(ctx, reportID)
	case "reopen":
		report, err = h.Service.Reopen(ctx, reportID, req.Notes)
	case "update-reward":
		if req.RewardAmount == nil {
			return httptransport.BugReportActionResponse{}, domainerrors.ErrInvalidAmount
		}
		report, err = h.Service.UpdateReward(ctx, reportID, *req.RewardAmount)
	default:
		return httptransport.BugReportActionResponse{}, domainerrors.ErrInvalidAction
	}
	if err != nil {
		return httptransport.BugReportActionResponse{}, err
	}

	remaining, err := h.Service.RemainingBounty(ctx, report.ProjectID)
	if err != nil {
		return httptransport.BugReportActionResponse{}, err
	}
	return httptransport.BugReportActionResponse{
		Report:          reportResponse(report),
		RemainingBounty: remaining,
	}, nil
}

func (h Handler) DeleteHandler(ctx context.Context, reportID string, reason string) error {
	return h.Service.Delete(ctx, reportID, reason)
}

func (h Handler) GetReportHandler(ctx context.Context, reportID string) (httptransport.BugReportResponse, error) {
	report, err := h.Service.GetReport(ctx, reportID)
	if err != nil {
		return httptransport.BugReportResponse{}, err
	}
	return reportResponse(report), nil
}

func (h Handler) ListProjectReportsHandler(
	ctx context.Context,
	projectID string,
) (httptransport.BugReportListResponse, error) {
	reports, err := h.Service.ListProjectReports(ctx, projectID)
	if err != nil {
		return httptransport.BugReportListResponse{}, err
	}
	resp := httptransport.BugReportListResponse{
		Reports: make([]httptransport.BugReportResponse, 0, len(reports)),
	}
	for _, report := range reports {
		resp.Reports = append(resp.Reports, reportResponse(report))
	}
	return resp, nil
}

func reportResponse(report ports.DisclosedReport) httptransport.BugReportResponse {
	if report.IsBlurred {
		// Blurred reports expose only their envelope; the finding itself
		// stays hidden until the first report of that severity is decided.
		report.Description = ""
		report.StepsToReproduce = ""
		report.ExpectedBehavior = ""
		report.ActualBehavior = ""
	}
	return httptransport.BugReportResponse{
		ReportID:         report.ReportID,
		ProjectID:        report.ProjectID,
		SubmittedBy:      report.SubmittedBy,
		Title:            report.Title,
		Description:      report.Description,
		StepsToReproduce: report.StepsToReproduce,
		ExpectedBehavior: report.ExpectedBehavior,
		ActualBehavior:   report.ActualBehavior,
		Severity:         report.Severity,
		Status:           report.Status,
		Reward: httptransport.RewardResponse{
			Amount: report.Reward.Amount,
			Status: report.Reward.Status,
		},
		QualityScore:    report.QualityScore,
		DeveloperRating: report.DeveloperRating,
		AdminNotes:      report.AdminNotes,
		IsBlurred:       report.IsBlurred,
		BlurReason:      report.BlurReason,
		CreatedAt:       report.CreatedAt.UTC().Format(time.RFC3339),
	}
}
