package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	domainerrors "testquest/contexts/triage-review/bug-report-service/domain/errors"
	"testquest/contexts/triage-review/bug-report-service/ports"
)

const (
	baseQualityScore = 5
	maxQualityScore  = 10

	minDeveloperRating = 1
	maxDeveloperRating = 5
)

// Service drives the triage state machine: pending reports are approved or
// rejected, approved reports resolve and reopen, and every money-affecting
// transition pairs a bounty-pool movement with a ledger entry.
type Service struct {
	Repo     ports.Repository
	Projects ports.ProjectGateway
	Ledger   ports.Ledger
	Profiles ports.TesterProfiles
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

// Submit files a pending report against an approved project. The quality
// score is computed once at submission from how complete the write-up is.
func (s Service) Submit(ctx context.Context, input ports.SubmitReportInput) (ports.DisclosedReport, error) {
	input.ProjectID = strings.TrimSpace(input.ProjectID)
	input.SubmittedBy = strings.TrimSpace(input.SubmittedBy)
	input.Title = strings.TrimSpace(input.Title)
	input.Severity = strings.TrimSpace(strings.ToLower(input.Severity))

	if input.ProjectID == "" || input.SubmittedBy == "" || input.Title == "" {
		return ports.DisclosedReport{}, domainerrors.ErrInvalidReport
	}
	if !ports.ValidSeverity(input.Severity) {
		return ports.DisclosedReport{}, domainerrors.ErrInvalidSeverity
	}

	project, err := s.Projects.GetProject(ctx, input.ProjectID)
	if err != nil {
		return ports.DisclosedReport{}, err
	}
	if project.Status != "approved" {
		return ports.DisclosedReport{}, domainerrors.ErrProjectNotOpen
	}

	reportID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.DisclosedReport{}, err
	}
	now := s.now()

	report := ports.BugReport{
		ReportID:         strings.TrimSpace(reportID),
		ProjectID:        input.ProjectID,
		SubmittedBy:      input.SubmittedBy,
		Title:            input.Title,
		Description:      strings.TrimSpace(input.Description),
		StepsToReproduce: strings.TrimSpace(input.StepsToReproduce),
		ExpectedBehavior: strings.TrimSpace(input.ExpectedBehavior),
		ActualBehavior:   strings.TrimSpace(input.ActualBehavior),
		Severity:         input.Severity,
		Status:           ports.ReportStatusPending,
		Reward: ports.Reward{
			Amount: project.Rewards.ForSeverity(input.Severity),
			Status: ports.RewardStatusPending,
		},
		QualityScore: scoreQuality(input),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Repo.CreateReport(ctx, report); err != nil {
		return ports.DisclosedReport{}, err
	}

	s.notifyProfiles("submitted", func() error {
		return s.Profiles.OnReportSubmitted(ctx, report.SubmittedBy)
	})

	ResolveLogger(s.Logger).Info("bug report submitted",
		"event", "bug_report_submitted",
		"module", "triage-review/bug-report-service",
		"layer", "application",
		"report_id", report.ReportID,
		"project_id", report.ProjectID,
		"severity", report.Severity,
		"quality_score", report.QualityScore,
	)
	return s.annotate(ctx, report)
}

// Approve pays the reward for a pending report. The pool is drawn first so
// an insufficient bounty aborts before any tester-visible state changes;
// the report stays pending in that case.
func (s Service) Approve(
	ctx context.Context,
	reportID string,
	actorID string,
	overrideSeverity string,
	rating int,
) (ports.DisclosedReport, error) {
	overrideSeverity = strings.TrimSpace(strings.ToLower(overrideSeverity))
	if overrideSeverity != "" && !ports.ValidSeverity(overrideSeverity) {
		return ports.DisclosedReport{}, domainerrors.ErrInvalidSeverity
	}
	if rating != 0 && (rating < minDeveloperRating || rating > maxDeveloperRating) {
		return ports.DisclosedReport{}, domainerrors.ErrInvalidRating
	}

	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return ports.DisclosedReport{}, err
	}
	if report.Status != ports.ReportStatusPending {
		return ports.DisclosedReport{}, domainerrors.ErrReportNotPending
	}

	effectiveSeverity := report.Severity
	if overrideSeverity != "" {
		effectiveSeverity = overrideSeverity
	}

	project, err := s.Projects.GetProject(ctx, report.ProjectID)
	if err != nil {
		return ports.DisclosedReport{}, err
	}
	amount := project.Rewards.ForSeverity(effectiveSeverity)

	if amount > 0 {
		if err := s.Projects.ApplyBounty(ctx, report.ProjectID, amount); err != nil {
			return ports.DisclosedReport{}, err
		}
		if err := s.Ledger.CreditReward(ctx, ports.RewardEntry{
			Type:        "bug_reward",
			UserID:      report.SubmittedBy,
			ProjectID:   report.ProjectID,
			ReportID:    report.ReportID,
			Amount:      amount,
			Description: "Reward for bug report: " + report.Title,
		}); err != nil {
			s.compensate(report.ReportID, "approve_credit_failed", func() error {
				return s.Projects.ReleaseBounty(ctx, report.ProjectID, amount)
			})
			return ports.DisclosedReport{}, err
		}
	}

	report.Status = ports.ReportStatusApproved
	report.Severity = effectiveSeverity
	report.Reward = ports.Reward{Amount: amount, Status: ports.RewardStatusPaid}
	if rating != 0 {
		report.DeveloperRating = rating
	}
	report.UpdatedAt = s.now()

	if err := s.Repo.UpdateReport(ctx, report); err != nil {
		if amount > 0 {
			s.compensate(report.ReportID, "approve_save_failed", func() error {
				if debitErr := s.Ledger.DebitReward(ctx, ports.RewardEntry{
					Type:        "reward_reversal",
					UserID:      report.SubmittedBy,
					ProjectID:   report.ProjectID,
					ReportID:    report.ReportID,
					Amount:      amount,
					Description: "Reversal of unsaved approval for bug report: " + report.Title,
				}); debitErr != nil {
					return debitErr
				}
				return s.Projects.ReleaseBounty(ctx, report.ProjectID, amount)
			})
		}
		return ports.DisclosedReport{}, err
	}

	s.notifyProfiles("approved", func() error {
		return s.Profiles.OnReportApproved(ctx, report.SubmittedBy, effectiveSeverity)
	})
	if rating != 0 {
		s.notifyProfiles("rated", func() error {
			return s.Profiles.RecordDeveloperRating(ctx, report.SubmittedBy, rating)
		})
	}
	s.appendReportApprovedOutbox(ctx, report, actorID)

	ResolveLogger(s.Logger).Info("bug report approved",
		"event", "bug_report_approved",
		"module", "triage-review/bug-report-service",
		"layer", "application",
		"report_id", report.ReportID,
		"project_id", report.ProjectID,
		"actor_id", strings.TrimSpace(actorID),
		"effective_severity", effectiveSeverity,
		"reward_amount", amount,
	)
	return s.annotate(ctx, report)
}

// Reject closes a pending report without payment. A reason is mandatory so
// the tester learns why.
func (s Service) Reject(ctx context.Context, reportID string, actorID string, reason string) (ports.DisclosedReport, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ports.DisclosedReport{}, domainerrors.ErrMissingReason
	}

	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return ports.DisclosedReport{}, err
	}
	if report.Status != ports.ReportStatusPending {
		return ports.DisclosedReport{}, domainerrors.ErrReportNotPending
	}

	report.Status = ports.ReportStatusRejected
	report.AdminNotes = reason
	report.UpdatedAt = s.now()
	if err := s.Repo.UpdateReport(ctx, report); err != nil {
		return ports.DisclosedReport{}, err
	}

	s.notifyProfiles("rejected", func() error {
		return s.Profiles.OnReportRejected(ctx, report.SubmittedBy)
	})

	ResolveLogger(s.Logger).Info("bug report rejected",
		"event", "bug_report_rejected",
		"module", "triage-review/bug-report-service",
		"layer", "application",
		"report_id", report.ReportID,
		"actor_id", strings.TrimSpace(actorID),
	)
	return s.annotate(ctx, report)
}

// Resolve marks an approved report as fixed. No money moves.
func (s Service) Resolve(ctx context.Context, reportID string) (ports.DisclosedReport, error) {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return ports.DisclosedReport{}, err
	}
	if report.Status != ports.ReportStatusApproved {
		return ports.DisclosedReport{}, domainerrors.ErrReportNotApproved
	}

	report.Status = ports.ReportStatusResolved
	report.UpdatedAt = s.now()
	if err := s.Repo.UpdateReport(ctx, report); err != nil {
		return ports.DisclosedReport{}, err
	}
	return s.annotate(ctx, report)
}

// Reopen returns a resolved report to approved, typically when the fix did
// not hold. The reward already paid stays paid.
func (s Service) Reopen(ctx context.Context, reportID string, reason string) (ports.DisclosedReport, error) {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return ports.DisclosedReport{}, err
	}
	if report.Status != ports.ReportStatusResolved {
		return ports.DisclosedReport{}, domainerrors.ErrReportNotResolved
	}

	report.Status = ports.ReportStatusApproved
	if reason = strings.TrimSpace(reason); reason != "" {
		report.AdminNotes = reason
	}
	report.UpdatedAt = s.now()
	if err := s.Repo.UpdateReport(ctx, report); err != nil {
		return ports.DisclosedReport{}, err
	}
	return s.annotate(ctx, report)
}

// UpdateReward moves an already-paid reward to newAmount. Increases draw
// the delta from the pool and credit the tester; decreases debit the tester
// first, so an uncovered balance aborts before the pool is touched.
func (s Service) UpdateReward(ctx context.Context, reportID string, newAmount int64) (ports.DisclosedReport, error) {
	if newAmount < 0 {
		return ports.DisclosedReport{}, domainerrors.ErrInvalidAmount
	}

	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return ports.DisclosedReport{}, err
	}
	if report.Status != ports.ReportStatusApproved && report.Status != ports.ReportStatusResolved {
		return ports.DisclosedReport{}, domainerrors.ErrRewardNotAdjustable
	}

	delta := newAmount - report.Reward.Amount
	if delta == 0 {
		return s.annotate(ctx, report)
	}

	if delta > 0 {
		if err := s.Projects.ApplyBounty(ctx, report.ProjectID, delta); err != nil {
			return ports.DisclosedReport{}, err
		}
		if err := s.Ledger.CreditReward(ctx, ports.RewardEntry{
			Type:        "reward_adjustment",
			UserID:      report.SubmittedBy,
			ProjectID:   report.ProjectID,
			ReportID:    report.ReportID,
			Amount:      delta,
			Description: "Reward increase for bug report: " + report.Title,
		}); err != nil {
			s.compensate(report.ReportID, "adjustment_credit_failed", func() error {
				return s.Projects.ReleaseBounty(ctx, report.ProjectID, delta)
			})
			return ports.DisclosedReport{}, err
		}
	} else {
		if err := s.Ledger.DebitReward(ctx, ports.RewardEntry{
			Type:        "reward_adjustment",
			UserID:      report.SubmittedBy,
			ProjectID:   report.ProjectID,
			ReportID:    report.ReportID,
			Amount:      -delta,
			Description: "Reward decrease for bug report: " + report.Title,
		}); err != nil {
			return ports.DisclosedReport{}, err
		}
		if err := s.Projects.ReleaseBounty(ctx, report.ProjectID, -delta); err != nil {
			s.compensate(report.ReportID, "adjustment_release_failed", func() error {
				return s.Ledger.CreditReward(ctx, ports.RewardEntry{
					Type:        "reward_adjustment",
					UserID:      report.SubmittedBy,
					ProjectID:   report.ProjectID,
					ReportID:    report.ReportID,
					Amount:      -delta,
					Description: "Re-credit after failed pool release for bug report: " + report.Title,
				})
			})
			return ports.DisclosedReport{}, err
		}
	}

	report.Reward.Amount = newAmount
	report.UpdatedAt = s.now()
	if err := s.Repo.UpdateReport(ctx, report); err != nil {
		return ports.DisclosedReport{}, err
	}

	ResolveLogger(s.Logger).Info("bug report reward updated",
		"event", "bug_report_reward_updated",
		"module", "triage-review/bug-report-service",
		"layer", "application",
		"report_id", report.ReportID,
		"delta", delta,
		"new_amount", newAmount,
	)
	return s.annotate(ctx, report)
}

// Delete removes a report administratively. A paid reward is unwound first:
// the tester is debited and the pool refunded, so the ledger stays balanced.
func (s Service) Delete(ctx context.Context, reportID string, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return domainerrors.ErrMissingReason
	}

	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return err
	}

	paid := report.Reward.Status == ports.RewardStatusPaid && report.Reward.Amount > 0
	if paid {
		if err := s.Ledger.DebitReward(ctx, ports.RewardEntry{
			Type:        "reward_reversal",
			UserID:      report.SubmittedBy,
			ProjectID:   report.ProjectID,
			ReportID:    report.ReportID,
			Amount:      report.Reward.Amount,
			Description: "Reversal for deleted bug report: " + report.Title,
		}); err != nil {
			return err
		}
		if err := s.Projects.ReleaseBounty(ctx, report.ProjectID, report.Reward.Amount); err != nil {
			s.compensate(report.ReportID, "delete_release_failed", func() error {
				return s.Ledger.CreditReward(ctx, ports.RewardEntry{
					Type:        "reward_reversal",
					UserID:      report.SubmittedBy,
					ProjectID:   report.ProjectID,
					ReportID:    report.ReportID,
					Amount:      report.Reward.Amount,
					Description: "Re-credit after failed pool refund for bug report: " + report.Title,
				})
			})
			return err
		}
	}

	if err := s.Repo.DeleteReport(ctx, report.ReportID); err != nil {
		if paid {
			s.compensate(report.ReportID, "delete_remove_failed", func() error {
				if creditErr := s.Ledger.CreditReward(ctx, ports.RewardEntry{
					Type:        "reward_reversal",
					UserID:      report.SubmittedBy,
					ProjectID:   report.ProjectID,
					ReportID:    report.ReportID,
					Amount:      report.Reward.Amount,
					Description: "Re-credit after failed deletion of bug report: " + report.Title,
				}); creditErr != nil {
					return creditErr
				}
				return s.Projects.ApplyBounty(ctx, report.ProjectID, report.Reward.Amount)
			})
		}
		return err
	}

	ResolveLogger(s.Logger).Info("bug report deleted",
		"event", "bug_report_deleted",
		"module", "triage-review/bug-report-service",
		"layer", "application",
		"report_id", report.ReportID,
		"project_id", report.ProjectID,
		"reward_reversed", paid,
	)
	return nil
}

func (s Service) GetReport(ctx context.Context, reportID string) (ports.DisclosedReport, error) {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return ports.DisclosedReport{}, err
	}
	return s.annotate(ctx, report)
}

// ListProjectReports returns the project's reports annotated by the
// disclosure sequencer, computed from the snapshot just loaded.
func (s Service) ListProjectReports(ctx context.Context, projectID string) ([]ports.DisclosedReport, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, domainerrors.ErrProjectNotFound
	}
	reports, err := s.Repo.ListProjectReports(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return Disclose(reports), nil
}

// RemainingBounty reports the project's current pool, returned to callers
// alongside triage decisions.
func (s Service) RemainingBounty(ctx context.Context, projectID string) (int64, error) {
	project, err := s.Projects.GetProject(ctx, strings.TrimSpace(projectID))
	if err != nil {
		return 0, err
	}
	return project.RemainingBounty, nil
}

func (s Service) getReport(ctx context.Context, reportID string) (ports.BugReport, error) {
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return ports.BugReport{}, domainerrors.ErrReportNotFound
	}
	return s.Repo.GetReport(ctx, reportID)
}

// annotate recomputes disclosure for the report's project from the current
// snapshot and returns the annotated view of this one report.
func (s Service) annotate(ctx context.Context, report ports.BugReport) (ports.DisclosedReport, error) {
	reports, err := s.Repo.ListProjectReports(ctx, report.ProjectID)
	if err != nil {
		return ports.DisclosedReport{}, err
	}
	for _, disclosed := range Disclose(reports) {
		if disclosed.ReportID == report.ReportID {
			return disclosed, nil
		}
	}
	return ports.DisclosedReport{BugReport: report}, nil
}

// notifyProfiles shields the triage decision from profile bookkeeping
// failures; the decision already committed.
func (s Service) notifyProfiles(stage string, fn func() error) {
	if s.Profiles == nil {
		return
	}
	if err := fn(); err != nil {
		ResolveLogger(s.Logger).Warn("tester profile update failed",
			"event", "bug_report_profile_update_failed",
			"module", "triage-review/bug-report-service",
			"layer", "application",
			"stage", stage,
			"error", err.Error(),
		)
	}
}

func (s Service) compensate(reportID string, stage string, fn func() error) {
	if err := fn(); err != nil {
		ResolveLogger(s.Logger).Error("compensation failed, ledger needs manual review",
			"event", "bug_report_compensation_failed",
			"module", "triage-review/bug-report-service",
			"layer", "application",
			"report_id", reportID,
			"stage", stage,
			"error", err.Error(),
		)
	}
}

func (s Service) appendReportApprovedOutbox(ctx context.Context, report ports.BugReport, actorID string) {
	if s.Outbox == nil {
		return
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"report_id":     report.ReportID,
		"project_id":    report.ProjectID,
		"submitted_by":  report.SubmittedBy,
		"severity":      report.Severity,
		"reward_amount": report.Reward.Amount,
		"approved_by":   strings.TrimSpace(actorID),
		"approved_at":   report.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:        strings.TrimSpace(eventID),
		EventType:      "report.approved",
		SourceService:  "bug-report-service",
		OccurredAtUTC:  report.UpdatedAt.UTC(),
		CorrelationID:  report.ReportID,
		EntityType:     "bug_report",
		EntityID:       report.ReportID,
		PayloadVersion: 1,
		Payload:        json.RawMessage(payload),
	}); err != nil {
		ResolveLogger(s.Logger).Warn("outbox append failed",
			"event", "bug_report_outbox_append_failed",
			"module", "triage-review/bug-report-service",
			"layer", "application",
			"report_id", report.ReportID,
			"error", err.Error(),
		)
	}
}

// scoreQuality rates how complete a submission is: base 5, one point per
// substantial section, capped at 10.
func scoreQuality(input ports.SubmitReportInput) int {
	score := baseQualityScore
	if len(strings.TrimSpace(input.Description)) > 100 {
		score++
	}
	if len(strings.TrimSpace(input.StepsToReproduce)) > 50 {
		score++
	}
	if len(strings.TrimSpace(input.ExpectedBehavior)) > 30 {
		score++
	}
	if len(strings.TrimSpace(input.ActualBehavior)) > 30 {
		score++
	}
	if score > maxQualityScore {
		score = maxQualityScore
	}
	return score
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
