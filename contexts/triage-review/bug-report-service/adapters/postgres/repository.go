package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainerrors "testquest/contexts/triage-review/bug-report-service/domain/errors"
	"testquest/contexts/triage-review/bug-report-service/ports"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateReport(ctx context.Context, report ports.BugReport) error {
	row := bugReportModelFromEntity(report)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidReport
		}
		return r.logError("bug_report_repo_create_failed", err, "report_id", report.ReportID)
	}
	return nil
}

func (r *Repository) GetReport(ctx context.Context, reportID string) (ports.BugReport, error) {
	var row bugReportModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(reportID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.BugReport{}, domainerrors.ErrReportNotFound
		}
		return ports.BugReport{}, r.logError("bug_report_repo_get_failed", err, "report_id", strings.TrimSpace(reportID))
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateReport(ctx context.Context, report ports.BugReport) error {
	row := bugReportModelFromEntity(report)
	result := r.db.WithContext(ctx).
		Model(&bugReportModel{}).
		Where("id = ?", report.ReportID).
		Updates(map[string]any{
			"severity":         row.Severity,
			"status":           row.Status,
			"reward_amount":    row.RewardAmount,
			"reward_status":    row.RewardStatus,
			"developer_rating": row.DeveloperRating,
			"admin_notes":      row.AdminNotes,
			"updated_at":       row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("bug_report_repo_update_failed", result.Error, "report_id", report.ReportID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrReportNotFound
	}
	return nil
}

func (r *Repository) DeleteReport(ctx context.Context, reportID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(reportID)).
		Delete(&bugReportModel{})
	if result.Error != nil {
		return r.logError("bug_report_repo_delete_failed", result.Error, "report_id", strings.TrimSpace(reportID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrReportNotFound
	}
	return nil
}

func (r *Repository) ListProjectReports(ctx context.Context, projectID string) ([]ports.BugReport, error) {
	var rows []bugReportModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Order("created_at ASC, id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("bug_report_repo_list_project_failed", err, "project_id", strings.TrimSpace(projectID))
	}
	return reportsFromModels(rows), nil
}

func (r *Repository) ListAllReports(ctx context.Context) ([]ports.BugReport, error) {
	var rows []bugReportModel
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("bug_report_repo_list_all_failed", err)
	}
	return reportsFromModels(rows), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := envelopePayload(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		ID:        strings.TrimSpace(envelope.EventID),
		EventType: envelope.EventType,
		EntityID:  envelope.EntityID,
		Payload:   payload,
		Status:    "pending",
		CreatedAt: envelope.OccurredAtUTC.UTC(),
	}
	if row.ID == "" {
		return domainerrors.ErrInvalidReport
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		// The same event replayed is fine; the first append won.
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("bug_report_repo_append_outbox_failed", err, "outbox_id", row.ID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("bug_report_repo_list_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.ID,
			EventType: row.EventType,
			EntityID:  row.EntityID,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	ts := publishedAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       "published",
			"published_at": &ts,
		})
	if result.Error != nil {
		return r.logError("bug_report_repo_mark_outbox_failed", result.Error, "outbox_id", strings.TrimSpace(outboxID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrReportNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "triage-review/bug-report-service",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("bug report repository failure", fields...)
	return err
}

func envelopePayload(envelope ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(envelope)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type bugReportModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	ProjectID        string    `gorm:"column:project_id"`
	SubmittedBy      string    `gorm:"column:submitted_by"`
	Title            string    `gorm:"column:title"`
	Description      string    `gorm:"column:description"`
	StepsToReproduce string    `gorm:"column:steps_to_reproduce"`
	ExpectedBehavior string    `gorm:"column:expected_behavior"`
	ActualBehavior   string    `gorm:"column:actual_behavior"`
	Severity         string    `gorm:"column:severity"`
	Status           string    `gorm:"column:status"`
	RewardAmount     int64     `gorm:"column:reward_amount"`
	RewardStatus     string    `gorm:"column:reward_status"`
	QualityScore     int       `gorm:"column:quality_score"`
	DeveloperRating  int       `gorm:"column:developer_rating"`
	AdminNotes       string    `gorm:"column:admin_notes"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (bugReportModel) TableName() string {
	return "bug_reports"
}

func bugReportModelFromEntity(report ports.BugReport) bugReportModel {
	return bugReportModel{
		ID:               report.ReportID,
		ProjectID:        report.ProjectID,
		SubmittedBy:      report.SubmittedBy,
		Title:            report.Title,
		Description:      report.Description,
		StepsToReproduce: report.StepsToReproduce,
		ExpectedBehavior: report.ExpectedBehavior,
		ActualBehavior:   report.ActualBehavior,
		Severity:         report.Severity,
		Status:           report.Status,
		RewardAmount:     report.Reward.Amount,
		RewardStatus:     report.Reward.Status,
		QualityScore:     report.QualityScore,
		DeveloperRating:  report.DeveloperRating,
		AdminNotes:       report.AdminNotes,
		CreatedAt:        report.CreatedAt.UTC(),
		UpdatedAt:        report.UpdatedAt.UTC(),
	}
}

func (m bugReportModel) toEntity() ports.BugReport {
	return ports.BugReport{
		ReportID:         m.ID,
		ProjectID:        m.ProjectID,
		SubmittedBy:      m.SubmittedBy,
		Title:            m.Title,
		Description:      m.Description,
		StepsToReproduce: m.StepsToReproduce,
		ExpectedBehavior: m.ExpectedBehavior,
		ActualBehavior:   m.ActualBehavior,
		Severity:         m.Severity,
		Status:           m.Status,
		Reward: ports.Reward{
			Amount: m.RewardAmount,
			Status: m.RewardStatus,
		},
		QualityScore:    m.QualityScore,
		DeveloperRating: m.DeveloperRating,
		AdminNotes:      m.AdminNotes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func reportsFromModels(rows []bugReportModel) []ports.BugReport {
	items := make([]ports.BugReport, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type outboxModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	EntityID    string     `gorm:"column:entity_id"`
	Payload     []byte     `gorm:"column:payload;type:jsonb"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "bug_report_outbox"
}
