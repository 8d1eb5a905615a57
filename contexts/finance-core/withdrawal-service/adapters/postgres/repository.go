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

	domainerrors "testquest/contexts/finance-core/withdrawal-service/domain/errors"
	"testquest/contexts/finance-core/withdrawal-service/ports"
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

func (r *Repository) CreateWithdrawal(ctx context.Context, request ports.WithdrawalRequest) error {
	row := withdrawalModelFromEntity(request)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidWithdrawal
		}
		return r.logError("withdrawal_repo_create_failed", err, "withdrawal_id", request.WithdrawalID)
	}
	return nil
}

func (r *Repository) GetWithdrawal(ctx context.Context, withdrawalID string) (ports.WithdrawalRequest, error) {
	var row withdrawalModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(withdrawalID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.WithdrawalRequest{}, domainerrors.ErrWithdrawalNotFound
		}
		return ports.WithdrawalRequest{}, r.logError("withdrawal_repo_get_failed", err, "withdrawal_id", strings.TrimSpace(withdrawalID))
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateWithdrawal(ctx context.Context, request ports.WithdrawalRequest) error {
	row := withdrawalModelFromEntity(request)
	result := r.db.WithContext(ctx).
		Model(&withdrawalModel{}).
		Where("id = ?", request.WithdrawalID).
		Updates(map[string]any{
			"status":         row.Status,
			"admin_notes":    row.AdminNotes,
			"failure_reason": row.FailureReason,
			"processed_at":   row.ProcessedAt,
			"completed_at":   row.CompletedAt,
			"updated_at":     row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("withdrawal_repo_update_failed", result.Error, "withdrawal_id", request.WithdrawalID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrWithdrawalNotFound
	}
	return nil
}

func (r *Repository) ListUserWithdrawals(ctx context.Context, userID string, limit int, offset int) ([]ports.WithdrawalRequest, error) {
	var rows []withdrawalModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("withdrawal_repo_list_user_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return withdrawalsFromModels(rows), nil
}

func (r *Repository) ListStuckProcessing(ctx context.Context, cutoff time.Time, limit int) ([]ports.WithdrawalRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []withdrawalModel
	err := r.db.WithContext(ctx).
		Where("status = ?", ports.WithdrawalStatusProcessing).
		Where("processed_at IS NOT NULL AND processed_at < ?", cutoff.UTC()).
		Order("processed_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("withdrawal_repo_list_stuck_failed", err)
	}
	return withdrawalsFromModels(rows), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
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
		return domainerrors.ErrInvalidWithdrawal
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("withdrawal_repo_append_outbox_failed", err, "outbox_id", row.ID)
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
		return nil, r.logError("withdrawal_repo_list_outbox_failed", err)
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
		return r.logError("withdrawal_repo_mark_outbox_failed", result.Error, "outbox_id", strings.TrimSpace(outboxID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrWithdrawalNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "finance-core/withdrawal-service",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("withdrawal repository failure", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type withdrawalModel struct {
	ID            string     `gorm:"column:id;primaryKey"`
	UserID        string     `gorm:"column:user_id"`
	Amount        int64      `gorm:"column:amount"`
	PayoutEmail   string     `gorm:"column:payout_email"`
	Status        string     `gorm:"column:status"`
	AdminNotes    string     `gorm:"column:admin_notes"`
	FailureReason string     `gorm:"column:failure_reason"`
	ProcessedAt   *time.Time `gorm:"column:processed_at"`
	CompletedAt   *time.Time `gorm:"column:completed_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (withdrawalModel) TableName() string {
	return "withdrawal_requests"
}

func withdrawalModelFromEntity(request ports.WithdrawalRequest) withdrawalModel {
	return withdrawalModel{
		ID:            request.WithdrawalID,
		UserID:        request.UserID,
		Amount:        request.Amount,
		PayoutEmail:   request.PayoutEmail,
		Status:        request.Status,
		AdminNotes:    request.AdminNotes,
		FailureReason: request.FailureReason,
		ProcessedAt:   request.ProcessedAt,
		CompletedAt:   request.CompletedAt,
		CreatedAt:     request.CreatedAt.UTC(),
		UpdatedAt:     request.UpdatedAt.UTC(),
	}
}

func (m withdrawalModel) toEntity() ports.WithdrawalRequest {
	return ports.WithdrawalRequest{
		WithdrawalID:  m.ID,
		UserID:        m.UserID,
		Amount:        m.Amount,
		PayoutEmail:   m.PayoutEmail,
		Status:        m.Status,
		AdminNotes:    m.AdminNotes,
		FailureReason: m.FailureReason,
		ProcessedAt:   m.ProcessedAt,
		CompletedAt:   m.CompletedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func withdrawalsFromModels(rows []withdrawalModel) []ports.WithdrawalRequest {
	items := make([]ports.WithdrawalRequest, 0, len(rows))
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
	return "withdrawal_outbox"
}
