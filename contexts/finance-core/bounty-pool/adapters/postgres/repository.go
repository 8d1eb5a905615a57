package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "testquest/contexts/finance-core/bounty-pool/domain/errors"
	"testquest/contexts/finance-core/bounty-pool/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
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

func (r *Repository) CreateProject(ctx context.Context, project ports.Project) error {
	row := projectModelFromEntity(project)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConcurrencyConflict
		}
		return r.logError("bounty_pool_repo_create_project_failed", err, "project_id", project.ProjectID)
	}
	return nil
}

func (r *Repository) GetProject(ctx context.Context, projectID string) (ports.Project, error) {
	var row projectModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(projectID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Project{}, domainerrors.ErrProjectNotFound
		}
		return ports.Project{}, r.logError("bounty_pool_repo_get_project_failed", err, "project_id", strings.TrimSpace(projectID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListProjects(ctx context.Context, limit int, offset int) ([]ports.Project, error) {
	var rows []projectModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("bounty_pool_repo_list_projects_failed", err)
	}
	items := make([]ports.Project, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// AdjustRemainingBounty uses a guarded single-statement update so the
// sufficiency check and the decrement land atomically; two concurrent
// approvals cannot both pass the check.
func (r *Repository) AdjustRemainingBounty(
	ctx context.Context,
	projectID string,
	delta int64,
	updatedAt time.Time,
) (ports.Project, error) {
	projectID = strings.TrimSpace(projectID)

	result := r.db.WithContext(ctx).Model(&projectModel{}).
		Where("id = ?", projectID).
		Where("remaining_bounty + ? >= 0", delta).
		Updates(map[string]any{
			"remaining_bounty": gorm.Expr("remaining_bounty + ?", delta),
			"updated_at":       updatedAt.UTC(),
		})
	if result.Error != nil {
		return ports.Project{}, r.logError("bounty_pool_repo_adjust_failed", result.Error,
			"project_id", projectID,
			"delta", delta,
		)
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&projectModel{}).Where("id = ?", projectID).Count(&exists).Error; err != nil {
			return ports.Project{}, r.logError("bounty_pool_repo_adjust_lookup_failed", err, "project_id", projectID)
		}
		if exists == 0 {
			return ports.Project{}, domainerrors.ErrProjectNotFound
		}
		return ports.Project{}, domainerrors.ErrInsufficientBounty
	}

	return r.GetProject(ctx, projectID)
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "finance-core/bounty-pool",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("bounty pool repository failure", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type projectModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	Name            string    `gorm:"column:name"`
	OwnerID         string    `gorm:"column:owner_id"`
	TotalBudget     int64     `gorm:"column:total_budget"`
	PlatformFee     int64     `gorm:"column:platform_fee"`
	TotalBounty     int64     `gorm:"column:total_bounty"`
	RemainingBounty int64     `gorm:"column:remaining_bounty"`
	RewardCritical  int64     `gorm:"column:reward_critical"`
	RewardMajor     int64     `gorm:"column:reward_major"`
	RewardMinor     int64     `gorm:"column:reward_minor"`
	Status          string    `gorm:"column:status"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (projectModel) TableName() string {
	return "projects"
}

func projectModelFromEntity(project ports.Project) projectModel {
	return projectModel{
		ID:              project.ProjectID,
		Name:            project.Name,
		OwnerID:         project.OwnerID,
		TotalBudget:     project.TotalBudget,
		PlatformFee:     project.PlatformFee,
		TotalBounty:     project.TotalBounty,
		RemainingBounty: project.RemainingBounty,
		RewardCritical:  project.BugRewards.Critical,
		RewardMajor:     project.BugRewards.Major,
		RewardMinor:     project.BugRewards.Minor,
		Status:          project.Status,
		CreatedAt:       project.CreatedAt.UTC(),
		UpdatedAt:       project.UpdatedAt.UTC(),
	}
}

func (m projectModel) toEntity() ports.Project {
	return ports.Project{
		ProjectID:       m.ID,
		Name:            m.Name,
		OwnerID:         m.OwnerID,
		TotalBudget:     m.TotalBudget,
		PlatformFee:     m.PlatformFee,
		TotalBounty:     m.TotalBounty,
		RemainingBounty: m.RemainingBounty,
		BugRewards: ports.BugRewards{
			Critical: m.RewardCritical,
			Major:    m.RewardMajor,
			Minor:    m.RewardMinor,
		},
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
