package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "testquest/contexts/community-experience/leaderboard-service/domain/errors"
	"testquest/contexts/community-experience/leaderboard-service/ports"
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

func (r *Repository) GetProfile(ctx context.Context, userID string) (ports.TesterProfile, error) {
	var row testerProfileModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.TesterProfile{}, domainerrors.ErrProfileNotFound
		}
		return ports.TesterProfile{}, r.logError("leaderboard_repo_get_profile_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return row.toEntity(), nil
}

func (r *Repository) EnsureProfile(ctx context.Context, userID string, now time.Time) (ports.TesterProfile, error) {
	userID = strings.TrimSpace(userID)
	row := testerProfileModel{
		UserID:    userID,
		UpdatedAt: now.UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
	if err != nil && !isUniqueViolation(err) {
		return ports.TesterProfile{}, r.logError("leaderboard_repo_ensure_profile_failed", err, "user_id", userID)
	}
	return r.GetProfile(ctx, userID)
}

func (r *Repository) ListProfiles(ctx context.Context) ([]ports.TesterProfile, error) {
	var rows []testerProfileModel
	err := r.db.WithContext(ctx).
		Order("user_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("leaderboard_repo_list_profiles_failed", err)
	}
	items := make([]ports.TesterProfile, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ApplyStatsDelta(ctx context.Context, userID string, delta ports.StatsDelta, now time.Time) (ports.TesterProfile, error) {
	userID = strings.TrimSpace(userID)
	result := r.db.WithContext(ctx).
		Model(&testerProfileModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"total_submitted": gorm.Expr("total_submitted + ?", delta.Submitted),
			"total_approved":  gorm.Expr("total_approved + ?", delta.Approved),
			"total_rejected":  gorm.Expr("total_rejected + ?", delta.Rejected),
			"updated_at":      now.UTC(),
		})
	if result.Error != nil {
		return ports.TesterProfile{}, r.logError("leaderboard_repo_stats_delta_failed", result.Error, "user_id", userID)
	}
	if result.RowsAffected == 0 {
		return ports.TesterProfile{}, domainerrors.ErrProfileNotFound
	}
	return r.GetProfile(ctx, userID)
}

func (r *Repository) RecordRating(ctx context.Context, userID string, rating int, now time.Time) error {
	userID = strings.TrimSpace(userID)
	// Single-statement fold keeps the running average atomic under
	// concurrent ratings.
	result := r.db.WithContext(ctx).
		Model(&testerProfileModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"average_developer_rating": gorm.Expr(
				"(average_developer_rating * total_developer_ratings + ?) / (total_developer_ratings + 1)",
				rating,
			),
			"total_developer_ratings": gorm.Expr("total_developer_ratings + 1"),
			"updated_at":              now.UTC(),
		})
	if result.Error != nil {
		return r.logError("leaderboard_repo_record_rating_failed", result.Error, "user_id", userID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProfileNotFound
	}
	return nil
}

func (r *Repository) GrantPersistentBadges(ctx context.Context, userID string, grant ports.Badges, now time.Time) error {
	userID = strings.TrimSpace(userID)
	updates := map[string]any{"updated_at": now.UTC()}
	if grant.FirstBlood {
		updates["badge_first_blood"] = true
	}
	if grant.BugHunter {
		updates["badge_bug_hunter"] = true
	}
	if grant.EliteTester {
		updates["badge_elite_tester"] = true
	}
	result := r.db.WithContext(ctx).
		Model(&testerProfileModel{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return r.logError("leaderboard_repo_grant_badges_failed", result.Error, "user_id", userID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProfileNotFound
	}
	return nil
}

func (r *Repository) ClearRankBadges(ctx context.Context, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&testerProfileModel{}).
		Where("badge_bug_conqueror OR badge_bug_master OR badge_bug_expert").
		Updates(map[string]any{
			"badge_bug_conqueror": false,
			"badge_bug_master":    false,
			"badge_bug_expert":    false,
			"updated_at":          now.UTC(),
		}).
		Error
	if err != nil {
		return r.logError("leaderboard_repo_clear_rank_badges_failed", err)
	}
	return nil
}

func (r *Repository) SetRankBadge(ctx context.Context, userID string, badge string, now time.Time) error {
	column := ""
	switch badge {
	case ports.RankBadgeBugConqueror:
		column = "badge_bug_conqueror"
	case ports.RankBadgeBugMaster:
		column = "badge_bug_master"
	case ports.RankBadgeBugExpert:
		column = "badge_bug_expert"
	default:
		return domainerrors.ErrInvalidBadge
	}
	userID = strings.TrimSpace(userID)
	result := r.db.WithContext(ctx).
		Model(&testerProfileModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			column:       true,
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return r.logError("leaderboard_repo_set_rank_badge_failed", result.Error, "user_id", userID, "badge", badge)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProfileNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "community-experience/leaderboard-service",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("leaderboard repository failure", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type testerProfileModel struct {
	UserID                 string    `gorm:"column:user_id;primaryKey"`
	Name                   string    `gorm:"column:name"`
	TotalSubmitted         int       `gorm:"column:total_submitted"`
	TotalApproved          int       `gorm:"column:total_approved"`
	TotalRejected          int       `gorm:"column:total_rejected"`
	AverageDeveloperRating float64   `gorm:"column:average_developer_rating"`
	TotalDeveloperRatings  int       `gorm:"column:total_developer_ratings"`
	BadgeFirstBlood        bool      `gorm:"column:badge_first_blood"`
	BadgeBugHunter         bool      `gorm:"column:badge_bug_hunter"`
	BadgeEliteTester       bool      `gorm:"column:badge_elite_tester"`
	BadgeBugConqueror      bool      `gorm:"column:badge_bug_conqueror"`
	BadgeBugMaster         bool      `gorm:"column:badge_bug_master"`
	BadgeBugExpert         bool      `gorm:"column:badge_bug_expert"`
	UpdatedAt              time.Time `gorm:"column:updated_at"`
}

func (testerProfileModel) TableName() string {
	return "tester_profiles"
}

func (m testerProfileModel) toEntity() ports.TesterProfile {
	return ports.TesterProfile{
		UserID: m.UserID,
		Name:   m.Name,
		Badges: ports.Badges{
			FirstBlood:   m.BadgeFirstBlood,
			BugHunter:    m.BadgeBugHunter,
			EliteTester:  m.BadgeEliteTester,
			BugConqueror: m.BadgeBugConqueror,
			BugMaster:    m.BadgeBugMaster,
			BugExpert:    m.BadgeBugExpert,
		},
		Stats: ports.Stats{
			TotalSubmitted:         m.TotalSubmitted,
			TotalApproved:          m.TotalApproved,
			TotalRejected:          m.TotalRejected,
			AverageDeveloperRating: m.AverageDeveloperRating,
			TotalDeveloperRatings:  m.TotalDeveloperRatings,
		},
		UpdatedAt: m.UpdatedAt,
	}
}
