package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "testquest/contexts/finance-core/reward-ledger/domain/errors"
	"testquest/contexts/finance-core/reward-ledger/ports"

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

func (r *Repository) GetAccount(ctx context.Context, userID string) (ports.UserAccount, error) {
	var row userAccountModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserAccount{}, domainerrors.ErrAccountNotFound
		}
		return ports.UserAccount{}, r.logError("ledger_repo_get_account_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return row.toAccount(), nil
}

func (r *Repository) ApplyAndRecord(
	ctx context.Context,
	userID string,
	balanceDelta int64,
	earningsDelta int64,
	acquiredDelta int64,
	tx ports.Transaction,
) (ports.UserAccount, error) {
	userID = strings.TrimSpace(userID)
	var updated userAccountModel

	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		// Guarded single-statement update keeps the balance check and the
		// decrement atomic under concurrent credits and debits.
		result := dbtx.Model(&userAccountModel{}).
			Where("user_id = ?", userID).
			Where("balance + ? >= 0", balanceDelta).
			Updates(map[string]any{
				"balance":                gorm.Expr("balance + ?", balanceDelta),
				"total_earnings":         gorm.Expr("GREATEST(total_earnings + ?, 0)", earningsDelta),
				"total_credits_acquired": gorm.Expr("GREATEST(total_credits_acquired + ?, 0)", acquiredDelta),
				"updated_at":             tx.CreatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var exists int64
			if err := dbtx.Model(&userAccountModel{}).Where("user_id = ?", userID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return domainerrors.ErrAccountNotFound
			}
			return domainerrors.ErrInsufficientBalance
		}

		row, err := transactionModelFromEntity(tx)
		if err != nil {
			return err
		}
		if err := dbtx.Create(&row).Error; err != nil {
			return err
		}
		return dbtx.Where("user_id = ?", userID).First(&updated).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) || errors.Is(err, domainerrors.ErrInsufficientBalance) {
			return ports.UserAccount{}, err
		}
		return ports.UserAccount{}, r.logError("ledger_repo_apply_and_record_failed", err,
			"user_id", userID,
			"transaction_id", tx.TransactionID,
			"transaction_type", tx.Type,
		)
	}
	return updated.toAccount(), nil
}

func (r *Repository) AppendTransaction(ctx context.Context, tx ports.Transaction) error {
	row, err := transactionModelFromEntity(tx)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("ledger_repo_append_transaction_failed", err,
			"transaction_id", tx.TransactionID,
			"transaction_type", tx.Type,
		)
	}
	return nil
}

func (r *Repository) ListUserTransactions(ctx context.Context, userID string, limit int, offset int) ([]ports.Transaction, error) {
	var rows []transactionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("ledger_repo_list_user_transactions_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return transactionsFromModels(rows)
}

func (r *Repository) ListProjectTransactions(ctx context.Context, projectID string, limit int, offset int) ([]ports.Transaction, error) {
	var rows []transactionModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("ledger_repo_list_project_transactions_failed", err, "project_id", strings.TrimSpace(projectID))
	}
	return transactionsFromModels(rows)
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "finance-core/reward-ledger",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("reward ledger repository failure", fields...)
	return err
}

type userAccountModel struct {
	UserID               string    `gorm:"column:user_id;primaryKey"`
	Name                 string    `gorm:"column:name"`
	Balance              int64     `gorm:"column:balance"`
	TotalEarnings        int64     `gorm:"column:total_earnings"`
	TotalCreditsAcquired int64     `gorm:"column:total_credits_acquired"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (userAccountModel) TableName() string {
	return "user_accounts"
}

func (m userAccountModel) toAccount() ports.UserAccount {
	return ports.UserAccount{
		UserID:               m.UserID,
		Name:                 m.Name,
		Balance:              m.Balance,
		TotalEarnings:        m.TotalEarnings,
		TotalCreditsAcquired: m.TotalCreditsAcquired,
		UpdatedAt:            m.UpdatedAt,
	}
}

type transactionModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Type         string    `gorm:"column:type"`
	Amount       int64     `gorm:"column:amount"`
	UserID       string    `gorm:"column:user_id"`
	ProjectID    *string   `gorm:"column:project_id"`
	ReportID     *string   `gorm:"column:report_id"`
	WithdrawalID *string   `gorm:"column:withdrawal_id"`
	Description  string    `gorm:"column:description"`
	Metadata     []byte    `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (transactionModel) TableName() string {
	return "reward_transactions"
}

func transactionModelFromEntity(tx ports.Transaction) (transactionModel, error) {
	row := transactionModel{
		ID:          tx.TransactionID,
		Type:        tx.Type,
		Amount:      tx.Amount,
		UserID:      tx.UserID,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt.UTC(),
	}
	if tx.ProjectID != "" {
		row.ProjectID = &tx.ProjectID
	}
	if tx.ReportID != "" {
		row.ReportID = &tx.ReportID
	}
	if tx.WithdrawalID != "" {
		row.WithdrawalID = &tx.WithdrawalID
	}
	if len(tx.Metadata) > 0 {
		raw, err := json.Marshal(tx.Metadata)
		if err != nil {
			return transactionModel{}, err
		}
		row.Metadata = raw
	}
	return row, nil
}

func (m transactionModel) toEntity() (ports.Transaction, error) {
	tx := ports.Transaction{
		TransactionID: m.ID,
		Type:          m.Type,
		Amount:        m.Amount,
		UserID:        m.UserID,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
	if m.ProjectID != nil {
		tx.ProjectID = *m.ProjectID
	}
	if m.ReportID != nil {
		tx.ReportID = *m.ReportID
	}
	if m.WithdrawalID != nil {
		tx.WithdrawalID = *m.WithdrawalID
	}
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &tx.Metadata); err != nil {
			return ports.Transaction{}, err
		}
	}
	return tx, nil
}

func transactionsFromModels(rows []transactionModel) ([]ports.Transaction, error) {
	items := make([]ports.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, tx)
	}
	return items, nil
}
