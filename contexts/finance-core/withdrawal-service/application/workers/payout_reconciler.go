package workers

import (
	"context"
	"log/slog"
	"time"

	"testquest/contexts/finance-core/withdrawal-service/application"
	"testquest/contexts/finance-core/withdrawal-service/ports"
)

const defaultStuckAfter = 30 * time.Minute

// PayoutReconciler sweeps withdrawals stuck in processing past a deadline
// and fails them through the refund path, so no request waits on a provider
// confirmation forever.
type PayoutReconciler struct {
	Withdrawals ports.Repository
	Service     application.Service
	Clock       ports.Clock
	StuckAfter  time.Duration
	BatchSize   int
	Logger      *slog.Logger
}

func (r PayoutReconciler) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}
	stuckAfter := r.StuckAfter
	if stuckAfter <= 0 {
		stuckAfter = defaultStuckAfter
	}
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	stuck, err := r.Withdrawals.ListStuckProcessing(ctx, now.Add(-stuckAfter), limit)
	if err != nil {
		logger.Error("stuck withdrawal sweep failed",
			"event", "withdrawal_reconciler_list_failed",
			"module", "finance-core/withdrawal-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	failed := 0
	for _, request := range stuck {
		if _, err := r.Service.MarkFailed(ctx, request.WithdrawalID, "payout confirmation timed out"); err != nil {
			logger.Error("stuck withdrawal failover failed",
				"event", "withdrawal_reconciler_mark_failed_error",
				"module", "finance-core/withdrawal-service",
				"layer", "worker",
				"withdrawal_id", request.WithdrawalID,
				"error", err.Error(),
			)
			continue
		}
		failed++
	}

	if failed > 0 {
		logger.Info("stuck withdrawal sweep completed",
			"event", "withdrawal_reconciler_completed",
			"module", "finance-core/withdrawal-service",
			"layer", "worker",
			"failed_count", failed,
		)
	}
	return nil
}
