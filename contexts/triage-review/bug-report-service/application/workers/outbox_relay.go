package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"testquest/contexts/triage-review/bug-report-service/application"
	"testquest/contexts/triage-review/bug-report-service/ports"
)

// OutboxRelay publishes pending bug-report outbox rows to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("bug report outbox list failed",
			"event", "bug_report_outbox_list_failed",
			"module", "triage-review/bug-report-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("bug report outbox decode failed",
				"event", "bug_report_outbox_decode_failed",
				"module", "triage-review/bug-report-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}

		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("bug report outbox publish failed",
				"event", "bug_report_outbox_publish_failed",
				"module", "triage-review/bug-report-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"topic", topic,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("bug report outbox mark published failed",
				"event", "bug_report_outbox_mark_published_failed",
				"module", "triage-review/bug-report-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("bug report outbox relay cycle completed",
			"event", "bug_report_outbox_relay_completed",
			"module", "triage-review/bug-report-service",
			"layer", "worker",
			"published_count", len(pending),
		)
	}
	return nil
}
