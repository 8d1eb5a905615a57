package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainerrors "testquest/contexts/triage-review/bug-report-service/domain/errors"
	"testquest/contexts/triage-review/bug-report-service/ports"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

// Store keeps reports and outbox rows in process. Tests and the in-memory
// bootstrap path run against it.
type Store struct {
	mu      sync.RWMutex
	reports map[string]ports.BugReport
	outbox  map[string]outboxRecord
}

func NewStore(seed []ports.BugReport) *Store {
	store := &Store{
		reports: make(map[string]ports.BugReport, len(seed)),
		outbox:  make(map[string]outboxRecord),
	}
	for _, report := range seed {
		store.reports[report.ReportID] = report
	}
	return store
}

func (s *Store) SeedReport(report ports.BugReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ReportID] = report
}

func (s *Store) CreateReport(_ context.Context, report ports.BugReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[report.ReportID]; ok {
		return domainerrors.ErrInvalidReport
	}
	s.reports[report.ReportID] = report
	return nil
}

func (s *Store) GetReport(_ context.Context, reportID string) (ports.BugReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[strings.TrimSpace(reportID)]
	if !ok {
		return ports.BugReport{}, domainerrors.ErrReportNotFound
	}
	return report, nil
}

func (s *Store) UpdateReport(_ context.Context, report ports.BugReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[report.ReportID]; !ok {
		return domainerrors.ErrReportNotFound
	}
	s.reports[report.ReportID] = report
	return nil
}

func (s *Store) DeleteReport(_ context.Context, reportID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reportID = strings.TrimSpace(reportID)
	if _, ok := s.reports[reportID]; !ok {
		return domainerrors.ErrReportNotFound
	}
	delete(s.reports, reportID)
	return nil
}

func (s *Store) ListProjectReports(_ context.Context, projectID string) ([]ports.BugReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.BugReport, 0)
	for _, report := range s.reports {
		if report.ProjectID == projectID {
			items = append(items, report)
		}
	}
	sortReports(items)
	return items, nil
}

func (s *Store) ListAllReports(_ context.Context) ([]ports.BugReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.BugReport, 0, len(s.reports))
	for _, report := range s.reports {
		items = append(items, report)
	}
	sortReports(items)
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidReport
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return domainerrors.ErrInvalidReport
		}
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:  outboxID,
			EventType: envelope.EventType,
			EntityID:  envelope.EntityID,
			Payload:   payload,
			CreatedAt: envelope.OccurredAtUTC.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrReportNotFound
	}
	ts := publishedAt.UTC()
	row.Status = outboxStatusPublished
	row.PublishedAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func sortReports(items []ports.BugReport) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ReportID < items[j].ReportID
	})
}
