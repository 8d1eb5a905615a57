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

	domainerrors "testquest/contexts/finance-core/withdrawal-service/domain/errors"
	"testquest/contexts/finance-core/withdrawal-service/ports"
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

type Store struct {
	mu          sync.RWMutex
	withdrawals map[string]ports.WithdrawalRequest
	outbox      map[string]outboxRecord
}

func NewStore(seed []ports.WithdrawalRequest) *Store {
	store := &Store{
		withdrawals: make(map[string]ports.WithdrawalRequest, len(seed)),
		outbox:      make(map[string]outboxRecord),
	}
	for _, request := range seed {
		store.withdrawals[request.WithdrawalID] = request
	}
	return store
}

func (s *Store) SeedWithdrawal(request ports.WithdrawalRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawals[request.WithdrawalID] = request
}

func (s *Store) CreateWithdrawal(_ context.Context, request ports.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.withdrawals[request.WithdrawalID]; ok {
		return domainerrors.ErrInvalidWithdrawal
	}
	s.withdrawals[request.WithdrawalID] = request
	return nil
}

func (s *Store) GetWithdrawal(_ context.Context, withdrawalID string) (ports.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.withdrawals[strings.TrimSpace(withdrawalID)]
	if !ok {
		return ports.WithdrawalRequest{}, domainerrors.ErrWithdrawalNotFound
	}
	return request, nil
}

func (s *Store) UpdateWithdrawal(_ context.Context, request ports.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.withdrawals[request.WithdrawalID]; !ok {
		return domainerrors.ErrWithdrawalNotFound
	}
	s.withdrawals[request.WithdrawalID] = request
	return nil
}

func (s *Store) ListUserWithdrawals(_ context.Context, userID string, limit int, offset int) ([]ports.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.WithdrawalRequest, 0)
	for _, request := range s.withdrawals {
		if request.UserID == userID {
			items = append(items, request)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].WithdrawalID < items[j].WithdrawalID
	})
	if offset >= len(items) {
		return []ports.WithdrawalRequest{}, nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListStuckProcessing(_ context.Context, cutoff time.Time, limit int) ([]ports.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.WithdrawalRequest, 0)
	for _, request := range s.withdrawals {
		if request.Status != ports.WithdrawalStatusProcessing {
			continue
		}
		if request.ProcessedAt != nil && request.ProcessedAt.Before(cutoff) {
			items = append(items, request)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProcessedAt.Before(*items[j].ProcessedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
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
		return domainerrors.ErrInvalidWithdrawal
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return domainerrors.ErrInvalidWithdrawal
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
		return domainerrors.ErrWithdrawalNotFound
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
