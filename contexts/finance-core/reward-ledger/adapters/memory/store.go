package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "testquest/contexts/finance-core/reward-ledger/domain/errors"
	"testquest/contexts/finance-core/reward-ledger/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	accounts     map[string]ports.UserAccount
	transactions []ports.Transaction
}

func NewStore(seed []ports.UserAccount) *Store {
	accounts := make(map[string]ports.UserAccount, len(seed))
	for _, item := range seed {
		accounts[strings.TrimSpace(item.UserID)] = item
	}
	return &Store{
		accounts:     accounts,
		transactions: make([]ports.Transaction, 0),
	}
}

func (s *Store) SeedAccount(item ports.UserAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.TrimSpace(item.UserID)] = item
}

func (s *Store) GetAccount(_ context.Context, userID string) (ports.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.accounts[strings.TrimSpace(userID)]
	if !ok {
		return ports.UserAccount{}, domainerrors.ErrAccountNotFound
	}
	return item, nil
}

func (s *Store) ApplyAndRecord(
	_ context.Context,
	userID string,
	balanceDelta int64,
	earningsDelta int64,
	acquiredDelta int64,
	tx ports.Transaction,
) (ports.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(userID)
	item, ok := s.accounts[key]
	if !ok {
		return ports.UserAccount{}, domainerrors.ErrAccountNotFound
	}
	if item.Balance+balanceDelta < 0 {
		return ports.UserAccount{}, domainerrors.ErrInsufficientBalance
	}

	item.Balance += balanceDelta
	item.TotalEarnings += earningsDelta
	item.TotalCreditsAcquired += acquiredDelta
	if item.TotalEarnings < 0 {
		item.TotalEarnings = 0
	}
	if item.TotalCreditsAcquired < 0 {
		item.TotalCreditsAcquired = 0
	}
	item.UpdatedAt = tx.CreatedAt.UTC()
	s.accounts[key] = item
	s.transactions = append(s.transactions, tx)
	return item, nil
}

func (s *Store) AppendTransaction(_ context.Context, tx ports.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *Store) ListUserTransactions(_ context.Context, userID string, limit int, offset int) ([]ports.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID = strings.TrimSpace(userID)
	items := make([]ports.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			items = append(items, tx)
		}
	}
	return paginate(items, limit, offset), nil
}

func (s *Store) ListProjectTransactions(_ context.Context, projectID string, limit int, offset int) ([]ports.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projectID = strings.TrimSpace(projectID)
	items := make([]ports.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.ProjectID == projectID {
			items = append(items, tx)
		}
	}
	return paginate(items, limit, offset), nil
}

// CountTransactions reports ledger rows, optionally filtered by type.
// Used by consistency checks in tests.
func (s *Store) CountTransactions(txType string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if strings.TrimSpace(txType) == "" {
		return len(s.transactions)
	}
	count := 0
	for _, tx := range s.transactions {
		if tx.Type == txType {
			count++
		}
	}
	return count
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func paginate(items []ports.Transaction, limit int, offset int) []ports.Transaction {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].TransactionID < items[j].TransactionID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if offset >= len(items) {
		return []ports.Transaction{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]ports.Transaction(nil), items[offset:end]...)
}
