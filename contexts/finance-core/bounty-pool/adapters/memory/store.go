package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "testquest/contexts/finance-core/bounty-pool/domain/errors"
	"testquest/contexts/finance-core/bounty-pool/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	projects map[string]ports.Project
}

func NewStore(seed []ports.Project) *Store {
	projects := make(map[string]ports.Project, len(seed))
	for _, item := range seed {
		projects[strings.TrimSpace(item.ProjectID)] = item
	}
	return &Store{projects: projects}
}

func (s *Store) SeedProject(item ports.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[strings.TrimSpace(item.ProjectID)] = item
}

func (s *Store) CreateProject(_ context.Context, project ports.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ProjectID] = project
	return nil
}

func (s *Store) GetProject(_ context.Context, projectID string) (ports.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.projects[strings.TrimSpace(projectID)]
	if !ok {
		return ports.Project{}, domainerrors.ErrProjectNotFound
	}
	return item, nil
}

func (s *Store) ListProjects(_ context.Context, limit int, offset int) ([]ports.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.Project, 0, len(s.projects))
	for _, item := range s.projects {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ProjectID < items[j].ProjectID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if offset >= len(items) {
		return []ports.Project{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]ports.Project(nil), items[offset:end]...), nil
}

// AdjustRemainingBounty holds the store lock across check and mutation, so
// concurrent approvals on the same project are serialized.
func (s *Store) AdjustRemainingBounty(
	_ context.Context,
	projectID string,
	delta int64,
	updatedAt time.Time,
) (ports.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(projectID)
	item, ok := s.projects[key]
	if !ok {
		return ports.Project{}, domainerrors.ErrProjectNotFound
	}
	if item.RemainingBounty+delta < 0 {
		return ports.Project{}, domainerrors.ErrInsufficientBounty
	}
	item.RemainingBounty += delta
	item.UpdatedAt = updatedAt.UTC()
	s.projects[key] = item
	return item, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
