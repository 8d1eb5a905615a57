package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	domainerrors "testquest/contexts/finance-core/bounty-pool/domain/errors"
	"testquest/contexts/finance-core/bounty-pool/ports"
)

const (
	defaultPlatformFeePercent = 15
	minimumTotalBudget        = 20

	// Bounded retries for optimistic-concurrency adapters before the
	// conflict is surfaced to the caller.
	adjustRetryLimit = 3
)

// Service owns per-project bounty budget accounting. All RemainingBounty
// mutations funnel through Apply/Release/Adjust so two concurrent approvals
// cannot both pass the sufficient-funds check.
type Service struct {
	Repo               ports.Repository
	Ledger             ports.LedgerRecorder
	Clock              ports.Clock
	IDGen              ports.IDGenerator
	PlatformFeePercent int
	Logger             *slog.Logger
}

// FundProject creates a funded project once the payment provider reports
// funds captured. The platform fee is split off the budget and the remainder
// seeds the bounty pool.
func (s Service) FundProject(ctx context.Context, input ports.FundProjectInput) (ports.Project, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.OwnerID) == "" {
		return ports.Project{}, domainerrors.ErrInvalidFunding
	}
	if input.TotalBudget < minimumTotalBudget {
		return ports.Project{}, domainerrors.ErrInvalidFunding
	}
	if input.BugRewards.Critical < 0 || input.BugRewards.Major < 0 || input.BugRewards.Minor < 0 {
		return ports.Project{}, domainerrors.ErrInvalidFunding
	}

	feePercent := s.PlatformFeePercent
	if feePercent <= 0 {
		feePercent = defaultPlatformFeePercent
	}
	platformFee := int64(math.Round(float64(input.TotalBudget) * float64(feePercent) / 100))
	totalBounty := input.TotalBudget - platformFee

	if input.BugRewards.Critical > totalBounty ||
		input.BugRewards.Major > totalBounty ||
		input.BugRewards.Minor > totalBounty {
		return ports.Project{}, domainerrors.ErrInvalidFunding
	}

	projectID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.Project{}, err
	}
	now := s.now()
	project := ports.Project{
		ProjectID:       strings.TrimSpace(projectID),
		Name:            strings.TrimSpace(input.Name),
		OwnerID:         strings.TrimSpace(input.OwnerID),
		TotalBudget:     input.TotalBudget,
		PlatformFee:     platformFee,
		TotalBounty:     totalBounty,
		RemainingBounty: totalBounty,
		BugRewards:      input.BugRewards,
		Status:          ports.ProjectStatusApproved,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.CreateProject(ctx, project); err != nil {
		return ports.Project{}, err
	}

	if s.Ledger != nil {
		metadata := map[string]string{
			"platform_fee":   fmt.Sprintf("%d", platformFee),
			"bounty_pool":    fmt.Sprintf("%d", totalBounty),
			"fee_percentage": fmt.Sprintf("%d", feePercent),
		}
		if err := s.Ledger.RecordFunding(ctx, ports.FundingEntry{
			Type:        "project_funding",
			UserID:      project.OwnerID,
			ProjectID:   project.ProjectID,
			Amount:      input.TotalBudget,
			Description: "Project funded: " + project.Name,
			Metadata:    metadata,
		}); err != nil {
			return ports.Project{}, err
		}
		if err := s.Ledger.RecordFunding(ctx, ports.FundingEntry{
			Type:        "platform_fee",
			UserID:      project.OwnerID,
			ProjectID:   project.ProjectID,
			Amount:      platformFee,
			Description: "Platform fee for project: " + project.Name,
			Metadata:    metadata,
		}); err != nil {
			return ports.Project{}, err
		}
	}

	resolveLogger(s.Logger).Info("project funded",
		"event", "bounty_pool_project_funded",
		"module", "finance-core/bounty-pool",
		"layer", "application",
		"project_id", project.ProjectID,
		"total_budget", project.TotalBudget,
		"platform_fee", project.PlatformFee,
		"total_bounty", project.TotalBounty,
	)
	return project, nil
}

// Apply verifies the pool covers amount and decrements it atomically. On
// ErrInsufficientBounty nothing changes.
func (s Service) Apply(ctx context.Context, projectID string, amount int64) (ports.Project, error) {
	if amount < 0 {
		return ports.Project{}, domainerrors.ErrInvalidAmount
	}
	if amount == 0 {
		return s.GetProject(ctx, projectID)
	}
	return s.adjustWithRetry(ctx, projectID, -amount)
}

// Release returns amount to the pool. Used when a paid report is deleted or
// its reward is reduced.
func (s Service) Release(ctx context.Context, projectID string, amount int64) (ports.Project, error) {
	if amount < 0 {
		return ports.Project{}, domainerrors.ErrInvalidAmount
	}
	if amount == 0 {
		return s.GetProject(ctx, projectID)
	}
	return s.adjustWithRetry(ctx, projectID, amount)
}

// Adjust applies a signed delta: positive deltas draw from the pool and
// re-validate sufficiency, negative deltas release back.
func (s Service) Adjust(ctx context.Context, projectID string, delta int64) (ports.Project, error) {
	if delta == 0 {
		return s.GetProject(ctx, projectID)
	}
	return s.adjustWithRetry(ctx, projectID, -delta)
}

func (s Service) GetProject(ctx context.Context, projectID string) (ports.Project, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ports.Project{}, domainerrors.ErrProjectNotFound
	}
	return s.Repo.GetProject(ctx, projectID)
}

func (s Service) ListProjects(ctx context.Context, limit int, offset int) ([]ports.Project, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListProjects(ctx, limit, offset)
}

func (s Service) adjustWithRetry(ctx context.Context, projectID string, delta int64) (ports.Project, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ports.Project{}, domainerrors.ErrProjectNotFound
	}

	var lastErr error
	for attempt := 0; attempt < adjustRetryLimit; attempt++ {
		project, err := s.Repo.AdjustRemainingBounty(ctx, projectID, delta, s.now())
		if err == nil {
			resolveLogger(s.Logger).Info("bounty pool adjusted",
				"event", "bounty_pool_adjusted",
				"module", "finance-core/bounty-pool",
				"layer", "application",
				"project_id", projectID,
				"delta", delta,
				"remaining_bounty", project.RemainingBounty,
			)
			return project, nil
		}
		if !errors.Is(err, domainerrors.ErrConcurrencyConflict) {
			return ports.Project{}, err
		}
		lastErr = err
	}
	return ports.Project{}, lastErr
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
