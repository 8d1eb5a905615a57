package application

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	domainerrors "testquest/contexts/finance-core/bounty-pool/domain/errors"
	"testquest/contexts/finance-core/bounty-pool/ports"
)

type testRepo struct {
	projects map[string]ports.Project

	conflictsLeft int
	adjustCalls   int
}

func newTestRepo() *testRepo {
	return &testRepo{projects: make(map[string]ports.Project)}
}

func (r *testRepo) CreateProject(_ context.Context, project ports.Project) error {
	r.projects[project.ProjectID] = project
	return nil
}

func (r *testRepo) GetProject(_ context.Context, projectID string) (ports.Project, error) {
	project, ok := r.projects[projectID]
	if !ok {
		return ports.Project{}, domainerrors.ErrProjectNotFound
	}
	return project, nil
}

func (r *testRepo) ListProjects(_ context.Context, _ int, _ int) ([]ports.Project, error) {
	items := make([]ports.Project, 0, len(r.projects))
	for _, project := range r.projects {
		items = append(items, project)
	}
	return items, nil
}

func (r *testRepo) AdjustRemainingBounty(_ context.Context, projectID string, delta int64, updatedAt time.Time) (ports.Project, error) {
	r.adjustCalls++
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return ports.Project{}, domainerrors.ErrConcurrencyConflict
	}
	project, ok := r.projects[projectID]
	if !ok {
		return ports.Project{}, domainerrors.ErrProjectNotFound
	}
	if project.RemainingBounty+delta < 0 {
		return ports.Project{}, domainerrors.ErrInsufficientBounty
	}
	project.RemainingBounty += delta
	project.UpdatedAt = updatedAt
	r.projects[projectID] = project
	return project, nil
}

type testRecorder struct {
	entries []ports.FundingEntry
}

func (r *testRecorder) RecordFunding(_ context.Context, entry ports.FundingEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type sequenceIDs struct {
	next int
}

func (g *sequenceIDs) NewID(_ context.Context) (string, error) {
	g.next++
	return "id-" + strconv.Itoa(g.next), nil
}

func newTestService(repo *testRepo, recorder *testRecorder) Service {
	return Service{
		Repo:   repo,
		Ledger: recorder,
		Clock:  fixedClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)},
		IDGen:  &sequenceIDs{},
	}
}

func TestFundProjectSplitsPlatformFee(t *testing.T) {
	repo := newTestRepo()
	recorder := &testRecorder{}
	service := newTestService(repo, recorder)

	project, err := service.FundProject(context.Background(), ports.FundProjectInput{
		Name:        "Checkout hardening",
		OwnerID:     "owner-1",
		TotalBudget: 1000,
		BugRewards:  ports.BugRewards{Critical: 500, Major: 200, Minor: 50},
	})
	if err != nil {
		t.Fatalf("fund project failed: %v", err)
	}
	if project.PlatformFee != 150 {
		t.Fatalf("expected platform fee 150, got %d", project.PlatformFee)
	}
	if project.TotalBounty != 850 || project.RemainingBounty != 850 {
		t.Fatalf("expected bounty 850/850, got %d/%d", project.TotalBounty, project.RemainingBounty)
	}
	if project.Status != ports.ProjectStatusApproved {
		t.Fatalf("expected approved project, got %q", project.Status)
	}

	if len(recorder.entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(recorder.entries))
	}
	if recorder.entries[0].Type != "project_funding" || recorder.entries[0].Amount != 1000 {
		t.Fatalf("unexpected funding entry: %+v", recorder.entries[0])
	}
	if recorder.entries[1].Type != "platform_fee" || recorder.entries[1].Amount != 150 {
		t.Fatalf("unexpected fee entry: %+v", recorder.entries[1])
	}
}

func TestFundProjectRejectsBudgetBelowMinimum(t *testing.T) {
	service := newTestService(newTestRepo(), &testRecorder{})

	_, err := service.FundProject(context.Background(), ports.FundProjectInput{
		Name:        "Tiny",
		OwnerID:     "owner-1",
		TotalBudget: 19,
	})
	if !errors.Is(err, domainerrors.ErrInvalidFunding) {
		t.Fatalf("expected invalid funding, got %v", err)
	}
}

func TestFundProjectRejectsRewardAboveBounty(t *testing.T) {
	service := newTestService(newTestRepo(), &testRecorder{})

	// Budget 100 leaves an 85 bounty after the fee; a 90 critical reward
	// could never be paid.
	_, err := service.FundProject(context.Background(), ports.FundProjectInput{
		Name:        "Overpromised",
		OwnerID:     "owner-1",
		TotalBudget: 100,
		BugRewards:  ports.BugRewards{Critical: 90},
	})
	if !errors.Is(err, domainerrors.ErrInvalidFunding) {
		t.Fatalf("expected invalid funding, got %v", err)
	}
}

func TestApplyFailsOnInsufficientBounty(t *testing.T) {
	repo := newTestRepo()
	repo.projects["proj-1"] = ports.Project{
		ProjectID:       "proj-1",
		RemainingBounty: 100,
		Status:          ports.ProjectStatusApproved,
	}
	service := newTestService(repo, &testRecorder{})

	_, err := service.Apply(context.Background(), "proj-1", 150)
	if !errors.Is(err, domainerrors.ErrInsufficientBounty) {
		t.Fatalf("expected insufficient bounty, got %v", err)
	}
	if repo.projects["proj-1"].RemainingBounty != 100 {
		t.Fatalf("pool changed on failed apply: %d", repo.projects["proj-1"].RemainingBounty)
	}
}

func TestApplyRetriesOnConcurrencyConflict(t *testing.T) {
	repo := newTestRepo()
	repo.projects["proj-1"] = ports.Project{
		ProjectID:       "proj-1",
		RemainingBounty: 100,
		Status:          ports.ProjectStatusApproved,
	}
	repo.conflictsLeft = 2
	service := newTestService(repo, &testRecorder{})

	project, err := service.Apply(context.Background(), "proj-1", 40)
	if err != nil {
		t.Fatalf("apply failed after retries: %v", err)
	}
	if project.RemainingBounty != 60 {
		t.Fatalf("expected remaining 60, got %d", project.RemainingBounty)
	}
	if repo.adjustCalls != 3 {
		t.Fatalf("expected 3 adjust attempts, got %d", repo.adjustCalls)
	}
}

func TestAdjustDrawsFromPoolAndValidatesSufficiency(t *testing.T) {
	repo := newTestRepo()
	repo.projects["proj-1"] = ports.Project{
		ProjectID:       "proj-1",
		RemainingBounty: 850,
		Status:          ports.ProjectStatusApproved,
	}
	service := newTestService(repo, &testRecorder{})

	_, err := service.Adjust(context.Background(), "proj-1", 900)
	if !errors.Is(err, domainerrors.ErrInsufficientBounty) {
		t.Fatalf("expected insufficient bounty, got %v", err)
	}
	if repo.projects["proj-1"].RemainingBounty != 850 {
		t.Fatalf("pool changed on rejected adjust: %d", repo.projects["proj-1"].RemainingBounty)
	}

	project, err := service.Adjust(context.Background(), "proj-1", 100)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if project.RemainingBounty != 750 {
		t.Fatalf("expected remaining 750, got %d", project.RemainingBounty)
	}
}

func TestAdjustReleasesOnNegativeDelta(t *testing.T) {
	repo := newTestRepo()
	repo.projects["proj-1"] = ports.Project{
		ProjectID:       "proj-1",
		RemainingBounty: 750,
		Status:          ports.ProjectStatusApproved,
	}
	service := newTestService(repo, &testRecorder{})

	project, err := service.Adjust(context.Background(), "proj-1", -100)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if project.RemainingBounty != 850 {
		t.Fatalf("expected remaining 850, got %d", project.RemainingBounty)
	}

	calls := repo.adjustCalls
	same, err := service.Adjust(context.Background(), "proj-1", 0)
	if err != nil {
		t.Fatalf("zero adjust failed: %v", err)
	}
	if same.RemainingBounty != 850 || repo.adjustCalls != calls {
		t.Fatalf("zero delta must not touch the pool, remaining=%d calls=%d", same.RemainingBounty, repo.adjustCalls)
	}
}

func TestReleaseReturnsFundsToPool(t *testing.T) {
	repo := newTestRepo()
	repo.projects["proj-1"] = ports.Project{
		ProjectID:       "proj-1",
		RemainingBounty: 60,
		Status:          ports.ProjectStatusApproved,
	}
	service := newTestService(repo, &testRecorder{})

	project, err := service.Release(context.Background(), "proj-1", 40)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if project.RemainingBounty != 100 {
		t.Fatalf("expected remaining 100, got %d", project.RemainingBounty)
	}
}
