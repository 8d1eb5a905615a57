package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"testquest/contexts/finance-core/bounty-pool/application"
	"testquest/contexts/finance-core/bounty-pool/ports"
	httptransport "testquest/contexts/finance-core/bounty-pool/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) FundProjectHandler(
	ctx context.Context,
	ownerID string,
	req httptransport.FundProjectRequest,
) (httptransport.ProjectResponse, error) {
	project, err := h.Service.FundProject(ctx, ports.FundProjectInput{
		Name:        req.Name,
		OwnerID:     ownerID,
		TotalBudget: req.TotalBudget,
		BugRewards: ports.BugRewards{
			Critical: req.BugRewards.Critical,
			Major:    req.BugRewards.Major,
			Minor:    req.BugRewards.Minor,
		},
	})
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return projectResponse(project), nil
}

func (h Handler) GetProjectHandler(ctx context.Context, projectID string) (httptransport.ProjectResponse, error) {
	project, err := h.Service.GetProject(ctx, projectID)
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return projectResponse(project), nil
}

func (h Handler) ListProjectsHandler(
	ctx context.Context,
	limit int,
	offset int,
) (httptransport.ProjectListResponse, error) {
	projects, err := h.Service.ListProjects(ctx, limit, offset)
	if err != nil {
		return httptransport.ProjectListResponse{}, err
	}
	resp := httptransport.ProjectListResponse{
		Projects: make([]httptransport.ProjectResponse, 0, len(projects)),
	}
	for _, project := range projects {
		resp.Projects = append(resp.Projects, projectResponse(project))
	}
	return resp, nil
}

func projectResponse(project ports.Project) httptransport.ProjectResponse {
	return httptransport.ProjectResponse{
		ProjectID:       project.ProjectID,
		Name:            project.Name,
		OwnerID:         project.OwnerID,
		TotalBudget:     project.TotalBudget,
		PlatformFee:     project.PlatformFee,
		TotalBounty:     project.TotalBounty,
		RemainingBounty: project.RemainingBounty,
		BugRewards: httptransport.BugRewardsResponse{
			Critical: project.BugRewards.Critical,
			Major:    project.BugRewards.Major,
			Minor:    project.BugRewards.Minor,
		},
		Status:    project.Status,
		CreatedAt: project.CreatedAt.UTC().Format(time.RFC3339),
	}
}
