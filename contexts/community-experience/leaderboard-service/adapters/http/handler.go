package httpadapter

import (
	"context"
	"log/slog"

	"testquest/contexts/community-experience/leaderboard-service/application"
	"testquest/contexts/community-experience/leaderboard-service/ports"
	httptransport "testquest/contexts/community-experience/leaderboard-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GetLeaderboardHandler(ctx context.Context) (httptransport.LeaderboardResponse, error) {
	leaderboard, err := h.Service.ComputeLeaderboard(ctx)
	if err != nil {
		return httptransport.LeaderboardResponse{}, err
	}

	resp := httptransport.LeaderboardResponse{
		Rankings: make([]httptransport.RankingEntryResponse, 0, len(leaderboard.Rankings)),
		Statistics: httptransport.StatisticsResponse{
			TotalActiveTesters: leaderboard.Statistics.TotalActiveTesters,
			TotalBugReports:    leaderboard.Statistics.TotalBugReports,
			TotalRewardsPaid:   leaderboard.Statistics.TotalRewardsPaid,
		},
	}
	for _, entry := range leaderboard.Rankings {
		resp.Rankings = append(resp.Rankings, httptransport.RankingEntryResponse{
			Rank:                  entry.Rank,
			UserID:                entry.UserID,
			Name:                  entry.Name,
			TotalBugReports:       entry.TotalBugReports,
			ApprovedBugReports:    entry.ApprovedBugReports,
			ApprovedCriticalCount: entry.ApprovedCriticalCount,
			ApprovedMajorCount:    entry.ApprovedMajorCount,
			TotalRewards:          entry.TotalRewards,
			ProjectsParticipated:  entry.ProjectsParticipated,
			ReputationScore:       entry.ReputationScore,
			TotalCreditsAcquired:  entry.TotalCreditsAcquired,
			Badges:                badgesResponse(entry.Badges),
		})
	}
	return resp, nil
}

func (h Handler) GetProfileHandler(ctx context.Context, userID string) (httptransport.ProfileResponse, error) {
	profile, err := h.Service.GetProfile(ctx, userID)
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	return httptransport.ProfileResponse{
		UserID: profile.UserID,
		Name:   profile.Name,
		Badges: badgesResponse(profile.Badges),
		Stats: httptransport.StatsResponse{
			TotalSubmitted:         profile.Stats.TotalSubmitted,
			TotalApproved:          profile.Stats.TotalApproved,
			TotalRejected:          profile.Stats.TotalRejected,
			AverageDeveloperRating: profile.Stats.AverageDeveloperRating,
			TotalDeveloperRatings:  profile.Stats.TotalDeveloperRatings,
		},
	}, nil
}

func badgesResponse(badges ports.Badges) httptransport.BadgesResponse {
	return httptransport.BadgesResponse{
		FirstBlood:   badges.FirstBlood,
		BugHunter:    badges.BugHunter,
		EliteTester:  badges.EliteTester,
		BugConqueror: badges.BugConqueror,
		BugMaster:    badges.BugMaster,
		BugExpert:    badges.BugExpert,
	}
}
