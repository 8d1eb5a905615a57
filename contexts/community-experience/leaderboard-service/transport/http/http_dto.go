package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BadgesResponse struct {
	FirstBlood   bool `json:"first_blood"`
	BugHunter    bool `json:"bug_hunter"`
	EliteTester  bool `json:"elite_tester"`
	BugConqueror bool `json:"bug_conqueror"`
	BugMaster    bool `json:"bug_master"`
	BugExpert    bool `json:"bug_expert"`
}

type RankingEntryResponse struct {
	Rank                  int            `json:"rank"`
	UserID                string         `json:"user_id"`
	Name                  string         `json:"name,omitempty"`
	TotalBugReports       int            `json:"total_bug_reports"`
	ApprovedBugReports    int            `json:"approved_bug_reports"`
	ApprovedCriticalCount int            `json:"approved_critical_count"`
	ApprovedMajorCount    int            `json:"approved_major_count"`
	TotalRewards          int64          `json:"total_rewards"`
	ProjectsParticipated  int            `json:"projects_participated"`
	ReputationScore       int64          `json:"reputation_score"`
	TotalCreditsAcquired  int64          `json:"total_credits_acquired"`
	Badges                BadgesResponse `json:"badges"`
}

type StatisticsResponse struct {
	TotalActiveTesters int   `json:"total_active_testers"`
	TotalBugReports    int   `json:"total_bug_reports"`
	TotalRewardsPaid   int64 `json:"total_rewards_paid"`
}

type LeaderboardResponse struct {
	Rankings   []RankingEntryResponse `json:"rankings"`
	Statistics StatisticsResponse     `json:"statistics"`
}

type StatsResponse struct {
	TotalSubmitted         int     `json:"total_submitted"`
	TotalApproved          int     `json:"total_approved"`
	TotalRejected          int     `json:"total_rejected"`
	AverageDeveloperRating float64 `json:"average_developer_rating"`
	TotalDeveloperRatings  int     `json:"total_developer_ratings"`
}

type ProfileResponse struct {
	UserID string         `json:"user_id"`
	Name   string         `json:"name,omitempty"`
	Badges BadgesResponse `json:"badges"`
	Stats  StatsResponse  `json:"stats"`
}
