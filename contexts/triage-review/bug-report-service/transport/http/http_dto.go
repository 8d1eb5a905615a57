package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitBugReportRequest struct {
	ProjectID        string `json:"project_id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	StepsToReproduce string `json:"steps_to_reproduce"`
	ExpectedBehavior string `json:"expected_behavior"`
	ActualBehavior   string `json:"actual_behavior"`
	Severity         string `json:"severity"`
}

// BugReportActionRequest drives the triage state machine through a single
// endpoint, mirroring the action kinds the reviewers use.
type BugReportActionRequest struct {
	Action           string `json:"action"`
	Notes            string `json:"notes"`
	OverrideSeverity string `json:"override_severity"`
	Rating           int    `json:"rating"`
	RewardAmount     *int64 `json:"reward_amount"`
}

type RewardResponse struct {
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

type BugReportResponse struct {
	ReportID         string         `json:"report_id"`
	ProjectID        string         `json:"project_id"`
	SubmittedBy      string         `json:"submitted_by"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	StepsToReproduce string         `json:"steps_to_reproduce"`
	ExpectedBehavior string         `json:"expected_behavior"`
	ActualBehavior   string         `json:"actual_behavior"`
	Severity         string         `json:"severity"`
	Status           string         `json:"status"`
	Reward           RewardResponse `json:"reward"`
	QualityScore     int            `json:"quality_score"`
	DeveloperRating  int            `json:"developer_rating,omitempty"`
	AdminNotes       string         `json:"admin_notes,omitempty"`
	IsBlurred        bool           `json:"is_blurred"`
	BlurReason       string         `json:"blur_reason,omitempty"`
	CreatedAt        string         `json:"created_at"`
}

type BugReportActionResponse struct {
	Report          BugReportResponse `json:"report"`
	RemainingBounty int64             `json:"remaining_bounty"`
}

type BugReportListResponse struct {
	Reports []BugReportResponse `json:"reports"`
}

type DeleteBugReportRequest struct {
	Reason string `json:"reason"`
}
