package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AccountResponse struct {
	UserID               string `json:"user_id"`
	Name                 string `json:"name,omitempty"`
	Balance              int64  `json:"balance"`
	TotalEarnings        int64  `json:"total_earnings"`
	TotalCreditsAcquired int64  `json:"total_credits_acquired"`
}

type TransactionResponse struct {
	TransactionID string            `json:"transaction_id"`
	Type          string            `json:"type"`
	Amount        int64             `json:"amount"`
	UserID        string            `json:"user_id"`
	ProjectID     string            `json:"project_id,omitempty"`
	ReportID      string            `json:"report_id,omitempty"`
	WithdrawalID  string            `json:"withdrawal_id,omitempty"`
	Description   string            `json:"description"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     string            `json:"created_at"`
}

type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}
