package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RequestWithdrawalRequest struct {
	Amount      int64  `json:"amount"`
	PayoutEmail string `json:"payout_email"`
}

type WithdrawalActionRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

type WithdrawalResponse struct {
	WithdrawalID  string `json:"withdrawal_id"`
	UserID        string `json:"user_id"`
	Amount        int64  `json:"amount"`
	PayoutEmail   string `json:"payout_email"`
	Status        string `json:"status"`
	AdminNotes    string `json:"admin_notes,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	ProcessedAt   string `json:"processed_at,omitempty"`
	CompletedAt   string `json:"completed_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type WithdrawalListResponse struct {
	Withdrawals []WithdrawalResponse `json:"withdrawals"`
}
