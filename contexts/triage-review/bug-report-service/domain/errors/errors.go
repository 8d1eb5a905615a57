package errors

import "errors"

var (
	ErrInvalidReport       = errors.New("bug report input is invalid")
	ErrInvalidAction       = errors.New("unknown bug report action")
	ErrInvalidSeverity     = errors.New("bug report severity must be critical, major, or minor")
	ErrInvalidAmount       = errors.New("reward amount must be non-negative")
	ErrInvalidRating       = errors.New("developer rating must be between 1 and 5")
	ErrMissingReason       = errors.New("a non-empty reason is required")
	ErrReportNotFound      = errors.New("bug report not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrProjectNotOpen      = errors.New("project is not accepting bug reports")
	ErrReportNotPending    = errors.New("bug report is not pending review")
	ErrReportNotApproved   = errors.New("bug report is not approved")
	ErrReportNotResolved   = errors.New("bug report is not resolved")
	ErrRewardNotAdjustable = errors.New("bug report reward can only be adjusted while approved or resolved")
	ErrInsufficientBounty  = errors.New("remaining bounty cannot cover the reward")
	ErrInsufficientBalance = errors.New("tester balance cannot cover the reversal")
)
