package errors

import "errors"

var (
	ErrInvalidWithdrawal       = errors.New("withdrawal input is invalid")
	ErrInvalidAction           = errors.New("unknown withdrawal action")
	ErrInvalidAmount           = errors.New("withdrawal amount is outside the allowed limits")
	ErrMissingNotes            = errors.New("non-empty notes are required")
	ErrWithdrawalNotFound      = errors.New("withdrawal request not found")
	ErrWithdrawalNotPending    = errors.New("withdrawal request is not pending")
	ErrWithdrawalNotProcessing = errors.New("withdrawal request is not processing")
	ErrInsufficientBalance     = errors.New("balance cannot cover the withdrawal")
	ErrPayoutFailed            = errors.New("external payout failed")
)
