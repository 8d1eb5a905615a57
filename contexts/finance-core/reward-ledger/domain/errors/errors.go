package errors

import "errors"

var (
	ErrInvalidEntry        = errors.New("ledger entry is invalid")
	ErrAccountNotFound     = errors.New("user account not found")
	ErrInsufficientBalance = errors.New("insufficient user balance")
)
