package errors

import "errors"

var (
	ErrInvalidFunding      = errors.New("project funding input is invalid")
	ErrInvalidAmount       = errors.New("bounty amount must be positive")
	ErrProjectNotFound     = errors.New("project not found")
	ErrInsufficientBounty  = errors.New("insufficient remaining bounty")
	ErrConcurrencyConflict = errors.New("bounty pool update conflict")
)
