package errors

import "errors"

var (
	ErrProfileNotFound = errors.New("tester profile not found")
	ErrInvalidRating   = errors.New("developer rating must be between 1 and 5")
	ErrInvalidBadge    = errors.New("unknown rank badge")
)
