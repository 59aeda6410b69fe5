package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrBadPlayer  = errors.New("player must be a non-negative integer")
	ErrBadLimit   = errors.New("limit must be a positive integer")
	ErrLimit      = errors.New("limit exceeds maximum")
)
