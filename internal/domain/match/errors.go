package match

import "errors"

// Sentinel kinds for match errors.
var (
	ErrMatchConcluded = errors.New("match concluded")
	ErrUnknownPlayer  = errors.New("unknown player")
)
