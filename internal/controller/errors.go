package controller

import "errors"

var (
	// ErrUnknownMode is returned when a requested mode is neither a configured label nor a configured key.
	ErrUnknownMode = errors.New("unknown mode")
	// ErrUnknownHousehold is returned when a household is not configured.
	ErrUnknownHousehold = errors.New("unknown household")
)
