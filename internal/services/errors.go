package services

import "errors"

// Dashboard service errors
var (
	// ErrUnknownView is returned for a view name other than bar, scatter or map
	ErrUnknownView = errors.New("unknown view")

	ErrNoInputFile = errors.New("no input file configured")
)
