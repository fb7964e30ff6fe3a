package common

import "errors"

var (
	// ErrLoggerRequired is returned when Deps.Logger is nil.
	ErrLoggerRequired = errors.New("logger is required")

	// ErrConfigRequired is returned when Deps.Config is nil.
	ErrConfigRequired = errors.New("config is required")

	// ErrUnknownFormat is returned for an unsupported --output value.
	ErrUnknownFormat = errors.New("unknown output format")
)
