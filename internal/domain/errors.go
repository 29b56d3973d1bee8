package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNoMedia         = errors.New("no unprocessed media")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrProviderFailure = errors.New("provider failure")
	ErrRenderFailure   = errors.New("render failure")
	ErrMissingAPIKey   = errors.New("missing api key")
)
