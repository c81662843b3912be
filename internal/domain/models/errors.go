package models

import "errors"

var (
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrNotConfigured       = errors.New("not configured")
	ErrDuplicateInstrument = errors.New("instrument already tracked")
	ErrUnknownInstrument   = errors.New("instrument not tracked")
	ErrInvalidSymbol       = errors.New("invalid symbol")
	ErrJobNotFound         = errors.New("job not found")
)
