package domain

import "errors"

var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrAdapterNotFound  = errors.New("pms adapter not found")
	ErrGateway          = errors.New("pms gateway error")
	ErrUnmappedStatus   = errors.New("unmapped reservation status")
	ErrNotFound         = errors.New("not found")
	// ErrDuplicate is returned by create operations that lose a race on a
	// natural key.
	ErrDuplicate = errors.New("duplicate natural key")
)
