package store

import "errors"

var (
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrWorkflowIDRequired   = errors.New("workflow id is required")
	// ErrIdentityChanged is returned for responses that resolved after the identity changed.
	// Their data is discarded.
	ErrIdentityChanged = errors.New("identity changed while the request was in flight")
)
