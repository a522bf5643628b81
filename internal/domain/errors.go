package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound  = errors.New("domain: not found")
	ErrSagaState = errors.New("domain: illegal saga state")
	ErrConflict  = errors.New("domain: conflict")
)
