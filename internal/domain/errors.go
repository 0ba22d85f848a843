package domain

import "errors"

// Sentinel errors for calendar operations. Callers match with errors.Is;
// services wrap them with a specific message where one helps the user.
var (
	ErrValidation           = errors.New("invalid input")
	ErrConflict             = errors.New("an event already exists in this time slot; choose a different time or date")
	ErrNotFound             = errors.New("not found")
	ErrUnsupportedOperation = errors.New("operation not supported on a synthesized event")
	ErrUnauthenticated      = errors.New("not authenticated")
	ErrNoChanges            = errors.New("no fields to update")
	ErrStore                = errors.New("store error")
)
