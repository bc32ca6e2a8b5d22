package appointments

import "errors"

var (
	// ErrNotFound is returned when an appointment id does not exist.
	ErrNotFound = errors.New("appointments: not found")

	// ErrConditionFailed is returned when a guarded update lost to a
	// conflicting status, e.g. confirming a record that is no longer pending.
	ErrConditionFailed = errors.New("appointments: condition failed")
)
