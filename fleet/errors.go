package fleet

import (
	"errors"
	"fmt"

	"github.com/snofleet/fleet-rental-api/models"
)

// ErrNotFound is returned when the target vehicle does not exist.
var ErrNotFound = errors.New("vehicle not found")

// ValidationError reports malformed or out-of-range input. All validation
// happens before any persistence call, so a ValidationError means nothing
// was written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransitionError reports a status change that the lifecycle does not allow.
type TransitionError struct {
	From models.VehicleStatus
	To   models.VehicleStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid vehicle status transition: %s -> %s", e.From, e.To)
}
