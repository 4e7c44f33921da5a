package fleet

import (
	"fmt"

	"github.com/snofleet/fleet-rental-api/models"
)

// allowTransition is the vehicle lifecycle as a directed graph. Maintenance is
// reachable from every state, so it is handled in CanTransition rather than
// listed per state.
var allowTransition = map[models.VehicleStatus][]models.VehicleStatus{
	models.StatusFree:        {models.StatusBusy, models.StatusReserved},
	models.StatusBusy:        {models.StatusFree},
	models.StatusReserved:    {models.StatusFree, models.StatusBusy},
	models.StatusMaintenance: {models.StatusFree},
}

// ParseStatus validates a raw status string against the enumerated set.
func ParseStatus(s string) (models.VehicleStatus, error) {
	switch models.VehicleStatus(s) {
	case models.StatusFree, models.StatusBusy, models.StatusReserved, models.StatusMaintenance:
		return models.VehicleStatus(s), nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s)}
}

// CanTransition reports whether from -> to is an allowed lifecycle change.
func CanTransition(from, to models.VehicleStatus) bool {
	if from == to {
		return true
	}
	if to == models.StatusMaintenance {
		return true
	}
	allowed, ok := allowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}
