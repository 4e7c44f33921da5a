package drivers

import (
	"context"
	"errors"
	"fmt"

	"github.com/snofleet/fleet-rental-api/models"
)

// ErrInvalidCredentials is returned when a code/name pair does not match an
// authorized driver.
var ErrInvalidCredentials = errors.New("invalid driver credentials")

// NotAuthorizedError is returned on a return action when the authenticated
// driver is not the one attached to the vehicle.
type NotAuthorizedError struct {
	RequiredDriver string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("vehicle must be returned by %s", e.RequiredDriver)
}

// Directory validates driver identities. Implementations must be pure with
// respect to their backing set: the same code/name pair always yields the same
// accept/reject result. No session or token is issued; every status-changing
// action re-validates.
type Directory interface {
	Validate(ctx context.Context, code, name string) (*models.Driver, error)
}

// AuthorizeReturn checks that the authenticated driver is the one currently
// attached to the vehicle.
func AuthorizeReturn(vehicle *models.Vehicle, driver *models.Driver) error {
	if vehicle.DriverName != driver.Name {
		return &NotAuthorizedError{RequiredDriver: vehicle.DriverName}
	}
	return nil
}
