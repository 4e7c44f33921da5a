package drivers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/snofleet/fleet-rental-api/models"
)

// sampleCode is the shared code for the built-in driver set.
const sampleCode = "1234"

// Bruker 1 through Bruker 10, exact case.
var sampleNamePattern = regexp.MustCompile(`^Bruker (1[0]|[1-9])$`)

// SampleDirectory is the built-in authorized driver set used until a real
// identity provider is wired in. All ten drivers share the same code and the
// record fields are synthesized from the driver number.
type SampleDirectory struct{}

// NewSampleDirectory returns the built-in directory.
func NewSampleDirectory() *SampleDirectory {
	return &SampleDirectory{}
}

// Validate accepts only the shared code combined with an exact sample name.
func (d *SampleDirectory) Validate(_ context.Context, code, name string) (*models.Driver, error) {
	if code != sampleCode {
		return nil, ErrInvalidCredentials
	}
	m := sampleNamePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, ErrInvalidCredentials
	}
	number, _ := strconv.Atoi(m[1])
	return sampleDriver(number), nil
}

// All returns the full sample set, used to seed the drivers collection.
func (d *SampleDirectory) All() []models.Driver {
	out := make([]models.Driver, 0, 10)
	for i := 1; i <= 10; i++ {
		out = append(out, *sampleDriver(i))
	}
	return out
}

func sampleDriver(number int) *models.Driver {
	return &models.Driver{
		Name:          fmt.Sprintf("Bruker %d", number),
		Code:          sampleCode,
		PhoneNumber:   fmt.Sprintf("+47 123 45 %03d", number),
		Email:         fmt.Sprintf("bruker%d@taxi.no", number),
		LicenseNumber: fmt.Sprintf("DL%06d", number),
		Status:        models.DriverActive,
	}
}
