package drivers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snofleet/fleet-rental-api/drivers"
	"github.com/snofleet/fleet-rental-api/models"
)

func TestSampleDirectoryValidate(t *testing.T) {
	dir := drivers.NewSampleDirectory()

	d, err := dir.Validate(context.Background(), "1234", "Bruker 1")
	assert.NoError(t, err)
	assert.Equal(t, "Bruker 1", d.Name)
	assert.Equal(t, "1234", d.Code)
	assert.Equal(t, "+47 123 45 001", d.PhoneNumber)
	assert.Equal(t, "bruker1@taxi.no", d.Email)
	assert.Equal(t, "DL000001", d.LicenseNumber)
	assert.Equal(t, models.DriverActive, d.Status)

	d, err = dir.Validate(context.Background(), "1234", "Bruker 10")
	assert.NoError(t, err)
	assert.Equal(t, "bruker10@taxi.no", d.Email)
}

func TestSampleDirectoryRejects(t *testing.T) {
	dir := drivers.NewSampleDirectory()

	cases := []struct {
		code string
		name string
	}{
		{"0000", "Bruker 1"},
		{"1234", "Bruker 11"},
		{"1234", "Bruker 0"},
		{"1234", "bruker 1"},
		{"1234", "Bruker 1 "},
		{"1234", ""},
	}
	for _, c := range cases {
		_, err := dir.Validate(context.Background(), c.code, c.name)
		assert.ErrorIs(t, err, drivers.ErrInvalidCredentials, "code=%q name=%q", c.code, c.name)
	}
}

func TestSampleDirectoryIsPure(t *testing.T) {
	dir := drivers.NewSampleDirectory()

	first, err1 := dir.Validate(context.Background(), "1234", "Bruker 7")
	second, err2 := dir.Validate(context.Background(), "1234", "Bruker 7")

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, first, second)
}

func TestSampleDirectoryAll(t *testing.T) {
	all := drivers.NewSampleDirectory().All()

	assert.Len(t, all, 10)
	assert.Equal(t, "Bruker 1", all[0].Name)
	assert.Equal(t, "Bruker 10", all[9].Name)
}

func TestAuthorizeReturn(t *testing.T) {
	vehicle := &models.Vehicle{PlateNumber: "EL12345", Status: models.StatusBusy, DriverName: "Bruker 1"}

	assert.NoError(t, drivers.AuthorizeReturn(vehicle, &models.Driver{Name: "Bruker 1"}))

	err := drivers.AuthorizeReturn(vehicle, &models.Driver{Name: "Bruker 2"})
	var nerr *drivers.NotAuthorizedError
	assert.ErrorAs(t, err, &nerr)
	assert.Equal(t, "Bruker 1", nerr.RequiredDriver)
	assert.Contains(t, err.Error(), "Bruker 1")
}
