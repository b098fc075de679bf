package validators

import (
	"testing"

	"lifeline/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateCreateEmergency(t *testing.T) {
	valid := &models.CreateEmergencyRequest{
		Type:      models.EmergencyTypeAccident,
		Latitude:  12.97,
		Longitude: 77.59,
	}
	assert.Empty(t, ValidateCreateEmergency(valid))

	missingType := &models.CreateEmergencyRequest{Latitude: 12.97, Longitude: 77.59}
	errs := ValidateCreateEmergency(missingType)
	assert.NotEmpty(t, errs)
	assert.Contains(t, errs.Error(), "required")

	nullIsland := &models.CreateEmergencyRequest{Type: models.EmergencyTypeFall}
	assert.NotEmpty(t, ValidateCreateEmergency(nullIsland))

	outOfRange := &models.CreateEmergencyRequest{
		Type:      models.EmergencyTypeFall,
		Latitude:  95,
		Longitude: 77.59,
	}
	assert.NotEmpty(t, ValidateCreateEmergency(outOfRange))

	// A single zero coordinate is a real place.
	equator := &models.CreateEmergencyRequest{
		Type:      models.EmergencyTypeFall,
		Latitude:  0,
		Longitude: 32.58,
	}
	assert.Empty(t, ValidateCreateEmergency(equator))
}

func TestValidateRegisterResponder(t *testing.T) {
	assert.Empty(t, ValidateRegisterResponder(&models.RegisterResponderRequest{
		Name:        "Asha",
		VehicleType: models.VehicleTypeBike,
	}))

	// Vehicle type is optional; the service defaults it.
	assert.Empty(t, ValidateRegisterResponder(&models.RegisterResponderRequest{Name: "Asha"}))

	assert.NotEmpty(t, ValidateRegisterResponder(&models.RegisterResponderRequest{}))

	errs := ValidateRegisterResponder(&models.RegisterResponderRequest{
		Name:        "Asha",
		VehicleType: "submarine",
	})
	assert.NotEmpty(t, errs)
	assert.Equal(t, "Unknown vehicle type", errs.ToMap()["vehicle_type"])
}

func TestValidateShiftWindow(t *testing.T) {
	assert.Empty(t, ValidateShiftWindow(&models.ShiftWindow{
		DayOfWeek:  1,
		ShiftStart: "08:00",
		ShiftEnd:   "16:00",
	}))

	assert.NotEmpty(t, ValidateShiftWindow(&models.ShiftWindow{
		DayOfWeek:  9,
		ShiftStart: "08:00",
		ShiftEnd:   "16:00",
	}))

	assert.NotEmpty(t, ValidateShiftWindow(&models.ShiftWindow{
		DayOfWeek:  1,
		ShiftStart: "eight",
		ShiftEnd:   "16:00",
	}))

	inverted := ValidateShiftWindow(&models.ShiftWindow{
		DayOfWeek:  1,
		ShiftStart: "16:00",
		ShiftEnd:   "08:00",
	})
	assert.NotEmpty(t, inverted)
	assert.Contains(t, inverted.Error(), "after shift start")
}

func TestValidateReassignRequest(t *testing.T) {
	assert.Empty(t, ValidateReassignRequest(&models.ReassignRequest{
		CurrentResponderID: "64f1b2a3c4d5e6f7a8b9c0d1",
		Reason:             models.ReassignReasonVehicleBreakdown,
	}))

	// The holder's id is mandatory so retried requests can be fenced.
	assert.NotEmpty(t, ValidateReassignRequest(&models.ReassignRequest{
		Reason: models.ReassignReasonVehicleBreakdown,
	}))
	assert.NotEmpty(t, ValidateReassignRequest(&models.ReassignRequest{
		CurrentResponderID: "not-an-id",
		Reason:             models.ReassignReasonVehicleBreakdown,
	}))
	assert.NotEmpty(t, ValidateReassignRequest(&models.ReassignRequest{
		CurrentResponderID: "64f1b2a3c4d5e6f7a8b9c0d1",
		Reason:             "why_not",
	}))
	assert.NotEmpty(t, ValidateReassignRequest(&models.ReassignRequest{}))
}

func TestRespondRequestObjectID(t *testing.T) {
	assert.Empty(t, ValidateStruct(&models.RespondRequest{
		ResponderID: "64f1b2a3c4d5e6f7a8b9c0d1",
	}))

	assert.NotEmpty(t, ValidateStruct(&models.RespondRequest{ResponderID: "not-an-id"}))
	assert.NotEmpty(t, ValidateStruct(&models.RespondRequest{}))
}
