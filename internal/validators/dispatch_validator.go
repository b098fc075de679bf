package validators

import (
	"lifeline/internal/models"
)

// ValidateCreateEmergency checks the intake payload. The emergency type
// is accepted even when unknown (unknown types classify as medium), so
// only structural problems block intake.
func ValidateCreateEmergency(req *models.CreateEmergencyRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if req.Latitude == 0 && req.Longitude == 0 {
		errors = append(errors, ValidationError{
			Field:   "latitude",
			Message: "Coordinates (0, 0) are not a valid patient location",
		})
	}

	return errors
}

func ValidateRegisterResponder(req *models.RegisterResponderRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if req.VehicleType != "" && !models.ValidVehicleType(req.VehicleType) {
		errors = append(errors, ValidationError{
			Field:   "vehicle_type",
			Message: "Unknown vehicle type",
		})
	}

	return errors
}

func ValidateUpdateLocation(req *models.UpdateLocationRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if req.Latitude == 0 && req.Longitude == 0 {
		errors = append(errors, ValidationError{
			Field:   "latitude",
			Message: "Coordinates (0, 0) are not a valid position",
		})
	}

	return errors
}

func ValidateShiftWindow(window *models.ShiftWindow) ValidationErrors {
	var errors ValidationErrors

	if window.DayOfWeek < 0 || window.DayOfWeek > 6 {
		errors = append(errors, ValidationError{
			Field:   "day_of_week",
			Message: "Day of week must be 0 (Sunday) through 6 (Saturday)",
		})
	}
	if !isClockTime(window.ShiftStart) {
		errors = append(errors, ValidationError{
			Field:   "shift_start",
			Message: "Time must be HH:MM",
		})
	}
	if !isClockTime(window.ShiftEnd) {
		errors = append(errors, ValidationError{
			Field:   "shift_end",
			Message: "Time must be HH:MM",
		})
	}
	if isClockTime(window.ShiftStart) && isClockTime(window.ShiftEnd) && window.ShiftEnd <= window.ShiftStart {
		errors = append(errors, ValidationError{
			Field:   "shift_end",
			Message: "Shift end must be after shift start",
		})
	}

	return errors
}

func ValidateReassignRequest(req *models.ReassignRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if !models.ValidReassignmentReason(req.Reason) {
		errors = append(errors, ValidationError{
			Field:   "reason",
			Message: "Unknown reassignment reason",
		})
	}

	return errors
}
