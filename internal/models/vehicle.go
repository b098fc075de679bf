package models

type VehicleType string
type TrafficLevel string

const (
	VehicleTypeBike      VehicleType = "bike"
	VehicleTypeAuto      VehicleType = "auto"
	VehicleTypeCar       VehicleType = "car"
	VehicleTypeAmbulance VehicleType = "ambulance"
	VehicleTypePolice    VehicleType = "police"

	TrafficLevelFree     TrafficLevel = "free"
	TrafficLevelLight    TrafficLevel = "light"
	TrafficLevelModerate TrafficLevel = "moderate"
	TrafficLevelHeavy    TrafficLevel = "heavy"
	TrafficLevelSevere   TrafficLevel = "severe"
)

// VehicleProfile describes how a vehicle class moves through traffic.
// PeakSpeedKMH applies when the vehicle runs with sirens; TrafficFactor
// is the fraction of ambient congestion that actually slows the vehicle
// down (sirens and lane-splitting reduce it).
type VehicleProfile struct {
	Type          VehicleType `json:"type"`
	AvgSpeedKMH   float64     `json:"avg_speed_kmh"`
	PeakSpeedKMH  float64     `json:"peak_speed_kmh"`
	TrafficFactor float64     `json:"traffic_factor"`
	CanUseSirens  bool        `json:"can_use_sirens"`
}

var vehicleProfiles = map[VehicleType]VehicleProfile{
	VehicleTypeBike:      {Type: VehicleTypeBike, AvgSpeedKMH: 25, PeakSpeedKMH: 40, TrafficFactor: 0.3, CanUseSirens: false},
	VehicleTypeAuto:      {Type: VehicleTypeAuto, AvgSpeedKMH: 20, PeakSpeedKMH: 30, TrafficFactor: 0.5, CanUseSirens: false},
	VehicleTypeCar:       {Type: VehicleTypeCar, AvgSpeedKMH: 30, PeakSpeedKMH: 50, TrafficFactor: 0.7, CanUseSirens: false},
	VehicleTypeAmbulance: {Type: VehicleTypeAmbulance, AvgSpeedKMH: 35, PeakSpeedKMH: 60, TrafficFactor: 0.2, CanUseSirens: true},
	VehicleTypePolice:    {Type: VehicleTypePolice, AvgSpeedKMH: 40, PeakSpeedKMH: 80, TrafficFactor: 0.15, CanUseSirens: true},
}

var trafficMultipliers = map[TrafficLevel]float64{
	TrafficLevelFree:     1.0,
	TrafficLevelLight:    1.2,
	TrafficLevelModerate: 1.5,
	TrafficLevelHeavy:    2.0,
	TrafficLevelSevere:   3.0,
}

// ValidVehicleType reports whether a profile exists for the given type.
func ValidVehicleType(vehicleType VehicleType) bool {
	_, ok := vehicleProfiles[vehicleType]
	return ok
}

// ProfileForVehicle returns the speed profile for a vehicle type, falling
// back to the bike profile for unknown types.
func ProfileForVehicle(vehicleType VehicleType) VehicleProfile {
	if profile, ok := vehicleProfiles[vehicleType]; ok {
		return profile
	}
	return vehicleProfiles[VehicleTypeBike]
}

// TrafficMultiplier returns the ETA multiplier for a congestion level.
func TrafficMultiplier(level TrafficLevel) float64 {
	if m, ok := trafficMultipliers[level]; ok {
		return m
	}
	return 1.0
}

// EstimateTrafficLevel infers congestion from the hour of day. Peak hours
// are 08-10 and 17-20.
func EstimateTrafficLevel(hour int) TrafficLevel {
	switch {
	case (hour >= 8 && hour <= 10) || (hour >= 17 && hour <= 20):
		return TrafficLevelHeavy
	case (hour >= 7 && hour < 8) || (hour > 10 && hour < 17):
		return TrafficLevelModerate
	case (hour >= 6 && hour < 7) || (hour > 20 && hour <= 22):
		return TrafficLevelLight
	default:
		return TrafficLevelFree
	}
}
