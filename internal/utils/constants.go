package utils

import "time"

const (
	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Dispatch Constants
	BaseBroadcastRadiusKM = 5.0
	MaxBroadcastRadiusKM  = 20.0
	RadiusGrowthFactor    = 2.0
	MaxBroadcastFanout    = 5

	// Scoring Constants
	DistanceScoreCeiling   = 50.0
	DistanceScorePerKM     = 5.0
	RatingScoreMultiplier  = 6.0
	ExperienceScoreCeiling = 20.0
	ExperienceScorePerJob  = 2.0
	DefaultResponderRating = 5.0

	// ETA Constants
	DefaultCitySpeedKMH = 30.0

	// Cache TTLs
	ResponderLocationCacheTTL = 2 * time.Minute
	EmergencyCacheTTL         = 5 * time.Minute

	// Gateway
	AmbulanceGatewayTimeout = 10 * time.Second
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrValidationFailed      = "validation failed"
	ErrNoRespondersAvailable = "no responders available"
	ErrEmergencyTaken        = "emergency already accepted by another responder"
)

// Cache Keys
const (
	CacheEmergencyPrefix = "emergency:"
	CacheResponderPrefix = "responder:"
	CacheLocationPrefix  = "location:"
	CacheResponderGeoKey = "responders:geo"
)

// Event Channels
const (
	ChannelResponderPrefix = "dispatch:responder:"
	ChannelEmergencyPrefix = "dispatch:emergency:"
)

// Geographic Constants
const (
	EarthRadiusKM = 6371.0
)
