package config

import (
	"time"

	"lifeline/internal/utils"
)

// DispatchConfig tunes the broadcast engine. Defaults match the values
// the matcher was calibrated with; override per deployment region.
type DispatchConfig struct {
	BaseRadiusKM     float64       `yaml:"base_radius_km"`
	MaxRadiusKM      float64       `yaml:"max_radius_km"`
	RadiusGrowth     float64       `yaml:"radius_growth"`
	MaxFanout        int           `yaml:"max_fanout"`
	EnforceSchedule  bool          `yaml:"enforce_schedule"`
	SLACheckInterval time.Duration `yaml:"sla_check_interval"`
}

func loadDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		BaseRadiusKM:     getEnvAsFloat64("DISPATCH_BASE_RADIUS_KM", utils.BaseBroadcastRadiusKM),
		MaxRadiusKM:      getEnvAsFloat64("DISPATCH_MAX_RADIUS_KM", utils.MaxBroadcastRadiusKM),
		RadiusGrowth:     getEnvAsFloat64("DISPATCH_RADIUS_GROWTH", utils.RadiusGrowthFactor),
		MaxFanout:        getEnvAsInt("DISPATCH_MAX_FANOUT", utils.MaxBroadcastFanout),
		EnforceSchedule:  getEnvAsBool("DISPATCH_ENFORCE_SCHEDULE", false),
		SLACheckInterval: getEnvAsDuration("DISPATCH_SLA_CHECK_INTERVAL", 30*time.Second),
	}
}
