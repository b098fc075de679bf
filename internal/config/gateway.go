package config

import (
	"time"
)

// GatewayConfig points at the regional ambulance provider. An empty base
// URL disables the integration.
type GatewayConfig struct {
	AmbulanceBaseURL string        `yaml:"ambulance_base_url"`
	AmbulanceAPIKey  string        `yaml:"ambulance_api_key"`
	Timeout          time.Duration `yaml:"timeout"`
}

func loadGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		AmbulanceBaseURL: getEnv("AMBULANCE_GATEWAY_URL", ""),
		AmbulanceAPIKey:  getEnv("AMBULANCE_GATEWAY_API_KEY", ""),
		Timeout:          getEnvAsDuration("AMBULANCE_GATEWAY_TIMEOUT", 10*time.Second),
	}
}
