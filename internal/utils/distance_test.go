package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDistance(t *testing.T) {
	// Bangalore city station to Kempegowda airport, roughly 29 km.
	distance := CalculateDistance(12.9767, 77.5713, 13.1986, 77.7066)
	assert.InDelta(t, 28.8, distance, 1.0)

	// Same point is zero.
	assert.Zero(t, CalculateDistance(12.97, 77.59, 12.97, 77.59))

	// One degree of latitude is about 111 km.
	assert.InDelta(t, 111.2, CalculateDistance(12, 77, 13, 77), 0.5)
}

func TestEstimateETAMinutes(t *testing.T) {
	assert.Equal(t, 10, EstimateETAMinutes(5, 30))
	assert.Equal(t, 1, EstimateETAMinutes(0.1, 30))

	// Minutes round up; 7 km at 30 km/h is exactly 14 minutes.
	assert.Equal(t, 14, EstimateETAMinutes(7, 30))
	assert.Equal(t, 15, EstimateETAMinutes(7.1, 30))

	// Zero or negative speeds fall back to the default city speed.
	assert.Equal(t, 10, EstimateETAMinutes(5, 0))
	assert.Equal(t, 10, EstimateETAMinutes(5, -10))
}

func TestIsValidCoordinates(t *testing.T) {
	assert.True(t, IsValidCoordinates(0, 0))
	assert.True(t, IsValidCoordinates(-90, 180))
	assert.False(t, IsValidCoordinates(90.1, 0))
	assert.False(t, IsValidCoordinates(0, -180.5))
}
