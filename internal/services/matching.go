package services

import (
	"math"
	"sort"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScoreResponder computes the match score for one candidate:
// proximity up to 50 points fading at 5 per km, rating up to 30 points,
// experience capped at 20 points.
func ScoreResponder(responder *models.Responder, distanceKM float64) float64 {
	distanceScore := math.Max(0, utils.DistanceScoreCeiling-distanceKM*utils.DistanceScorePerKM)

	rating := responder.Rating
	if rating == 0 {
		rating = utils.DefaultResponderRating
	}
	ratingScore := rating * utils.RatingScoreMultiplier

	experienceScore := math.Min(utils.ExperienceScoreCeiling, float64(responder.TotalRescues)*utils.ExperienceScorePerJob)

	return distanceScore + ratingScore + experienceScore
}

// EstimateResponderETA predicts arrival time from the vehicle's speed
// profile and the congestion expected at the given hour. Siren-equipped
// vehicles run at peak speed on critical emergencies; sirens and
// lane-splitting also shrink the share of congestion the vehicle
// actually feels.
func EstimateResponderETA(responder *models.Responder, distanceKM float64, priority models.Priority, at time.Time) int {
	profile := models.ProfileForVehicle(responder.VehicleType)
	level := models.EstimateTrafficLevel(at.Hour())
	multiplier := models.TrafficMultiplier(level)

	baseSpeed := profile.AvgSpeedKMH
	if profile.CanUseSirens && priority == models.PriorityCritical {
		baseSpeed = profile.PeakSpeedKMH
	}

	effectiveSpeed := baseSpeed / (1 + (multiplier-1)*profile.TrafficFactor)

	return utils.EstimateETAMinutes(distanceKM, effectiveSpeed)
}

// RankCandidates filters the available pool down to responders eligible
// for this emergency and orders them best first.
func RankCandidates(
	responders []*models.Responder,
	scene models.Location,
	radiusKM float64,
	priority models.Priority,
	excluded map[primitive.ObjectID]bool,
	enforceSchedule bool,
	at time.Time,
) []*models.RankedResponder {
	var candidates []*models.RankedResponder

	for _, responder := range responders {
		if excluded[responder.ID] {
			continue
		}
		if !responder.HasLocationFix() {
			continue
		}
		if enforceSchedule && !responder.IsOnShift(at) {
			continue
		}

		distance := utils.CalculateDistance(
			scene.Latitude(), scene.Longitude(),
			responder.CurrentLocation.Latitude(), responder.CurrentLocation.Longitude(),
		)
		if distance > radiusKM {
			continue
		}
		if responder.MaxRangeKM > 0 && distance > responder.MaxRangeKM {
			continue
		}

		candidates = append(candidates, &models.RankedResponder{
			Responder:  responder,
			DistanceKM: distance,
			ETAMinutes: EstimateResponderETA(responder, distance, priority, at),
			Score:      ScoreResponder(responder, distance),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}
