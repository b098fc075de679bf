package services

import (
	"context"
	"fmt"
	"time"

	"lifeline/internal/config"
	"lifeline/internal/events"
	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/utils"
	"lifeline/pkg/ambulance"
	"lifeline/pkg/logger"
	"lifeline/pkg/maps"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DispatchService interface {
	// Intake and lookups
	CreateEmergency(ctx context.Context, request *models.CreateEmergencyRequest) (*models.DispatchResult, error)
	GetEmergency(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error)
	ListEmergencies(ctx context.Context, status models.EmergencyStatus, params *utils.PaginationParams) ([]*models.Emergency, int64, error)
	GetPendingAlerts(ctx context.Context, responderID primitive.ObjectID) ([]*models.PendingAlert, error)
	PreviewCandidates(ctx context.Context, lat, lng float64) ([]*models.RankedResponder, error)

	// Responder responses
	AcceptEmergency(ctx context.Context, emergencyID, responderID primitive.ObjectID) (*models.Assignment, error)
	RejectEmergency(ctx context.Context, emergencyID, responderID primitive.ObjectID, reason string) error
	StartProgress(ctx context.Context, emergencyID, responderID primitive.ObjectID) error
	CompleteEmergency(ctx context.Context, emergencyID, responderID primitive.ObjectID) (*models.Emergency, error)

	// Control
	CancelEmergency(ctx context.Context, emergencyID primitive.ObjectID) error
	Reassign(ctx context.Context, emergencyID, currentResponderID primitive.ObjectID, reason models.ReassignmentReason) (*models.ReassignmentResult, error)
}

type dispatchService struct {
	emergencyRepo  interfaces.EmergencyRepository
	responderRepo  interfaces.ResponderRepository
	broadcastRepo  interfaces.BroadcastRepository
	assignmentRepo interfaces.AssignmentRepository
	slaEventRepo   interfaces.SLAEventRepository
	publisher      *events.Publisher
	gateway        *ambulance.Gateway
	mapsProvider   maps.MapsProvider
	config         *config.DispatchConfig
	logger         *logger.Logger
}

func NewDispatchService(
	config *config.DispatchConfig,
	emergencyRepo interfaces.EmergencyRepository,
	responderRepo interfaces.ResponderRepository,
	broadcastRepo interfaces.BroadcastRepository,
	assignmentRepo interfaces.AssignmentRepository,
	slaEventRepo interfaces.SLAEventRepository,
	publisher *events.Publisher,
	gateway *ambulance.Gateway,
	mapsProvider maps.MapsProvider,
	log *logger.Logger,
) DispatchService {
	return &dispatchService{
		emergencyRepo:  emergencyRepo,
		responderRepo:  responderRepo,
		broadcastRepo:  broadcastRepo,
		assignmentRepo: assignmentRepo,
		slaEventRepo:   slaEventRepo,
		publisher:      publisher,
		gateway:        gateway,
		mapsProvider:   mapsProvider,
		config:         config,
		logger:         log,
	}
}

func (s *dispatchService) CreateEmergency(ctx context.Context, request *models.CreateEmergencyRequest) (*models.DispatchResult, error) {
	priority := models.ClassifyEmergencyType(request.Type)
	now := time.Now()

	emergency := &models.Emergency{
		Type:            request.Type,
		Priority:        priority,
		Status:          models.EmergencyStatusPending,
		PatientLocation: models.NewLocation(request.Latitude, request.Longitude),
		PatientName:     request.PatientName,
		PatientPhone:    request.PatientPhone,
		Description:     request.Description,
		SLADeadline:     now.Add(priority.SLAWindow()),
	}

	if err := s.emergencyRepo.Create(ctx, emergency); err != nil {
		return nil, fmt.Errorf("failed to create emergency: %w", err)
	}

	s.appendEvent(ctx, emergency.ID, models.SLAEventCreated, map[string]interface{}{
		"emergency_type": emergency.Type,
		"priority":       priority,
		"sla_deadline":   emergency.SLADeadline.UTC(),
	})

	// Ambulance request runs alongside responder dispatch and must never
	// delay it.
	if s.gateway != nil && s.gateway.Configured() &&
		(priority == models.PriorityCritical || priority == models.PriorityHigh) {
		go s.requestAmbulance(emergency)
	}

	broadcasts, radius, err := s.broadcastWithWidening(ctx, emergency, s.config.BaseRadiusKM, 1, nil)
	if err != nil {
		return nil, err
	}

	if len(broadcasts) == 0 {
		s.logger.WithEmergencyID(emergency.ID).Warn("No eligible responders within maximum radius")
	}

	return &models.DispatchResult{
		Emergency:  emergency,
		Broadcasts: broadcasts,
		RadiusKM:   radius,
	}, nil
}

func (s *dispatchService) GetEmergency(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	emergency, err := s.emergencyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: emergency %s", ErrNotFound, id.Hex())
	}
	return emergency, nil
}

func (s *dispatchService) ListEmergencies(ctx context.Context, status models.EmergencyStatus, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	return s.emergencyRepo.GetByStatus(ctx, status, params)
}

func (s *dispatchService) GetPendingAlerts(ctx context.Context, responderID primitive.ObjectID) ([]*models.PendingAlert, error) {
	broadcasts, err := s.broadcastRepo.GetPendingByResponder(ctx, responderID)
	if err != nil {
		return nil, err
	}

	alerts := make([]*models.PendingAlert, 0, len(broadcasts))
	for _, broadcast := range broadcasts {
		emergency, err := s.emergencyRepo.GetByID(ctx, broadcast.EmergencyID)
		if err != nil || !emergency.IsOpen() {
			continue
		}

		alerts = append(alerts, &models.PendingAlert{
			Broadcast: *broadcast,
			Emergency: *emergency,
		})
	}

	return alerts, nil
}

func (s *dispatchService) PreviewCandidates(ctx context.Context, lat, lng float64) ([]*models.RankedResponder, error) {
	responders, err := s.responderRepo.GetAvailable(ctx)
	if err != nil {
		return nil, err
	}

	scene := models.NewLocation(lat, lng)
	candidates := RankCandidates(responders, scene, s.config.MaxRadiusKM, models.PriorityMedium, nil, s.config.EnforceSchedule, time.Now())

	if len(candidates) > s.config.MaxFanout {
		candidates = candidates[:s.config.MaxFanout]
	}

	return candidates, nil
}

func (s *dispatchService) AcceptEmergency(ctx context.Context, emergencyID, responderID primitive.ObjectID) (*models.Assignment, error) {
	emergency, err := s.GetEmergency(ctx, emergencyID)
	if err != nil {
		return nil, err
	}

	responder, err := s.responderRepo.GetByID(ctx, responderID)
	if err != nil {
		return nil, fmt.Errorf("%w: responder %s", ErrNotFound, responderID.Hex())
	}

	pending, err := s.broadcastRepo.GetPendingByEmergency(ctx, emergencyID)
	if err != nil {
		return nil, err
	}

	var offer *models.Broadcast
	for _, broadcast := range pending {
		if broadcast.ResponderID == responderID {
			offer = broadcast
			break
		}
	}
	if offer == nil {
		// The offer may have been expired moments ago by a winning
		// acceptance; report that as a conflict rather than a bad request.
		if current, err := s.emergencyRepo.GetByID(ctx, emergencyID); err == nil && !current.IsOpen() {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: no pending offer for responder", ErrInvalidState)
	}

	// Single arbitration point: the conditional write on the emergency row
	// decides the winner. Everything after it runs only for the winner.
	locked, err := s.emergencyRepo.LockForAcceptance(ctx, emergencyID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrConflict
	}

	now := time.Now()
	if err := s.broadcastRepo.MarkAccepted(ctx, emergencyID, responderID, now); err != nil {
		s.logger.WithError(err).WithEmergencyID(emergencyID).Error("Failed to mark offer accepted")
	}

	var losers []primitive.ObjectID
	for _, broadcast := range pending {
		if broadcast.ResponderID != responderID {
			losers = append(losers, broadcast.ResponderID)
		}
	}
	if err := s.broadcastRepo.ExpireOtherPending(ctx, emergencyID, responderID); err != nil {
		s.logger.WithError(err).WithEmergencyID(emergencyID).Error("Failed to expire sibling offers")
	}

	distance := offer.DistanceKM
	eta := offer.ETAMinutes
	if responder.HasLocationFix() {
		distance = utils.CalculateDistance(
			emergency.PatientLocation.Latitude(), emergency.PatientLocation.Longitude(),
			responder.CurrentLocation.Latitude(), responder.CurrentLocation.Longitude(),
		)
		eta = EstimateResponderETA(responder, distance, emergency.Priority, now)

		if routeDistance, routeETA, ok := s.routeEstimate(ctx, responder, emergency); ok {
			distance = routeDistance
			eta = routeETA
		}
	}

	assignment := &models.Assignment{
		EmergencyID:       emergencyID,
		ResponderID:       responderID,
		Status:            models.AssignmentStatusActive,
		CurrentDistanceKM: distance,
		ETAMinutes:        eta,
	}
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	if err := s.responderRepo.SetStatus(ctx, responderID, models.ResponderStatusBusy); err != nil {
		s.logger.WithError(err).WithResponderID(responderID).Error("Failed to mark responder busy")
	}

	s.appendEvent(ctx, emergencyID, models.SLAEventAccepted, map[string]interface{}{
		"responder_id": responderID.Hex(),
		"distance_km":  distance,
		"eta_minutes":  eta,
	})

	emergency.Status = models.EmergencyStatusAccepted
	s.publisher.NotifyAssignmentLocked(ctx, emergency, assignment, losers)

	s.logger.LogDispatchEvent(emergencyID, "accepted", map[string]interface{}{
		"responder_id": responderID.Hex(),
		"eta_minutes":  eta,
	})

	return assignment, nil
}

func (s *dispatchService) RejectEmergency(ctx context.Context, emergencyID, responderID primitive.ObjectID, reason string) error {
	emergency, err := s.GetEmergency(ctx, emergencyID)
	if err != nil {
		return err
	}

	pending, err := s.broadcastRepo.GetPendingByEmergency(ctx, emergencyID)
	if err != nil {
		return err
	}

	found := false
	for _, broadcast := range pending {
		if broadcast.ResponderID == responderID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: no pending offer for responder", ErrInvalidState)
	}

	now := time.Now()
	if err := s.broadcastRepo.MarkRejected(ctx, emergencyID, responderID, now); err != nil {
		return err
	}

	details := map[string]interface{}{
		"responder_id": responderID.Hex(),
	}
	if reason != "" {
		details["reason"] = reason
	}
	s.appendEvent(ctx, emergencyID, models.SLAEventRejected, details)

	if !emergency.IsOpen() {
		return nil
	}

	remaining, err := s.broadcastRepo.GetPendingByEmergency(ctx, emergencyID)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		return nil
	}

	// Everyone declined this round; widen and try again, skipping anyone
	// who already said no.
	nextRadius := emergency.LastRadiusKM * s.config.RadiusGrowth
	if emergency.LastRadiusKM == 0 {
		nextRadius = s.config.BaseRadiusKM
	}
	if nextRadius > s.config.MaxRadiusKM {
		s.logger.WithEmergencyID(emergencyID).Warn("All offers rejected at maximum radius")
		return nil
	}

	excluded, err := s.respondedResponders(ctx, emergencyID)
	if err != nil {
		return err
	}

	round, err := s.broadcastRepo.LatestRound(ctx, emergencyID)
	if err != nil {
		return err
	}

	broadcasts, _, err := s.broadcastWithWidening(ctx, emergency, nextRadius, round+1, excluded)
	if err != nil {
		return err
	}
	if len(broadcasts) == 0 {
		s.logger.WithEmergencyID(emergencyID).Warn("Re-broadcast found no eligible responders")
	}

	return nil
}

func (s *dispatchService) StartProgress(ctx context.Context, emergencyID, responderID primitive.ObjectID) error {
	emergency, err := s.GetEmergency(ctx, emergencyID)
	if err != nil {
		return err
	}
	if emergency.Status != models.EmergencyStatusAccepted {
		return fmt.Errorf("%w: emergency is %s", ErrInvalidState, emergency.Status)
	}

	assignment, err := s.assignmentRepo.GetActiveByEmergency(ctx, emergencyID)
	if err != nil {
		return err
	}
	if assignment == nil || assignment.ResponderID != responderID {
		return fmt.Errorf("%w: responder does not hold this assignment", ErrInvalidState)
	}

	return s.emergencyRepo.UpdateStatus(ctx, emergencyID, models.EmergencyStatusInProgress)
}

func (s *dispatchService) CompleteEmergency(ctx context.Context, emergencyID, responderID primitive.ObjectID) (*models.Emergency, error) {
	emergency, err := s.GetEmergency(ctx, emergencyID)
	if err != nil {
		return nil, err
	}
	if emergency.Status != models.EmergencyStatusAccepted && emergency.Status != models.EmergencyStatusInProgress {
		return nil, fmt.Errorf("%w: emergency is %s", ErrInvalidState, emergency.Status)
	}

	assignment, err := s.assignmentRepo.GetActiveByEmergency(ctx, emergencyID)
	if err != nil {
		return nil, err
	}
	if assignment == nil || assignment.ResponderID != responderID {
		return nil, fmt.Errorf("%w: responder does not hold this assignment", ErrInvalidState)
	}

	now := time.Now()
	withinSLA := !now.After(emergency.SLADeadline)

	if err := s.assignmentRepo.Complete(ctx, assignment.ID, now); err != nil {
		return nil, err
	}
	if err := s.emergencyRepo.MarkCompleted(ctx, emergencyID, now); err != nil {
		return nil, err
	}

	if err := s.responderRepo.SetStatus(ctx, responderID, models.ResponderStatusAvailable); err != nil {
		s.logger.WithError(err).WithResponderID(responderID).Error("Failed to free responder")
	}
	if err := s.responderRepo.IncrementRescues(ctx, responderID); err != nil {
		s.logger.WithError(err).WithResponderID(responderID).Error("Failed to increment rescue count")
	}

	eventType := models.SLAEventCompleted
	if !withinSLA {
		eventType = models.SLAEventCompletedBreached
	}
	s.appendEvent(ctx, emergencyID, eventType, map[string]interface{}{
		"responder_id": responderID.Hex(),
		"within_sla":   withinSLA,
		"completed_at": now.UTC(),
	})
	s.logger.LogSLAEvent(emergencyID, string(eventType), emergency.SLADeadline, !withinSLA)

	emergency.Status = models.EmergencyStatusCompleted
	emergency.CompletedAt = &now
	s.publisher.NotifyCompleted(ctx, emergency, withinSLA)

	return emergency, nil
}

func (s *dispatchService) CancelEmergency(ctx context.Context, emergencyID primitive.ObjectID) error {
	emergency, err := s.GetEmergency(ctx, emergencyID)
	if err != nil {
		return err
	}
	if emergency.IsTerminal() {
		return fmt.Errorf("%w: emergency is %s", ErrInvalidState, emergency.Status)
	}

	if err := s.broadcastRepo.ExpirePending(ctx, emergencyID); err != nil {
		s.logger.WithError(err).WithEmergencyID(emergencyID).Error("Failed to expire offers on cancel")
	}

	assignment, err := s.assignmentRepo.GetActiveByEmergency(ctx, emergencyID)
	if err != nil {
		return err
	}
	if assignment != nil {
		now := time.Now()
		if err := s.assignmentRepo.Release(ctx, assignment.ID, models.ReassignReasonManualOverride, now); err != nil {
			return err
		}
		if err := s.responderRepo.SetStatus(ctx, assignment.ResponderID, models.ResponderStatusAvailable); err != nil {
			s.logger.WithError(err).WithResponderID(assignment.ResponderID).Error("Failed to free responder")
		}
	}

	if err := s.emergencyRepo.UpdateStatus(ctx, emergencyID, models.EmergencyStatusCancelled); err != nil {
		return err
	}

	if emergency.AmbulanceDispatchID != "" && s.gateway != nil && s.gateway.Configured() {
		go s.cancelAmbulance(emergency.AmbulanceDispatchID)
	}

	s.appendEvent(ctx, emergencyID, models.SLAEventCancelled, nil)
	s.publisher.NotifyExpired(ctx, emergency)

	return nil
}

func (s *dispatchService) Reassign(ctx context.Context, emergencyID, currentResponderID primitive.ObjectID, reason models.ReassignmentReason) (*models.ReassignmentResult, error) {
	if !models.ValidReassignmentReason(reason) {
		return nil, fmt.Errorf("%w: unknown reassignment reason %q", ErrInvalidState, reason)
	}

	emergency, err := s.GetEmergency(ctx, emergencyID)
	if err != nil {
		return nil, err
	}
	if emergency.IsTerminal() {
		return nil, fmt.Errorf("%w: emergency is %s", ErrInvalidState, emergency.Status)
	}

	assignment, err := s.assignmentRepo.GetActiveByEmergency(ctx, emergencyID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, fmt.Errorf("%w: no active assignment", ErrInvalidState)
	}
	// Reassignment requests arrive at least once; a retried request naming
	// an already-released responder must not touch the replacement's
	// assignment.
	if assignment.ResponderID != currentResponderID {
		return nil, fmt.Errorf("%w: assignment is held by another responder", ErrConflict)
	}

	now := time.Now()
	if err := s.assignmentRepo.Release(ctx, assignment.ID, reason, now); err != nil {
		return nil, err
	}
	if err := s.responderRepo.SetStatus(ctx, assignment.ResponderID, models.ResponderStatusAvailable); err != nil {
		s.logger.WithError(err).WithResponderID(assignment.ResponderID).Error("Failed to free responder")
	}

	if err := s.emergencyRepo.UpdateStatus(ctx, emergencyID, models.EmergencyStatusPending); err != nil {
		return nil, err
	}
	emergency.Status = models.EmergencyStatusPending

	s.appendEvent(ctx, emergencyID, models.SLAEventReassigned, map[string]interface{}{
		"reason":                reason,
		"released_responder_id": assignment.ResponderID.Hex(),
	})

	excluded := map[primitive.ObjectID]bool{assignment.ResponderID: true}

	round, err := s.broadcastRepo.LatestRound(ctx, emergencyID)
	if err != nil {
		return nil, err
	}

	// Reassignment restarts the search from the base radius; the released
	// responder is never offered the same emergency again.
	broadcasts, _, err := s.broadcastWithWidening(ctx, emergency, s.config.BaseRadiusKM, round+1, excluded)
	if err != nil {
		return nil, err
	}

	result := &models.ReassignmentResult{
		Success:       len(broadcasts) > 0,
		NewOfferCount: len(broadcasts),
		Reason:        reason,
	}
	if len(broadcasts) > 0 {
		result.Message = fmt.Sprintf("emergency re-broadcast to %d responders", len(broadcasts))
	} else {
		result.Message = "no eligible responders found for re-broadcast"
	}

	s.publisher.NotifyReassigned(ctx, emergency, reason, len(broadcasts))

	return result, nil
}

// broadcastWithWidening runs bounded rounds of candidate selection,
// doubling the radius until someone is in range or the ceiling is hit.
// Offer rows are inserted before the emergency flips to dispatching, so
// a dispatching emergency always has at least one offer.
func (s *dispatchService) broadcastWithWidening(
	ctx context.Context,
	emergency *models.Emergency,
	startRadius float64,
	round int,
	excluded map[primitive.ObjectID]bool,
) ([]*models.Broadcast, float64, error) {
	responders, err := s.responderRepo.GetAvailable(ctx)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	radius := startRadius

	for radius <= s.config.MaxRadiusKM {
		candidates := RankCandidates(responders, emergency.PatientLocation, radius, emergency.Priority, excluded, s.config.EnforceSchedule, now)
		if len(candidates) == 0 {
			radius *= s.config.RadiusGrowth
			continue
		}

		if len(candidates) > s.config.MaxFanout {
			candidates = candidates[:s.config.MaxFanout]
		}

		broadcasts := make([]*models.Broadcast, 0, len(candidates))
		responderIDs := make([]string, 0, len(candidates))
		for _, candidate := range candidates {
			responderIDs = append(responderIDs, candidate.Responder.ID.Hex())
			broadcasts = append(broadcasts, &models.Broadcast{
				EmergencyID:    emergency.ID,
				ResponderID:    candidate.Responder.ID,
				Round:          round,
				DistanceKM:     candidate.DistanceKM,
				ETAMinutes:     candidate.ETAMinutes,
				Score:          candidate.Score,
				ResponseStatus: models.BroadcastStatusPending,
			})
		}

		if err := s.broadcastRepo.CreateMany(ctx, broadcasts); err != nil {
			return nil, radius, err
		}

		if err := s.emergencyRepo.Update(ctx, emergency.ID, map[string]interface{}{
			"status":         models.EmergencyStatusDispatching,
			"last_radius_km": radius,
		}); err != nil {
			return nil, radius, err
		}
		emergency.Status = models.EmergencyStatusDispatching
		emergency.LastRadiusKM = radius

		s.appendEvent(ctx, emergency.ID, models.SLAEventDispatched, map[string]interface{}{
			"round":         round,
			"radius_km":     radius,
			"offer_count":   len(broadcasts),
			"responder_ids": responderIDs,
		})

		s.publisher.NotifyBroadcast(ctx, emergency, broadcasts)

		s.logger.LogDispatchEvent(emergency.ID, "broadcast", map[string]interface{}{
			"round":       round,
			"radius_km":   radius,
			"offer_count": len(broadcasts),
		})

		return broadcasts, radius, nil
	}

	return nil, radius / s.config.RadiusGrowth, nil
}

// respondedResponders collects everyone who already accepted or rejected
// an offer for this emergency.
func (s *dispatchService) respondedResponders(ctx context.Context, emergencyID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	all, err := s.broadcastRepo.GetByEmergency(ctx, emergencyID)
	if err != nil {
		return nil, err
	}

	responded := make(map[primitive.ObjectID]bool)
	for _, broadcast := range all {
		if broadcast.ResponseStatus == models.BroadcastStatusRejected || broadcast.ResponseStatus == models.BroadcastStatusAccepted {
			responded[broadcast.ResponderID] = true
		}
	}

	return responded, nil
}

// routeEstimate asks the maps provider for a road-network distance and
// duration. It returns ok=false when no provider is configured or the
// lookup fails, leaving the straight-line estimate in place.
func (s *dispatchService) routeEstimate(ctx context.Context, responder *models.Responder, emergency *models.Emergency) (float64, int, bool) {
	if s.mapsProvider == nil {
		return 0, 0, false
	}

	directions, err := s.mapsProvider.GetDirections(ctx, &maps.DirectionsRequest{
		Origin: maps.Location{
			Latitude:  responder.CurrentLocation.Latitude(),
			Longitude: responder.CurrentLocation.Longitude(),
		},
		Destination: maps.Location{
			Latitude:  emergency.PatientLocation.Latitude(),
			Longitude: emergency.PatientLocation.Longitude(),
		},
		Mode: "driving",
	})
	if err != nil || len(directions.Routes) == 0 {
		if err != nil {
			s.logger.WithError(err).WithEmergencyID(emergency.ID).Debug("Directions lookup failed, using straight-line estimate")
		}
		return 0, 0, false
	}

	route := directions.Routes[0]
	distanceKM := route.Distance.Value / 1000
	etaMinutes := (route.Duration.Value + 59) / 60

	return distanceKM, etaMinutes, true
}

func (s *dispatchService) requestAmbulance(emergency *models.Emergency) {
	ctx, cancel := context.WithTimeout(context.Background(), utils.AmbulanceGatewayTimeout)
	defer cancel()

	response, err := s.gateway.RequestDispatch(ctx, &ambulance.DispatchRequest{
		EmergencyID:   emergency.ID.Hex(),
		EmergencyType: string(emergency.Type),
		Priority:      string(emergency.Priority),
		Latitude:      emergency.PatientLocation.Latitude(),
		Longitude:     emergency.PatientLocation.Longitude(),
		PatientName:   emergency.PatientName,
		PatientPhone:  emergency.PatientPhone,
		Description:   emergency.Description,
	})
	if err != nil {
		s.logger.WithError(err).WithEmergencyID(emergency.ID).Warn("Ambulance gateway request failed")
		return
	}

	if err := s.emergencyRepo.Update(ctx, emergency.ID, map[string]interface{}{
		"ambulance_dispatch_id": response.DispatchID,
	}); err != nil {
		s.logger.WithError(err).WithEmergencyID(emergency.ID).Error("Failed to record ambulance dispatch id")
		return
	}

	s.logger.LogDispatchEvent(emergency.ID, "ambulance_requested", map[string]interface{}{
		"dispatch_id": response.DispatchID,
		"eta_minutes": response.ETAMinutes,
	})
}

func (s *dispatchService) cancelAmbulance(dispatchID string) {
	ctx, cancel := context.WithTimeout(context.Background(), utils.AmbulanceGatewayTimeout)
	defer cancel()

	if err := s.gateway.CancelDispatch(ctx, dispatchID, "emergency cancelled"); err != nil {
		s.logger.WithError(err).Warn("Ambulance cancel request failed")
	}
}

func (s *dispatchService) appendEvent(ctx context.Context, emergencyID primitive.ObjectID, eventType models.SLAEventType, details map[string]interface{}) {
	event := &models.SLAEvent{
		EmergencyID: emergencyID,
		EventType:   eventType,
		Details:     details,
	}

	if err := s.slaEventRepo.Append(ctx, event); err != nil {
		s.logger.WithError(err).WithEmergencyID(emergencyID).Error("Failed to append timeline event")
	}
}
