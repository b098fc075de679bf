package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lifeline/internal/config"
	"lifeline/internal/events"
	"lifeline/internal/models"
	"lifeline/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	sceneLat = 12.9716
	sceneLng = 77.5946
)

type dispatchFixture struct {
	service        DispatchService
	emergencyRepo  *memEmergencyRepo
	responderRepo  *memResponderRepo
	broadcastRepo  *memBroadcastRepo
	assignmentRepo *memAssignmentRepo
	slaEventRepo   *memSLAEventRepo
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "json", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func testDispatchConfig() *config.DispatchConfig {
	return &config.DispatchConfig{
		BaseRadiusKM: 5,
		MaxRadiusKM:  20,
		RadiusGrowth: 2,
		MaxFanout:    5,
	}
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	log := testLogger(t)

	f := &dispatchFixture{
		emergencyRepo:  newMemEmergencyRepo(),
		responderRepo:  newMemResponderRepo(),
		broadcastRepo:  newMemBroadcastRepo(),
		assignmentRepo: newMemAssignmentRepo(),
		slaEventRepo:   newMemSLAEventRepo(),
	}
	f.service = NewDispatchService(
		testDispatchConfig(),
		f.emergencyRepo,
		f.responderRepo,
		f.broadcastRepo,
		f.assignmentRepo,
		f.slaEventRepo,
		events.NewPublisher(nil, nil, log),
		nil,
		nil,
		log,
	)
	return f
}

// addResponder creates an on-duty available responder roughly kmAway
// kilometers due north of the scene.
func (f *dispatchFixture) addResponder(t *testing.T, kmAway float64) *models.Responder {
	t.Helper()
	location := models.NewLocation(sceneLat+kmAway/111.195, sceneLng)
	responder := &models.Responder{
		Name:            "unit",
		Status:          models.ResponderStatusAvailable,
		VehicleType:     models.VehicleTypeAmbulance,
		CurrentLocation: &location,
		IsOnDuty:        true,
	}
	require.NoError(t, f.responderRepo.Create(context.Background(), responder))
	return responder
}

func (f *dispatchFixture) createEmergency(t *testing.T, emergencyType models.EmergencyType) *models.DispatchResult {
	t.Helper()
	result, err := f.service.CreateEmergency(context.Background(), &models.CreateEmergencyRequest{
		Type:      emergencyType,
		Latitude:  sceneLat,
		Longitude: sceneLng,
	})
	require.NoError(t, err)
	return result
}

func TestCreateEmergencyBroadcastsToNearbyResponders(t *testing.T) {
	f := newDispatchFixture(t)
	near := f.addResponder(t, 1)
	alsoNear := f.addResponder(t, 3)
	f.addResponder(t, 50) // out of range even at the ceiling

	result := f.createEmergency(t, models.EmergencyTypeCardiacArrest)

	assert.Equal(t, models.PriorityCritical, result.Emergency.Priority)
	assert.Equal(t, models.EmergencyStatusDispatching, result.Emergency.Status)
	assert.Equal(t, 5.0, result.RadiusKM)
	require.Len(t, result.Broadcasts, 2)

	offered := map[primitive.ObjectID]bool{}
	for _, broadcast := range result.Broadcasts {
		offered[broadcast.ResponderID] = true
		assert.Equal(t, models.BroadcastStatusPending, broadcast.ResponseStatus)
		assert.Equal(t, 1, broadcast.Round)
	}
	assert.True(t, offered[near.ID])
	assert.True(t, offered[alsoNear.ID])

	// Closest responder scores highest and leads the list.
	assert.Equal(t, near.ID, result.Broadcasts[0].ResponderID)

	deadline := result.Emergency.SLADeadline
	assert.WithinDuration(t, time.Now().Add(3*time.Minute), deadline, 5*time.Second)
}

func TestCreateEmergencyWidensRadiusUntilSomeoneIsInRange(t *testing.T) {
	f := newDispatchFixture(t)
	far := f.addResponder(t, 12) // outside 5 and 10, inside 20

	result := f.createEmergency(t, models.EmergencyTypeAccident)

	assert.Equal(t, 20.0, result.RadiusKM)
	require.Len(t, result.Broadcasts, 1)
	assert.Equal(t, far.ID, result.Broadcasts[0].ResponderID)
	assert.Equal(t, 20.0, result.Emergency.LastRadiusKM)
}

func TestCreateEmergencyCapsFanout(t *testing.T) {
	f := newDispatchFixture(t)
	for i := 0; i < 8; i++ {
		f.addResponder(t, 1+float64(i)*0.2)
	}

	result := f.createEmergency(t, models.EmergencyTypeFall)

	assert.Len(t, result.Broadcasts, 5)
}

func TestCreateEmergencyWithNoEligibleResponders(t *testing.T) {
	f := newDispatchFixture(t)

	result := f.createEmergency(t, models.EmergencyTypeGeneral)

	assert.Empty(t, result.Broadcasts)
	assert.Equal(t, models.EmergencyStatusPending, result.Emergency.Status)
}

func TestAcceptEmergencySingleWinnerUnderContention(t *testing.T) {
	f := newDispatchFixture(t)
	responders := make([]*models.Responder, 5)
	for i := range responders {
		responders[i] = f.addResponder(t, 1+float64(i)*0.5)
	}

	result := f.createEmergency(t, models.EmergencyTypeStroke)
	require.Len(t, result.Broadcasts, 5)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
		others    []error
	)
	for _, responder := range responders {
		wg.Add(1)
		go func(responderID primitive.ObjectID) {
			defer wg.Done()
			_, err := f.service.AcceptEmergency(context.Background(), result.Emergency.ID, responderID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(responder.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 4, conflicts)
	assert.Empty(t, others)

	emergency, err := f.emergencyRepo.GetByID(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusAccepted, emergency.Status)

	assignments, err := f.assignmentRepo.GetByEmergency(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestAcceptEmergencyRequiresPendingOffer(t *testing.T) {
	f := newDispatchFixture(t)
	f.addResponder(t, 1)
	uninvited := f.addResponder(t, 50)

	result := f.createEmergency(t, models.EmergencyTypeStroke)

	_, err := f.service.AcceptEmergency(context.Background(), result.Emergency.ID, uninvited.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAcceptEmergencyExpiresSiblingOffers(t *testing.T) {
	f := newDispatchFixture(t)
	winner := f.addResponder(t, 1)
	loser := f.addResponder(t, 2)

	result := f.createEmergency(t, models.EmergencyTypeAccident)
	require.Len(t, result.Broadcasts, 2)

	assignment, err := f.service.AcceptEmergency(context.Background(), result.Emergency.ID, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, assignment.ResponderID)
	assert.Equal(t, models.AssignmentStatusActive, assignment.Status)
	assert.Greater(t, assignment.ETAMinutes, 0)

	pending, err := f.broadcastRepo.GetPendingByEmergency(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := f.broadcastRepo.GetByEmergency(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	for _, broadcast := range all {
		switch broadcast.ResponderID {
		case winner.ID:
			assert.Equal(t, models.BroadcastStatusAccepted, broadcast.ResponseStatus)
		case loser.ID:
			assert.Equal(t, models.BroadcastStatusExpired, broadcast.ResponseStatus)
		}
	}

	busy, err := f.responderRepo.GetByID(context.Background(), winner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResponderStatusBusy, busy.Status)
}

func TestRejectLastOfferWidensTheSearch(t *testing.T) {
	f := newDispatchFixture(t)
	near := f.addResponder(t, 1)
	farther := f.addResponder(t, 8) // only reachable at radius 10

	result := f.createEmergency(t, models.EmergencyTypeAccident)
	require.Len(t, result.Broadcasts, 1)
	require.Equal(t, near.ID, result.Broadcasts[0].ResponderID)

	require.NoError(t, f.service.RejectEmergency(context.Background(), result.Emergency.ID, near.ID, ""))

	pending, err := f.broadcastRepo.GetPendingByEmergency(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, farther.ID, pending[0].ResponderID)
	assert.Equal(t, 2, pending[0].Round)

	// The rejecter is never offered the same emergency again.
	for _, broadcast := range pending {
		assert.NotEqual(t, near.ID, broadcast.ResponderID)
	}

	emergency, err := f.emergencyRepo.GetByID(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, emergency.LastRadiusKM)
}

func TestRejectWithOtherOffersStillPendingDoesNotRebroadcast(t *testing.T) {
	f := newDispatchFixture(t)
	first := f.addResponder(t, 1)
	f.addResponder(t, 2)

	result := f.createEmergency(t, models.EmergencyTypeAccident)
	require.Len(t, result.Broadcasts, 2)

	require.NoError(t, f.service.RejectEmergency(context.Background(), result.Emergency.ID, first.ID, ""))

	round, err := f.broadcastRepo.LatestRound(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, round)
}

func TestRejectRecordsReasonInTimeline(t *testing.T) {
	f := newDispatchFixture(t)
	rejecter := f.addResponder(t, 1)
	f.addResponder(t, 2)

	result := f.createEmergency(t, models.EmergencyTypeAccident)

	require.NoError(t, f.service.RejectEmergency(context.Background(), result.Emergency.ID, rejecter.ID, "already transporting a patient"))

	events, err := f.slaEventRepo.GetByEmergency(context.Background(), result.Emergency.ID)
	require.NoError(t, err)

	var rejected *models.SLAEvent
	for _, event := range events {
		if event.EventType == models.SLAEventRejected {
			rejected = event
		}
	}
	require.NotNil(t, rejected)
	assert.Equal(t, rejecter.ID.Hex(), rejected.Details["responder_id"])
	assert.Equal(t, "already transporting a patient", rejected.Details["reason"])
}

func TestStartProgressRequiresAcceptedState(t *testing.T) {
	f := newDispatchFixture(t)
	responder := f.addResponder(t, 1)

	result := f.createEmergency(t, models.EmergencyTypeFracture)

	err := f.service.StartProgress(context.Background(), result.Emergency.ID, responder.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.service.AcceptEmergency(context.Background(), result.Emergency.ID, responder.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.StartProgress(context.Background(), result.Emergency.ID, responder.ID))

	emergency, err := f.emergencyRepo.GetByID(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusInProgress, emergency.Status)
}

func TestCompleteEmergencyWithinDeadline(t *testing.T) {
	f := newDispatchFixture(t)
	responder := f.addResponder(t, 1)

	result := f.createEmergency(t, models.EmergencyTypeHeartAttack)
	_, err := f.service.AcceptEmergency(context.Background(), result.Emergency.ID, responder.ID)
	require.NoError(t, err)

	completed, err := f.service.CompleteEmergency(context.Background(), result.Emergency.ID, responder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	freed, err := f.responderRepo.GetByID(context.Background(), responder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResponderStatusAvailable, freed.Status)
	assert.Equal(t, int64(1), freed.TotalRescues)

	assert.Contains(t, f.slaEventRepo.eventTypes(result.Emergency.ID), models.SLAEventCompleted)
}

func TestCompleteEmergencyAfterDeadlineRecordsBreach(t *testing.T) {
	f := newDispatchFixture(t)
	responder := f.addResponder(t, 1)

	result := f.createEmergency(t, models.EmergencyTypeHeartAttack)
	_, err := f.service.AcceptEmergency(context.Background(), result.Emergency.ID, responder.ID)
	require.NoError(t, err)

	f.emergencyRepo.setDeadline(result.Emergency.ID, time.Now().Add(-time.Minute))

	_, err = f.service.CompleteEmergency(context.Background(), result.Emergency.ID, responder.ID)
	require.NoError(t, err)

	types := f.slaEventRepo.eventTypes(result.Emergency.ID)
	assert.Contains(t, types, models.SLAEventCompletedBreached)
	assert.NotContains(t, types, models.SLAEventCompleted)
}

func TestCompleteEmergencyByWrongResponder(t *testing.T) {
	f := newDispatchFixture(t)
	holder := f.addResponder(t, 1)
	other := f.addResponder(t, 2)

	result := f.createEmergency(t, models.EmergencyTypeAccident)
	_, err := f.service.AcceptEmergency(context.Background(), result.Emergency.ID, holder.ID)
	require.NoError(t, err)

	_, err = f.service.CompleteEmergency(context.Background(), result.Emergency.ID, other.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelEmergencyReleasesAssignmentAndOffers(t *testing.T) {
	f := newDispatchFixture(t)
	responder := f.addResponder(t, 1)

	result := f.createEmergency(t, models.EmergencyTypeAccident)
	_, err := f.service.AcceptEmergency(context.Background(), result.Emergency.ID, responder.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.CancelEmergency(context.Background(), result.Emergency.ID))

	emergency, err := f.emergencyRepo.GetByID(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusCancelled, emergency.Status)

	active, err := f.assignmentRepo.GetActiveByEmergency(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	freed, err := f.responderRepo.GetByID(context.Background(), responder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResponderStatusAvailable, freed.Status)

	err = f.service.CancelEmergency(context.Background(), result.Emergency.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReassignRestartsFromBaseRadius(t *testing.T) {
	f := newDispatchFixture(t)
	original := f.addResponder(t, 1)
	replacement := f.addResponder(t, 3)

	result := f.createEmergency(t, models.EmergencyTypeSevereBleeding)
	_, err := f.service.AcceptEmergency(context.Background(), result.Emergency.ID, original.ID)
	require.NoError(t, err)

	outcome, err := f.service.Reassign(context.Background(), result.Emergency.ID, original.ID, models.ReassignReasonVehicleBreakdown)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.NewOfferCount)

	pending, err := f.broadcastRepo.GetPendingByEmergency(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, replacement.ID, pending[0].ResponderID)
	assert.Equal(t, 2, pending[0].Round)

	released, err := f.responderRepo.GetByID(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResponderStatusAvailable, released.Status)

	assignments, err := f.assignmentRepo.GetByEmergency(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, models.AssignmentStatusAbandoned, assignments[0].Status)
	assert.Equal(t, models.ReassignReasonVehicleBreakdown, assignments[0].ReleaseReason)
}

func TestReassignRejectsUnknownReason(t *testing.T) {
	f := newDispatchFixture(t)
	responder := f.addResponder(t, 1)

	result := f.createEmergency(t, models.EmergencyTypeAccident)
	_, err := f.service.AcceptEmergency(context.Background(), result.Emergency.ID, responder.ID)
	require.NoError(t, err)

	_, err = f.service.Reassign(context.Background(), result.Emergency.ID, responder.ID, "bored")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReassignRequiresActiveAssignment(t *testing.T) {
	f := newDispatchFixture(t)
	responder := f.addResponder(t, 1)

	result := f.createEmergency(t, models.EmergencyTypeAccident)

	_, err := f.service.Reassign(context.Background(), result.Emergency.ID, responder.ID, models.ReassignReasonTimeout)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReassignRequiresMatchingResponder(t *testing.T) {
	f := newDispatchFixture(t)
	holder := f.addResponder(t, 1)
	bystander := f.addResponder(t, 2)

	result := f.createEmergency(t, models.EmergencyTypeAccident)
	_, err := f.service.AcceptEmergency(context.Background(), result.Emergency.ID, holder.ID)
	require.NoError(t, err)

	_, err = f.service.Reassign(context.Background(), result.Emergency.ID, bystander.ID, models.ReassignReasonTimeout)
	assert.ErrorIs(t, err, ErrConflict)

	active, err := f.assignmentRepo.GetActiveByEmergency(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, holder.ID, active.ResponderID)
}

func TestReassignStaleRetryLeavesReplacementAssigned(t *testing.T) {
	f := newDispatchFixture(t)
	original := f.addResponder(t, 1)
	replacement := f.addResponder(t, 3)

	result := f.createEmergency(t, models.EmergencyTypeAccident)
	_, err := f.service.AcceptEmergency(context.Background(), result.Emergency.ID, original.ID)
	require.NoError(t, err)

	_, err = f.service.Reassign(context.Background(), result.Emergency.ID, original.ID, models.ReassignReasonTimeout)
	require.NoError(t, err)

	_, err = f.service.AcceptEmergency(context.Background(), result.Emergency.ID, replacement.ID)
	require.NoError(t, err)

	// The timeout scanner delivers at least once; a duplicate of the first
	// request must not release the replacement's fresh assignment.
	_, err = f.service.Reassign(context.Background(), result.Emergency.ID, original.ID, models.ReassignReasonTimeout)
	assert.ErrorIs(t, err, ErrConflict)

	active, err := f.assignmentRepo.GetActiveByEmergency(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, replacement.ID, active.ResponderID)

	emergency, err := f.emergencyRepo.GetByID(context.Background(), result.Emergency.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusAccepted, emergency.Status)
}

func TestGetPendingAlertsSkipsClosedEmergencies(t *testing.T) {
	f := newDispatchFixture(t)
	responder := f.addResponder(t, 1)

	first := f.createEmergency(t, models.EmergencyTypeAccident)
	// Close the first emergency underneath its still-pending offer row.
	require.NoError(t, f.emergencyRepo.UpdateStatus(context.Background(), first.Emergency.ID, models.EmergencyStatusExpired))

	second := f.createEmergency(t, models.EmergencyTypeFall)

	alerts, err := f.service.GetPendingAlerts(context.Background(), responder.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, second.Emergency.ID, alerts[0].Emergency.ID)
}
