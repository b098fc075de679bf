package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories backing the service tests. The emergency fake
// reproduces the conditional-write semantics of the Mongo implementation
// so acceptance races behave the same way.

type memEmergencyRepo struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]*models.Emergency
}

func newMemEmergencyRepo() *memEmergencyRepo {
	return &memEmergencyRepo{rows: make(map[primitive.ObjectID]*models.Emergency)}
}

func (r *memEmergencyRepo) Create(ctx context.Context, emergency *models.Emergency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	emergency.ID = primitive.NewObjectID()
	emergency.CreatedAt = time.Now()
	emergency.UpdatedAt = time.Now()
	copied := *emergency
	r.rows[emergency.ID] = &copied
	return nil
}

func (r *memEmergencyRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("emergency not found")
	}
	copied := *row
	return &copied, nil
}

func (r *memEmergencyRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("emergency not found")
	}
	if status, ok := updates["status"].(models.EmergencyStatus); ok {
		row.Status = status
	}
	if radius, ok := updates["last_radius_km"].(float64); ok {
		row.LastRadiusKM = radius
	}
	if dispatchID, ok := updates["ambulance_dispatch_id"].(string); ok {
		row.AmbulanceDispatchID = dispatchID
	}
	row.UpdatedAt = time.Now()
	return nil
}

func (r *memEmergencyRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.EmergencyStatus) error {
	return r.Update(ctx, id, map[string]interface{}{"status": status})
}

func (r *memEmergencyRepo) GetByStatus(ctx context.Context, status models.EmergencyStatus, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Emergency
	for _, row := range r.rows {
		if status == "" || row.Status == status {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memEmergencyRepo) LockForAcceptance(ctx context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return false, fmt.Errorf("emergency not found")
	}
	if row.Status != models.EmergencyStatusPending && row.Status != models.EmergencyStatusDispatching {
		return false, nil
	}
	row.Status = models.EmergencyStatusAccepted
	return true, nil
}

func (r *memEmergencyRepo) MarkCompleted(ctx context.Context, id primitive.ObjectID, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("emergency not found")
	}
	row.Status = models.EmergencyStatusCompleted
	row.CompletedAt = &completedAt
	return nil
}

func (r *memEmergencyRepo) GetOverdue(ctx context.Context, now time.Time) ([]*models.Emergency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Emergency
	for _, row := range r.rows {
		copied := *row
		if copied.SLADeadline.Before(now) && !copied.IsTerminal() {
			out = append(out, &copied)
		}
	}
	return out, nil
}

// setDeadline rewrites the stored deadline, bypassing the service path.
func (r *memEmergencyRepo) setDeadline(id primitive.ObjectID, deadline time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		row.SLADeadline = deadline
	}
}

type memResponderRepo struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]*models.Responder
}

func newMemResponderRepo() *memResponderRepo {
	return &memResponderRepo{rows: make(map[primitive.ObjectID]*models.Responder)}
}

func (r *memResponderRepo) Create(ctx context.Context, responder *models.Responder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	responder.ID = primitive.NewObjectID()
	responder.CreatedAt = time.Now()
	copied := *responder
	r.rows[responder.ID] = &copied
	return nil
}

func (r *memResponderRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Responder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("responder not found")
	}
	copied := *row
	return &copied, nil
}

func (r *memResponderRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("responder not found")
	}
	if vehicleType, ok := updates["vehicle_type"].(models.VehicleType); ok {
		row.VehicleType = vehicleType
	}
	return nil
}

func (r *memResponderRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Responder, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Responder
	for _, row := range r.rows {
		copied := *row
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *memResponderRepo) GetAvailable(ctx context.Context) ([]*models.Responder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Responder
	for _, row := range r.rows {
		if row.Status == models.ResponderStatusAvailable && row.IsOnDuty {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memResponderRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ResponderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("responder not found")
	}
	row.Status = status
	return nil
}

func (r *memResponderRepo) SetDuty(ctx context.Context, id primitive.ObjectID, onDuty bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("responder not found")
	}
	row.IsOnDuty = onDuty
	if onDuty {
		now := time.Now()
		row.DutyStartedAt = &now
		row.Status = models.ResponderStatusAvailable
	} else {
		row.Status = models.ResponderStatusOffline
	}
	return nil
}

func (r *memResponderRepo) UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("responder not found")
	}
	row.CurrentLocation = location
	now := time.Now()
	row.LastLocationUpdate = &now
	return nil
}

func (r *memResponderRepo) UpsertShift(ctx context.Context, id primitive.ObjectID, window models.ShiftWindow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("responder not found")
	}
	for i, existing := range row.Schedule {
		if existing.DayOfWeek == window.DayOfWeek {
			row.Schedule[i] = window
			return nil
		}
	}
	row.Schedule = append(row.Schedule, window)
	return nil
}

func (r *memResponderRepo) IncrementRescues(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("responder not found")
	}
	row.TotalRescues++
	return nil
}

type memBroadcastRepo struct {
	mu   sync.Mutex
	rows []*models.Broadcast
}

func newMemBroadcastRepo() *memBroadcastRepo {
	return &memBroadcastRepo{}
}

func (r *memBroadcastRepo) CreateMany(ctx context.Context, broadcasts []*models.Broadcast) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, broadcast := range broadcasts {
		broadcast.ID = primitive.NewObjectID()
		broadcast.BroadcastAt = time.Now()
		if broadcast.ResponseStatus == "" {
			broadcast.ResponseStatus = models.BroadcastStatusPending
		}
		copied := *broadcast
		r.rows = append(r.rows, &copied)
	}
	return nil
}

func (r *memBroadcastRepo) GetByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.Broadcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Broadcast
	for _, row := range r.rows {
		if row.EmergencyID == emergencyID {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memBroadcastRepo) GetPendingByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.Broadcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Broadcast
	for _, row := range r.rows {
		if row.EmergencyID == emergencyID && row.ResponseStatus == models.BroadcastStatusPending {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memBroadcastRepo) GetPendingByResponder(ctx context.Context, responderID primitive.ObjectID) ([]*models.Broadcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Broadcast
	for _, row := range r.rows {
		if row.ResponderID == responderID && row.ResponseStatus == models.BroadcastStatusPending {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memBroadcastRepo) LatestRound(ctx context.Context, emergencyID primitive.ObjectID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	round := 0
	for _, row := range r.rows {
		if row.EmergencyID == emergencyID && row.Round > round {
			round = row.Round
		}
	}
	return round, nil
}

func (r *memBroadcastRepo) MarkAccepted(ctx context.Context, emergencyID, responderID primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.EmergencyID == emergencyID && row.ResponderID == responderID && row.ResponseStatus == models.BroadcastStatusPending {
			row.ResponseStatus = models.BroadcastStatusAccepted
			row.RespondedAt = &at
			row.LockedAt = &at
		}
	}
	return nil
}

func (r *memBroadcastRepo) MarkRejected(ctx context.Context, emergencyID, responderID primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.EmergencyID == emergencyID && row.ResponderID == responderID && row.ResponseStatus == models.BroadcastStatusPending {
			row.ResponseStatus = models.BroadcastStatusRejected
			row.RespondedAt = &at
		}
	}
	return nil
}

func (r *memBroadcastRepo) ExpireOtherPending(ctx context.Context, emergencyID, acceptedResponderID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.EmergencyID == emergencyID && row.ResponderID != acceptedResponderID && row.ResponseStatus == models.BroadcastStatusPending {
			row.ResponseStatus = models.BroadcastStatusExpired
		}
	}
	return nil
}

func (r *memBroadcastRepo) ExpirePending(ctx context.Context, emergencyID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.EmergencyID == emergencyID && row.ResponseStatus == models.BroadcastStatusPending {
			row.ResponseStatus = models.BroadcastStatusExpired
		}
	}
	return nil
}

type memAssignmentRepo struct {
	mu   sync.Mutex
	rows []*models.Assignment
}

func newMemAssignmentRepo() *memAssignmentRepo {
	return &memAssignmentRepo{}
}

func (r *memAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment.ID = primitive.NewObjectID()
	assignment.AssignedAt = time.Now()
	if assignment.Status == "" {
		assignment.Status = models.AssignmentStatusActive
	}
	copied := *assignment
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *memAssignmentRepo) GetActiveByEmergency(ctx context.Context, emergencyID primitive.ObjectID) (*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.EmergencyID == emergencyID && row.Status == models.AssignmentStatusActive {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memAssignmentRepo) GetActiveByResponder(ctx context.Context, responderID primitive.ObjectID) (*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ResponderID == responderID && row.Status == models.AssignmentStatusActive {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memAssignmentRepo) UpdateProgress(ctx context.Context, id primitive.ObjectID, distanceKM float64, etaMinutes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id && row.Status == models.AssignmentStatusActive {
			row.CurrentDistanceKM = distanceKM
			row.ETAMinutes = etaMinutes
		}
	}
	return nil
}

func (r *memAssignmentRepo) Release(ctx context.Context, id primitive.ObjectID, reason models.ReassignmentReason, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.Status = models.AssignmentStatusAbandoned
			row.ReleasedAt = &at
			row.ReleaseReason = reason
		}
	}
	return nil
}

func (r *memAssignmentRepo) Complete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.Status = models.AssignmentStatusCompleted
			row.CompletedAt = &at
		}
	}
	return nil
}

func (r *memAssignmentRepo) GetByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Assignment
	for _, row := range r.rows {
		if row.EmergencyID == emergencyID {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memSLAEventRepo struct {
	mu   sync.Mutex
	rows []*models.SLAEvent
}

func newMemSLAEventRepo() *memSLAEventRepo {
	return &memSLAEventRepo{}
}

func (r *memSLAEventRepo) Append(ctx context.Context, event *models.SLAEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()
	copied := *event
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *memSLAEventRepo) GetByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.SLAEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SLAEvent
	for _, row := range r.rows {
		if row.EmergencyID == emergencyID {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memSLAEventRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.SLAEvent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SLAEvent
	for _, row := range r.rows {
		copied := *row
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *memSLAEventRepo) eventTypes(emergencyID primitive.ObjectID) []models.SLAEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SLAEventType
	for _, row := range r.rows {
		if row.EmergencyID == emergencyID {
			out = append(out, row.EventType)
		}
	}
	return out
}
