package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubDispatchService lets each test pin the service outcome.
type stubDispatchService struct {
	acceptErr  error
	assignment *models.Assignment
	createErr  error
	result     *models.DispatchResult
}

func (s *stubDispatchService) CreateEmergency(ctx context.Context, request *models.CreateEmergencyRequest) (*models.DispatchResult, error) {
	return s.result, s.createErr
}

func (s *stubDispatchService) GetEmergency(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	return nil, services.ErrNotFound
}

func (s *stubDispatchService) ListEmergencies(ctx context.Context, status models.EmergencyStatus, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	return nil, 0, nil
}

func (s *stubDispatchService) GetPendingAlerts(ctx context.Context, responderID primitive.ObjectID) ([]*models.PendingAlert, error) {
	return nil, nil
}

func (s *stubDispatchService) PreviewCandidates(ctx context.Context, lat, lng float64) ([]*models.RankedResponder, error) {
	return nil, nil
}

func (s *stubDispatchService) AcceptEmergency(ctx context.Context, emergencyID, responderID primitive.ObjectID) (*models.Assignment, error) {
	return s.assignment, s.acceptErr
}

func (s *stubDispatchService) RejectEmergency(ctx context.Context, emergencyID, responderID primitive.ObjectID, reason string) error {
	return s.acceptErr
}

func (s *stubDispatchService) StartProgress(ctx context.Context, emergencyID, responderID primitive.ObjectID) error {
	return s.acceptErr
}

func (s *stubDispatchService) CompleteEmergency(ctx context.Context, emergencyID, responderID primitive.ObjectID) (*models.Emergency, error) {
	return nil, s.acceptErr
}

func (s *stubDispatchService) CancelEmergency(ctx context.Context, emergencyID primitive.ObjectID) error {
	return s.acceptErr
}

func (s *stubDispatchService) Reassign(ctx context.Context, emergencyID, currentResponderID primitive.ObjectID, reason models.ReassignmentReason) (*models.ReassignmentResult, error) {
	return nil, s.acceptErr
}

func acceptRequest(t *testing.T, handler *DispatchHandler, emergencyID, responderID string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.PUT("/emergencies/:id/accept", handler.AcceptEmergency)

	body, err := json.Marshal(gin.H{"responder_id": responderID})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/emergencies/"+emergencyID+"/accept", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAcceptEmergencyStatusMapping(t *testing.T) {
	emergencyID := primitive.NewObjectID().Hex()
	responderID := primitive.NewObjectID().Hex()

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"lock lost", services.ErrConflict, http.StatusConflict},
		{"unknown emergency", services.ErrNotFound, http.StatusNotFound},
		{"no pending offer", services.ErrInvalidState, http.StatusConflict},
		{"no responders", services.ErrNoResponders, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewDispatchHandler(&stubDispatchService{acceptErr: tt.serviceErr})
			recorder := acceptRequest(t, handler, emergencyID, responderID)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			var envelope utils.APIResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
			assert.Equal(t, utils.StatusError, envelope.Status)
			require.NotNil(t, envelope.Error)
		})
	}
}

func TestAcceptEmergencySuccess(t *testing.T) {
	assignment := &models.Assignment{
		ID:          primitive.NewObjectID(),
		EmergencyID: primitive.NewObjectID(),
		ResponderID: primitive.NewObjectID(),
		Status:      models.AssignmentStatusActive,
	}
	handler := NewDispatchHandler(&stubDispatchService{assignment: assignment})

	recorder := acceptRequest(t, handler, assignment.EmergencyID.Hex(), assignment.ResponderID.Hex())

	assert.Equal(t, http.StatusOK, recorder.Code)

	var envelope utils.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Equal(t, utils.StatusSuccess, envelope.Status)
}

func TestAcceptEmergencyRejectsMalformedIDs(t *testing.T) {
	handler := NewDispatchHandler(&stubDispatchService{})

	recorder := acceptRequest(t, handler, "not-hex", primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = acceptRequest(t, handler, primitive.NewObjectID().Hex(), "nope")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
