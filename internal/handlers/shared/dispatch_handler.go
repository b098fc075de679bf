package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"
	"lifeline/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DispatchHandler struct {
	dispatchService services.DispatchService
}

func NewDispatchHandler(dispatchService services.DispatchService) *DispatchHandler {
	return &DispatchHandler{
		dispatchService: dispatchService,
	}
}

// CreateEmergency takes an incoming emergency and runs the first
// broadcast pass
func (h *DispatchHandler) CreateEmergency(c *gin.Context) {
	var request models.CreateEmergencyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateCreateEmergency(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	result, err := h.dispatchService.CreateEmergency(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, err, "EMERGENCY_CREATE_FAILED")
		return
	}

	utils.CreatedResponse(c, "Emergency created", result)
}

// GetEmergency retrieves one emergency
func (h *DispatchHandler) GetEmergency(c *gin.Context) {
	emergencyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return
	}

	emergency, err := h.dispatchService.GetEmergency(c.Request.Context(), emergencyID)
	if err != nil {
		respondServiceError(c, err, "EMERGENCY_FETCH_FAILED")
		return
	}

	utils.SuccessResponse(c, "Emergency retrieved", emergency)
}

// ListEmergencies lists emergencies by status
func (h *DispatchHandler) ListEmergencies(c *gin.Context) {
	status := models.EmergencyStatus(c.DefaultQuery("status", string(models.EmergencyStatusPending)))
	params := utils.GetPaginationParams(c)

	emergencies, total, err := h.dispatchService.ListEmergencies(c.Request.Context(), status, params)
	if err != nil {
		respondServiceError(c, err, "EMERGENCY_LIST_FAILED")
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
		Count:      len(emergencies),
	}
	utils.SuccessResponseWithMeta(c, "Emergencies retrieved", emergencies, meta)
}

// AcceptEmergency locks the emergency onto the accepting responder
func (h *DispatchHandler) AcceptEmergency(c *gin.Context) {
	emergencyID, responderID, _, ok := h.parseResponse(c)
	if !ok {
		return
	}

	assignment, err := h.dispatchService.AcceptEmergency(c.Request.Context(), emergencyID, responderID)
	if err != nil {
		respondServiceError(c, err, "EMERGENCY_ACCEPT_FAILED")
		return
	}

	utils.SuccessResponse(c, "Emergency accepted", assignment)
}

// RejectEmergency declines an offer, widening the search when the whole
// round declined
func (h *DispatchHandler) RejectEmergency(c *gin.Context) {
	emergencyID, responderID, request, ok := h.parseResponse(c)
	if !ok {
		return
	}

	if err := h.dispatchService.RejectEmergency(c.Request.Context(), emergencyID, responderID, request.Reason); err != nil {
		respondServiceError(c, err, "EMERGENCY_REJECT_FAILED")
		return
	}

	utils.SuccessResponse(c, "Emergency rejected", nil)
}

// StartProgress marks the responder as on scene
func (h *DispatchHandler) StartProgress(c *gin.Context) {
	emergencyID, responderID, _, ok := h.parseResponse(c)
	if !ok {
		return
	}

	if err := h.dispatchService.StartProgress(c.Request.Context(), emergencyID, responderID); err != nil {
		respondServiceError(c, err, "EMERGENCY_START_FAILED")
		return
	}

	utils.SuccessResponse(c, "Emergency in progress", nil)
}

// CompleteEmergency closes out a rescue
func (h *DispatchHandler) CompleteEmergency(c *gin.Context) {
	emergencyID, responderID, _, ok := h.parseResponse(c)
	if !ok {
		return
	}

	emergency, err := h.dispatchService.CompleteEmergency(c.Request.Context(), emergencyID, responderID)
	if err != nil {
		respondServiceError(c, err, "EMERGENCY_COMPLETE_FAILED")
		return
	}

	utils.SuccessResponse(c, "Emergency completed", emergency)
}

// CancelEmergency withdraws an emergency from dispatch
func (h *DispatchHandler) CancelEmergency(c *gin.Context) {
	emergencyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return
	}

	if err := h.dispatchService.CancelEmergency(c.Request.Context(), emergencyID); err != nil {
		respondServiceError(c, err, "EMERGENCY_CANCEL_FAILED")
		return
	}

	utils.SuccessResponse(c, "Emergency cancelled", nil)
}

// Reassign releases the current assignment and re-broadcasts
func (h *DispatchHandler) Reassign(c *gin.Context) {
	emergencyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return
	}

	var request models.ReassignRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateReassignRequest(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	currentResponderID, err := primitive.ObjectIDFromHex(request.CurrentResponderID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid responder ID")
		return
	}

	result, err := h.dispatchService.Reassign(c.Request.Context(), emergencyID, currentResponderID, request.Reason)
	if err != nil {
		respondServiceError(c, err, "EMERGENCY_REASSIGN_FAILED")
		return
	}

	utils.SuccessResponse(c, "Emergency reassigned", result)
}

// PreviewCandidates ranks responders around a point without dispatching
func (h *DispatchHandler) PreviewCandidates(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid latitude")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid longitude")
		return
	}

	candidates, err := h.dispatchService.PreviewCandidates(c.Request.Context(), lat, lng)
	if err != nil {
		respondServiceError(c, err, "PREVIEW_FAILED")
		return
	}

	utils.SuccessResponse(c, "Candidates ranked", candidates)
}

func (h *DispatchHandler) parseResponse(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, *models.RespondRequest, bool) {
	emergencyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return primitive.NilObjectID, primitive.NilObjectID, nil, false
	}

	var request models.RespondRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return primitive.NilObjectID, primitive.NilObjectID, nil, false
	}

	responderID, err := primitive.ObjectIDFromHex(request.ResponderID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid responder ID")
		return primitive.NilObjectID, primitive.NilObjectID, nil, false
	}

	return emergencyID, responderID, &request, true
}

// respondServiceError maps service sentinels onto the API envelope.
func respondServiceError(c *gin.Context, err error, code string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, utils.ErrEmergencyTaken)
	// Incompatible-state actions share the conflict class: the caller
	// should re-fetch, not retry the same request.
	case errors.Is(err, services.ErrInvalidState):
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, services.ErrNoResponders):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "NO_RESPONDERS", utils.ErrNoRespondersAvailable)
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, code, err.Error())
	}
}
