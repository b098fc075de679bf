package handlers

import (
	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"
	"lifeline/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ResponderHandler struct {
	responderService services.ResponderService
	dispatchService  services.DispatchService
}

func NewResponderHandler(responderService services.ResponderService, dispatchService services.DispatchService) *ResponderHandler {
	return &ResponderHandler{
		responderService: responderService,
		dispatchService:  dispatchService,
	}
}

// Register creates a responder profile
func (h *ResponderHandler) Register(c *gin.Context) {
	var request models.RegisterResponderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateRegisterResponder(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	responder, err := h.responderService.Register(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, err, "RESPONDER_REGISTER_FAILED")
		return
	}

	utils.CreatedResponse(c, "Responder registered", responder)
}

// GetResponder retrieves one responder profile
func (h *ResponderHandler) GetResponder(c *gin.Context) {
	responderID, ok := h.parseID(c)
	if !ok {
		return
	}

	responder, err := h.responderService.GetResponder(c.Request.Context(), responderID)
	if err != nil {
		respondServiceError(c, err, "RESPONDER_FETCH_FAILED")
		return
	}

	utils.SuccessResponse(c, "Responder retrieved", responder)
}

// ListResponders lists responders with pagination and search
func (h *ResponderHandler) ListResponders(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	responders, total, err := h.responderService.ListResponders(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err, "RESPONDER_LIST_FAILED")
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
		Count:      len(responders),
	}
	utils.SuccessResponseWithMeta(c, "Responders retrieved", responders, meta)
}

// SetDuty toggles the responder on or off duty
func (h *ResponderHandler) SetDuty(c *gin.Context) {
	responderID, ok := h.parseID(c)
	if !ok {
		return
	}

	var request models.SetDutyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.responderService.SetDuty(c.Request.Context(), responderID, request.OnDuty); err != nil {
		respondServiceError(c, err, "RESPONDER_DUTY_FAILED")
		return
	}

	utils.SuccessResponse(c, "Duty status updated", nil)
}

// UpdateLocation records a GPS ping
func (h *ResponderHandler) UpdateLocation(c *gin.Context) {
	responderID, ok := h.parseID(c)
	if !ok {
		return
	}

	var request models.UpdateLocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateUpdateLocation(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	if err := h.responderService.UpdateLocation(c.Request.Context(), responderID, request.Latitude, request.Longitude); err != nil {
		respondServiceError(c, err, "RESPONDER_LOCATION_FAILED")
		return
	}

	utils.SuccessResponse(c, "Location updated", nil)
}

// SetVehicle changes the responder's vehicle class
func (h *ResponderHandler) SetVehicle(c *gin.Context) {
	responderID, ok := h.parseID(c)
	if !ok {
		return
	}

	var request models.SetVehicleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.responderService.SetVehicle(c.Request.Context(), responderID, request.VehicleType); err != nil {
		respondServiceError(c, err, "RESPONDER_VEHICLE_FAILED")
		return
	}

	utils.SuccessResponse(c, "Vehicle updated", nil)
}

// UpsertShift replaces the weekly duty slot for one weekday
func (h *ResponderHandler) UpsertShift(c *gin.Context) {
	responderID, ok := h.parseID(c)
	if !ok {
		return
	}

	var window models.ShiftWindow
	if err := c.ShouldBindJSON(&window); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateShiftWindow(&window); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	if err := h.responderService.UpsertShift(c.Request.Context(), responderID, window); err != nil {
		respondServiceError(c, err, "RESPONDER_SHIFT_FAILED")
		return
	}

	utils.SuccessResponse(c, "Shift window updated", nil)
}

// GetPendingAlerts lists open offers waiting on this responder
func (h *ResponderHandler) GetPendingAlerts(c *gin.Context) {
	responderID, ok := h.parseID(c)
	if !ok {
		return
	}

	alerts, err := h.dispatchService.GetPendingAlerts(c.Request.Context(), responderID)
	if err != nil {
		respondServiceError(c, err, "ALERTS_FETCH_FAILED")
		return
	}

	utils.SuccessResponse(c, "Pending alerts retrieved", alerts)
}

func (h *ResponderHandler) parseID(c *gin.Context) (primitive.ObjectID, bool) {
	responderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid responder ID")
		return primitive.NilObjectID, false
	}
	return responderID, true
}
