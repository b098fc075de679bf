package handlers

import (
	"lifeline/internal/services"
	"lifeline/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SLAHandler struct {
	slaService services.SLAService
}

func NewSLAHandler(slaService services.SLAService) *SLAHandler {
	return &SLAHandler{
		slaService: slaService,
	}
}

// CheckStatus returns the live countdown for one emergency
func (h *SLAHandler) CheckStatus(c *gin.Context) {
	emergencyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return
	}

	status, err := h.slaService.CheckStatus(c.Request.Context(), emergencyID)
	if err != nil {
		respondServiceError(c, err, "SLA_STATUS_FAILED")
		return
	}

	utils.SuccessResponse(c, "SLA status retrieved", status)
}

// GetTimeline returns the emergency's audit trail, oldest first
func (h *SLAHandler) GetTimeline(c *gin.Context) {
	emergencyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return
	}

	timeline, err := h.slaService.GetTimeline(c.Request.Context(), emergencyID)
	if err != nil {
		respondServiceError(c, err, "SLA_TIMELINE_FAILED")
		return
	}

	utils.SuccessResponse(c, "Timeline retrieved", timeline)
}

// GetOverdue lists live emergencies past their deadline
func (h *SLAHandler) GetOverdue(c *gin.Context) {
	overdue, err := h.slaService.GetOverdue(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "SLA_OVERDUE_FAILED")
		return
	}

	utils.SuccessResponse(c, "Overdue emergencies retrieved", overdue)
}

// Sweep runs one expiry pass immediately instead of waiting for the
// monitor interval
func (h *SLAHandler) Sweep(c *gin.Context) {
	expired, err := h.slaService.ExpireOverdue(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "SLA_SWEEP_FAILED")
		return
	}

	utils.SuccessResponse(c, "Sweep completed", gin.H{"expired": expired})
}
