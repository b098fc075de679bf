package routes

import (
	handlers "lifeline/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupResponderRoutes wires responder profile and duty endpoints
func SetupResponderRoutes(r *gin.RouterGroup, responderHandler *handlers.ResponderHandler) {
	responders := r.Group("/responders")
	{
		responders.POST("", responderHandler.Register)
		responders.GET("", responderHandler.ListResponders)
		responders.GET("/:id", responderHandler.GetResponder)

		// Duty and profile
		responders.PUT("/:id/duty", responderHandler.SetDuty)
		responders.PUT("/:id/vehicle", responderHandler.SetVehicle)
		responders.PUT("/:id/schedule", responderHandler.UpsertShift)

		// Live tracking
		responders.PUT("/:id/location", responderHandler.UpdateLocation)
		responders.GET("/:id/alerts", responderHandler.GetPendingAlerts)
	}
}
