package routes

import (
	handlers "lifeline/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupDispatchRoutes wires the emergency intake and response endpoints
func SetupDispatchRoutes(r *gin.RouterGroup, dispatchHandler *handlers.DispatchHandler, slaHandler *handlers.SLAHandler) {
	emergencies := r.Group("/emergencies")
	{
		emergencies.POST("", dispatchHandler.CreateEmergency)
		emergencies.GET("", dispatchHandler.ListEmergencies)
		emergencies.GET("/:id", dispatchHandler.GetEmergency)

		// Responder responses
		emergencies.PUT("/:id/accept", dispatchHandler.AcceptEmergency)
		emergencies.PUT("/:id/reject", dispatchHandler.RejectEmergency)
		emergencies.PUT("/:id/start", dispatchHandler.StartProgress)
		emergencies.PUT("/:id/complete", dispatchHandler.CompleteEmergency)

		// Control
		emergencies.PUT("/:id/cancel", dispatchHandler.CancelEmergency)
		emergencies.POST("/:id/reassign", dispatchHandler.Reassign)

		// SLA views
		emergencies.GET("/:id/sla", slaHandler.CheckStatus)
		emergencies.GET("/:id/timeline", slaHandler.GetTimeline)
	}

	dispatch := r.Group("/dispatch")
	{
		dispatch.GET("/preview", dispatchHandler.PreviewCandidates)
	}

	admin := r.Group("/admin/sla")
	{
		admin.GET("/overdue", slaHandler.GetOverdue)
		admin.POST("/sweep", slaHandler.Sweep)
	}
}
