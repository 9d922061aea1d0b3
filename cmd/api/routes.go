package main

import (
	"context"
	"net/http"

	"realty-crm/internal/httpapi"
	"realty-crm/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, health func(ctx context.Context) error) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Calling-service callbacks, authenticated by shared secret.
	r.POST("/webhooks/voice/completed", h.VoiceCallCompleted)

	v1 := r.Group("/v1")
	v1.Use(authMW, rbac.RequireAnyRole(rbac.RoleAgent, rbac.RoleViewer))
	{
		v1.GET("/me", h.Me)

		campaigns := v1.Group("/campaigns/:campaign_id")
		{
			campaigns.POST("/deploy", rbac.RequireDialer(), h.DeployCampaign)
			campaigns.GET("/calls", h.ListCampaignCalls)
			campaigns.GET("/summary", h.CampaignSummary)
			campaigns.GET("/events", h.CampaignEvents)
		}

		calls := v1.Group("/calls/:call_id")
		{
			calls.GET("", h.GetCall)
			calls.POST("/classify", rbac.RequireDialer(), h.ClassifyCall)
		}

		v1.GET("/appointments", h.ListAppointments)
	}
}
