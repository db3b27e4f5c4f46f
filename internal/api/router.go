package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"resilience-alerting/internal/config"
	"resilience-alerting/internal/db"
	"resilience-alerting/internal/dispatch"
	"resilience-alerting/internal/insights"
	"resilience-alerting/internal/service"
)

func NewRouter(database *db.DB, logger *logrus.Logger, cfg config.Config, svc *service.Service, dispatcher *dispatch.Dispatcher, insightsClient *insights.Client) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	h := NewHandler(database, logger, svc, dispatcher, insightsClient)
	api := r.Group(cfg.API.BasePath)
	{
		// Alerts
		api.GET("/alerts", h.GetRecentAlerts)
		api.GET("/alerts/history", h.GetAlertHistory)
		api.POST("/alerts/:id/ack", h.AcknowledgeAlert)

		// Escalations
		api.GET("/escalations", h.GetEscalations)
		api.POST("/escalations", h.CreateEscalation)
		api.POST("/escalations/:id/resolve", h.ResolveEscalation)
		api.POST("/escalations/:id/cancel", h.CancelEscalation)
		api.GET("/escalations/metrics", h.GetEscalationMetrics)

		// Notifications
		api.GET("/notifications", h.GetNotifications)
		api.POST("/notifications/test", h.TestDispatch)

		// Derived dashboard metrics
		api.GET("/overview", h.GetOverview)

		// Narrative analysis
		api.POST("/insights", h.GenerateInsight)
	}

	r.GET("/ws", h.AlertFeed)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
