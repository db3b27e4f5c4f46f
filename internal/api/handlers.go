package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"resilience-alerting/internal/db"
	"resilience-alerting/internal/dispatch"
	"resilience-alerting/internal/escalation"
	"resilience-alerting/internal/insights"
	"resilience-alerting/internal/models"
	"resilience-alerting/internal/service"
)

type Handler struct {
	db         *db.DB
	logger     *logrus.Logger
	svc        *service.Service
	dispatcher *dispatch.Dispatcher
	insights   *insights.Client
	upgrader   websocket.Upgrader
}

func NewHandler(database *db.DB, logger *logrus.Logger, svc *service.Service, dispatcher *dispatch.Dispatcher, insightsClient *insights.Client) *Handler {
	return &Handler{
		db:         database,
		logger:     logger,
		svc:        svc,
		dispatcher: dispatcher,
		insights:   insightsClient,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// orgID pulls the tenant partition key from the query string.
func orgID(c *gin.Context) (string, bool) {
	org := c.Query("org_id")
	if org == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "org_id is required"})
		return "", false
	}
	return org, true
}

// GetRecentAlerts returns the organization's in-memory rolling window,
// newest first.
func (h *Handler) GetRecentAlerts(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.svc.Window().List(org))
}

// GetAlertHistory returns persisted alerts for an organization.
func (h *Handler) GetAlertHistory(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	list, err := h.db.ListAlerts(c.Request.Context(), org, limit)
	if err != nil {
		h.logger.Errorf("List alerts failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load alerts"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// AcknowledgeAlert flips the acknowledged flag in both the window and the
// audit table.
func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	id := c.Param("id")

	found := h.svc.Window().Acknowledge(org, id)
	if err := h.db.AcknowledgeAlert(c.Request.Context(), org, id); err != nil {
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		// Aged out of the audit query but still live in the window.
		h.logger.Warnf("Acknowledge persisted alert %s failed: %v", id, err)
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}

// GetEscalations lists escalation executions for an organization.
func (h *Handler) GetEscalations(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	list, err := h.svc.Tracker().List(c.Request.Context(), org)
	if err != nil {
		h.logger.Errorf("List escalations failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load escalations"})
		return
	}
	c.JSON(http.StatusOK, list)
}

type escalationCreate struct {
	OrgID      string `json:"org_id" binding:"required"`
	AlertTitle string `json:"alert_title" binding:"required"`
	Level      int    `json:"level" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
	AssignedTo string `json:"assigned_to"`
}

// CreateEscalation opens a manual escalation execution.
func (h *Handler) CreateEscalation(c *gin.Context) {
	var req escalationCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ex, err := h.svc.Tracker().Create(c.Request.Context(), req.OrgID, req.AlertTitle, req.Level, req.Reason, req.AssignedTo)
	if err != nil {
		h.logger.Errorf("Create escalation failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ex)
}

// ResolveEscalation resolves an active escalation execution.
func (h *Handler) ResolveEscalation(c *gin.Context) {
	ex, err := h.svc.Tracker().Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondEscalationError(c, err)
		return
	}
	c.JSON(http.StatusOK, ex)
}

// CancelEscalation cancels an active escalation execution.
func (h *Handler) CancelEscalation(c *gin.Context) {
	ex, err := h.svc.Tracker().Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondEscalationError(c, err)
		return
	}
	c.JSON(http.StatusOK, ex)
}

func (h *Handler) respondEscalationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, escalation.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "escalation not found", "code": "not_found"})
	case errors.Is(err, escalation.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "escalation already resolved", "code": "already_resolved"})
	case errors.Is(err, escalation.ErrNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": "escalation is not active", "code": "not_active"})
	default:
		h.logger.Errorf("Escalation operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "escalation operation failed"})
	}
}

// GetEscalationMetrics returns the derived escalation aggregates.
func (h *Handler) GetEscalationMetrics(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	m, err := h.svc.Tracker().Metrics(c.Request.Context(), org)
	if err != nil {
		h.logger.Errorf("Escalation metrics failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute metrics"})
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetNotifications lists dispatch audit records.
func (h *Handler) GetNotifications(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	list, err := h.db.ListNotifications(c.Request.Context(), org, limit)
	if err != nil {
		h.logger.Errorf("List notifications failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}
	c.JSON(http.StatusOK, list)
}

type testDispatchRequest struct {
	Alert  models.Alert          `json:"alert" binding:"required"`
	Config models.DeliveryConfig `json:"config"`
}

// TestDispatch runs a dispatch for an ad-hoc alert and returns the
// per-channel outcome, for wiring verification.
func (h *Handler) TestDispatch(c *gin.Context) {
	var req testDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := h.dispatcher.Dispatch(c.Request.Context(), req.Alert, req.Config)
	c.JSON(http.StatusOK, result)
}

// SystemMetrics is the derived dashboard overview. It is always recomputed
// from the alert and escalation collections, never stored.
type SystemMetrics struct {
	ActiveIncidents   int     `json:"active_incidents"`
	KRIBreaches       int     `json:"kri_breaches"`
	ActiveEscalations int     `json:"active_escalations"`
	SystemHealth      float64 `json:"system_health"`
	ComplianceScore   float64 `json:"compliance_score"`
}

// GetOverview computes the overview metrics for an organization.
func (h *Handler) GetOverview(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	incidents, err := h.db.CountUnacknowledged(ctx, org, models.CategoryIncident)
	if err != nil {
		h.logger.Errorf("Overview incident count failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute overview"})
		return
	}
	breaches, err := h.db.CountUnacknowledged(ctx, org, models.CategoryKRIBreach)
	if err != nil {
		h.logger.Errorf("Overview breach count failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute overview"})
		return
	}
	escMetrics, err := h.svc.Tracker().Metrics(ctx, org)
	if err != nil {
		h.logger.Errorf("Overview escalation metrics failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute overview"})
		return
	}

	c.JSON(http.StatusOK, SystemMetrics{
		ActiveIncidents:   incidents,
		KRIBreaches:       breaches,
		ActiveEscalations: escMetrics.Active,
		SystemHealth:      clampScore(100 - 10*float64(incidents) - 5*float64(breaches)),
		ComplianceScore:   clampScore(100 - 8*float64(escMetrics.Active)),
	})
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

type insightRequest struct {
	Query   string                 `json:"query" binding:"required"`
	Context map[string]interface{} `json:"context"`
}

// GenerateInsight proxies a narrative-analysis request to the hosted
// endpoint.
func (h *Handler) GenerateInsight(c *gin.Context) {
	if h.insights == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "insight endpoint not configured"})
		return
	}
	var req insightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text, err := h.insights.Analyze(c.Request.Context(), req.Query, req.Context)
	if err != nil {
		h.logger.Errorf("Insight generation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "insight generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// AlertFeed upgrades the connection and streams live alerts for the
// organization until the client disconnects.
func (h *Handler) AlertFeed(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	h.svc.WS().AddConnection(org, conn)
	defer func() {
		h.svc.WS().RemoveConnection(org, conn)
		_ = conn.Close()
	}()

	// Consume control frames until the peer goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
