// Package service wires the alert pipeline together: classified change events
// are queued onto a worker pool which persists, fans out and dispatches them.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"resilience-alerting/internal/alerts"
	"resilience-alerting/internal/classifier"
	"resilience-alerting/internal/config"
	"resilience-alerting/internal/db"
	"resilience-alerting/internal/dispatch"
	"resilience-alerting/internal/escalation"
	"resilience-alerting/internal/models"
)

// Service processes classified alerts and coordinates persistence, live
// fan-out, notification dispatch and auto-escalation.
type Service struct {
	db         *db.DB
	logger     *logrus.Logger
	config     config.Config
	window     *alerts.Window
	dispatcher *dispatch.Dispatcher
	tracker    *escalation.Tracker
	tasks      chan models.Alert
	ctx        context.Context
	cancel     context.CancelFunc
	wg         *sync.WaitGroup
	wsManager  *WSManager
}

// New constructs the alert pipeline Service.
func New(database *db.DB, logger *logrus.Logger, cfg config.Config, dispatcher *dispatch.Dispatcher, tracker *escalation.Tracker) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		db:         database,
		logger:     logger,
		config:     cfg,
		window:     alerts.NewWindow(cfg.Service.AlertWindow),
		dispatcher: dispatcher,
		tracker:    tracker,
		tasks:      make(chan models.Alert, cfg.Service.QueueSize),
		ctx:        ctx,
		cancel:     cancel,
		wsManager:  NewWSManager(logger),
	}
}

// Window exposes the in-memory rolling alert window.
func (s *Service) Window() *alerts.Window {
	return s.window
}

// WS exposes the live-feed connection manager.
func (s *Service) WS() *WSManager {
	return s.wsManager
}

// Tracker exposes the escalation tracker.
func (s *Service) Tracker() *escalation.Tracker {
	return s.tracker
}

// Start launches the worker pool.
func (s *Service) Start(wg *sync.WaitGroup) {
	s.wg = wg
	for i := 0; i < s.config.Service.MaxWorkers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop cancels the worker pool.
func (s *Service) Stop() {
	s.cancel()
}

// HandleEvent is the change-stream callback: classify the event and, when it
// qualifies, queue the alert for processing. Safe to call from any
// subscription goroutine.
func (s *Service) HandleEvent(ev models.ChangeEvent) {
	alert, ok := classifier.Classify(ev)
	if !ok {
		s.logger.Debugf("Change event on %s (%s) did not qualify as an alert", ev.Table, ev.Type)
		return
	}
	s.QueueAlert(alert)
}

// QueueAlert enqueues an alert for the worker pool.
func (s *Service) QueueAlert(alert models.Alert) {
	select {
	case s.tasks <- alert:
		s.logger.Infof("Queued alert: id=%s severity=%s category=%s", alert.ID, alert.Severity, alert.Category)
	default:
		s.logger.Errorf("Queue full, dropping alert: id=%s", alert.ID)
	}
}

// worker processes alerts until context is cancelled.
func (s *Service) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Infof("Worker %d stopped", id)
			return
		case alert := <-s.tasks:
			s.handleAlert(alert)
		}
	}
}

// handleAlert runs the pipeline for one alert: audit row, rolling window,
// live fan-out, channel dispatch, dispatch audit, auto-escalation.
func (s *Service) handleAlert(alert models.Alert) {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}

	s.window.Add(alert)

	if s.db != nil {
		if err := s.db.InsertAlert(s.ctx, alert); err != nil {
			s.logger.Errorf("InsertAlert failed for %s: %v", alert.ID, err)
		}
	}

	if payload, err := json.Marshal(alert); err == nil {
		s.wsManager.Broadcast(alert.OrgID, payload)
	}

	deliveryCfg := models.DefaultDeliveryConfig(alert.Severity)
	result := s.dispatcher.Dispatch(s.ctx, alert, deliveryCfg)
	s.recordDispatch(alert, deliveryCfg, result)

	if alert.Severity == models.SeverityCritical {
		reason := fmt.Sprintf("Automatic escalation: critical %s alert", alert.Category)
		if _, err := s.tracker.Create(s.ctx, alert.OrgID, alert.Title, 1, reason, ""); err != nil {
			s.logger.Errorf("Auto-escalation for alert %s failed: %v", alert.ID, err)
		}
	}
}

func (s *Service) recordDispatch(alert models.Alert, cfg models.DeliveryConfig, result dispatch.Result) {
	if s.db == nil {
		return
	}
	outcomes, err := json.Marshal(result)
	if err != nil {
		s.logger.Errorf("Failed to encode dispatch outcomes for alert %s: %v", alert.ID, err)
		return
	}
	record := db.NotificationRecord{
		ID:                     uuid.New().String(),
		OrgID:                  alert.OrgID,
		AlertID:                alert.ID,
		Priority:               cfg.Priority,
		EscalationDelayMinutes: cfg.EscalationDelayMinutes,
		Outcomes:               outcomes,
		CreatedAt:              time.Now(),
	}
	if err := s.db.InsertNotification(s.ctx, record); err != nil {
		s.logger.Errorf("InsertNotification failed for alert %s: %v", alert.ID, err)
	}
}
