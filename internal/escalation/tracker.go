// Package escalation maintains the authoritative record of escalation
// executions and computes the derived governance metrics.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"resilience-alerting/internal/models"
)

var (
	// ErrNotFound is returned when no execution exists for the given id.
	ErrNotFound = errors.New("escalation execution not found")
	// ErrAlreadyResolved is returned when resolving an execution a second
	// time. The original resolution timestamp is part of the audit trail and
	// is never re-stamped.
	ErrAlreadyResolved = errors.New("escalation execution already resolved")
	// ErrNotActive is returned when cancelling or resolving an execution
	// that is cancelled.
	ErrNotActive = errors.New("escalation execution is not active")
)

// Store persists escalation executions. Implementations: pgx-backed store in
// internal/db, MemoryStore below for tests.
type Store interface {
	Insert(ctx context.Context, ex models.EscalationExecution) error
	Get(ctx context.Context, id string) (models.EscalationExecution, error)
	Update(ctx context.Context, ex models.EscalationExecution) error
	List(ctx context.Context, orgID string) ([]models.EscalationExecution, error)
}

// Metrics are the aggregate escalation figures shown on the governance
// dashboard. Always recomputed from the stored executions, never stored.
type Metrics struct {
	Total                 int         `json:"total"`
	Active                int         `json:"active"`
	ResolvedToday         int         `json:"resolved_today"`
	AvgResolutionHours    float64     `json:"avg_resolution_hours"`
	ByLevel               map[int]int `json:"by_level"`
	HighestTierEscalation models.Tier `json:"highest_tier_escalation,omitempty"`
}

// Tracker coordinates escalation lifecycle over an injected Store.
type Tracker struct {
	store  Store
	logger *logrus.Logger
	now    func() time.Time
}

// NewTracker builds a Tracker over store.
func NewTracker(store Store, logger *logrus.Logger) *Tracker {
	return &Tracker{store: store, logger: logger, now: time.Now}
}

// Create opens a new active escalation execution for an alert.
func (t *Tracker) Create(ctx context.Context, orgID, alertTitle string, level int, reason, assignedTo string) (models.EscalationExecution, error) {
	if level < 1 {
		return models.EscalationExecution{}, fmt.Errorf("escalation level must be >= 1, got %d", level)
	}
	if assignedTo == "" {
		assignedTo = models.TierOwner(models.TierForLevel(level))
	}
	ex := models.EscalationExecution{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		AlertTitle:  alertTitle,
		Level:       level,
		Reason:      reason,
		AssignedTo:  assignedTo,
		Status:      models.EscalationActive,
		EscalatedAt: t.now(),
	}
	if err := t.store.Insert(ctx, ex); err != nil {
		return models.EscalationExecution{}, fmt.Errorf("failed to create escalation: %w", err)
	}
	t.logger.Infof("Escalation %s created (level=%d, tier=%s, alert=%q)", ex.ID, level, models.TierForLevel(level), alertTitle)
	return ex, nil
}

// Resolve marks an active execution resolved, stamping resolved_at. Resolving
// an unknown id returns ErrNotFound; a second resolve returns
// ErrAlreadyResolved; a cancelled execution returns ErrNotActive.
func (t *Tracker) Resolve(ctx context.Context, id string) (models.EscalationExecution, error) {
	ex, err := t.store.Get(ctx, id)
	if err != nil {
		return models.EscalationExecution{}, err
	}
	switch ex.Status {
	case models.EscalationResolved:
		return models.EscalationExecution{}, ErrAlreadyResolved
	case models.EscalationCancelled:
		return models.EscalationExecution{}, ErrNotActive
	}

	now := t.now()
	ex.Status = models.EscalationResolved
	ex.ResolvedAt = &now
	if err := t.store.Update(ctx, ex); err != nil {
		return models.EscalationExecution{}, fmt.Errorf("failed to resolve escalation %s: %w", id, err)
	}
	t.logger.Infof("Escalation %s resolved after %s", id, now.Sub(ex.EscalatedAt))
	return ex, nil
}

// Cancel marks an active execution cancelled without a resolution timestamp.
func (t *Tracker) Cancel(ctx context.Context, id string) (models.EscalationExecution, error) {
	ex, err := t.store.Get(ctx, id)
	if err != nil {
		return models.EscalationExecution{}, err
	}
	if ex.Status != models.EscalationActive {
		return models.EscalationExecution{}, ErrNotActive
	}
	ex.Status = models.EscalationCancelled
	if err := t.store.Update(ctx, ex); err != nil {
		return models.EscalationExecution{}, fmt.Errorf("failed to cancel escalation %s: %w", id, err)
	}
	t.logger.Infof("Escalation %s cancelled", id)
	return ex, nil
}

// List returns all executions for an organization.
func (t *Tracker) List(ctx context.Context, orgID string) ([]models.EscalationExecution, error) {
	return t.store.List(ctx, orgID)
}

// Metrics computes the aggregate figures for an organization. The average
// resolution time is taken over resolved executions only; active and
// cancelled ones appear in neither numerator nor denominator.
func (t *Tracker) Metrics(ctx context.Context, orgID string) (Metrics, error) {
	executions, err := t.store.List(ctx, orgID)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to load escalations for org %s: %w", orgID, err)
	}

	m := Metrics{ByLevel: map[int]int{}}
	now := t.now()
	var resolved int
	var totalResolution time.Duration
	highestActiveLevel := 0

	for _, ex := range executions {
		m.Total++
		m.ByLevel[ex.Level]++
		switch ex.Status {
		case models.EscalationActive:
			m.Active++
			if ex.Level > highestActiveLevel {
				highestActiveLevel = ex.Level
			}
		case models.EscalationResolved:
			if ex.ResolvedAt == nil {
				continue
			}
			resolved++
			totalResolution += ex.ResolvedAt.Sub(ex.EscalatedAt)
			ry, rm, rd := ex.ResolvedAt.Date()
			ny, nm, nd := now.Date()
			if ry == ny && rm == nm && rd == nd {
				m.ResolvedToday++
			}
		}
	}

	if resolved > 0 {
		m.AvgResolutionHours = totalResolution.Hours() / float64(resolved)
	}
	if highestActiveLevel > 0 {
		m.HighestTierEscalation = models.TierForLevel(highestActiveLevel)
	}
	return m, nil
}
