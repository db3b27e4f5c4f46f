package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"resilience-alerting/internal/escalation"
	"resilience-alerting/internal/models"
)

// EscalationStore is the pgx-backed escalation.Store.
type EscalationStore struct {
	db *DB
}

// NewEscalationStore wraps the shared pool as an escalation store.
func NewEscalationStore(db *DB) *EscalationStore {
	return &EscalationStore{db: db}
}

func (s *EscalationStore) Insert(ctx context.Context, ex models.EscalationExecution) error {
	query := `
	INSERT INTO escalation_executions (
		id, org_id, alert_title, level, reason, assigned_to, status, escalated_at, resolved_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.Pool.Exec(ctx, query,
		ex.ID, ex.OrgID, ex.AlertTitle, ex.Level, ex.Reason,
		ex.AssignedTo, ex.Status, ex.EscalatedAt, ex.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to insert escalation: %w", err)
	}
	return nil
}

func (s *EscalationStore) Get(ctx context.Context, id string) (models.EscalationExecution, error) {
	var ex models.EscalationExecution
	query := `
	SELECT id, org_id, alert_title, level, reason, assigned_to, status, escalated_at, resolved_at
	FROM escalation_executions
	WHERE id = $1`

	err := s.db.Pool.QueryRow(ctx, query, id).Scan(
		&ex.ID, &ex.OrgID, &ex.AlertTitle, &ex.Level, &ex.Reason,
		&ex.AssignedTo, &ex.Status, &ex.EscalatedAt, &ex.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EscalationExecution{}, escalation.ErrNotFound
		}
		return models.EscalationExecution{}, fmt.Errorf("failed to get escalation %s: %w", id, err)
	}
	return ex, nil
}

func (s *EscalationStore) Update(ctx context.Context, ex models.EscalationExecution) error {
	query := `
	UPDATE escalation_executions
	SET status = $1, resolved_at = $2, assigned_to = $3
	WHERE id = $4`

	result, err := s.db.Pool.Exec(ctx, query, ex.Status, ex.ResolvedAt, ex.AssignedTo, ex.ID)
	if err != nil {
		return fmt.Errorf("failed to update escalation %s: %w", ex.ID, err)
	}
	if result.RowsAffected() == 0 {
		return escalation.ErrNotFound
	}
	return nil
}

func (s *EscalationStore) List(ctx context.Context, orgID string) ([]models.EscalationExecution, error) {
	query := `
	SELECT id, org_id, alert_title, level, reason, assigned_to, status, escalated_at, resolved_at
	FROM escalation_executions
	WHERE org_id = $1
	ORDER BY escalated_at DESC`

	rows, err := s.db.Pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalations: %w", err)
	}
	defer rows.Close()

	var list []models.EscalationExecution
	for rows.Next() {
		var ex models.EscalationExecution
		err := rows.Scan(
			&ex.ID, &ex.OrgID, &ex.AlertTitle, &ex.Level, &ex.Reason,
			&ex.AssignedTo, &ex.Status, &ex.EscalatedAt, &ex.ResolvedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		list = append(list, ex)
	}
	return list, nil
}
