package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resilience-alerting/internal/models"
)

// NotificationRecord is the dispatch audit row: one per dispatch call, with
// the per-channel outcomes stored as JSON.
type NotificationRecord struct {
	ID                     string          `json:"id"`
	OrgID                  string          `json:"org_id"`
	AlertID                string          `json:"alert_id"`
	Priority               models.Priority `json:"priority"`
	EscalationDelayMinutes int             `json:"escalation_delay_minutes"`
	Outcomes               json.RawMessage `json:"outcomes"`
	CreatedAt              time.Time       `json:"created_at"`
}

// InsertNotification records the outcome of one dispatch.
func (d *DB) InsertNotification(ctx context.Context, n NotificationRecord) error {
	query := `
	INSERT INTO notifications (
		id, org_id, alert_id, priority, escalation_delay_minutes, outcomes, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := d.Pool.Exec(ctx, query,
		n.ID, n.OrgID, n.AlertID, n.Priority, n.EscalationDelayMinutes, n.Outcomes, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification record: %w", err)
	}
	return nil
}

// ListNotifications returns recent dispatch records for an organization.
func (d *DB) ListNotifications(ctx context.Context, orgID string, limit int) ([]NotificationRecord, error) {
	query := `
	SELECT id, org_id, alert_id, priority, escalation_delay_minutes, outcomes, created_at
	FROM notifications
	WHERE org_id = $1
	ORDER BY created_at DESC
	LIMIT $2`

	rows, err := d.Pool.Query(ctx, query, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var list []NotificationRecord
	for rows.Next() {
		var n NotificationRecord
		err := rows.Scan(&n.ID, &n.OrgID, &n.AlertID, &n.Priority,
			&n.EscalationDelayMinutes, &n.Outcomes, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification record: %w", err)
		}
		list = append(list, n)
	}
	return list, nil
}
