package db

import (
	"context"
	"fmt"

	"resilience-alerting/internal/models"
)

// InsertAlert records a classified alert for the audit trail.
func (d *DB) InsertAlert(ctx context.Context, a models.Alert) error {
	query := `
    INSERT INTO alerts (
        id, org_id, category, severity, title, description, source_module,
        acknowledged, indicator, actual_value, threshold_value, created_at
    ) VALUES (
        $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
    )`

	_, err := d.Pool.Exec(ctx, query,
		a.ID,
		a.OrgID,
		a.Category,
		a.Severity,
		a.Title,
		a.Description,
		a.SourceModule,
		a.Acknowledged,
		a.Context.Indicator,
		a.Context.Actual,
		a.Context.Threshold,
		a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// AcknowledgeAlert flips the acknowledged flag on a persisted alert.
func (d *DB) AcknowledgeAlert(ctx context.Context, orgID, id string) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE alerts SET acknowledged = TRUE WHERE org_id = $1 AND id = $2`,
		orgID, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no alert found for id %s", id)
	}
	return nil
}

// ListAlerts returns recent alerts for an organization, newest first.
func (d *DB) ListAlerts(ctx context.Context, orgID string, limit int) ([]models.Alert, error) {
	query := `
	SELECT id, org_id, category, severity, title, description, source_module,
	       acknowledged, indicator, actual_value, threshold_value, created_at
	FROM alerts
	WHERE org_id = $1
	ORDER BY created_at DESC
	LIMIT $2`

	rows, err := d.Pool.Query(ctx, query, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		var a models.Alert
		err := rows.Scan(
			&a.ID,
			&a.OrgID,
			&a.Category,
			&a.Severity,
			&a.Title,
			&a.Description,
			&a.SourceModule,
			&a.Acknowledged,
			&a.Context.Indicator,
			&a.Context.Actual,
			&a.Context.Threshold,
			&a.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		list = append(list, a)
	}
	return list, nil
}

// CountUnacknowledged counts unacknowledged alerts per category for the
// overview metrics.
func (d *DB) CountUnacknowledged(ctx context.Context, orgID string, category models.Category) (int, error) {
	var n int
	err := d.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM alerts WHERE org_id = $1 AND category = $2 AND acknowledged = FALSE`,
		orgID, category).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}
