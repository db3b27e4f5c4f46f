// Package classifier turns raw change events into normalized alerts. It is
// deliberately pure: no persistence, no dispatch, no logging. A change event
// produces zero or one alert, and a malformed payload degrades to defaults
// instead of failing, so the subscription loop can never be crashed by data.
package classifier

import (
	"fmt"

	"resilience-alerting/internal/models"
)

// Classify applies the per-table qualification rules and returns the derived
// alert. ok is false when the event does not qualify.
//
// Rules by source table:
//   - incident_logs: only high and critical incidents surface as alerts.
//   - appetite_breach_logs: every insert qualifies regardless of severity.
//   - dependency_logs: qualifies only when the tolerance-breached flag is set;
//     severity is critical when the impact level is critical, high otherwise.
//
// No source table currently classifies into models.CategoryComplianceGap.
func Classify(ev models.ChangeEvent) (models.Alert, bool) {
	switch ev.Table {
	case models.TableIncidents:
		return classifyIncident(ev)
	case models.TableBreaches:
		return classifyBreach(ev)
	case models.TableDependencies:
		return classifyDependency(ev)
	default:
		return models.Alert{}, false
	}
}

func classifyIncident(ev models.ChangeEvent) (models.Alert, bool) {
	row, _ := ev.IncidentRow()
	if row.Severity != models.SeverityHigh && row.Severity != models.SeverityCritical {
		return models.Alert{}, false
	}
	return models.Alert{
		ID:           row.ID,
		OrgID:        row.OrgID,
		Category:     models.CategoryIncident,
		Severity:     row.Severity,
		Title:        fmt.Sprintf("New %s incident", row.Severity),
		Description:  row.Title,
		Timestamp:    ev.Timestamp,
		SourceModule: "incident_management",
	}, true
}

func classifyBreach(ev models.ChangeEvent) (models.Alert, bool) {
	if ev.Type != models.OpInsert {
		return models.Alert{}, false
	}
	row, _ := ev.BreachRow()
	return models.Alert{
		ID:           row.ID,
		OrgID:        row.OrgID,
		Category:     models.CategoryKRIBreach,
		Severity:     row.Severity,
		Title:        fmt.Sprintf("Risk appetite breach: %s", row.Indicator),
		Description:  fmt.Sprintf("Threshold breached: %.2f vs %.2f", row.ActualValue, row.ThresholdValue),
		Timestamp:    ev.Timestamp,
		SourceModule: "risk_appetite",
		Context: models.AlertContext{
			Indicator: row.Indicator,
			Actual:    row.ActualValue,
			Threshold: row.ThresholdValue,
		},
	}, true
}

func classifyDependency(ev models.ChangeEvent) (models.Alert, bool) {
	row, _ := ev.DependencyRow()
	if !row.ToleranceBreached {
		return models.Alert{}, false
	}
	severity := models.SeverityHigh
	if row.ImpactLevel == models.SeverityCritical {
		severity = models.SeverityCritical
	}
	return models.Alert{
		ID:           row.ID,
		OrgID:        row.OrgID,
		Category:     models.CategoryDependencyFailure,
		Severity:     severity,
		Title:        fmt.Sprintf("Dependency tolerance breached: %s", row.DependencyName),
		Description:  row.BusinessImpact,
		Timestamp:    ev.Timestamp,
		SourceModule: "third_party_risk",
	}, true
}
