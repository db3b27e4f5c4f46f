package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation is the row-level mutation kind carried by a change event.
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Watched source tables. Each one has a typed row decoder below so the
// classifier works on a discriminated variant instead of a raw map.
const (
	TableIncidents    = "incident_logs"
	TableBreaches     = "appetite_breach_logs"
	TableDependencies = "dependency_logs"
)

// WatchedTables lists every table the stream adapter subscribes to.
var WatchedTables = []string{TableIncidents, TableBreaches, TableDependencies}

// ChangeEvent is one row mutation as emitted by the change stream. It is
// consumed once per delivery and never persisted by this service.
type ChangeEvent struct {
	Table     string                 `json:"table"`
	Type      Operation              `json:"type"`
	Record    map[string]interface{} `json:"record"`
	OldRecord map[string]interface{} `json:"old_record,omitempty"`
	Timestamp time.Time              `json:"commit_timestamp"`
}

// DecodeChangeEvent parses a raw stream payload.
func DecodeChangeEvent(data []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ChangeEvent{}, fmt.Errorf("failed to decode change event: %w", err)
	}
	if ev.Table == "" {
		return ChangeEvent{}, fmt.Errorf("change event missing table name")
	}
	switch ev.Type {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return ChangeEvent{}, fmt.Errorf("change event has unknown operation %q", ev.Type)
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	return ev, nil
}

// IncidentRow is a row of incident_logs.
type IncidentRow struct {
	ID       string
	OrgID    string
	Title    string
	Severity Severity
	Status   string
}

// BreachRow is a row of appetite_breach_logs.
type BreachRow struct {
	ID             string
	OrgID          string
	Indicator      string
	Severity       Severity
	ActualValue    float64
	ThresholdValue float64
}

// DependencyRow is a row of dependency_logs.
type DependencyRow struct {
	ID                string
	OrgID             string
	DependencyName    string
	ToleranceBreached bool
	ImpactLevel       Severity
	BusinessImpact    string
}

// IncidentRow decodes the event record as an incident, substituting defaults
// for missing fields. ok is false when the event is not an incident row.
func (e ChangeEvent) IncidentRow() (IncidentRow, bool) {
	if e.Table != TableIncidents {
		return IncidentRow{}, false
	}
	return IncidentRow{
		ID:       stringField(e.Record, "id", ""),
		OrgID:    stringField(e.Record, "org_id", ""),
		Title:    stringField(e.Record, "title", "Untitled incident"),
		Severity: ParseSeverity(stringField(e.Record, "severity", string(SeverityMedium))),
		Status:   stringField(e.Record, "status", "open"),
	}, true
}

// BreachRow decodes the event record as an appetite breach.
func (e ChangeEvent) BreachRow() (BreachRow, bool) {
	if e.Table != TableBreaches {
		return BreachRow{}, false
	}
	return BreachRow{
		ID:             stringField(e.Record, "id", ""),
		OrgID:          stringField(e.Record, "org_id", ""),
		Indicator:      stringField(e.Record, "kri_name", "Key risk indicator"),
		Severity:       ParseSeverity(stringField(e.Record, "severity", string(SeverityMedium))),
		ActualValue:    floatField(e.Record, "actual_value"),
		ThresholdValue: floatField(e.Record, "threshold_value"),
	}, true
}

// DependencyRow decodes the event record as a dependency log entry.
func (e ChangeEvent) DependencyRow() (DependencyRow, bool) {
	if e.Table != TableDependencies {
		return DependencyRow{}, false
	}
	return DependencyRow{
		ID:                stringField(e.Record, "id", ""),
		OrgID:             stringField(e.Record, "org_id", ""),
		DependencyName:    stringField(e.Record, "dependency_name", "Critical dependency"),
		ToleranceBreached: boolField(e.Record, "tolerance_breached"),
		ImpactLevel:       ParseSeverity(stringField(e.Record, "impact_level", string(SeverityHigh))),
		BusinessImpact:    stringField(e.Record, "business_impact", "Business impact under assessment"),
	}, true
}

func stringField(rec map[string]interface{}, key, fallback string) string {
	if v, ok := rec[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func floatField(rec map[string]interface{}, key string) float64 {
	switch v := rec[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}

func boolField(rec map[string]interface{}, key string) bool {
	v, _ := rec[key].(bool)
	return v
}
