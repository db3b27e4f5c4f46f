package models

// Severity mirrors the severity scale used across incident logs, KRI breaches
// and dependency tolerance checks.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity normalizes a raw severity string, falling back to medium for
// unknown values so a malformed row never breaks classification.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s)
	default:
		return SeverityMedium
	}
}

// IsValid reports whether s is one of the known severity values.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Category identifies which resilience module an alert originated from.
type Category string

const (
	CategoryIncident          Category = "incident"
	CategoryKRIBreach         Category = "kri_breach"
	CategoryDependencyFailure Category = "dependency_failure"

	// CategoryComplianceGap is declared in the alert taxonomy but no change
	// stream currently classifies into it. Not yet wired to a source table.
	CategoryComplianceGap Category = "compliance_gap"
)

// Priority is the delivery priority forwarded to notification channels.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// PriorityForSeverity maps alert severity onto a delivery priority.
func PriorityForSeverity(s Severity) Priority {
	switch s {
	case SeverityCritical:
		return PriorityUrgent
	case SeverityHigh:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}
