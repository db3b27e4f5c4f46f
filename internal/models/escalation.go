package models

import "time"

// EscalationStatus is the lifecycle state of an escalation execution.
type EscalationStatus string

const (
	EscalationActive    EscalationStatus = "active"
	EscalationResolved  EscalationStatus = "resolved"
	EscalationCancelled EscalationStatus = "cancelled"
)

// EscalationExecution is one tracked escalation instance. Rows are retained
// indefinitely for audit history.
type EscalationExecution struct {
	ID          string           `json:"id"`
	OrgID       string           `json:"org_id"`
	AlertTitle  string           `json:"alert_title"`
	Level       int              `json:"level"`
	Reason      string           `json:"reason"`
	AssignedTo  string           `json:"assigned_to"`
	Status      EscalationStatus `json:"status"`
	EscalatedAt time.Time        `json:"escalated_at"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
}

// Tier names the accountability tier an escalation level routes to. The
// mapping is presentation metadata only; no paging automation hangs off it.
type Tier string

const (
	TierOperational      Tier = "operational"
	TierSeniorManagement Tier = "senior_management"
	TierBoard            Tier = "board"
)

// TierForLevel maps an escalation level to its accountability tier. Levels
// beyond the known range fall back to the board tier explicitly rather than
// reusing whatever happens to be last.
func TierForLevel(level int) Tier {
	switch {
	case level <= 1:
		return TierOperational
	case level == 2:
		return TierSeniorManagement
	default:
		return TierBoard
	}
}

// TierOwner returns the human-readable owner for a tier, matching the
// governance structure OSFI E-21 expects.
func TierOwner(t Tier) string {
	switch t {
	case TierOperational:
		return "Business Unit Manager"
	case TierSeniorManagement:
		return "Senior Management / CRO"
	default:
		return "Board / Regulator"
	}
}
