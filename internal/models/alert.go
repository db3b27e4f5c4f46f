package models

import "time"

// AlertContext carries the measured values behind a tolerance breach so the
// dispatcher can render them into the regulatory notification body.
type AlertContext struct {
	Indicator string  `json:"indicator,omitempty"`
	Actual    float64 `json:"actual,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

// Alert is the normalized, user-visible representation of a qualifying change
// event. Alerts are only ever mutated by acknowledgement.
type Alert struct {
	ID           string       `json:"id"`
	OrgID        string       `json:"org_id"`
	Category     Category     `json:"category"`
	Severity     Severity     `json:"severity"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Timestamp    time.Time    `json:"timestamp"`
	Acknowledged bool         `json:"acknowledged"`
	SourceModule string       `json:"source_module"`
	Context      AlertContext `json:"context,omitempty"`
}

// DeliveryConfig is the per-call channel configuration for a dispatch. It is a
// parameter object, not a persisted entity.
type DeliveryConfig struct {
	EmailEnabled           bool     `json:"email_enabled"`
	SMSEnabled             bool     `json:"sms_enabled"`
	Priority               Priority `json:"priority"`
	EscalationDelayMinutes int      `json:"escalation_delay_minutes"`
}

// DefaultDeliveryConfig derives the standard channel configuration for an
// alert of the given severity.
func DefaultDeliveryConfig(s Severity) DeliveryConfig {
	return DeliveryConfig{
		EmailEnabled:           true,
		SMSEnabled:             s == SeverityCritical,
		Priority:               PriorityForSeverity(s),
		EscalationDelayMinutes: 30,
	}
}
