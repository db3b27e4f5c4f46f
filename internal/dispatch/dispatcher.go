// Package dispatch fans a classified alert out to the configured delivery
// channels and reports a per-channel outcome.
package dispatch

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"resilience-alerting/internal/models"
)

// Channel identifies a delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelTelegram Channel = "telegram"
)

// Status is the delivery outcome for one channel.
type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome records what happened on one channel during a dispatch.
type Outcome struct {
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Result maps each attempted channel to its outcome. Channels that are not
// configured at all do not appear.
type Result map[Channel]Outcome

// Delivered reports whether at least one channel actually sent.
func (r Result) Delivered() bool {
	for _, o := range r {
		if o.Status == StatusSent {
			return true
		}
	}
	return false
}

// Failed reports whether any channel attempt failed.
func (r Result) Failed() bool {
	for _, o := range r {
		if o.Status == StatusFailed {
			return true
		}
	}
	return false
}

// EmailFunc sends one email notification.
type EmailFunc func(ctx context.Context, subject, html string) error

// SMSFunc sends one SMS notification with the given delivery priority.
type SMSFunc func(ctx context.Context, priority models.Priority, message string) error

// TelegramFunc posts one message to the operations channel.
type TelegramFunc func(ctx context.Context, message string) error

// Dispatcher invokes the delivery channels for alerts. Channel functions are
// injected so tests and callers can substitute fakes; a nil function means the
// channel is not configured and is left out of the result.
type Dispatcher struct {
	email    EmailFunc
	sms      SMSFunc
	telegram TelegramFunc
	logger   *logrus.Logger
}

// New builds a Dispatcher over the given channel functions.
func New(email EmailFunc, sms SMSFunc, telegram TelegramFunc, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{email: email, sms: sms, telegram: telegram, logger: logger}
}

// Dispatch delivers the alert on every enabled and eligible channel. Channel
// calls are independent: a failing email never blocks the SMS attempt. Errors
// are logged and recorded per channel, never returned. The escalation delay in
// cfg is metadata only; no timer is scheduled here.
func (d *Dispatcher) Dispatch(ctx context.Context, alert models.Alert, cfg models.DeliveryConfig) Result {
	if cfg.Priority == "" {
		cfg.Priority = models.PriorityForSeverity(alert.Severity)
	}
	result := Result{}

	if d.email != nil {
		result[ChannelEmail] = d.dispatchEmail(ctx, alert, cfg)
	}
	if d.sms != nil {
		result[ChannelSMS] = d.dispatchSMS(ctx, alert, cfg)
	}
	if d.telegram != nil {
		result[ChannelTelegram] = d.dispatchTelegram(ctx, alert)
	}

	d.logger.Infof("Dispatched alert %s (severity=%s, priority=%s, escalation_delay=%dm): %v",
		alert.ID, alert.Severity, cfg.Priority, cfg.EscalationDelayMinutes, result)
	return result
}

func (d *Dispatcher) dispatchEmail(ctx context.Context, alert models.Alert, cfg models.DeliveryConfig) Outcome {
	if !cfg.EmailEnabled {
		return Outcome{Status: StatusSkipped, Detail: "email disabled by delivery config"}
	}
	subject, html := BuildEmail(alert)
	if err := d.email(ctx, subject, html); err != nil {
		d.logger.Errorf("Email dispatch for alert %s failed: %v", alert.ID, err)
		return Outcome{Status: StatusFailed, Detail: err.Error()}
	}
	return Outcome{Status: StatusSent}
}

func (d *Dispatcher) dispatchSMS(ctx context.Context, alert models.Alert, cfg models.DeliveryConfig) Outcome {
	if !cfg.SMSEnabled {
		return Outcome{Status: StatusSkipped, Detail: "sms disabled by delivery config"}
	}
	// Proportionality rule: SMS is reserved for critical alerts no matter
	// what the caller's flag says.
	if alert.Severity != models.SeverityCritical {
		return Outcome{Status: StatusSkipped, Detail: "sms reserved for critical severity"}
	}
	if err := d.sms(ctx, cfg.Priority, BuildSMS(alert)); err != nil {
		d.logger.Errorf("SMS dispatch for alert %s failed: %v", alert.ID, err)
		return Outcome{Status: StatusFailed, Detail: err.Error()}
	}
	return Outcome{Status: StatusSent}
}

func (d *Dispatcher) dispatchTelegram(ctx context.Context, alert models.Alert) Outcome {
	// Same proportionality rule as SMS: the ops channel only carries
	// critical alerts.
	if alert.Severity != models.SeverityCritical {
		return Outcome{Status: StatusSkipped, Detail: "telegram reserved for critical severity"}
	}
	if err := d.telegram(ctx, BuildTelegram(alert)); err != nil {
		d.logger.Errorf("Telegram dispatch for alert %s failed: %v", alert.ID, err)
		return Outcome{Status: StatusFailed, Detail: err.Error()}
	}
	return Outcome{Status: StatusSent}
}

// Fixed compliance wording. The heading, citation and disclaimer must appear
// verbatim in every breach notification email.
const (
	emailHeading = "OSFI E-21 Tolerance Breach Alert"

	regulatoryCitation = "Issued pursuant to OSFI Guideline E-21 (Operational Risk Management and Resilience), " +
		"OSFI E-21 Principle 7: institutions should monitor operations and escalate disruptions " +
		"that may exceed their tolerance for disruption."

	regulatoryDisclaimer = "This does not constitute regulatory advice. " +
		"Consult your compliance function for guidance specific to your institution."
)

// BuildEmail renders the regulatory notification email for an alert.
func BuildEmail(alert models.Alert) (subject, html string) {
	subject = fmt.Sprintf("%s: %s", emailHeading, alert.Title)
	html = fmt.Sprintf(
		"<h2>%s</h2>"+
			"<p><strong>Severity:</strong> %s</p>"+
			"<p><strong>Source:</strong> %s</p>"+
			"<p>%s</p>",
		emailHeading, alert.Severity, alert.SourceModule, alert.Description,
	)
	if alert.Context.Indicator != "" {
		html += fmt.Sprintf(
			"<p><strong>Indicator:</strong> %s<br>"+
				"<strong>Actual:</strong> %.2f<br>"+
				"<strong>Threshold:</strong> %.2f</p>",
			alert.Context.Indicator, alert.Context.Actual, alert.Context.Threshold,
		)
	}
	html += fmt.Sprintf("<hr><p><em>%s</em></p><p><em>%s</em></p>", regulatoryCitation, regulatoryDisclaimer)
	return subject, html
}

// BuildSMS renders the short-form message for the SMS channel.
func BuildSMS(alert models.Alert) string {
	return fmt.Sprintf("[%s] %s - %s. %s", alert.Severity, emailHeading, alert.Title, alert.Description)
}

// BuildTelegram renders the operations-channel message.
func BuildTelegram(alert models.Alert) string {
	return fmt.Sprintf("*%s*\nSeverity: %s\nSource: %s\n%s", alert.Title, alert.Severity, alert.SourceModule, alert.Description)
}
