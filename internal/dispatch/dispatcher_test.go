package dispatch

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"resilience-alerting/internal/models"
)

type capture struct {
	emails    []string // html bodies
	subjects  []string
	sms       []string
	smsPrio   []models.Priority
	telegrams []string
	emailErr  error
	smsErr    error
}

func (c *capture) dispatcher() *Dispatcher {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(
		func(_ context.Context, subject, html string) error {
			c.subjects = append(c.subjects, subject)
			c.emails = append(c.emails, html)
			return c.emailErr
		},
		func(_ context.Context, priority models.Priority, message string) error {
			c.smsPrio = append(c.smsPrio, priority)
			c.sms = append(c.sms, message)
			return c.smsErr
		},
		func(_ context.Context, message string) error {
			c.telegrams = append(c.telegrams, message)
			return nil
		},
		logger,
	)
}

func criticalAlert() models.Alert {
	return models.Alert{
		ID:           "al-1",
		OrgID:        "org-1",
		Category:     models.CategoryKRIBreach,
		Severity:     models.SeverityCritical,
		Title:        "Risk appetite breach: System availability",
		Description:  "Threshold breached: 97.10 vs 99.50",
		SourceModule: "risk_appetite",
		Context:      models.AlertContext{Indicator: "System availability", Actual: 97.1, Threshold: 99.5},
	}
}

func TestDispatchSMSGatedToCritical(t *testing.T) {
	tests := []struct {
		name     string
		severity models.Severity
		smsFlag  bool
		wantSMS  Status
	}{
		{name: "critical with sms enabled sends", severity: models.SeverityCritical, smsFlag: true, wantSMS: StatusSent},
		{name: "high with sms enabled is skipped", severity: models.SeverityHigh, smsFlag: true, wantSMS: StatusSkipped},
		{name: "critical with sms disabled is skipped", severity: models.SeverityCritical, smsFlag: false, wantSMS: StatusSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &capture{}
			alert := criticalAlert()
			alert.Severity = tt.severity

			res := c.dispatcher().Dispatch(context.Background(), alert, models.DeliveryConfig{
				EmailEnabled: true,
				SMSEnabled:   tt.smsFlag,
				Priority:     models.PriorityHigh,
			})

			if res[ChannelSMS].Status != tt.wantSMS {
				t.Errorf("sms outcome = %v, want %v (detail %q)", res[ChannelSMS].Status, tt.wantSMS, res[ChannelSMS].Detail)
			}
			if res[ChannelEmail].Status != StatusSent {
				t.Errorf("email outcome = %v, want sent", res[ChannelEmail].Status)
			}
			wantCalls := 0
			if tt.wantSMS == StatusSent {
				wantCalls = 1
			}
			if len(c.sms) != wantCalls {
				t.Errorf("sms channel called %d times, want %d", len(c.sms), wantCalls)
			}
		})
	}
}

func TestDispatchTelegramGatedToCritical(t *testing.T) {
	tests := []struct {
		name         string
		severity     models.Severity
		wantTelegram Status
	}{
		{name: "critical sends", severity: models.SeverityCritical, wantTelegram: StatusSent},
		{name: "high is skipped", severity: models.SeverityHigh, wantTelegram: StatusSkipped},
		{name: "medium is skipped", severity: models.SeverityMedium, wantTelegram: StatusSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &capture{}
			alert := criticalAlert()
			alert.Severity = tt.severity

			res := c.dispatcher().Dispatch(context.Background(), alert, models.DeliveryConfig{EmailEnabled: true})

			if res[ChannelTelegram].Status != tt.wantTelegram {
				t.Errorf("telegram outcome = %v, want %v (detail %q)", res[ChannelTelegram].Status, tt.wantTelegram, res[ChannelTelegram].Detail)
			}
			wantCalls := 0
			if tt.wantTelegram == StatusSent {
				wantCalls = 1
			}
			if len(c.telegrams) != wantCalls {
				t.Errorf("telegram channel called %d times, want %d", len(c.telegrams), wantCalls)
			}
			if tt.wantTelegram == StatusSkipped && res[ChannelTelegram].Detail == "" {
				t.Error("skipped telegram outcome should carry a reason")
			}
		})
	}
}

func TestDispatchEmailContainsRegulatoryBoilerplate(t *testing.T) {
	c := &capture{}
	c.dispatcher().Dispatch(context.Background(), criticalAlert(), models.DeliveryConfig{EmailEnabled: true})

	if len(c.emails) != 1 {
		t.Fatalf("email channel called %d times, want 1", len(c.emails))
	}
	body := c.emails[0]
	for _, want := range []string{
		"OSFI E-21 Tolerance Breach Alert",
		"OSFI E-21 Principle 7",
		"This does not constitute regulatory advice",
		"critical",
		"97.10",
		"99.50",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("email body missing %q", want)
		}
	}
	if !strings.Contains(c.subjects[0], "OSFI E-21 Tolerance Breach Alert") {
		t.Errorf("subject missing regulatory heading: %q", c.subjects[0])
	}
}

func TestDispatchEmailFailureDoesNotBlockSMS(t *testing.T) {
	c := &capture{emailErr: errors.New("smtp refused")}
	res := c.dispatcher().Dispatch(context.Background(), criticalAlert(), models.DeliveryConfig{
		EmailEnabled: true,
		SMSEnabled:   true,
		Priority:     models.PriorityUrgent,
	})

	if res[ChannelEmail].Status != StatusFailed {
		t.Errorf("email outcome = %v, want failed", res[ChannelEmail].Status)
	}
	if res[ChannelSMS].Status != StatusSent {
		t.Errorf("sms outcome = %v, want sent", res[ChannelSMS].Status)
	}
	if len(c.smsPrio) != 1 || c.smsPrio[0] != models.PriorityUrgent {
		t.Errorf("sms priority = %v, want urgent forwarded from config", c.smsPrio)
	}
	if !res.Failed() {
		t.Error("Result.Failed() = false after an email failure")
	}
	if !res.Delivered() {
		t.Error("Result.Delivered() = false although sms sent")
	}
}

func TestDispatchPerChannelResultRecord(t *testing.T) {
	c := &capture{}
	alert := criticalAlert()
	alert.Severity = models.SeverityHigh

	res := c.dispatcher().Dispatch(context.Background(), alert, models.DeliveryConfig{
		EmailEnabled: true,
		SMSEnabled:   true,
		Priority:     models.PriorityHigh,
	})

	if got := res[ChannelSMS]; got.Status != StatusSkipped || got.Detail == "" {
		t.Errorf("skipped sms outcome should carry a reason, got %+v", got)
	}
	if _, ok := res[ChannelTelegram]; !ok {
		t.Error("configured telegram channel missing from result")
	}
}

func TestDispatchEndToEndCriticalIncident(t *testing.T) {
	c := &capture{}
	alert := models.Alert{
		ID:           "inc-9",
		Category:     models.CategoryIncident,
		Severity:     models.SeverityCritical,
		Title:        "New critical incident",
		Description:  "Core banking outage",
		SourceModule: "incident_management",
	}

	res := c.dispatcher().Dispatch(context.Background(), alert, models.DeliveryConfig{
		EmailEnabled: true,
		SMSEnabled:   true,
	})

	if len(c.emails) != 1 {
		t.Errorf("email channel called %d times, want exactly 1", len(c.emails))
	}
	if len(c.sms) != 1 {
		t.Errorf("sms channel called %d times, want exactly 1", len(c.sms))
	}
	if res[ChannelEmail].Status != StatusSent || res[ChannelSMS].Status != StatusSent {
		t.Errorf("outcomes = %+v, want both sent", res)
	}
	// Empty priority in the config defaults from severity.
	if c.smsPrio[0] != models.PriorityUrgent {
		t.Errorf("defaulted sms priority = %v, want urgent", c.smsPrio[0])
	}
}

func TestDispatchUnconfiguredChannelsAbsent(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	d := New(func(context.Context, string, string) error { return nil }, nil, nil, logger)

	res := d.Dispatch(context.Background(), criticalAlert(), models.DeliveryConfig{EmailEnabled: true, SMSEnabled: true})
	if _, ok := res[ChannelSMS]; ok {
		t.Error("unconfigured sms channel should not appear in result")
	}
	if _, ok := res[ChannelTelegram]; ok {
		t.Error("unconfigured telegram channel should not appear in result")
	}
}
