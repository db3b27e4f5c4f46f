package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resilience-alerting/internal/config"
	"resilience-alerting/internal/models"
)

var smsClient = &http.Client{Timeout: 15 * time.Second}

// NewSMSSender returns the SMS channel function, delivering through the
// Twilio-compatible messages API from config.
func NewSMSSender(cfg config.Config) func(ctx context.Context, priority models.Priority, message string) error {
	return func(ctx context.Context, priority models.Priority, message string) error {
		return SendSMS(ctx, cfg, priority, message)
	}
}

// SendSMS delivers one SMS to the configured on-call number.
func SendSMS(ctx context.Context, cfg config.Config, priority models.Priority, message string) error {
	accountSID := cfg.SMS.AccountSID
	authToken := cfg.SMS.AuthToken
	fromNumber := cfg.SMS.FromNumber
	toNumber := cfg.SMS.ToNumber

	if accountSID == "" || authToken == "" || fromNumber == "" || toNumber == "" {
		return fmt.Errorf("missing SMS configuration: AccountSID, AuthToken, FromNumber, or ToNumber is empty")
	}

	urlStr := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", accountSID)
	msgData := url.Values{}
	msgData.Set("To", toNumber)
	msgData.Set("From", fromNumber)
	msgData.Set("Body", fmt.Sprintf("[%s] %s", strings.ToUpper(string(priority)), message))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, strings.NewReader(msgData.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create SMS request for %s: %w", toNumber, err)
	}
	req.SetBasicAuth(accountSID, authToken)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := smsClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", toNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("SMS API returned status %d for %s", resp.StatusCode, toNumber)
	}
	return nil
}
