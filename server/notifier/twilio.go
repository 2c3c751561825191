// Package notifier delivers habit notifications over WhatsApp and records
// what was actually delivered.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/habitpulse/habitpulse/internal/profile"
)

// Sender delivers one message body to one channel address.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

const (
	twilioAPIBase      = "https://api.twilio.com/2010-04-01"
	twilioSendTimeout  = 15 * time.Second
	whatsAppAddrPrefix = "whatsapp:"
)

// TwilioWhatsAppSender sends WhatsApp messages through the Twilio REST API.
type TwilioWhatsAppSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTwilioWhatsAppSender creates a sender from the profile's Twilio
// credentials.
func NewTwilioWhatsAppSender(prof *profile.Profile) *TwilioWhatsAppSender {
	return &TwilioWhatsAppSender{
		accountSID: prof.TwilioAccountSID,
		authToken:  prof.TwilioAuthToken,
		from:       prof.TwilioWhatsAppFrom,
		baseURL:    twilioAPIBase,
		httpClient: &http.Client{Timeout: twilioSendTimeout},
		logger:     slog.Default(),
	}
}

// Send performs exactly one delivery attempt. Any non-2xx response is an
// error; there is no retry here.
func (s *TwilioWhatsAppSender) Send(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("twilio API returned status %d: %s", resp.StatusCode, respBody)
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.SID != "" {
		s.logger.Info("whatsapp notification sent", "sid", parsed.SID)
	}
	return nil
}

// NormalizeWhatsAppAddress prefixes the address with the WhatsApp scheme
// when it is not already present.
func NormalizeWhatsAppAddress(phoneNumber string) string {
	if strings.HasPrefix(phoneNumber, whatsAppAddrPrefix) {
		return phoneNumber
	}
	return whatsAppAddrPrefix + phoneNumber
}
