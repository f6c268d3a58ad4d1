package services

import (
	"context"
	"fmt"
	"time"

	"github.com/edest28/RefCheck-3/internal/config"
	"github.com/edest28/RefCheck-3/internal/utils"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// TwilioService sends SMS through the Twilio REST API.
type TwilioService struct {
	cfg    *config.TwilioConfig
	client *resty.Client
}

func NewTwilioService(cfg *config.TwilioConfig) *TwilioService {
	client := resty.New().
		SetBaseURL("https://api.twilio.com/2010-04-01").
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetTimeout(60 * time.Second)
	return &TwilioService{cfg: cfg, client: client}
}

func (s *TwilioService) Configured() bool {
	return s.cfg.AccountSID != "" && s.cfg.AuthToken != "" && s.cfg.PhoneNumber != ""
}

// Send delivers an SMS and returns the provider message SID. The recipient
// number is normalized to E.164 before sending.
func (s *TwilioService) Send(ctx context.Context, to, body string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("sms provider not configured")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"From": s.cfg.PhoneNumber,
			"To":   utils.FormatPhoneE164(to),
			"Body": body,
		}).
		Post(fmt.Sprintf("/Accounts/%s/Messages.json", s.cfg.AccountSID))
	if err != nil {
		return "", fmt.Errorf("send sms: %w", err)
	}
	if resp.StatusCode() != 201 {
		return "", fmt.Errorf("send sms: status %d: %s", resp.StatusCode(), resp.String())
	}
	return gjson.Get(resp.String(), "sid").String(), nil
}
