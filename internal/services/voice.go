package services

import (
	"context"
	"fmt"
	"time"

	"github.com/edest28/RefCheck-3/internal/config"
	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/internal/utils"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// VapiService places and inspects outbound voice calls through the Vapi
// telephony API.
type VapiService struct {
	cfg    *config.VapiConfig
	client *resty.Client
}

func NewVapiService(cfg *config.VapiConfig) *VapiService {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.vapi.ai"
	}
	client := resty.New().
		SetBaseURL(base).
		SetAuthToken(cfg.APIKey).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &VapiService{cfg: cfg, client: client}
}

func (s *VapiService) Configured() bool {
	return s.cfg.APIKey != "" && s.cfg.PhoneNumberID != ""
}

// PlaceCall starts a reference check call and returns the provider call ID.
func (s *VapiService) PlaceCall(ctx context.Context, ref *models.Reference, candidate *models.Candidate, job *models.Job) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("voice provider not configured")
	}

	questions := GenerateReferenceQuestions(job, candidate.Name, ref.CustomQuestionList(), candidate.TargetRoleCategory, candidate.TargetRoleDetails)
	systemPrompt := BuildAssistantPrompt(candidate.Name, ref.Name, job, questions, candidate.TargetRoleCategory, candidate.TargetRoleDetails)

	payload := map[string]any{
		"phoneNumberId": s.cfg.PhoneNumberID,
		"customer":      map[string]any{"number": utils.FormatPhoneE164(ref.Phone)},
		"assistant": map[string]any{
			"name":         "Reference Checker",
			"firstMessage": fmt.Sprintf("Hello, this is Sarah from the hiring verification team. I'm calling regarding a reference check for %s. Am I speaking with %s?", candidate.Name, ref.Name),
			"model": map[string]any{
				"provider":    "anthropic",
				"model":       "claude-sonnet-4-20250514",
				"messages":    []map[string]any{{"role": "system", "content": systemPrompt}},
				"temperature": 0.7,
			},
			"voice":              map[string]any{"provider": "11labs", "voiceId": "21m00Tcm4TlvDq8ikWAM"},
			"maxDurationSeconds": 600,
			"endCallMessage":     "Thank you for your time. Have a great day!",
			"transcriber":        map[string]any{"provider": "deepgram", "language": "en"},
		},
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/call")
	if err != nil {
		return "", fmt.Errorf("place call: %w", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return "", fmt.Errorf("place call: status %d: %s", resp.StatusCode(), resp.String())
	}

	callID := gjson.Get(resp.String(), "id").String()
	if callID == "" {
		return "", fmt.Errorf("place call: response missing call id")
	}
	return callID, nil
}

// GetCall fetches the raw call record. Callers probe the JSON for status,
// endedReason and transcript.
func (s *VapiService) GetCall(ctx context.Context, callID string) (string, error) {
	if s.cfg.APIKey == "" {
		return "", fmt.Errorf("voice provider not configured")
	}
	resp, err := s.client.R().
		SetContext(ctx).
		Get("/call/" + callID)
	if err != nil {
		return "", fmt.Errorf("get call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("get call: status %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}
