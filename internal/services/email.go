package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edest28/RefCheck-3/internal/config"
	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const defaultEmailFrom = "RefCheck AI <onboarding@resend.dev>"

// ResendService sends transactional email through the Resend API.
type ResendService struct {
	cfg    *config.ResendConfig
	client *resty.Client
}

func NewResendService(cfg *config.ResendConfig) *ResendService {
	client := resty.New().
		SetBaseURL("https://api.resend.com").
		SetAuthToken(cfg.APIKey).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &ResendService{cfg: cfg, client: client}
}

func (s *ResendService) Configured() bool {
	return s.cfg.APIKey != ""
}

func (s *ResendService) send(ctx context.Context, to, subject, html string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("email provider not configured")
	}
	if to == "" {
		return "", fmt.Errorf("recipient email not available")
	}

	from := s.cfg.From
	if from == "" {
		from = defaultEmailFrom
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"from":    from,
			"to":      []string{to},
			"subject": subject,
			"html":    html,
		}).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("send email: status %d: %s", resp.StatusCode(), resp.String())
	}
	return gjson.Get(resp.String(), "id").String(), nil
}

func firstName(fullName string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(fullName), " ")
	return name
}

// SendReferenceRequestEmail asks the candidate to submit references via
// their tokenized link.
func (s *ResendService) SendReferenceRequestEmail(ctx context.Context, candidate *models.Candidate, token, baseURL string) (string, error) {
	submitURL := fmt.Sprintf("%s/submit-references/%s", baseURL, token)

	var jobsHTML strings.Builder
	for _, job := range candidate.Jobs {
		fmt.Fprintf(&jobsHTML, "<li><strong>%s</strong> at %s (%s)</li>", job.Title, job.Company, job.Dates)
	}

	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
        <h2 style="color: #4f46e5;">Reference Request</h2>

        <p>Hi %s,</p>

        <p>RefCheck AI is requesting references for your job application. Please provide contact information for references from your previous roles.</p>

        <p><strong>Your work history:</strong></p>
        <ul>
            %s
        </ul>

        <p>Please click the button below to submit your references:</p>

        <p style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #4f46e5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold;">Submit References</a>
        </p>

        <p style="color: #666; font-size: 14px;">This link will expire in 7 days.</p>

        <p style="color: #666; font-size: 14px;">If you have any questions, please contact the hiring team directly.</p>

        <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

        <p style="color: #999; font-size: 12px;">This email was sent by RefCheck AI.</p>
    </div>
    `, firstName(candidate.Name), jobsHTML.String(), submitURL)

	return s.send(ctx, candidate.Email, "RefCheck AI - Please Submit Your References", html)
}

// SendReferenceReminderEmail nudges a candidate who has not submitted yet.
func (s *ResendService) SendReferenceReminderEmail(ctx context.Context, candidate *models.Candidate, token, baseURL string) (string, error) {
	submitURL := fmt.Sprintf("%s/submit-references/%s", baseURL, token)

	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
        <h2 style="color: #4f46e5;">Reminder: Reference Request</h2>

        <p>Hi %s,</p>

        <p>This is a friendly reminder that we're still waiting for your references. Please submit them at your earliest convenience.</p>

        <p style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #4f46e5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold;">Submit References</a>
        </p>

        <p style="color: #666; font-size: 14px;">This link will expire soon.</p>

        <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

        <p style="color: #999; font-size: 12px;">This email was sent by RefCheck AI.</p>
    </div>
    `, firstName(candidate.Name), submitURL)

	return s.send(ctx, candidate.Email, "Reminder: RefCheck AI - Please Submit Your References", html)
}

// SendReferenceConfirmationEmail acknowledges a completed submission.
func (s *ResendService) SendReferenceConfirmationEmail(ctx context.Context, candidate *models.Candidate) (string, error) {
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
        <h2 style="color: #4f46e5;">References Received</h2>

        <p>Hi %s,</p>

        <p>Thank you for submitting your references. We have received your information and will be in touch with your references shortly.</p>

        <p>No further action is needed from you at this time.</p>

        <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

        <p style="color: #999; font-size: 12px;">This email was sent by RefCheck AI.</p>
    </div>
    `, firstName(candidate.Name))

	return s.send(ctx, candidate.Email, "RefCheck AI - References Received", html)
}

// SendSurveyEmail invites a reference to complete the survey for a
// candidate via their tokenized link.
func (s *ResendService) SendSurveyEmail(ctx context.Context, ref *models.Reference, candidate *models.Candidate, token, baseURL string) (string, error) {
	surveyURL := fmt.Sprintf("%s/submit-survey/%s", baseURL, token)

	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
        <h2 style="color: #4f46e5;">Reference Survey Request</h2>

        <p>Hi %s,</p>

        <p>You've been listed as a reference for <strong>%s</strong>. We would appreciate if you could take a few minutes to complete a brief survey about your experience working with them.</p>

        <p>The survey should take approximately 5-10 minutes to complete.</p>

        <p style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #4f46e5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold;">Complete Survey</a>
        </p>

        <p style="color: #666; font-size: 14px;">This link will expire in 7 days.</p>

        <p style="color: #666; font-size: 14px;">Your responses will be kept confidential and used only for employment verification purposes.</p>

        <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

        <p style="color: #999; font-size: 12px;">This email was sent by RefCheck AI.</p>
    </div>
    `, firstName(ref.Name), candidate.Name, surveyURL)

	return s.send(ctx, ref.Email, fmt.Sprintf("RefCheck AI - Reference Survey for %s", candidate.Name), html)
}

// SendSurveyConfirmationEmail thanks a reference after they submit.
func (s *ResendService) SendSurveyConfirmationEmail(ctx context.Context, ref *models.Reference, candidate *models.Candidate) (string, error) {
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
        <h2 style="color: #4f46e5;">Thank You!</h2>

        <p>Hi %s,</p>

        <p>Thank you for completing the reference survey for %s. Your feedback is greatly appreciated.</p>

        <p>No further action is needed from you.</p>

        <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

        <p style="color: #999; font-size: 12px;">This email was sent by RefCheck AI.</p>
    </div>
    `, firstName(ref.Name), candidate.Name)

	return s.send(ctx, ref.Email, "RefCheck AI - Survey Completed", html)
}
