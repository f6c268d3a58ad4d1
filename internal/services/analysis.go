package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/pkg/logger"
	"github.com/tidwall/gjson"
)

// CallAnalysis is the structured result of comparing a call transcript
// against the candidate's resume claims. Tri-state booleans are nil when
// the reference neither confirmed nor denied the claim.
type CallAnalysis struct {
	EmploymentConfirmed       *bool    `json:"employment_confirmed"`
	DatesAccurate             *bool    `json:"dates_accurate"`
	TitleConfirmed            *bool    `json:"title_confirmed"`
	WouldRehire               *bool    `json:"would_rehire"`
	AchievementsVerified      []string `json:"achievements_verified"`
	AchievementsNotVerified   []string `json:"achievements_not_verified"`
	ResponsibilitiesConfirmed []string `json:"responsibilities_confirmed"`
	ResponsibilitiesDenied    []string `json:"responsibilities_denied"`
	Discrepancies             []string `json:"discrepancies"`
	RedFlags                  []string `json:"red_flags"`
	PositiveSignals           []string `json:"positive_signals"`
	OverallSentiment          string   `json:"overall_sentiment"`
	ConfidenceLevel           string   `json:"confidence_level"`
	Summary                   string   `json:"summary"`
}

// AnalyzeTranscript compares a reference call transcript against the
// candidate's resume claims and flags discrepancies.
func (s *LLMService) AnalyzeTranscript(ctx context.Context, transcript string, job *models.Job, candidateName string) (*CallAnalysis, error) {
	if transcript == "" {
		return nil, fmt.Errorf("empty transcript")
	}

	var claims []string
	claims = append(claims,
		"Company: "+job.Company,
		"Title: "+job.Title,
		"Dates: "+job.Dates,
	)
	for _, resp := range job.ResponsibilityList() {
		claims = append(claims, "Responsibility: "+resp)
	}
	for _, ach := range job.AchievementList() {
		claims = append(claims, "Achievement: "+ach)
	}

	prompt := fmt.Sprintf(`Analyze this reference check call transcript and compare it against the candidate's resume claims.

CANDIDATE: %s

RESUME CLAIMS:
%s

CALL TRANSCRIPT:
%s

Analyze carefully for ANY discrepancies, contradictions, or concerns. Be STRICT - if the reference contradicts, denies, or cannot confirm something from the resume, flag it.

Return ONLY valid JSON:
{
    "employment_confirmed": true/false/null,
    "dates_accurate": true/false/null,
    "title_confirmed": true/false/null,
    "would_rehire": true/false/null,
    "achievements_verified": ["list of achievements CONFIRMED by reference"],
    "achievements_not_verified": ["list of achievements DENIED or not confirmed"],
    "responsibilities_confirmed": ["confirmed responsibilities"],
    "responsibilities_denied": ["denied or unconfirmed responsibilities"],
    "discrepancies": ["List EVERY discrepancy between resume and reference"],
    "red_flags": ["Concerning statements, hesitations, negative feedback"],
    "positive_signals": ["Strong endorsements, positive feedback"],
    "overall_sentiment": "very_positive/positive/neutral/negative/very_negative",
    "confidence_level": "high/medium/low",
    "summary": "Brief summary of key findings, especially concerns"
}

Be thorough - contradictions MUST appear in discrepancies and red_flags.`,
		candidateName, strings.Join(claims, "\n"), transcript)

	content, err := s.Generate(ctx, prompt, 2000)
	if err != nil {
		return nil, err
	}

	raw := ExtractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in analysis response")
	}

	var analysis CallAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &analysis, nil
}

// ParsedResume is the structured extraction of a resume.
type ParsedResume struct {
	CandidateName string      `json:"candidate_name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Summary       string      `json:"summary"`
	Skills        []string    `json:"skills"`
	Jobs          []ParsedJob `json:"jobs"`
}

type ParsedJob struct {
	Company          string   `json:"company"`
	Title            string   `json:"title"`
	Dates            string   `json:"dates"`
	Responsibilities []string `json:"responsibilities"`
	Achievements     []string `json:"achievements"`
}

// ParseResume extracts structured candidate data from raw resume text.
// Parse failure is fatal for candidate creation, so errors propagate.
func (s *LLMService) ParseResume(ctx context.Context, resumeText string) (*ParsedResume, error) {
	prompt := fmt.Sprintf(`Analyze this resume and extract structured information. Return ONLY valid JSON.

{
    "candidate_name": "Full name",
    "email": "Email if found",
    "phone": "Phone if found",
    "summary": "Brief professional summary (2-3 sentences)",
    "skills": ["skill1", "skill2", "skill3"],
    "jobs": [
        {
            "company": "Company name",
            "title": "Job title",
            "dates": "Employment dates",
            "responsibilities": ["Day-to-day duty 1", "Duty 2"],
            "achievements": ["Quantifiable achievement 1", "Achievement 2"]
        }
    ]
}

IMPORTANT: Separate responsibilities (routine duties) from achievements (specific accomplishments with metrics/impact).

Resume:
%s

Return ONLY the JSON object, no other text.`, resumeText)

	content, err := s.Generate(ctx, prompt, 4000)
	if err != nil {
		return nil, err
	}

	raw := ExtractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in resume response")
	}

	var parsed ParsedResume
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decode resume: %w", err)
	}
	if parsed.CandidateName == "" {
		return nil, fmt.Errorf("resume parse returned no candidate name")
	}
	return &parsed, nil
}

// ParsedCallbackTime is the structured interpretation of a natural
// language scheduling message.
type ParsedCallbackTime struct {
	ParsedSuccessfully    bool
	DatetimeISO           string
	Timezone              string
	TimezoneAssumed       bool
	NeedsClarification    bool
	ClarificationQuestion string
	FriendlyTime          string
	Confidence            string
}

// ScheduledAt converts the ISO datetime, if any.
func (p *ParsedCallbackTime) ScheduledAt() *time.Time {
	if p.DatetimeISO == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, p.DatetimeISO); err == nil {
			return &t
		}
	}
	return nil
}

// ParseCallbackTime interprets an SMS reply as a proposed callback time.
// Responses are probed field-by-field so a partially malformed reply still
// yields what the model did provide.
func (s *LLMService) ParseCallbackTime(ctx context.Context, messageText string) (*ParsedCallbackTime, error) {
	currentTime := time.Now().UTC().Format("2006-01-02 15:04 UTC")

	prompt := fmt.Sprintf(`Parse this message into a scheduled callback time.

Current time: %s

User message: "%s"

Analyze the message and return a JSON object with:
- "parsed_successfully": true/false - whether you could extract a time
- "datetime_iso": ISO format datetime string (e.g., "2024-12-26T15:00:00") or null
- "timezone": extracted timezone (e.g., "EST", "PST", "UTC") or null if not specified
- "timezone_assumed": true if you had to assume a timezone, false if explicitly stated
- "needs_clarification": true if the time is ambiguous and needs clarification
- "clarification_question": if needs_clarification is true, what question to ask
- "friendly_time": human-readable version like "Thursday, December 26 at 3:00 PM EST"
- "confidence": "high", "medium", or "low"

Handle cases like:
- "tomorrow at 3pm"
- "next Tuesday morning"
- "in 2 hours"
- "anytime after 5"
- "3pm EST"
- "Monday"

If the message doesn't seem to be about scheduling (e.g., "stop" or "wrong number"), set parsed_successfully to false.

Return ONLY the JSON object, no other text.`, currentTime, messageText)

	content, err := s.Generate(ctx, prompt, 500)
	if err != nil {
		return nil, err
	}

	raw := ExtractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in callback time response")
	}

	parsed := &ParsedCallbackTime{
		ParsedSuccessfully:    gjson.Get(raw, "parsed_successfully").Bool(),
		DatetimeISO:           gjson.Get(raw, "datetime_iso").String(),
		Timezone:              gjson.Get(raw, "timezone").String(),
		TimezoneAssumed:       gjson.Get(raw, "timezone_assumed").Bool(),
		NeedsClarification:    gjson.Get(raw, "needs_clarification").Bool(),
		ClarificationQuestion: gjson.Get(raw, "clarification_question").String(),
		FriendlyTime:          gjson.Get(raw, "friendly_time").String(),
		Confidence:            gjson.Get(raw, "confidence").String(),
	}
	return parsed, nil
}

// SurveyQuestionDraft is a question before it is persisted to a survey.
type SurveyQuestionDraft struct {
	QuestionText string   `json:"question_text"`
	QuestionType string   `json:"question_type"`
	ResponseType string   `json:"response_type"`
	Options      []string `json:"options,omitempty"`
	Required     bool     `json:"required"`
}

// GenerateSurveyQuestions produces up to five role-specific questions
// grounded in the candidate's prior job. Failures degrade to an empty set.
func (s *LLMService) GenerateSurveyQuestions(ctx context.Context, job *models.Job, candidateName, targetRoleCategory, targetRoleDetails string) []SurveyQuestionDraft {
	if !s.Configured() {
		return nil
	}

	const numQuestions = 5

	respJSON, _ := json.MarshalIndent(job.ResponsibilityList(), "", "  ")
	achJSON, _ := json.MarshalIndent(job.AchievementList(), "", "  ")

	targetContext := ""
	if targetRoleCategory != "" || targetRoleDetails != "" {
		category := targetRoleCategory
		if category == "" {
			category = "Not specified"
		}
		details := targetRoleDetails
		if details == "" {
			details = "Not specified"
		}
		targetContext = fmt.Sprintf(`

TARGET ROLE (what %s is being hired for):
Category: %s
Details: %s

Generate questions that help assess whether their past performance indicates they would succeed in this target role.
Consider what skills/behaviors from their past role would transfer to the target role.`, candidateName, category, details)
	}

	prompt := fmt.Sprintf(`Generate %d specific survey questions to ask a reference about a candidate's performance in this role.

Candidate: %s

PRIOR ROLE (the role they held when working with this reference):
Company: %s
Job Title: %s
Dates: %s

Responsibilities:
%s

Achievements claimed:
%s
%s

Generate questions that:
1. Verify specific achievements or responsibilities listed
2. Assess skills relevant to both their prior role AND the target role (if specified)
3. Probe for concrete examples and metrics
4. Bridge their past experience to future success potential
5. Are NOT generic questions about teamwork, communication, or overall performance (those are covered elsewhere)

Return a JSON array of questions. Each question should have:
- "question_text": The question to ask
- "response_type": Either "free_text" for open-ended, or "rating" for 1-5 scale questions

Return ONLY the JSON array, no other text.`,
		numQuestions, candidateName, job.Company, job.Title, job.Dates, respJSON, achJSON, targetContext)

	content, err := s.Generate(ctx, prompt, 1500)
	if err != nil {
		logger.Warn().Err(err).Msg("survey question generation failed")
		return nil
	}

	raw := ExtractJSONArray(content)
	if raw == "" {
		logger.Warn().Msg("no JSON array in survey question response")
		return nil
	}

	var drafts []SurveyQuestionDraft
	if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
		logger.Warn().Err(err).Msg("decode survey questions failed")
		return nil
	}

	out := make([]SurveyQuestionDraft, 0, numQuestions)
	for _, d := range drafts {
		if d.QuestionText == "" {
			continue
		}
		if d.ResponseType == "" {
			d.ResponseType = models.ResponseTypeFreeText
		}
		d.QuestionType = models.QuestionTypeAIGenerated
		d.Required = true
		out = append(out, d)
		if len(out) == numQuestions {
			break
		}
	}
	return out
}

// SurveyAnalysis is the structured assessment of a completed survey.
type SurveyAnalysis struct {
	Score                  int      `json:"score"`
	Summary                string   `json:"summary"`
	RedFlags               []string `json:"red_flags"`
	Strengths              []string `json:"strengths"`
	AreasForDevelopment    []string `json:"areas_for_development"`
	RecommendationStrength string   `json:"recommendation_strength"`
	KeyInsights            []string `json:"key_insights"`
}

// AnalyzeSurvey turns completed survey responses into a structured
// assessment.
func (s *LLMService) AnalyzeSurvey(ctx context.Context, req *models.SurveyRequest, candidateName string, job *models.Job) (*SurveyAnalysis, error) {
	var responses []string
	for _, q := range req.Questions {
		if q.Response == nil || !q.Response.HasValue() {
			continue
		}
		var value string
		switch {
		case q.Response.Rating != nil && *q.Response.Rating > 0:
			value = fmt.Sprintf("%d/5", *q.Response.Rating)
		case q.Response.SelectedOption != "":
			value = q.Response.SelectedOption
		default:
			value = q.Response.TextResponse
		}
		responses = append(responses, fmt.Sprintf("Q: %s\nA: %s", q.QuestionText, value))
	}

	prompt := fmt.Sprintf(`Analyze this reference survey for a job candidate and provide a structured assessment.

Candidate: %s
Role being verified: %s at %s

Survey Responses:
%s

Provide your analysis as a JSON object with:
1. "score": Overall verification score from 0-100
2. "summary": 2-3 sentence summary of the reference's feedback
3. "red_flags": Array of any concerning responses or red flags (empty array if none)
4. "strengths": Array of positive attributes mentioned
5. "areas_for_development": Array of weaknesses or improvement areas mentioned
6. "recommendation_strength": "strong", "moderate", "weak", or "negative" based on rehire question and overall tone
7. "key_insights": Array of notable specific insights from the responses

Return ONLY the JSON object, no other text.`,
		candidateName, job.Title, job.Company, strings.Join(responses, "\n"))

	content, err := s.Generate(ctx, prompt, 1500)
	if err != nil {
		return nil, err
	}

	raw := ExtractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in survey analysis response")
	}

	var analysis SurveyAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("decode survey analysis: %w", err)
	}
	return &analysis, nil
}
