package services

import (
	"fmt"
	"strings"

	"github.com/edest28/RefCheck-3/internal/models"
)

// DefaultSMSTemplate is the fallback outreach text when a candidate has no
// custom template. Placeholders are filled by FormatSMSMessage.
const DefaultSMSTemplate = "Hi, I'm reaching out to conduct a brief reference call on behalf of {candidate_first_name} {candidate_last_name}, who listed you as a reference. I attempted to call but wasn't able to connect. Would you be available for a 5–10 minute call to discuss your experience working with {candidate_first_name}? Please let me know a time that works for you. Thank you."

// FormatSMSMessage substitutes the candidate's first and last name into an
// SMS template.
func FormatSMSMessage(template, candidateName string) string {
	first, last, _ := strings.Cut(candidateName, " ")
	msg := strings.ReplaceAll(template, "{candidate_first_name}", first)
	return strings.ReplaceAll(msg, "{candidate_last_name}", last)
}

// GenerateReferenceQuestions builds the ordered question list for a
// reference call: employment verification first, then claim checks drawn
// from the resume, general assessment, target-role probes, and finally any
// custom questions attached to the reference.
func GenerateReferenceQuestions(job *models.Job, candidateName string, customQuestions []string, targetRoleCategory, targetRoleDetails string) []string {
	company := job.Company
	if company == "" {
		company = "the company"
	}
	title := job.Title
	if title == "" {
		title = "their role"
	}

	questions := []string{
		fmt.Sprintf("Can you confirm that %s worked at %s as a %s?", candidateName, company, title),
		fmt.Sprintf("What was your working relationship with %s?", candidateName),
		fmt.Sprintf("Can you confirm the dates %s was employed there?", candidateName),
	}

	if resps := job.ResponsibilityList(); len(resps) > 0 {
		questions = append(questions, fmt.Sprintf("The candidate mentioned responsibilities including: %s. Can you confirm?", resps[0]))
	}
	achievements := job.AchievementList()
	if len(achievements) > 3 {
		achievements = achievements[:3]
	}
	for _, ach := range achievements {
		questions = append(questions, fmt.Sprintf("The candidate claims: '%s'. Can you verify this?", ach))
	}

	questions = append(questions,
		fmt.Sprintf("How would you describe %s's work quality and reliability?", candidateName),
		fmt.Sprintf("What were %s's greatest strengths?", candidateName),
		"Were there any areas for improvement?",
		fmt.Sprintf("Would you rehire %s?", candidateName),
	)

	if targetRoleCategory != "" || targetRoleDetails != "" {
		switch targetRoleCategory {
		case "Executive / Leadership":
			questions = append(questions, fmt.Sprintf("Did %s demonstrate leadership or strategic thinking abilities?", candidateName))
		case "Engineering / Technical":
			questions = append(questions, fmt.Sprintf("How would you rate %s's technical problem-solving skills?", candidateName))
		case "Sales / Business Development":
			questions = append(questions, fmt.Sprintf("Can you speak to %s's ability to build relationships and close deals?", candidateName))
		case "Customer Support / Success":
			questions = append(questions, fmt.Sprintf("How did %s handle difficult customer situations?", candidateName))
		case "Product / Design":
			questions = append(questions, fmt.Sprintf("How did %s approach product decisions and user feedback?", candidateName))
		}
		if targetRoleDetails != "" {
			details := targetRoleDetails
			if len(details) > 100 {
				details = details[:100]
			}
			questions = append(questions, fmt.Sprintf("Based on your experience, would %s be well-suited for a role involving %s?", candidateName, details))
		}
	}

	questions = append(questions, "Is there anything else we should know?")

	for _, q := range customQuestions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	return questions
}

// BuildAssistantPrompt assembles the system prompt for the voice agent
// conducting the reference call.
func BuildAssistantPrompt(candidateName, referenceName string, job *models.Job, questions []string, targetRoleCategory, targetRoleDetails string) string {
	company := job.Company
	if company == "" {
		company = "the company"
	}
	title := job.Title
	if title == "" {
		title = "their role"
	}

	var b strings.Builder
	for _, q := range questions {
		b.WriteString("- ")
		b.WriteString(q)
		b.WriteString("\n")
	}
	questionsText := strings.TrimRight(b.String(), "\n")

	targetContext := ""
	if targetRoleCategory != "" || targetRoleDetails != "" {
		category := targetRoleCategory
		if category == "" {
			category = "new"
		}
		involving := ""
		if targetRoleDetails != "" {
			involving = " involving " + targetRoleDetails
		}
		targetContext = fmt.Sprintf("\n\nNote: %s is being considered for a %s position%s. \nPay special attention to skills and experiences that would be relevant to this target role.",
			candidateName, category, involving)
	}

	return fmt.Sprintf(`You are a professional reference checker calling on behalf of a company conducting background verification. You are speaking with %[2]s.

IMPORTANT: Do NOT mention you are an AI. Present yourself as Sarah from the hiring verification team.

Goal: Verify information about %[1]s who worked at %[3]s as %[4]s.%[6]s

Call Flow:
1. "Hello, this is Sarah from the hiring verification team. I'm calling regarding a reference check for %[1]s. Is this %[2]s?"
2. If confirmed: "Thank you. %[1]s listed you as a reference. Do you have 5-10 minutes to answer a few questions about their time at %[3]s?"
3. Ask these questions naturally:
%[5]s
4. Thank them and end professionally.

Guidelines:
- Be conversational, not robotic
- Ask follow-up questions when appropriate
- Note any hesitation or red flags
- Keep under 10 minutes
- Be respectful of their time`,
		candidateName, referenceName, company, title, questionsText, targetContext)
}

// standardizedSurveyQuestions are the fixed survey questions every reference
// receives. {candidate_name} is substituted at send time.
var standardizedSurveyQuestions = []SurveyQuestionDraft{
	{
		QuestionText: "How long did you work with {candidate_name}?",
		ResponseType: models.ResponseTypeMultipleChoice,
		Options:      []string{"Less than 6 months", "6-12 months", "1-2 years", "2+ years"},
		Required:     true,
	},
	{
		QuestionText: "What was your working relationship with {candidate_name}?",
		ResponseType: models.ResponseTypeMultipleChoice,
		Options:      []string{"Direct manager", "Indirect manager", "Peer/colleague", "Direct report", "Client", "Other"},
		Required:     true,
	},
	{
		QuestionText: "How would you rate their overall job performance?",
		ResponseType: models.ResponseTypeRating,
		Required:     true,
	},
	{
		QuestionText: "How would you rate their reliability and dependability?",
		ResponseType: models.ResponseTypeRating,
		Required:     true,
	},
	{
		QuestionText: "How would you rate their communication skills?",
		ResponseType: models.ResponseTypeRating,
		Required:     true,
	},
	{
		QuestionText: "How would you rate their teamwork and collaboration?",
		ResponseType: models.ResponseTypeRating,
		Required:     true,
	},
	{
		QuestionText: "What were {candidate_name}'s greatest strengths?",
		ResponseType: models.ResponseTypeFreeText,
		Required:     true,
	},
	{
		QuestionText: "What areas could {candidate_name} improve or develop?",
		ResponseType: models.ResponseTypeFreeText,
		Required:     true,
	},
	{
		QuestionText: "Would you rehire or recommend {candidate_name}?",
		ResponseType: models.ResponseTypeYesNoMaybe,
		Options:      []string{"Yes", "No", "Maybe"},
		Required:     true,
	},
	{
		QuestionText: "Any additional comments about {candidate_name}?",
		ResponseType: models.ResponseTypeFreeText,
		Required:     false,
	},
}

// StandardizedSurveyQuestions returns the fixed question set with the
// candidate's name filled in.
func StandardizedSurveyQuestions(candidateName string) []SurveyQuestionDraft {
	out := make([]SurveyQuestionDraft, len(standardizedSurveyQuestions))
	for i, q := range standardizedSurveyQuestions {
		q.QuestionText = strings.ReplaceAll(q.QuestionText, "{candidate_name}", candidateName)
		q.QuestionType = models.QuestionTypeStandardized
		out[i] = q
	}
	return out
}
