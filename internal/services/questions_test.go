package services

import (
	"strings"
	"testing"

	"github.com/edest28/RefCheck-3/internal/models"
)

func TestFormatSMSMessage(t *testing.T) {
	got := FormatSMSMessage("Hi, this is about {candidate_first_name} {candidate_last_name}.", "Jane Doe")
	if got != "Hi, this is about Jane Doe." {
		t.Errorf("got %q", got)
	}

	// Single-word names leave the last name blank.
	got = FormatSMSMessage("{candidate_first_name}/{candidate_last_name}", "Madonna")
	if got != "Madonna/" {
		t.Errorf("got %q", got)
	}
}

func TestGenerateReferenceQuestions_BasicOrder(t *testing.T) {
	job := &models.Job{Company: "Acme Corp", Title: "Software Engineer"}
	questions := GenerateReferenceQuestions(job, "Jane Doe", nil, "", "")

	if len(questions) != 8 {
		t.Fatalf("got %d questions, expected 8: %v", len(questions), questions)
	}
	if questions[0] != "Can you confirm that Jane Doe worked at Acme Corp as a Software Engineer?" {
		t.Errorf("questions[0] = %q", questions[0])
	}
	if questions[2] != "Can you confirm the dates Jane Doe was employed there?" {
		t.Errorf("questions[2] = %q", questions[2])
	}
	if questions[len(questions)-1] != "Is there anything else we should know?" {
		t.Errorf("last question = %q", questions[len(questions)-1])
	}
}

func TestGenerateReferenceQuestions_EmptyJobFields(t *testing.T) {
	questions := GenerateReferenceQuestions(&models.Job{}, "Jane Doe", nil, "", "")
	if !strings.Contains(questions[0], "worked at the company as a their role") {
		t.Errorf("questions[0] = %q, expected placeholder company and title", questions[0])
	}
}

func TestGenerateReferenceQuestions_ClaimsCapped(t *testing.T) {
	job := &models.Job{
		Company:          "Acme Corp",
		Title:            "Engineer",
		Responsibilities: `["ran deployments","wrote docs"]`,
		Achievements:     `["a1","a2","a3","a4","a5"]`,
	}
	questions := GenerateReferenceQuestions(job, "Jane Doe", nil, "", "")

	var claimCount, respCount int
	for _, q := range questions {
		if strings.HasPrefix(q, "The candidate claims:") {
			claimCount++
		}
		if strings.HasPrefix(q, "The candidate mentioned responsibilities") {
			respCount++
		}
	}
	if claimCount != 3 {
		t.Errorf("achievement claims = %d, expected 3", claimCount)
	}
	if respCount != 1 {
		t.Errorf("responsibility questions = %d, expected 1", respCount)
	}
	if !strings.Contains(questions[3], "ran deployments") {
		t.Errorf("questions[3] = %q, expected the first responsibility", questions[3])
	}
}

func TestGenerateReferenceQuestions_TargetRole(t *testing.T) {
	job := &models.Job{Company: "Acme", Title: "Engineer"}

	questions := GenerateReferenceQuestions(job, "Jane Doe", nil, "Engineering / Technical", "")
	found := false
	for _, q := range questions {
		if strings.Contains(q, "technical problem-solving") {
			found = true
		}
	}
	if !found {
		t.Error("expected a technical probe for the Engineering / Technical category")
	}

	// An unknown category adds no probe but details still do.
	long := strings.Repeat("x", 150)
	questions = GenerateReferenceQuestions(job, "Jane Doe", nil, "Other", long)
	found = false
	for _, q := range questions {
		if strings.Contains(q, "well-suited for a role involving") {
			found = true
			if strings.Contains(q, strings.Repeat("x", 101)) {
				t.Error("role details should be truncated to 100 characters")
			}
		}
	}
	if !found {
		t.Error("expected a role-details question")
	}
}

func TestGenerateReferenceQuestions_CustomQuestions(t *testing.T) {
	job := &models.Job{Company: "Acme", Title: "Engineer"}
	custom := []string{" Did they mentor juniors? ", "", "  "}

	questions := GenerateReferenceQuestions(job, "Jane Doe", custom, "", "")
	if questions[len(questions)-1] != "Did they mentor juniors?" {
		t.Errorf("last question = %q, expected the trimmed custom question", questions[len(questions)-1])
	}
	for _, q := range questions {
		if q == "" {
			t.Error("blank custom questions must be dropped")
		}
	}
}

func TestBuildAssistantPrompt(t *testing.T) {
	job := &models.Job{Company: "Acme Corp", Title: "Engineer"}
	questions := []string{"Q one", "Q two"}

	prompt := BuildAssistantPrompt("Jane Doe", "John Smith", job, questions, "", "")
	for _, want := range []string{
		"Sarah",
		"Jane Doe",
		"John Smith",
		"Acme Corp",
		"- Q one",
		"- Q two",
		"Do NOT mention you are an AI",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestStandardizedSurveyQuestions(t *testing.T) {
	questions := StandardizedSurveyQuestions("Jane Doe")

	if len(questions) != 10 {
		t.Fatalf("got %d questions, expected 10", len(questions))
	}
	if questions[0].QuestionText != "How long did you work with Jane Doe?" {
		t.Errorf("questions[0] = %q", questions[0].QuestionText)
	}
	for i, q := range questions {
		if strings.Contains(q.QuestionText, "{candidate_name}") {
			t.Errorf("question %d still has placeholder: %q", i, q.QuestionText)
		}
		if q.QuestionType != models.QuestionTypeStandardized {
			t.Errorf("question %d type = %q", i, q.QuestionType)
		}
	}
	// Only the final comments question is optional.
	for i, q := range questions[:9] {
		if !q.Required {
			t.Errorf("question %d should be required", i)
		}
	}
	if questions[9].Required {
		t.Error("final comments question should be optional")
	}
	if questions[8].ResponseType != models.ResponseTypeYesNoMaybe {
		t.Errorf("rehire question response type = %q", questions[8].ResponseType)
	}

	// The template itself is untouched.
	if !strings.Contains(standardizedSurveyQuestions[0].QuestionText, "{candidate_name}") {
		t.Error("template questions must keep their placeholder")
	}
}
