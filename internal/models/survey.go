package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Survey question types
const (
	QuestionTypeStandardized = "standardized"
	QuestionTypeAIGenerated  = "ai_generated"
)

// Survey response types
const (
	ResponseTypeRating         = "rating"
	ResponseTypeMultipleChoice = "multiple_choice"
	ResponseTypeYesNoMaybe     = "yes_no_maybe"
	ResponseTypeFreeText       = "free_text"
)

// SurveyRequest is a tokenized written survey sent to a reference.
type SurveyRequest struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	ReferenceID string `gorm:"size:36;not null;index" json:"reference_id"`

	Token  string `gorm:"size:64;uniqueIndex;not null" json:"token"`
	Status string `gorm:"size:20;default:pending" json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at"`
	EmailSentAt *time.Time `json:"email_sent_at"`

	// Analysis results, populated after completion
	SurveyScore    *int   `json:"survey_score"`
	SurveySummary  string `gorm:"type:text" json:"survey_summary"`
	SurveyRedFlags string `gorm:"type:text" json:"survey_red_flags"` // JSON array
	SurveyAnalysis string `gorm:"type:text" json:"-"`                // full JSON analysis

	Reference *Reference      `gorm:"foreignKey:ReferenceID" json:"-"`
	Questions []SurveyQuestion `gorm:"foreignKey:SurveyRequestID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (SurveyRequest) TableName() string { return "survey_requests" }

func (s *SurveyRequest) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsValid reports whether the survey link can still be used. A pending
// request past its deadline flips to expired; callers persist the change.
func (s *SurveyRequest) IsValid(now time.Time) bool {
	if s.Status != RequestStatusPending {
		return false
	}
	if now.After(s.ExpiresAt) {
		s.Status = RequestStatusExpired
		return false
	}
	return true
}

// RedFlagList decodes the JSON red-flags column.
func (s *SurveyRequest) RedFlagList() []string {
	var out []string
	if s.SurveyRedFlags != "" {
		_ = json.Unmarshal([]byte(s.SurveyRedFlags), &out)
	}
	return out
}

// SurveyQuestion is one question within a survey request.
type SurveyQuestion struct {
	ID              string `gorm:"primaryKey;size:36" json:"id"`
	SurveyRequestID string `gorm:"size:36;not null;index" json:"survey_request_id"`

	QuestionText string `gorm:"type:text;not null" json:"question_text"`
	QuestionType string `gorm:"size:20;not null" json:"question_type"` // standardized, ai_generated
	ResponseType string `gorm:"size:20;not null" json:"response_type"` // rating, multiple_choice, yes_no_maybe, free_text

	Options string `gorm:"type:text" json:"options"` // JSON array for multiple choice

	Order    int  `gorm:"column:sort_order;default:0" json:"order"`
	Required bool `gorm:"default:true" json:"required"`

	Response *SurveyResponse `gorm:"foreignKey:SurveyQuestionID;constraint:OnDelete:CASCADE" json:"response,omitempty"`
}

func (SurveyQuestion) TableName() string { return "survey_questions" }

func (q *SurveyQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// OptionList decodes the JSON options column.
func (q *SurveyQuestion) OptionList() []string {
	var out []string
	if q.Options != "" {
		_ = json.Unmarshal([]byte(q.Options), &out)
	}
	return out
}

// SurveyResponse is the answer to a single survey question.
type SurveyResponse struct {
	ID               string `gorm:"primaryKey;size:36" json:"id"`
	SurveyQuestionID string `gorm:"size:36;not null;uniqueIndex" json:"survey_question_id"`

	Rating         *int   `json:"rating"`
	TextResponse   string `gorm:"type:text" json:"text_response"`
	SelectedOption string `gorm:"size:255" json:"selected_option"`

	CreatedAt time.Time `json:"created_at"`
}

func (SurveyResponse) TableName() string { return "survey_responses" }

func (r *SurveyResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// HasValue reports whether the response carries any answer at all.
func (r *SurveyResponse) HasValue() bool {
	return (r.Rating != nil && *r.Rating > 0) || r.TextResponse != "" || r.SelectedOption != ""
}
