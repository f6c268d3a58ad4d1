package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reference call statuses
const (
	ReferenceStatusPending   = "pending"
	ReferenceStatusCalling   = "calling"
	ReferenceStatusCompleted = "completed"
	ReferenceStatusFailed    = "failed"
	ReferenceStatusNoAnswer  = "no_answer"
	ReferenceStatusScheduled = "scheduled"
)

// Survey statuses on a reference
const (
	SurveyStatusNotSent   = "not_sent"
	SurveyStatusPending   = "pending"
	SurveyStatusCompleted = "completed"
)

// Callback scheduling sub-states
const (
	CallbackNone          = "none"
	CallbackAwaitingReply = "awaiting_reply"
	CallbackTimeProposed  = "time_proposed"
	CallbackConfirmed     = "confirmed"
	CallbackDue           = "callback_due"
	CallbackCompleted     = "completed"
	CallbackExpired       = "expired"
)

// Contact methods
const (
	ContactCallOnly      = "call_only"
	ContactSurveyOnly    = "survey_only"
	ContactCallAndSurvey = "call_and_survey"
)

// Reference is a contact who can verify a candidate's work history.
type Reference struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	CandidateID string  `gorm:"size:36;not null;index" json:"candidate_id"`
	JobID       *string `gorm:"size:36" json:"job_id"`

	Name         string `gorm:"size:255;not null" json:"name"`
	Phone        string `gorm:"size:50;not null;index" json:"phone"`
	Email        string `gorm:"size:255" json:"email"`
	Relationship string `gorm:"size:100" json:"relationship"` // e.g. "Manager", "Colleague"

	ContactMethod string `gorm:"size:50;default:call_only" json:"contact_method"`

	Status       string `gorm:"size:50;default:pending;index" json:"status"`
	SurveyStatus string `gorm:"size:50;default:not_sent" json:"survey_status"`

	// Call info
	CallID        string     `gorm:"size:255;index" json:"call_id"`
	ScheduledTime *time.Time `json:"scheduled_time"`
	Timezone      string     `gorm:"size:50" json:"timezone"`

	// SMS
	SMSSent     bool       `gorm:"default:false" json:"sms_sent"`
	SMSSentAt   *time.Time `json:"sms_sent_at"`
	SMSResponse string     `gorm:"type:text" json:"sms_response"`

	// Callback scheduling
	CallbackStatus        string     `gorm:"size:50;default:none" json:"callback_status"`
	CallbackScheduledTime *time.Time `json:"callback_scheduled_time"`
	CallbackTimezone      string     `gorm:"size:50" json:"callback_timezone"`
	SMSConversation       string     `gorm:"type:text" json:"-"` // JSON array of messages
	CallbackExpiresAt     *time.Time `json:"callback_expires_at"`

	CustomQuestions string `gorm:"type:text" json:"custom_questions"` // JSON array

	Notes string `gorm:"type:text" json:"notes"`

	// Results
	Score      *int   `json:"score"`
	Transcript string `gorm:"type:text" json:"transcript"`
	Summary    string `gorm:"type:text" json:"summary"`
	Sentiment  string `gorm:"size:50" json:"sentiment"`

	RedFlags                string `gorm:"type:text" json:"red_flags"`                 // JSON array
	Discrepancies           string `gorm:"type:text" json:"discrepancies"`             // JSON array
	AchievementsVerified    string `gorm:"type:text" json:"achievements_verified"`     // JSON array
	AchievementsNotVerified string `gorm:"type:text" json:"achievements_not_verified"` // JSON array
	PositiveSignals         string `gorm:"type:text" json:"positive_signals"`          // JSON array
	StructuredData          string `gorm:"type:text" json:"-"`                         // full JSON analysis

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Job *Job `gorm:"foreignKey:JobID" json:"job,omitempty"`
}

func (Reference) TableName() string { return "references" }

func (r *Reference) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// SMSMessage is one entry in a reference's SMS conversation log.
type SMSMessage struct {
	Direction string `json:"direction"` // inbound, outbound
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// AppendSMSMessage adds a message to the SMS conversation log.
func (r *Reference) AppendSMSMessage(direction, message string) {
	var conversation []SMSMessage
	if r.SMSConversation != "" {
		_ = json.Unmarshal([]byte(r.SMSConversation), &conversation)
	}
	conversation = append(conversation, SMSMessage{
		Direction: direction,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	data, err := json.Marshal(conversation)
	if err == nil {
		r.SMSConversation = string(data)
	}
}

// SMSConversationLog decodes the conversation log.
func (r *Reference) SMSConversationLog() []SMSMessage {
	var conversation []SMSMessage
	if r.SMSConversation != "" {
		_ = json.Unmarshal([]byte(r.SMSConversation), &conversation)
	}
	return conversation
}

// CustomQuestionList decodes the JSON custom questions column.
func (r *Reference) CustomQuestionList() []string {
	var out []string
	if r.CustomQuestions != "" {
		_ = json.Unmarshal([]byte(r.CustomQuestions), &out)
	}
	return out
}

// IsTerminal reports whether the call workflow has reached a final state.
func (r *Reference) IsTerminal() bool {
	switch r.Status {
	case ReferenceStatusCompleted, ReferenceStatusFailed, ReferenceStatusNoAnswer:
		return true
	}
	return false
}
