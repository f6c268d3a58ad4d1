package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Token-backed request statuses, shared with SurveyRequest.
const (
	RequestStatusPending   = "pending"
	RequestStatusCompleted = "completed"
	RequestStatusExpired   = "expired"
)

// TokenTTL is how long reference-submission and survey links stay valid.
const TokenTTL = 7 * 24 * time.Hour

// ReferenceRequest asks a candidate to submit their own references
// through a tokenized public link.
type ReferenceRequest struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	CandidateID string `gorm:"size:36;not null;index" json:"candidate_id"`

	Token  string `gorm:"size:64;uniqueIndex;not null" json:"token"`
	Status string `gorm:"size:20;default:pending" json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at"`

	EmailSentAt    *time.Time `json:"email_sent_at"`
	ReminderSentAt *time.Time `json:"reminder_sent_at"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID" json:"-"`
}

func (ReferenceRequest) TableName() string { return "reference_requests" }

func (r *ReferenceRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// IsValid reports whether the request can still be used. Checking a
// pending request past its deadline flips the status to expired; the
// caller is expected to persist the change.
func (r *ReferenceRequest) IsValid(now time.Time) bool {
	if r.Status != RequestStatusPending {
		return false
	}
	if now.After(r.ExpiresAt) {
		r.Status = RequestStatusExpired
		return false
	}
	return true
}
