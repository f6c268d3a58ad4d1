package models

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Candidate statuses
const (
	CandidateStatusIntake     = "intake"
	CandidateStatusInProgress = "in_progress"
	CandidateStatusCompleted  = "completed"
	CandidateStatusArchived   = "archived"
)

// Candidate is a person whose references are being verified.
type Candidate struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Email    string `gorm:"size:255" json:"email"`
	Phone    string `gorm:"size:50" json:"phone"`
	Position string `gorm:"size:255" json:"position"`

	// Resume data
	ResumeText     string `gorm:"type:text" json:"-"`
	ResumeFilename string `gorm:"size:255" json:"resume_filename"`
	Summary        string `gorm:"type:text" json:"summary"`
	Skills         string `gorm:"type:text" json:"skills"` // JSON array

	Status string `gorm:"size:50;default:intake;index" json:"status"`

	// Target role context for question generation
	TargetRoleCategory string `gorm:"size:100" json:"target_role_category"`
	TargetRoleDetails  string `gorm:"type:text" json:"target_role_details"`

	// Combined searchable text, refreshed on save
	SearchVector string `gorm:"type:text" json:"-"`

	Notes string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Jobs       []Job       `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"jobs,omitempty"`
	References []Reference `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"references,omitempty"`
}

func (Candidate) TableName() string { return "candidates" }

func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// SkillList decodes the JSON skills column.
func (c *Candidate) SkillList() []string {
	var skills []string
	if c.Skills != "" {
		_ = json.Unmarshal([]byte(c.Skills), &skills)
	}
	return skills
}

// UpdateSearchVector rebuilds the combined searchable text from the
// candidate's fields and job history.
func (c *Candidate) UpdateSearchVector() {
	parts := []string{c.Name, c.Email, c.Position, c.Summary, c.Skills, c.Notes, c.ResumeText}
	for _, job := range c.Jobs {
		parts = append(parts, job.Company, job.Title)
	}
	c.SearchVector = strings.ToLower(strings.Join(parts, " "))
}

// ReferenceProgress summarizes how many reference calls have completed.
type ReferenceProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func (c *Candidate) GetReferenceProgress() ReferenceProgress {
	p := ReferenceProgress{Total: len(c.References)}
	for _, r := range c.References {
		if r.Status == ReferenceStatusCompleted {
			p.Completed++
		}
	}
	return p
}

// Signal is the aggregate verification signal across completed references.
type Signal struct {
	Score *int   `json:"score"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// GetSignal averages scores of completed call-based references.
// Thresholds: 75+ Strong, 55+ Moderate, below that Concerns.
func (c *Candidate) GetSignal() Signal {
	var sum, n int
	for _, r := range c.References {
		if r.Status == ReferenceStatusCompleted && r.Score != nil {
			sum += *r.Score
			n++
		}
	}

	if n == 0 {
		return Signal{Label: "No Data", Color: "gray"}
	}

	avg := int(math.Round(float64(sum) / float64(n)))
	switch {
	case avg >= 75:
		return Signal{Score: &avg, Label: "Strong", Color: "green"}
	case avg >= 55:
		return Signal{Score: &avg, Label: "Moderate", Color: "yellow"}
	default:
		return Signal{Score: &avg, Label: "Concerns", Color: "red"}
	}
}

// Job is one position from the candidate's work history.
type Job struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	CandidateID string `gorm:"size:36;not null;index" json:"candidate_id"`

	Company string `gorm:"size:255;not null" json:"company"`
	Title   string `gorm:"size:255" json:"title"`
	Dates   string `gorm:"size:100" json:"dates"`
	Order   int    `gorm:"column:sort_order;default:0" json:"order"`

	Responsibilities string `gorm:"type:text" json:"responsibilities"` // JSON array
	Achievements     string `gorm:"type:text" json:"achievements"`     // JSON array
}

func (Job) TableName() string { return "jobs" }

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

func (j *Job) ResponsibilityList() []string {
	var out []string
	if j.Responsibilities != "" {
		_ = json.Unmarshal([]byte(j.Responsibilities), &out)
	}
	return out
}

func (j *Job) AchievementList() []string {
	var out []string
	if j.Achievements != "" {
		_ = json.Unmarshal([]byte(j.Achievements), &out)
	}
	return out
}
