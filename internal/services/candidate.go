package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/pkg/logger"
	"github.com/edest28/RefCheck-3/pkg/response"
)

// CandidateService manages candidate records, resume intake, and the
// references attached to them.
type CandidateService struct {
	db  *gorm.DB
	llm *LLMService
}

func NewCandidateService(db *gorm.DB, llm *LLMService) *CandidateService {
	return &CandidateService{db: db, llm: llm}
}

// CreateFromResume parses raw resume text and creates a candidate with
// their job history. A failed parse creates nothing.
func (s *CandidateService) CreateFromResume(ctx context.Context, resumeText, filename string) (*models.Candidate, error) {
	parsed, err := s.llm.ParseResume(ctx, resumeText)
	if err != nil {
		return nil, err
	}

	candidate := &models.Candidate{
		Name:           parsed.CandidateName,
		Email:          parsed.Email,
		Phone:          parsed.Phone,
		Summary:        parsed.Summary,
		Skills:         marshalList(parsed.Skills),
		ResumeText:     resumeText,
		ResumeFilename: filename,
		Status:         models.CandidateStatusIntake,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(candidate).Error; err != nil {
			return err
		}
		for idx, j := range parsed.Jobs {
			job := models.Job{
				CandidateID:      candidate.ID,
				Company:          j.Company,
				Title:            j.Title,
				Dates:            j.Dates,
				Order:            idx,
				Responsibilities: marshalList(j.Responsibilities),
				Achievements:     marshalList(j.Achievements),
			}
			if job.Company == "" {
				job.Company = "Unknown"
			}
			if err := tx.Create(&job).Error; err != nil {
				return err
			}
			candidate.Jobs = append(candidate.Jobs, job)
		}
		candidate.UpdateSearchVector()
		return tx.Model(candidate).Update("search_vector", candidate.SearchVector).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("candidate_id", candidate.ID).Int("jobs", len(candidate.Jobs)).Msg("candidate created from resume")
	return candidate, nil
}

// Get loads a candidate with jobs and references.
func (s *CandidateService) Get(id string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := s.db.Preload("Jobs", func(db *gorm.DB) *gorm.DB {
		return db.Order("jobs.sort_order")
	}).Preload("References").First(&candidate, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, response.NewNotFound("candidate not found")
	}
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

// Search filters candidates by status and a free-text query against the
// search vector, newest activity first.
func (s *CandidateService) Search(query, status string, limit int) ([]models.Candidate, error) {
	if limit <= 0 {
		limit = 50
	}

	q := s.db.Preload("References").Order("updated_at desc").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if query != "" {
		q = q.Where("search_vector LIKE ?", "%"+strings.ToLower(query)+"%")
	}

	var candidates []models.Candidate
	if err := q.Find(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

// CandidateUpdate carries the editable candidate fields. Nil pointers
// leave the field untouched.
type CandidateUpdate struct {
	Name               *string `json:"name"`
	Email              *string `json:"email"`
	Phone              *string `json:"phone"`
	Position           *string `json:"position"`
	Status             *string `json:"status"`
	TargetRoleCategory *string `json:"target_role_category"`
	TargetRoleDetails  *string `json:"target_role_details"`
	Notes              *string `json:"notes"`
}

// Update applies a partial update and refreshes the search vector.
func (s *CandidateService) Update(id string, upd *CandidateUpdate) (*models.Candidate, error) {
	candidate, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&candidate.Name, upd.Name)
	apply(&candidate.Email, upd.Email)
	apply(&candidate.Phone, upd.Phone)
	apply(&candidate.Position, upd.Position)
	apply(&candidate.Status, upd.Status)
	apply(&candidate.TargetRoleCategory, upd.TargetRoleCategory)
	apply(&candidate.TargetRoleDetails, upd.TargetRoleDetails)
	apply(&candidate.Notes, upd.Notes)

	candidate.UpdateSearchVector()
	if err := s.db.Save(candidate).Error; err != nil {
		return nil, err
	}
	return candidate, nil
}

// Delete removes a candidate and, through cascades, their jobs and
// references.
func (s *CandidateService) Delete(id string) error {
	result := s.db.Delete(&models.Candidate{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("candidate not found")
	}
	return nil
}

// ReferenceInput carries fields for creating or editing a reference.
type ReferenceInput struct {
	JobID           *string  `json:"job_id"`
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	Email           string   `json:"email"`
	Relationship    string   `json:"relationship"`
	ContactMethod   string   `json:"contact_method"`
	CustomQuestions []string `json:"custom_questions"`
}

// AddReference attaches a new pending reference to a candidate.
func (s *CandidateService) AddReference(candidateID string, in *ReferenceInput) (*models.Reference, error) {
	if _, err := s.Get(candidateID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, response.NewBadRequest("reference name and phone are required")
	}

	ref := &models.Reference{
		CandidateID:   candidateID,
		JobID:         in.JobID,
		Name:          strings.TrimSpace(in.Name),
		Phone:         strings.TrimSpace(in.Phone),
		Email:         strings.TrimSpace(in.Email),
		Relationship:  strings.TrimSpace(in.Relationship),
		ContactMethod: in.ContactMethod,
		Status:        models.ReferenceStatusPending,
	}
	if ref.ContactMethod == "" {
		ref.ContactMethod = models.ContactCallOnly
	}
	if len(in.CustomQuestions) > 0 {
		ref.CustomQuestions = marshalList(in.CustomQuestions)
	}

	if err := s.db.Create(ref).Error; err != nil {
		return nil, err
	}
	return ref, nil
}

// UpdateReference edits contact fields of an existing reference.
func (s *CandidateService) UpdateReference(candidateID, referenceID string, in *ReferenceInput) (*models.Reference, error) {
	var ref models.Reference
	err := s.db.First(&ref, "id = ? AND candidate_id = ?", referenceID, candidateID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, response.NewNotFound("reference not found")
	}
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		ref.Name = strings.TrimSpace(in.Name)
	}
	if in.Phone != "" {
		ref.Phone = strings.TrimSpace(in.Phone)
	}
	if in.Email != "" {
		ref.Email = strings.TrimSpace(in.Email)
	}
	if in.Relationship != "" {
		ref.Relationship = strings.TrimSpace(in.Relationship)
	}
	if in.ContactMethod != "" {
		ref.ContactMethod = in.ContactMethod
	}
	if in.JobID != nil {
		ref.JobID = in.JobID
	}
	if in.CustomQuestions != nil {
		ref.CustomQuestions = marshalList(in.CustomQuestions)
	}

	if err := s.db.Save(&ref).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

// DeleteReference removes a reference from a candidate.
func (s *CandidateService) DeleteReference(candidateID, referenceID string) error {
	result := s.db.Delete(&models.Reference{}, "id = ? AND candidate_id = ?", referenceID, candidateID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("reference not found")
	}
	return nil
}
