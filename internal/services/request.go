package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/edest28/RefCheck-3/internal/config"
	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/pkg/logger"
	"github.com/edest28/RefCheck-3/pkg/response"
)

// RequestService manages the candidate-facing reference request flow:
// tokenized links, reminders, and public submissions.
type RequestService struct {
	db    *gorm.DB
	email *ResendService
	cfg   *config.Config
}

func NewRequestService(db *gorm.DB, email *ResendService, cfg *config.Config) *RequestService {
	return &RequestService{db: db, email: email, cfg: cfg}
}

// Send emails the candidate a fresh submission link. Any prior pending
// request is expired first so only one link is ever live. An email
// delivery failure rolls the new request to expired as well.
func (s *RequestService) Send(ctx context.Context, candidateID string) (*models.ReferenceRequest, error) {
	if !s.email.Configured() {
		return nil, response.NewServerError("email provider not configured")
	}

	var candidate models.Candidate
	if err := s.db.Preload("Jobs").First(&candidate, "id = ?", candidateID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("candidate not found")
		}
		return nil, err
	}
	if candidate.Email == "" {
		return nil, response.NewBadRequest("candidate email is required")
	}

	if err := s.db.Model(&models.ReferenceRequest{}).
		Where("candidate_id = ? AND status = ?", candidateID, models.RequestStatusPending).
		Update("status", models.RequestStatusExpired).Error; err != nil {
		return nil, err
	}

	req := &models.ReferenceRequest{
		CandidateID: candidateID,
		Token:       GenerateToken(),
		Status:      models.RequestStatusPending,
		ExpiresAt:   time.Now().UTC().Add(models.TokenTTL),
	}
	if err := s.db.Create(req).Error; err != nil {
		return nil, err
	}

	if _, err := s.email.SendReferenceRequestEmail(ctx, &candidate, req.Token, s.baseURL()); err != nil {
		req.Status = models.RequestStatusExpired
		s.db.Save(req)
		return nil, err
	}

	now := time.Now().UTC()
	req.EmailSentAt = &now
	if err := s.db.Save(req).Error; err != nil {
		return nil, err
	}

	logger.Info().Str("candidate_id", candidateID).Msg("reference request sent")
	return req, nil
}

// Resend reminds the candidate about an outstanding link, or issues a
// fresh one when none is still valid.
func (s *RequestService) Resend(ctx context.Context, candidateID string) (*models.ReferenceRequest, error) {
	if !s.email.Configured() {
		return nil, response.NewServerError("email provider not configured")
	}

	var req models.ReferenceRequest
	err := s.db.Where("candidate_id = ? AND status = ?", candidateID, models.RequestStatusPending).
		Order("created_at desc").First(&req).Error
	if err == gorm.ErrRecordNotFound || (err == nil && !req.IsValid(time.Now().UTC())) {
		if err == nil {
			s.db.Save(&req)
		}
		return s.Send(ctx, candidateID)
	}
	if err != nil {
		return nil, err
	}

	var candidate models.Candidate
	if err := s.db.First(&candidate, "id = ?", candidateID).Error; err != nil {
		return nil, err
	}

	if _, err := s.email.SendReferenceReminderEmail(ctx, &candidate, req.Token, s.baseURL()); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req.ReminderSentAt = &now
	if err := s.db.Save(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// Latest returns the most recent request for a candidate, if any.
func (s *RequestService) Latest(candidateID string) (*models.ReferenceRequest, error) {
	var req models.ReferenceRequest
	err := s.db.Where("candidate_id = ?", candidateID).Order("created_at desc").First(&req).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Resolve looks up a request by token for public access. Expired or
// superseded tokens come back as gone; the side-effecting expiry check is
// persisted here.
func (s *RequestService) Resolve(token string) (*models.ReferenceRequest, *models.Candidate, error) {
	var req models.ReferenceRequest
	err := s.db.First(&req, "token = ?", token).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil, response.NewNotFound("invalid link")
	}
	if err != nil {
		return nil, nil, err
	}

	if !req.IsValid(time.Now().UTC()) {
		s.db.Save(&req)
		return nil, nil, response.NewGone("this link has expired")
	}

	var candidate models.Candidate
	if err := s.db.Preload("Jobs").First(&candidate, "id = ?", req.CandidateID).Error; err != nil {
		return nil, nil, err
	}
	return &req, &candidate, nil
}

// ReferenceSubmission is one reference entry from the public form.
type ReferenceSubmission struct {
	JobID        string `json:"job_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Relationship string `json:"relationship"`
}

// Submit records references the candidate themselves provided. Entries
// missing a name or phone are skipped; at least one complete entry is
// required. On success the request completes and cannot be reused.
func (s *RequestService) Submit(ctx context.Context, token string, entries []ReferenceSubmission) (int, error) {
	req, candidate, err := s.Resolve(token)
	if err != nil {
		return 0, err
	}

	jobIDs := make(map[string]bool, len(candidate.Jobs))
	for _, job := range candidate.Jobs {
		jobIDs[job.ID] = true
	}

	var refs []models.Reference
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		phone := strings.TrimSpace(e.Phone)
		if name == "" || phone == "" {
			continue
		}
		ref := models.Reference{
			CandidateID:  candidate.ID,
			Name:         name,
			Phone:        phone,
			Email:        strings.TrimSpace(e.Email),
			Relationship: strings.TrimSpace(e.Relationship),
			Status:       models.ReferenceStatusPending,
		}
		if jobIDs[e.JobID] {
			jobID := e.JobID
			ref.JobID = &jobID
		}
		refs = append(refs, ref)
	}

	if len(refs) == 0 {
		return 0, response.NewBadRequest("please provide at least one reference")
	}

	now := time.Now().UTC()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&refs).Error; err != nil {
			return err
		}
		req.Status = models.RequestStatusCompleted
		req.CompletedAt = &now
		return tx.Save(req).Error
	})
	if err != nil {
		return 0, err
	}

	if s.email.Configured() {
		if _, err := s.email.SendReferenceConfirmationEmail(ctx, candidate); err != nil {
			logger.Warn().Err(err).Str("candidate_id", candidate.ID).Msg("confirmation email failed")
		}
	}

	logger.Info().Str("candidate_id", candidate.ID).Int("references", len(refs)).Msg("references submitted")
	return len(refs), nil
}

func (s *RequestService) baseURL() string {
	return strings.TrimRight(s.cfg.Server.BaseURL, "/")
}
