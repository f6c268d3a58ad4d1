package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/edest28/RefCheck-3/internal/config"
	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/pkg/logger"
	"github.com/edest28/RefCheck-3/pkg/response"
)

// SurveyService runs the written survey flow: question assembly,
// tokenized delivery, public submission, and analysis.
type SurveyService struct {
	db    *gorm.DB
	llm   *LLMService
	email *ResendService
	cfg   *config.Config
}

func NewSurveyService(db *gorm.DB, llm *LLMService, email *ResendService, cfg *config.Config) *SurveyService {
	return &SurveyService{db: db, llm: llm, email: email, cfg: cfg}
}

func (s *SurveyService) loadPair(candidateID, referenceID string) (*models.Candidate, *models.Reference, error) {
	var candidate models.Candidate
	if err := s.db.Preload("Jobs").First(&candidate, "id = ?", candidateID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, response.NewNotFound("candidate not found")
		}
		return nil, nil, err
	}
	var ref models.Reference
	if err := s.db.Preload("Job").First(&ref, "id = ? AND candidate_id = ?", referenceID, candidateID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, response.NewNotFound("reference not found")
		}
		return nil, nil, err
	}
	return &candidate, &ref, nil
}

// Preview assembles the full question set for a reference: the ten
// standardized questions plus up to five AI-generated ones. AI failures
// degrade to the standardized set alone.
func (s *SurveyService) Preview(ctx context.Context, candidateID, referenceID string) ([]SurveyQuestionDraft, error) {
	candidate, ref, err := s.loadPair(candidateID, referenceID)
	if err != nil {
		return nil, err
	}

	job := jobForReference(ref, candidate)
	if job == nil {
		return nil, response.NewBadRequest("no job associated with this reference")
	}

	questions := StandardizedSurveyQuestions(candidate.Name)
	questions = append(questions, s.llm.GenerateSurveyQuestions(ctx, job, candidate.Name, candidate.TargetRoleCategory, candidate.TargetRoleDetails)...)
	return questions, nil
}

// Send creates a tokenized survey and emails the link to the reference.
// Prior pending surveys for the reference are expired first, and an email
// failure expires the new one too.
func (s *SurveyService) Send(ctx context.Context, candidateID, referenceID string, questions []SurveyQuestionDraft) (*models.SurveyRequest, error) {
	if !s.email.Configured() {
		return nil, response.NewServerError("email provider not configured")
	}

	candidate, ref, err := s.loadPair(candidateID, referenceID)
	if err != nil {
		return nil, err
	}
	if ref.Email == "" {
		return nil, response.NewBadRequest("reference email is required to send survey")
	}
	if len(questions) == 0 {
		return nil, response.NewBadRequest("no questions provided")
	}

	var req *models.SurveyRequest
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SurveyRequest{}).
			Where("reference_id = ? AND status = ?", ref.ID, models.RequestStatusPending).
			Update("status", models.RequestStatusExpired).Error; err != nil {
			return err
		}

		req = &models.SurveyRequest{
			ReferenceID: ref.ID,
			Token:       GenerateToken(),
			Status:      models.RequestStatusPending,
			ExpiresAt:   time.Now().UTC().Add(models.TokenTTL),
		}
		if err := tx.Create(req).Error; err != nil {
			return err
		}

		for i, q := range questions {
			questionType := q.QuestionType
			if questionType == "" {
				questionType = models.QuestionTypeStandardized
			}
			responseType := q.ResponseType
			if responseType == "" {
				responseType = models.ResponseTypeFreeText
			}
			question := models.SurveyQuestion{
				SurveyRequestID: req.ID,
				QuestionText:    q.QuestionText,
				QuestionType:    questionType,
				ResponseType:    responseType,
				Order:           i,
				Required:        q.Required,
			}
			if len(q.Options) > 0 {
				data, _ := json.Marshal(q.Options)
				question.Options = string(data)
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(s.cfg.Server.BaseURL, "/")
	if _, err := s.email.SendSurveyEmail(ctx, ref, candidate, req.Token, baseURL); err != nil {
		req.Status = models.RequestStatusExpired
		s.db.Save(req)
		return nil, err
	}

	now := time.Now().UTC()
	req.EmailSentAt = &now
	s.db.Save(req)
	s.db.Model(ref).Update("survey_status", models.SurveyStatusPending)

	logger.Info().Str("reference_id", ref.ID).Int("questions", len(questions)).Msg("survey sent")
	return req, nil
}

// Resolve looks up a survey by token for public access, persisting the
// expiry flip when the deadline has passed.
func (s *SurveyService) Resolve(token string) (*models.SurveyRequest, *models.Reference, *models.Candidate, error) {
	var req models.SurveyRequest
	err := s.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("survey_questions.sort_order")
	}).First(&req, "token = ?", token).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil, nil, response.NewNotFound("invalid link")
	}
	if err != nil {
		return nil, nil, nil, err
	}

	if !req.IsValid(time.Now().UTC()) {
		s.db.Save(&req)
		return nil, nil, nil, response.NewGone("this survey link has expired")
	}

	var ref models.Reference
	if err := s.db.Preload("Job").First(&ref, "id = ?", req.ReferenceID).Error; err != nil {
		return nil, nil, nil, err
	}
	var candidate models.Candidate
	if err := s.db.Preload("Jobs").First(&candidate, "id = ?", ref.CandidateID).Error; err != nil {
		return nil, nil, nil, err
	}
	return &req, &ref, &candidate, nil
}

// SurveyAnswer is one submitted answer keyed by question ID.
type SurveyAnswer struct {
	QuestionID     string `json:"question_id"`
	Rating         *int   `json:"rating,omitempty"`
	TextResponse   string `json:"text_response,omitempty"`
	SelectedOption string `json:"selected_option,omitempty"`
}

// Submit validates and persists survey answers all-or-nothing: if any
// required question lacks an answer, nothing is stored and the survey
// stays pending. On success the survey completes and is analyzed.
func (s *SurveyService) Submit(ctx context.Context, token string, answers []SurveyAnswer) error {
	req, ref, candidate, err := s.Resolve(token)
	if err != nil {
		return err
	}

	byQuestion := make(map[string]*SurveyAnswer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	var responses []models.SurveyResponse
	for _, q := range req.Questions {
		a := byQuestion[q.ID]

		resp := models.SurveyResponse{SurveyQuestionID: q.ID}
		if a != nil {
			switch q.ResponseType {
			case models.ResponseTypeRating:
				if a.Rating != nil && (*a.Rating < 1 || *a.Rating > 5) {
					return response.NewBadRequest("rating must be between 1 and 5")
				}
				resp.Rating = a.Rating
			case models.ResponseTypeMultipleChoice, models.ResponseTypeYesNoMaybe:
				resp.SelectedOption = strings.TrimSpace(a.SelectedOption)
			default:
				resp.TextResponse = strings.TrimSpace(a.TextResponse)
			}
		}

		if q.Required && !resp.HasValue() {
			return response.NewBadRequest("please answer all required questions")
		}
		if resp.HasValue() {
			responses = append(responses, resp)
		}
	}

	now := time.Now().UTC()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(responses) > 0 {
			if err := tx.Create(&responses).Error; err != nil {
				return err
			}
		}
		req.Status = models.RequestStatusCompleted
		req.CompletedAt = &now
		if err := tx.Save(req).Error; err != nil {
			return err
		}
		return tx.Model(ref).Update("survey_status", models.SurveyStatusCompleted).Error
	})
	if err != nil {
		return err
	}

	// Reload with responses attached for analysis.
	s.db.Preload("Questions.Response").First(req, "id = ?", req.ID)

	if job := jobForReference(ref, candidate); job != nil {
		analysis, err := s.llm.AnalyzeSurvey(ctx, req, candidate.Name, job)
		if err != nil {
			// The responses themselves are already saved.
			logger.Warn().Err(err).Str("survey_request_id", req.ID).Msg("survey analysis failed")
		} else {
			req.SurveyScore = &analysis.Score
			req.SurveySummary = analysis.Summary
			req.SurveyRedFlags = marshalList(analysis.RedFlags)
			if data, err := json.Marshal(analysis); err == nil {
				req.SurveyAnalysis = string(data)
			}
			s.db.Save(req)
		}
	}

	if s.email.Configured() {
		if _, err := s.email.SendSurveyConfirmationEmail(ctx, ref, candidate); err != nil {
			logger.Warn().Err(err).Str("reference_id", ref.ID).Msg("survey confirmation email failed")
		}
	}

	logger.Info().Str("reference_id", ref.ID).Msg("survey completed")
	return nil
}

// Results returns the latest completed survey for a reference, with
// questions and responses.
func (s *SurveyService) Results(candidateID, referenceID string) (*models.SurveyRequest, error) {
	if _, _, err := s.loadPair(candidateID, referenceID); err != nil {
		return nil, err
	}

	var req models.SurveyRequest
	err := s.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("survey_questions.sort_order")
	}).Preload("Questions.Response").
		Where("reference_id = ? AND status = ?", referenceID, models.RequestStatusCompleted).
		Order("completed_at desc").First(&req).Error
	if err == gorm.ErrRecordNotFound {
		return nil, response.NewNotFound("no completed survey found")
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}
