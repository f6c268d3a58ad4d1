package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/edest28/RefCheck-3/internal/config"
	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/pkg/response"
)

func intPtr(v int) *int { return &v }

func newTestSurveyService(db *gorm.DB) *SurveyService {
	return NewSurveyService(db,
		NewLLMService(&config.LLMConfig{}),
		NewResendService(&config.ResendConfig{}),
		&config.Config{})
}

func seedSurvey(t *testing.T, db *gorm.DB, questions []models.SurveyQuestion) (*models.SurveyRequest, *models.Reference) {
	t.Helper()
	candidate := seedCandidate(t, db, false)
	ref := seedReference(t, db, candidate.ID, func(r *models.Reference) {
		r.Email = "john@example.com"
		r.SurveyStatus = models.SurveyStatusPending
	})

	req := &models.SurveyRequest{
		ReferenceID: ref.ID,
		Token:       GenerateToken(),
		Status:      models.RequestStatusPending,
		ExpiresAt:   time.Now().UTC().Add(models.TokenTTL),
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("create survey request: %v", err)
	}
	for i := range questions {
		questions[i].SurveyRequestID = req.ID
		questions[i].Order = i
		if err := db.Create(&questions[i]).Error; err != nil {
			t.Fatalf("create survey question: %v", err)
		}
	}
	return req, ref
}

func TestSubmitStoresSelectedOptionForYesNoMaybe(t *testing.T) {
	db := newTestDB(t)
	svc := newTestSurveyService(db)

	req, ref := seedSurvey(t, db, []models.SurveyQuestion{
		{
			QuestionText: "Would you rehire John Smith?",
			QuestionType: models.QuestionTypeStandardized,
			ResponseType: models.ResponseTypeYesNoMaybe,
			Required:     true,
		},
	})

	var question models.SurveyQuestion
	if err := db.First(&question, "survey_request_id = ?", req.ID).Error; err != nil {
		t.Fatalf("load question: %v", err)
	}

	answers := []SurveyAnswer{{QuestionID: question.ID, SelectedOption: " Yes "}}
	if err := svc.Submit(context.Background(), req.Token, answers); err != nil {
		t.Fatalf("submit: %v", err)
	}

	var resp models.SurveyResponse
	if err := db.First(&resp, "survey_question_id = ?", question.ID).Error; err != nil {
		t.Fatalf("load response: %v", err)
	}
	if resp.SelectedOption != "Yes" {
		t.Errorf("selected option = %q, expected %q", resp.SelectedOption, "Yes")
	}
	if resp.TextResponse != "" {
		t.Errorf("text response = %q, expected empty", resp.TextResponse)
	}

	var gotReq models.SurveyRequest
	if err := db.First(&gotReq, "id = ?", req.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if gotReq.Status != models.RequestStatusCompleted {
		t.Errorf("request status = %q, expected %q", gotReq.Status, models.RequestStatusCompleted)
	}
	got := reloadReference(t, db, ref.ID)
	if got.SurveyStatus != models.SurveyStatusCompleted {
		t.Errorf("survey status = %q, expected %q", got.SurveyStatus, models.SurveyStatusCompleted)
	}
}

func TestSubmitRejectsOutOfRangeRating(t *testing.T) {
	db := newTestDB(t)
	svc := newTestSurveyService(db)

	req, ref := seedSurvey(t, db, []models.SurveyQuestion{
		{
			QuestionText: "How would you rate their overall job performance?",
			QuestionType: models.QuestionTypeStandardized,
			ResponseType: models.ResponseTypeRating,
			Required:     true,
		},
	})

	var question models.SurveyQuestion
	if err := db.First(&question, "survey_request_id = ?", req.ID).Error; err != nil {
		t.Fatalf("load question: %v", err)
	}

	for _, rating := range []int{0, -1, 6, 7} {
		answers := []SurveyAnswer{{QuestionID: question.ID, Rating: intPtr(rating)}}
		err := svc.Submit(context.Background(), req.Token, answers)
		appErr, ok := err.(*response.AppError)
		if !ok || appErr.HTTPStatus != 400 {
			t.Errorf("rating %d: expected bad request, got %v", rating, err)
		}
	}

	// Nothing was persisted and the survey is still open.
	var count int64
	db.Model(&models.SurveyResponse{}).Count(&count)
	if count != 0 {
		t.Errorf("responses persisted = %d, expected 0", count)
	}
	var gotReq models.SurveyRequest
	if err := db.First(&gotReq, "id = ?", req.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if gotReq.Status != models.RequestStatusPending {
		t.Errorf("request status = %q, expected %q", gotReq.Status, models.RequestStatusPending)
	}
	got := reloadReference(t, db, ref.ID)
	if got.SurveyStatus != models.SurveyStatusPending {
		t.Errorf("survey status = %q, expected %q", got.SurveyStatus, models.SurveyStatusPending)
	}

	// A valid rating goes through.
	answers := []SurveyAnswer{{QuestionID: question.ID, Rating: intPtr(4)}}
	if err := svc.Submit(context.Background(), req.Token, answers); err != nil {
		t.Fatalf("submit valid rating: %v", err)
	}
	var resp models.SurveyResponse
	if err := db.First(&resp, "survey_question_id = ?", question.ID).Error; err != nil {
		t.Fatalf("load response: %v", err)
	}
	if resp.Rating == nil || *resp.Rating != 4 {
		t.Errorf("rating = %v, expected 4", resp.Rating)
	}
}
