package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/internal/services"
	"github.com/edest28/RefCheck-3/pkg/response"
)

type SurveyHandler struct {
	surveyService *services.SurveyService
}

func NewSurveyHandler(surveyService *services.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveyService: surveyService}
}

// Preview assembles the question set without sending anything
// GET /api/candidates/:id/references/:refId/survey/preview
func (h *SurveyHandler) Preview(c *gin.Context) {
	questions, err := h.surveyService.Preview(c.Request.Context(), c.Param("id"), c.Param("refId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"questions": questions})
}

// Send creates a tokenized survey and emails the reference
// POST /api/candidates/:id/references/:refId/survey/send
func (h *SurveyHandler) Send(c *gin.Context) {
	var req struct {
		Questions []services.SurveyQuestionDraft `json:"questions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	survey, err := h.surveyService.Send(c.Request.Context(), c.Param("id"), c.Param("refId"), req.Questions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Survey sent to reference", "survey_request": survey})
}

// Results returns the latest completed survey with responses
// GET /api/candidates/:id/references/:refId/survey/results
func (h *SurveyHandler) Results(c *gin.Context) {
	survey, err := h.surveyService.Results(c.Param("id"), c.Param("refId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, survey)
}

// surveyQuestionView is the public shape of a question: no analysis
// internals, options decoded for rendering.
type surveyQuestionView struct {
	ID           string   `json:"id"`
	QuestionText string   `json:"question_text"`
	QuestionType string   `json:"question_type"`
	ResponseType string   `json:"response_type"`
	Options      []string `json:"options,omitempty"`
	Required     bool     `json:"required"`
}

func newSurveyQuestionViews(questions []models.SurveyQuestion) []surveyQuestionView {
	views := make([]surveyQuestionView, len(questions))
	for i, q := range questions {
		views[i] = surveyQuestionView{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			ResponseType: q.ResponseType,
			Options:      q.OptionList(),
			Required:     q.Required,
		}
	}
	return views
}

// Show resolves a public survey link
// GET /submit-survey/:token
func (h *SurveyHandler) Show(c *gin.Context) {
	survey, ref, candidate, err := h.surveyService.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"reference_name": ref.Name,
		"candidate_name": candidate.Name,
		"questions":      newSurveyQuestionViews(survey.Questions),
	})
}

// Submit records the reference's answers
// POST /submit-survey/:token
func (h *SurveyHandler) Submit(c *gin.Context) {
	var req struct {
		Answers []services.SurveyAnswer `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.surveyService.Submit(c.Request.Context(), c.Param("token"), req.Answers); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"completed": true})
}
