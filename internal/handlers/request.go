package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edest28/RefCheck-3/internal/services"
	"github.com/edest28/RefCheck-3/pkg/response"
)

// RequestHandler serves the candidate-facing reference request flow.
type RequestHandler struct {
	requestService *services.RequestService
}

func NewRequestHandler(requestService *services.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// Send emails the candidate a submission link
// POST /api/candidates/:id/send-reference-request
func (h *RequestHandler) Send(c *gin.Context) {
	req, err := h.requestService.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Reference request sent to candidate", "request": req})
}

// Resend reminds the candidate, or issues a fresh link when the old one
// is no longer valid
// POST /api/candidates/:id/resend-reference-request
func (h *RequestHandler) Resend(c *gin.Context) {
	req, err := h.requestService.Resend(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Reminder sent to candidate", "request": req})
}

// Status returns the latest request for a candidate
// GET /api/candidates/:id/reference-request-status
func (h *RequestHandler) Status(c *gin.Context) {
	req, err := h.requestService.Latest(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"request": req})
}

// Show resolves a public submission link
// GET /submit-references/:token
func (h *RequestHandler) Show(c *gin.Context) {
	_, candidate, err := h.requestService.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"candidate_name": candidate.Name,
		"jobs":           candidate.Jobs,
	})
}

// Submit records the candidate's references
// POST /submit-references/:token
func (h *RequestHandler) Submit(c *gin.Context) {
	var req struct {
		References []services.ReferenceSubmission `json:"references" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	added, err := h.requestService.Submit(c.Request.Context(), c.Param("token"), req.References)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"references_added": added})
}
