package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/internal/services"
	"github.com/edest28/RefCheck-3/pkg/response"
)

// Target role categories offered in the intake flow.
var roleCategories = []string{
	"Engineering / Technical",
	"Product / Design",
	"Sales / Business Development",
	"Marketing / Communications",
	"Operations / Logistics",
	"Finance / Accounting",
	"Customer Support / Success",
	"Executive / Leadership",
	"Other",
}

type CandidateHandler struct {
	candidateService *services.CandidateService
}

func NewCandidateHandler(candidateService *services.CandidateService) *CandidateHandler {
	return &CandidateHandler{candidateService: candidateService}
}

// candidateView augments a candidate with computed rollups.
type candidateView struct {
	*models.Candidate
	ReferenceProgress models.ReferenceProgress `json:"reference_progress"`
	Signal            models.Signal            `json:"signal"`
}

func newCandidateView(c *models.Candidate) candidateView {
	return candidateView{
		Candidate:         c,
		ReferenceProgress: c.GetReferenceProgress(),
		Signal:            c.GetSignal(),
	}
}

// Create parses a resume and creates a candidate
// POST /api/candidates
func (h *CandidateHandler) Create(c *gin.Context) {
	var req struct {
		ResumeText string `json:"resume_text" binding:"required"`
		Filename   string `json:"filename"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "resume_text is required")
		return
	}

	candidate, err := h.candidateService.CreateFromResume(c.Request.Context(), req.ResumeText, req.Filename)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, newCandidateView(candidate))
}

// List searches candidates
// GET /api/candidates?q=&status=
func (h *CandidateHandler) List(c *gin.Context) {
	candidates, err := h.candidateService.Search(c.Query("q"), c.Query("status"), 50)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	views := make([]candidateView, len(candidates))
	for i := range candidates {
		views[i] = newCandidateView(&candidates[i])
	}
	response.Success(c, views)
}

// GetByID returns a candidate with jobs, references, and rollups
// GET /api/candidates/:id
func (h *CandidateHandler) GetByID(c *gin.Context) {
	candidate, err := h.candidateService.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newCandidateView(candidate))
}

// Update applies a partial candidate update
// PATCH /api/candidates/:id
func (h *CandidateHandler) Update(c *gin.Context) {
	var upd services.CandidateUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	candidate, err := h.candidateService.Update(c.Param("id"), &upd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newCandidateView(candidate))
}

// Delete removes a candidate
// DELETE /api/candidates/:id
func (h *CandidateHandler) Delete(c *gin.Context) {
	if err := h.candidateService.Delete(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// AddReference attaches a reference to a candidate
// POST /api/candidates/:id/references
func (h *CandidateHandler) AddReference(c *gin.Context) {
	var in services.ReferenceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ref, err := h.candidateService.AddReference(c.Param("id"), &in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ref)
}

// UpdateReference edits a reference
// PATCH /api/candidates/:id/references/:refId
func (h *CandidateHandler) UpdateReference(c *gin.Context) {
	var in services.ReferenceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ref, err := h.candidateService.UpdateReference(c.Param("id"), c.Param("refId"), &in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ref)
}

// DeleteReference removes a reference
// DELETE /api/candidates/:id/references/:refId
func (h *CandidateHandler) DeleteReference(c *gin.Context) {
	if err := h.candidateService.DeleteReference(c.Param("id"), c.Param("refId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetRoleCategories lists target role categories for the intake dropdown
// GET /api/role-categories
func (h *CandidateHandler) GetRoleCategories(c *gin.Context) {
	response.Success(c, roleCategories)
}
