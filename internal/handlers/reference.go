package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/internal/services"
	"github.com/edest28/RefCheck-3/pkg/response"
)

type ReferenceHandler struct {
	db               *gorm.DB
	referenceService *services.ReferenceService
	taskQueue        services.TaskQueue
}

func NewReferenceHandler(db *gorm.DB, referenceService *services.ReferenceService, taskQueue services.TaskQueue) *ReferenceHandler {
	return &ReferenceHandler{db: db, referenceService: referenceService, taskQueue: taskQueue}
}

// StartCheck places a single reference check call
// POST /api/start-reference-check
func (h *ReferenceHandler) StartCheck(c *gin.Context) {
	var req struct {
		CandidateID string `json:"candidate_id" binding:"required"`
		ReferenceID string `json:"reference_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	callID, err := h.referenceService.StartCheck(c.Request.Context(), req.CandidateID, req.ReferenceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"check_id": callID})
}

// StartOutreach begins calls for all pending references
// POST /api/candidates/:id/start-outreach
func (h *ReferenceHandler) StartOutreach(c *gin.Context) {
	results, err := h.referenceService.StartOutreach(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"results": results})
}

// CheckStatus returns the stored state for a call and queues outcome
// processing so a finished call gets classified
// GET /api/check-status/:checkId
func (h *ReferenceHandler) CheckStatus(c *gin.Context) {
	checkID := c.Param("checkId")

	var ref models.Reference
	err := h.db.First(&ref, "call_id = ?", checkID).Error
	if err == gorm.ErrRecordNotFound {
		response.NotFound(c, "call not found")
		return
	}
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	if !ref.IsTerminal() {
		if err := h.taskQueue.Enqueue(&services.CallTask{ReferenceID: ref.ID, CallID: checkID}); err != nil {
			response.ServerError(c, err.Error())
			return
		}
	}

	response.Success(c, gin.H{
		"check_id":  checkID,
		"status":    ref.Status,
		"reference": ref,
	})
}

// Schedule records a follow-up call time
// POST /api/candidates/:id/references/:refId/schedule
func (h *ReferenceHandler) Schedule(c *gin.Context) {
	var req struct {
		ScheduledTime time.Time `json:"scheduled_time" binding:"required"`
		Timezone      string    `json:"timezone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ref, err := h.referenceService.Schedule(c.Request.Context(), c.Param("id"), c.Param("refId"), req.ScheduledTime, req.Timezone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ref)
}

// SendSMS sends a manual SMS to a reference
// POST /api/candidates/:id/references/:refId/send-sms
func (h *ReferenceHandler) SendSMS(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	// Body is optional; the default template is used when absent.
	_ = c.ShouldBindJSON(&req)

	err := h.referenceService.SendSMS(c.Request.Context(), c.Param("id"), c.Param("refId"), req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"sent": true})
}
