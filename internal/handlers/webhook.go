package handlers

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/edest28/RefCheck-3/internal/services"
	"github.com/edest28/RefCheck-3/pkg/logger"
	"github.com/edest28/RefCheck-3/pkg/response"
)

// WebhookHandler receives callbacks from the voice and SMS providers.
type WebhookHandler struct {
	callbackService *services.CallbackService
	taskQueue       services.TaskQueue
}

func NewWebhookHandler(callbackService *services.CallbackService, taskQueue services.TaskQueue) *WebhookHandler {
	return &WebhookHandler{callbackService: callbackService, taskQueue: taskQueue}
}

// HandleVapi processes voice provider events. An end-of-call report
// queues outcome classification; everything else is acknowledged and
// dropped.
// POST /webhooks/vapi
func (h *WebhookHandler) HandleVapi(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return
	}

	raw := string(body)
	messageType := gjson.Get(raw, "message.type").String()
	callID := gjson.Get(raw, "message.call.id").String()
	endedReason := gjson.Get(raw, "message.endedReason").String()

	if messageType == "end-of-call-report" && callID != "" {
		task := &services.CallTask{CallID: callID, EndedReason: endedReason}
		if err := h.taskQueue.Enqueue(task); err != nil {
			logger.Warn().Err(err).Str("call_id", callID).Msg("failed to enqueue call task")
		}
	}

	response.Success(c, gin.H{"received": true})
}

// HandleSMS processes inbound SMS from the Twilio webhook. Twilio posts
// form-encoded From and Body fields and expects a 200.
// POST /webhooks/sms
func (h *WebhookHandler) HandleSMS(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")

	if err := h.callbackService.HandleInboundSMS(c.Request.Context(), from, body); err != nil {
		logger.Warn().Err(err).Str("from", from).Msg("inbound sms handling failed")
	}

	// Always 200 so the provider does not retry.
	c.String(200, "")
}

// ProcessCallbacks runs the callback sweep on demand
// POST /api/process-callbacks
func (h *WebhookHandler) ProcessCallbacks(c *gin.Context) {
	result, err := h.callbackService.ProcessScheduledCallbacks(c.Request.Context())
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, result)
}
