package main

import (
	"github.com/gin-gonic/gin"

	"github.com/edest28/RefCheck-3/internal/middleware"
	"github.com/edest28/RefCheck-3/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiters for webhook and public token routes
	webhookLimiter := middleware.NewRateLimiter(10, 20)
	publicLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// Provider webhooks (rate limited)
	webhooks := r.Group("/webhooks", webhookLimiter.Middleware())
	{
		webhooks.POST("/vapi", svc.webhookHandler.HandleVapi)
		webhooks.POST("/sms", svc.webhookHandler.HandleSMS)
	}

	// Public token routes reached from emailed links (rate limited)
	public := r.Group("", publicLimiter.Middleware())
	{
		public.GET("/submit-references/:token", svc.requestHandler.Show)
		public.POST("/submit-references/:token", svc.requestHandler.Submit)
		public.GET("/submit-survey/:token", svc.surveyHandler.Show)
		public.POST("/submit-survey/:token", svc.surveyHandler.Submit)
	}

	// API routes
	api := r.Group("/api")
	{
		// Candidates
		api.POST("/candidates", svc.candidateHandler.Create)
		api.GET("/candidates", svc.candidateHandler.List)
		api.GET("/candidates/:id", svc.candidateHandler.GetByID)
		api.PATCH("/candidates/:id", svc.candidateHandler.Update)
		api.DELETE("/candidates/:id", svc.candidateHandler.Delete)
		api.GET("/role-categories", svc.candidateHandler.GetRoleCategories)

		// References
		api.POST("/candidates/:id/references", svc.candidateHandler.AddReference)
		api.PATCH("/candidates/:id/references/:refId", svc.candidateHandler.UpdateReference)
		api.DELETE("/candidates/:id/references/:refId", svc.candidateHandler.DeleteReference)
		api.POST("/candidates/:id/references/:refId/schedule", svc.referenceHandler.Schedule)
		api.POST("/candidates/:id/references/:refId/send-sms", svc.referenceHandler.SendSMS)

		// Reference checks
		api.POST("/start-reference-check", svc.referenceHandler.StartCheck)
		api.GET("/check-status/:checkId", svc.referenceHandler.CheckStatus)
		api.POST("/candidates/:id/start-outreach", svc.referenceHandler.StartOutreach)
		api.POST("/process-callbacks", svc.webhookHandler.ProcessCallbacks)

		// Reference request links
		api.POST("/candidates/:id/send-reference-request", svc.requestHandler.Send)
		api.POST("/candidates/:id/resend-reference-request", svc.requestHandler.Resend)
		api.GET("/candidates/:id/reference-request-status", svc.requestHandler.Status)

		// Surveys
		api.GET("/candidates/:id/references/:refId/survey/preview", svc.surveyHandler.Preview)
		api.POST("/candidates/:id/references/:refId/survey/send", svc.surveyHandler.Send)
		api.GET("/candidates/:id/references/:refId/survey/results", svc.surveyHandler.Results)
	}
}
