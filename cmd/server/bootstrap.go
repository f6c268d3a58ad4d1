package main

import (
	"github.com/edest28/RefCheck-3/internal/config"
	"github.com/edest28/RefCheck-3/internal/handlers"
	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/internal/services"
	"github.com/edest28/RefCheck-3/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	scheduler *services.SchedulerService
	taskQueue services.TaskQueue
	worker    *services.Worker

	candidateHandler *handlers.CandidateHandler
	referenceHandler *handlers.ReferenceHandler
	webhookHandler   *handlers.WebhookHandler
	requestHandler   *handlers.RequestHandler
	surveyHandler    *handlers.SurveyHandler
	healthHandler    *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	// Provider gateways
	llmService := services.NewLLMService(&cfg.LLM)
	vapiService := services.NewVapiService(&cfg.Vapi)
	twilioService := services.NewTwilioService(&cfg.Twilio)
	resendService := services.NewResendService(&cfg.Resend)

	// Domain services
	candidateService := services.NewCandidateService(db, llmService)
	referenceService := services.NewReferenceService(db, llmService, vapiService, twilioService, cfg)
	callbackService := services.NewCallbackService(db, llmService, twilioService, vapiService)
	requestService := services.NewRequestService(db, resendService, cfg)
	surveyService := services.NewSurveyService(db, llmService, resendService, cfg)

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(referenceService.ProcessCallOutcome)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(referenceService.ProcessCallOutcome)
			worker.Start()
		}
	}

	// Start the callback sweep scheduler
	scheduler := services.NewSchedulerService(callbackService)
	scheduler.Start()

	return &appServices{
		scheduler: scheduler,
		taskQueue: taskQueue,
		worker:    worker,

		candidateHandler: handlers.NewCandidateHandler(candidateService),
		referenceHandler: handlers.NewReferenceHandler(db, referenceService, taskQueue),
		webhookHandler:   handlers.NewWebhookHandler(callbackService, taskQueue),
		requestHandler:   handlers.NewRequestHandler(requestService),
		surveyHandler:    handlers.NewSurveyHandler(surveyService),
		healthHandler:    handlers.NewHealthHandler(),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	logger.Info().Msg("Callback scheduler stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
