package services

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/edest28/RefCheck-3/pkg/logger"
)

// SchedulerService runs the periodic callback sweep.
type SchedulerService struct {
	callbacks     *CallbackService
	cronScheduler *cron.Cron
}

func NewSchedulerService(callbacks *CallbackService) *SchedulerService {
	return &SchedulerService{callbacks: callbacks}
}

// Start begins the every-minute callback sweep.
func (s *SchedulerService) Start() {
	s.cronScheduler = cron.New()

	_, err := s.cronScheduler.AddFunc("* * * * *", func() {
		if _, err := s.callbacks.ProcessScheduledCallbacks(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("callback sweep failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to schedule callback sweep")
		return
	}

	s.cronScheduler.Start()
	logger.Info().Msg("callback scheduler started")
}

func (s *SchedulerService) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}
