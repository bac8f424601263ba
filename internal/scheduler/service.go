package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/varys-hq/varys/internal/config"
	"github.com/varys-hq/varys/internal/pipeline"
)

// Service runs the mention pipeline for every tracked company on a cron
// schedule.
type Service struct {
	config   *config.Config
	pipeline *pipeline.Service
	cron     *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, pipelineService *pipeline.Service) (*Service, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.TimeZone, err)
	}

	return &Service{
		config:   cfg,
		pipeline: pipelineService,
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(location)),
	}, nil
}

// Start begins the scheduled pipeline runs. Companies run sequentially
// within one tick; one company failing does not stop the others.
func (s *Service) Start() error {
	if len(s.config.Companies) == 0 {
		logrus.Info("No tracked companies configured, scheduler idle")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.RunSchedule, func() {
		logrus.Infof("Starting scheduled pipeline run for %d companies", len(s.config.Companies))
		ctx := context.Background()
		for _, company := range s.config.Companies {
			if _, err := s.pipeline.Run(ctx, company, s.config.ScrapeLimit); err != nil {
				logrus.Errorf("Scheduled run failed for %s: %v", company, err)
			}
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q for companies %v", s.config.RunSchedule, s.config.Companies)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
