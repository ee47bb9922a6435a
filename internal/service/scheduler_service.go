package service

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the periodic fetch-all on the configured cron spec.
type SchedulerService struct {
	cron  *cron.Cron
	fetch *FetchService
}

// NewSchedulerService creates a SchedulerService.
func NewSchedulerService(fetch *FetchService) *SchedulerService {
	return &SchedulerService{
		cron:  cron.New(),
		fetch: fetch,
	}
}

// Start schedules the fetch-all job and starts the cron loop. An empty spec
// disables scheduling.
func (s *SchedulerService) Start(spec string) error {
	if spec == "" {
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		results, err := s.fetch.FetchAll(context.Background())
		if err != nil {
			log.Printf("Scheduled fetch-all failed: %v", err)
			return
		}
		log.Printf("Scheduled fetch-all finished for %d entities", len(results))
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop, waiting for a running job to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
