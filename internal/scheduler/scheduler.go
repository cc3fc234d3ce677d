package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"meteogram-service/internal/widget"
)

// Scheduler periodically refreshes every registered meteogram source.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *widget.Service
	interval  time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, service *widget.Service) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if len(s.service.Sources()) == 0 {
		log.Println("scheduler: no sources configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		log.Println("scheduler: running meteogram refresh job")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		s.service.RefreshAll(ctx)
		log.Println("scheduler: completed meteogram refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Restart replaces the schedule with a new interval. Any pending job is
// dropped before the new one is registered.
func (s *Scheduler) Restart(interval time.Duration) error {
	s.scheduler.Clear()
	s.interval = interval
	return s.Start()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
