package scheduler

import (
	"context"
	"fmt"
	"time"

	"chainstats/internal/dashboard"
	"chainstats/internal/events"
	"chainstats/internal/logger"

	"github.com/go-co-op/gocron"
)

// refreshTimeout bounds a single scheduled reload.
const refreshTimeout = 2 * time.Minute

// Refresher reloads the dashboard dataset. dashboard.Service satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) error
	Status() dashboard.Status
}

// Scheduler reloads the dataset on a fixed interval and publishes the outcome
// to the bus.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	bus       *events.Bus
	every     int
	log       *logger.Logger
}

// New creates a scheduler that refreshes every given number of minutes.
func New(r Refresher, bus *events.Bus, loc *time.Location, every int, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if every < 1 {
		every = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		refresher: r,
		bus:       bus,
		every:     every,
		log:       log.Component("scheduler"),
	}
}

// Start schedules the periodic refresh without blocking. The first run fires
// immediately.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.every).Minutes().SingletonMode().Do(s.tick)
	if err != nil {
		return fmt.Errorf("scheduling refresh: %w", err)
	}
	s.scheduler.StartAsync()
	s.log.Info("refresh scheduled", "everyMinutes", s.every)
	return nil
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	_ = s.RunNow(ctx)
}

// RunNow refreshes immediately and publishes the result. The refresh error is
// returned as well as published.
func (s *Scheduler) RunNow(ctx context.Context) error {
	err := s.refresher.Refresh(ctx)
	st := s.refresher.Status()
	ev := events.RefreshEvent{
		At:      time.Now(),
		Players: st.Players,
		Events:  st.Events,
	}
	if err != nil {
		ev.Err = err.Error()
	}
	if s.bus != nil && !s.bus.PublishRefresh(ev) {
		s.log.Warn("refresh event dropped, bus full")
	}
	return err
}
