// Package scheduler runs the background jobs: a periodic stress sweep over
// all known users and a health probe against the LLM provider.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/mossline/wellspring-server/internal/llm"
	"github.com/mossline/wellspring-server/internal/store"
)

// Publisher is the alert fan-out the sweep publishes into.
type Publisher interface {
	Publish(channel, userID string, payload interface{})
}

// Scheduler manages scheduled jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	sweep     *StressSweep
	llm       *llm.Client
	timezone  *time.Location
}

// Config holds scheduler configuration.
type Config struct {
	Timezone      string
	SweepInterval time.Duration
}

// New creates a scheduler. A zero SweepInterval defaults to one hour.
func New(st *store.Store, alerts Publisher, llmClient *llm.Client, cfg Config) (*Scheduler, error) {
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		tz = time.UTC
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(tz))
	if err != nil {
		return nil, err
	}

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}

	sched := &Scheduler{
		scheduler: s,
		sweep:     NewStressSweep(st, alerts),
		llm:       llmClient,
		timezone:  tz,
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sched.runSweep),
		gocron.WithName("stress-sweep"),
	)
	if err != nil {
		return nil, err
	}

	if llmClient != nil && llmClient.Configured() {
		_, err = s.NewJob(
			gocron.DurationJob(5*time.Minute),
			gocron.NewTask(sched.healthCheck),
			gocron.WithName("llm-health-check"),
		)
		if err != nil {
			return nil, err
		}
	}

	return sched, nil
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Println("Scheduler started")
}

// Stop shuts the scheduler down.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	alerted, err := s.sweep.Run(ctx)
	if err != nil {
		log.Printf("Stress sweep failed: %v", err)
		return
	}
	if alerted > 0 {
		log.Printf("Stress sweep alerted %d user(s)", alerted)
	}
}

func (s *Scheduler) healthCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.llm.HealthCheck(ctx); err != nil {
		log.Printf("LLM health check failed: %v", err)
	}
}
