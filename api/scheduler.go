/*
scheduler.go - Nightly record materialization scheduler

PURPOSE:
  Runs the record materializer once per night so every active user has a
  record for tomorrow before the day starts. The job fires at a fixed
  hour (21:00 UTC by default); a coarse ticker checks the clock and a
  last-run guard keeps the job to one run per day even with a short
  check interval.

CONFIGURATION:
  - Hour:          UTC hour of day to run at (default: 21)
  - CheckInterval: How often to check the clock (default: 1 minute)
  - Enabled:       Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewNightlyScheduler(materializer)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - plan/materialize.go: The idempotent job body
  - handlers.go: Materialize endpoint (manual trigger)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/mealplan-engine/plan"
)

// NightlyScheduler fires MaterializeTomorrow once per day.
type NightlyScheduler struct {
	Materializer  *plan.Materializer
	Hour          int
	CheckInterval time.Duration
	Enabled       bool

	ticker  *time.Ticker
	stop    chan bool
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun plan.Day
	hasRun  bool
}

// NewNightlyScheduler creates a scheduler with default timing.
func NewNightlyScheduler(m *plan.Materializer) *NightlyScheduler {
	return &NightlyScheduler{
		Materializer:  m,
		Hour:          21,
		CheckInterval: 1 * time.Minute,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (s *NightlyScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)

	go s.run()

	log.Printf("[Scheduler] Started, firing daily at %02d:00 UTC", s.Hour)
}

// Stop stops the scheduler.
func (s *NightlyScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (s *NightlyScheduler) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ticker.C:
			s.checkAndRun()
		case <-s.stop:
			return
		}
	}
}

// checkAndRun fires the job when the configured hour has arrived and it
// has not already run today.
func (s *NightlyScheduler) checkAndRun() {
	now := time.Now().UTC()
	if now.Hour() < s.Hour {
		return
	}

	today := plan.Today()
	s.mu.Lock()
	if s.hasRun && s.lastRun.Equal(today) {
		s.mu.Unlock()
		return
	}
	s.lastRun = today
	s.hasRun = true
	s.mu.Unlock()

	s.materialize()
}

func (s *NightlyScheduler) materialize() {
	ctx := context.Background()

	res, err := s.Materializer.MaterializeTomorrow(ctx)
	if err != nil {
		log.Printf("[Scheduler] Materialization for %s failed: %v", res.Date, err)
		return
	}
	log.Printf("[Scheduler] Materialized %s: %d created, %d updated", res.Date, res.Created, res.Updated)
}

// RunNow triggers an immediate run (for testing/admin).
func (s *NightlyScheduler) RunNow() {
	s.materialize()
}
