// Package scheduler drives cycles: one at start, one per interval and one
// per manual trigger, never two at the same time.
package scheduler

import (
	"context"
	"sync"
	"time"

	"example.com/hostspin/internal/model"
)

// CycleFunc runs one cycle.
type CycleFunc func(ctx context.Context) *model.CycleReport

type Scheduler struct {
	run      CycleFunc
	interval time.Duration
	logger   model.Logger

	trigger chan struct{}

	mu      sync.RWMutex
	last    *model.CycleReport
	running bool
	total   int64

	// OnReport is OPTIONALLY called after each cycle, from the scheduler
	// goroutine.
	OnReport func(*model.CycleReport)
}

// New returns a Scheduler. A non-positive interval disables the timer;
// cycles then only run at start and on Trigger.
func New(run CycleFunc, interval time.Duration, logger model.Logger) *Scheduler {
	return &Scheduler{
		run:      run,
		interval: interval,
		logger:   model.ValidLoggerOrDefault(logger),
		trigger:  make(chan struct{}, 1),
	}
}

// Start blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	s.cycle(ctx, "start")
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.cycle(ctx, "timer")
		case <-s.trigger:
			s.cycle(ctx, "manual")
		}
	}
}

// Trigger asks for a cycle. Triggers arriving while a cycle is pending
// collapse into one. It reports whether the request was queued.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Scheduler) cycle(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Infof("scheduler: %s cycle", reason)
	rep := s.run(ctx)

	s.mu.Lock()
	s.running = false
	s.last = rep
	s.total++
	s.mu.Unlock()

	if rep != nil {
		s.logger.Infof("scheduler: cycle %s finished: %s in %s", rep.ID, rep.Status, rep.Duration().Round(time.Millisecond))
	}
	if s.OnReport != nil {
		s.OnReport(rep)
	}
}

// Last returns the report of the most recent cycle, nil before the first.
func (s *Scheduler) Last() *model.CycleReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

type Status struct {
	Running bool          `json:"running"`
	Cycles  int64         `json:"cycles"`
	Every   time.Duration `json:"interval_ns"`
}

func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{Running: s.running, Cycles: s.total, Every: s.interval}
}
