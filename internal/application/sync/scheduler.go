package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/taxdesk/caselaw-intelligence/internal/config"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
)

// Runner triggers one sync pass.  Satisfied by *Orchestrator.
type Runner interface {
	Run(ctx context.Context, target Target) (*Result, error)
}

// Slot is one weekly schedule entry: a UTC weekday and wall-clock minute at
// which the given target syncs.
type Slot struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
	Target  Target
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %02d:%02d %s", s.Weekday, s.Hour, s.Minute, s.Target.Scope())
}

// SlotsFromConfig converts the worker schedule section into slots.
func SlotsFromConfig(entries []config.ScheduleSlot) ([]Slot, error) {
	slots := make([]Slot, 0, len(entries))
	for _, e := range entries {
		weekday, err := config.ParseWeekday(e.Weekday)
		if err != nil {
			return nil, err
		}
		hour, minute, err := config.ParseClock(e.Time)
		if err != nil {
			return nil, err
		}
		category, ok := caselaw.ParseCategory(e.Category)
		if !ok {
			return nil, fmt.Errorf("invalid schedule category %q", e.Category)
		}
		slots = append(slots, Slot{
			Weekday: weekday,
			Hour:    hour,
			Minute:  minute,
			Target:  Target{Category: category},
		})
	}
	return slots, nil
}

// Scheduler fires sync runs on a weekly UTC schedule.  Minute resolution: a
// slot fires at most once per scheduled minute, and overlapping runs are
// already rejected by the orchestrator's lease.
type Scheduler struct {
	runner Runner
	slots  []Slot
	logger logging.Logger
	now    func() time.Time

	lastFired map[int]time.Time
}

// SchedulerOption customises a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the structured logger.
func WithSchedulerLogger(l logging.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithSchedulerClock injects the time source.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler builds a scheduler over the given slots.
func NewScheduler(runner Runner, slots []Slot, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runner:    runner,
		slots:     slots,
		logger:    logging.NewNopLogger(),
		now:       time.Now,
		lastFired: make(map[int]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick fires every slot due at the current UTC minute.  Returns the number of
// runs started.
func (s *Scheduler) Tick(ctx context.Context) int {
	now := s.now().UTC()
	minute := now.Truncate(time.Minute)
	fired := 0

	for i, slot := range s.slots {
		if now.Weekday() != slot.Weekday || now.Hour() != slot.Hour || now.Minute() != slot.Minute {
			continue
		}
		if last, ok := s.lastFired[i]; ok && last.Equal(minute) {
			continue
		}
		s.lastFired[i] = minute
		fired++

		s.logger.Info("scheduled sync firing", logging.String("slot", slot.String()))
		result, err := s.runner.Run(ctx, slot.Target)
		if err != nil {
			s.logger.Warn("scheduled sync failed",
				logging.String("slot", slot.String()),
				logging.Err(err))
			continue
		}
		s.logger.Info("scheduled sync finished",
			logging.String("slot", slot.String()),
			logging.Int("processed", result.TotalProcessed),
			logging.Int("errors", result.Errors))
	}
	return fired
}

// Start ticks on the interval until ctx is cancelled.  A non-positive
// interval defaults to one minute.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started",
		logging.Int("slots", len(s.slots)),
		logging.Duration("tick", interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}
