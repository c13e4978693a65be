package sync_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncapp "github.com/taxdesk/caselaw-intelligence/internal/application/sync"
	"github.com/taxdesk/caselaw-intelligence/internal/config"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
)

type recordingRunner struct {
	targets []syncapp.Target
}

func (r *recordingRunner) Run(_ context.Context, target syncapp.Target) (*syncapp.Result, error) {
	r.targets = append(r.targets, target)
	return &syncapp.Result{}, nil
}

// mondayAt returns a UTC Monday at the given wall-clock time.
func mondayAt(hour, minute int) time.Time {
	return time.Date(2024, 4, 1, hour, minute, 10, 0, time.UTC)
}

func TestSlotsFromConfig(t *testing.T) {
	t.Parallel()

	slots, err := syncapp.SlotsFromConfig([]config.ScheduleSlot{
		{Weekday: "Monday", Time: "02:30", Category: "GST"},
		{Weekday: "Friday", Time: "23:00", Category: "itat"},
	})

	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, time.Monday, slots[0].Weekday)
	assert.Equal(t, 2, slots[0].Hour)
	assert.Equal(t, 30, slots[0].Minute)
	assert.Equal(t, caselaw.CategoryGST, slots[0].Target.Category)
	assert.Equal(t, caselaw.CategoryITAT, slots[1].Target.Category)
}

func TestSlotsFromConfig_Invalid(t *testing.T) {
	t.Parallel()

	_, err := syncapp.SlotsFromConfig([]config.ScheduleSlot{{Weekday: "Moonday", Time: "02:30", Category: "GST"}})
	assert.Error(t, err)

	_, err = syncapp.SlotsFromConfig([]config.ScheduleSlot{{Weekday: "Monday", Time: "25:99", Category: "GST"}})
	assert.Error(t, err)

	_, err = syncapp.SlotsFromConfig([]config.ScheduleSlot{{Weekday: "Monday", Time: "02:30", Category: "MARITIME"}})
	assert.Error(t, err)
}

func TestTick_FiresDueSlotOnce(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}
	now := mondayAt(2, 30)
	s := syncapp.NewScheduler(runner,
		[]syncapp.Slot{{Weekday: time.Monday, Hour: 2, Minute: 30, Target: syncapp.Target{Category: caselaw.CategoryGST}}},
		syncapp.WithSchedulerClock(func() time.Time { return now }))

	assert.Equal(t, 1, s.Tick(context.Background()))
	assert.Equal(t, 0, s.Tick(context.Background()), "same minute never fires twice")

	now = now.Add(7 * 24 * time.Hour)
	assert.Equal(t, 1, s.Tick(context.Background()), "next week fires again")

	require.Len(t, runner.targets, 2)
	assert.Equal(t, caselaw.CategoryGST, runner.targets[0].Category)
}

func TestTick_SkipsOffScheduleMinutes(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}
	now := mondayAt(2, 31)
	s := syncapp.NewScheduler(runner,
		[]syncapp.Slot{{Weekday: time.Monday, Hour: 2, Minute: 30}},
		syncapp.WithSchedulerClock(func() time.Time { return now }))

	assert.Equal(t, 0, s.Tick(context.Background()))
	assert.Empty(t, runner.targets)
}

func TestTick_MultipleSlotsSameMinute(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}
	now := mondayAt(3, 0)
	s := syncapp.NewScheduler(runner,
		[]syncapp.Slot{
			{Weekday: time.Monday, Hour: 3, Minute: 0, Target: syncapp.Target{Category: caselaw.CategoryGST}},
			{Weekday: time.Monday, Hour: 3, Minute: 0, Target: syncapp.Target{Category: caselaw.CategoryITAT}},
		},
		syncapp.WithSchedulerClock(func() time.Time { return now }))

	assert.Equal(t, 2, s.Tick(context.Background()))
	require.Len(t, runner.targets, 2)
}
