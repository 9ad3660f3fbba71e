package plan_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/mealplan-engine/plan"
)

// =============================================================================
// RESOLVER TESTS
// =============================================================================

func TestResolve_NoOverrideFallsBackToDefaults(t *testing.T) {
	// GIVEN: No schedule row for the date
	// WHEN: Resolving it
	// THEN: Lunch and snacks on, everything else off

	s := newStore()
	resolver := &plan.ScheduleResolver{Store: s}

	sched, err := resolver.Resolve(context.Background(), plan.NewDay(2024, time.June, 11))
	require.NoError(t, err)

	assert.True(t, sched.Lunch)
	assert.True(t, sched.Snacks)
	assert.False(t, sched.Iftar)
	assert.False(t, sched.EventDinner)
	assert.False(t, sched.OptionalDinner)
	assert.Empty(t, sched.Occasion)
}

func TestResolve_OverrideWinsOverDefaults(t *testing.T) {
	// GIVEN: An override row disabling lunch and enabling iftar
	// WHEN: Resolving that date
	// THEN: The override's flags are returned verbatim

	s := newStore()
	date := plan.NewDay(2024, time.June, 12)
	seedSchedule(t, s, date, plan.Schedule{Snacks: true, Iftar: true, Occasion: "Ramadan"})
	resolver := &plan.ScheduleResolver{Store: s}

	sched, err := resolver.Resolve(context.Background(), date)
	require.NoError(t, err)

	assert.False(t, sched.Lunch, "override disables lunch despite defaults")
	assert.True(t, sched.Iftar)
	assert.Equal(t, "Ramadan", sched.Occasion)
}

func TestResolveRange_MixedDays(t *testing.T) {
	// GIVEN: One override inside a three-day range
	// WHEN: Resolving the range
	// THEN: The override day differs, the rest are defaults

	s := newStore()
	june12 := plan.NewDay(2024, time.June, 12)
	seedSchedule(t, s, june12, plan.Schedule{Lunch: true, EventDinner: true})
	resolver := &plan.ScheduleResolver{Store: s}

	rng := plan.DayRange{Start: june12.AddDays(-1), End: june12.AddDays(1)}
	byDate, err := resolver.ResolveRange(context.Background(), rng)
	require.NoError(t, err)
	require.Len(t, byDate, 3)

	assert.Equal(t, plan.DefaultSchedule, byDate[june12.AddDays(-1)])
	assert.True(t, byDate[june12].EventDinner)
	assert.False(t, byDate[june12].Snacks)
	assert.Equal(t, plan.DefaultSchedule, byDate[june12.AddDays(1)])
}

// =============================================================================
// ADMIN TESTS
// =============================================================================

func TestScheduleUpsert_ReplacesSameDate(t *testing.T) {
	// GIVEN: An override already exists for the date
	// WHEN: Upserting the same date again
	// THEN: One row remains, with the new flags

	s := newStore()
	ctx := context.Background()
	resolver := &plan.ScheduleResolver{Store: s}
	date := plan.NewDay(2024, time.June, 12)

	first, err := resolver.Upsert(ctx, date, plan.Schedule{Lunch: true}, 1)
	require.NoError(t, err)
	second, err := resolver.Upsert(ctx, date, plan.Schedule{Lunch: true, Iftar: true}, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same date reuses the row")

	all, err := resolver.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Flags.Iftar)
}

func TestScheduleDelete_RevertsToDefaults(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	resolver := &plan.ScheduleResolver{Store: s}
	date := plan.NewDay(2024, time.June, 12)

	row, err := resolver.Upsert(ctx, date, plan.Schedule{Iftar: true}, 1)
	require.NoError(t, err)
	require.NoError(t, resolver.Delete(ctx, row.ID))

	sched, err := resolver.Resolve(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, plan.DefaultSchedule, sched)

	assert.ErrorIs(t, resolver.Delete(ctx, row.ID), plan.ErrScheduleNotFound)
}
