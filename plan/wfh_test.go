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
// PERIOD VALIDATION TESTS
// =============================================================================

func TestCreatePeriod_InvertedRangeRejected(t *testing.T) {
	// GIVEN: dateTo before dateFrom
	// WHEN: Creating the period
	// THEN: Rejected, nothing persisted

	s := newStore()
	ctx := context.Background()
	admin := seedUser(t, s, "admin", plan.RoleAdmin, nil)
	engine := &plan.WFHEngine{Store: s, Clock: fixedClock(june10)}

	_, err := engine.CreatePeriod(ctx, plan.NewDay(2024, time.June, 15), plan.NewDay(2024, time.June, 12), "", admin.ID)
	assert.ErrorIs(t, err, plan.ErrInvalidRange)

	periods, err := engine.ListPeriods(ctx)
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestCreatePeriod_SingleDayAllowed(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	admin := seedUser(t, s, "admin", plan.RoleAdmin, nil)
	engine := &plan.WFHEngine{Store: s, Clock: fixedClock(june10)}

	day := plan.NewDay(2024, time.June, 20)
	p, err := engine.CreatePeriod(ctx, day, day, "audit", admin.ID)
	require.NoError(t, err)
	assert.True(t, p.Covers(day))
	assert.False(t, p.Covers(day.AddDays(1)))
}

// =============================================================================
// EAGER APPLICATION TESTS
// =============================================================================

func TestCreatePeriod_CoveringTodayAppliesImmediately(t *testing.T) {
	// GIVEN: Two active users, one inactive, and an existing record for today
	// WHEN: A period covering today is created
	// THEN: Every ACTIVE user has today's record forced to all-off + WFH,
	//       the inactive user is untouched

	s := newStore()
	ctx := context.Background()
	admin := seedUser(t, s, "admin", plan.RoleAdmin, nil)
	alice := seedUser(t, s, "alice", plan.RoleEmployee, nil)
	ghost := seedInactiveUser(t, s, "ghost")

	// Alice already opted in for today.
	require.NoError(t, s.UpsertRecord(ctx, &plan.MealRecord{
		UserID: alice.ID, Date: june10, Lunch: plan.Opted(true),
	}))

	engine := &plan.WFHEngine{Store: s, Clock: fixedClock(june10)}
	_, err := engine.CreatePeriod(ctx, june10, june10.AddDays(3), "office closed", admin.ID)
	require.NoError(t, err)

	for _, id := range []plan.UserID{admin.ID, alice.ID} {
		rec, err := s.GetRecord(ctx, id, june10)
		require.NoError(t, err)
		require.NotNil(t, rec, "user %d", id)
		assert.True(t, rec.WorkFromHome)
		for _, m := range plan.MealTypes {
			in, ok := rec.Meal(m).Bool()
			assert.True(t, ok)
			assert.False(t, in, "meal %s should be explicitly off", m)
		}
		require.NotNil(t, rec.LastModifiedBy)
		assert.Equal(t, admin.ID, *rec.LastModifiedBy)
	}

	rec, err := s.GetRecord(ctx, ghost.ID, june10)
	require.NoError(t, err)
	assert.Nil(t, rec, "inactive users are skipped")
}

func TestCreatePeriod_FutureDatesLeftToNightlyJob(t *testing.T) {
	// GIVEN: A period starting tomorrow
	// WHEN: It is created
	// THEN: No records are written yet; the nightly job owns future dates

	s := newStore()
	ctx := context.Background()
	admin := seedUser(t, s, "admin", plan.RoleAdmin, nil)
	engine := &plan.WFHEngine{Store: s, Clock: fixedClock(june10)}

	_, err := engine.CreatePeriod(ctx, june10.AddDays(1), june10.AddDays(5), "", admin.ID)
	require.NoError(t, err)

	for offset := 1; offset <= 5; offset++ {
		rec, err := s.GetRecord(ctx, admin.ID, june10.AddDays(offset))
		require.NoError(t, err)
		assert.Nil(t, rec, "today+%d", offset)
	}
}

// =============================================================================
// COVERAGE AND DELETION TESTS
// =============================================================================

func TestIsMandated_OverlappingPeriods(t *testing.T) {
	// GIVEN: Two overlapping periods
	// WHEN: Checking coverage
	// THEN: Any date inside either period is mandated

	s := newStore()
	ctx := context.Background()
	seedPeriod(t, s, plan.NewDay(2024, time.June, 12), plan.NewDay(2024, time.June, 15))
	seedPeriod(t, s, plan.NewDay(2024, time.June, 14), plan.NewDay(2024, time.June, 18))
	engine := &plan.WFHEngine{Store: s, Clock: fixedClock(june10)}

	for _, day := range []int{12, 14, 15, 18} {
		mandated, err := engine.IsMandated(ctx, plan.NewDay(2024, time.June, day))
		require.NoError(t, err)
		assert.True(t, mandated, "June %d", day)
	}
	mandated, err := engine.IsMandated(ctx, plan.NewDay(2024, time.June, 19))
	require.NoError(t, err)
	assert.False(t, mandated)
}

func TestDeletePeriod_NoRetroactiveCleanup(t *testing.T) {
	// GIVEN: A period covering today was applied, then deleted
	// WHEN: Looking at today's records
	// THEN: The mandated records stay as written

	s := newStore()
	ctx := context.Background()
	admin := seedUser(t, s, "admin", plan.RoleAdmin, nil)
	engine := &plan.WFHEngine{Store: s, Clock: fixedClock(june10)}

	p, err := engine.CreatePeriod(ctx, june10, june10, "", admin.ID)
	require.NoError(t, err)
	require.NoError(t, engine.DeletePeriod(ctx, p.ID))

	rec, err := s.GetRecord(ctx, admin.ID, june10)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.WorkFromHome, "materialized records survive period deletion")

	mandated, err := engine.IsMandated(ctx, june10)
	require.NoError(t, err)
	assert.False(t, mandated, "coverage is gone after deletion")

	assert.ErrorIs(t, engine.DeletePeriod(ctx, p.ID), plan.ErrPeriodNotFound)
}
