package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/mealplan-engine/api"
	"github.com/warp/mealplan-engine/plan"
	"github.com/warp/mealplan-engine/plan/store"
)

func TestSchedulerRunNow(t *testing.T) {
	// GIVEN: One active user and no record for tomorrow
	// WHEN: The scheduler fires manually
	// THEN: Tomorrow's record exists afterwards

	s := store.NewMemory()
	ctx := context.Background()
	u := plan.User{Name: "alice", Email: "alice@example.com", Role: plan.RoleEmployee, Status: plan.StatusActive}
	require.NoError(t, s.SaveUser(ctx, &u))

	scheduler := api.NewNightlyScheduler(plan.NewMaterializer(s))
	scheduler.RunNow()

	rec, err := s.GetRecord(ctx, u.ID, plan.Tomorrow())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Lunch.OptedIn())
}

func TestSchedulerStartStop_Disabled(t *testing.T) {
	// Disabled scheduler must not panic on Start/Stop.
	scheduler := api.NewNightlyScheduler(plan.NewMaterializer(store.NewMemory()))
	scheduler.Enabled = false
	scheduler.Start()
	scheduler.Stop()
}
