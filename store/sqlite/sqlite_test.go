package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/mealplan-engine/plan"
	"github.com/warp/mealplan-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func saveUser(t *testing.T, s *sqlite.Store, name string) plan.User {
	t.Helper()
	now := time.Now().UTC()
	u := plan.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Role:         plan.RoleEmployee,
		Status:       plan.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.SaveUser(context.Background(), &u))
	return u
}

// =============================================================================
// USER AND TEAM TESTS
// =============================================================================

func TestSQLite_UserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := saveUser(t, s, "alice")
	require.NotZero(t, u.ID)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Name)
	assert.Nil(t, got.TeamID)

	got, err = s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	missing, err := s.GetUser(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing, "absent user is (nil, nil)")
}

func TestSQLite_DuplicateEmailFailsAtConstraint(t *testing.T) {
	s := newTestStore(t)
	saveUser(t, s, "alice")

	now := time.Now().UTC()
	dup := plan.User{Name: "clone", Email: "alice@example.com", PasswordHash: "x",
		Role: plan.RoleEmployee, Status: plan.StatusActive, CreatedAt: now, UpdatedAt: now}
	assert.Error(t, s.SaveUser(context.Background(), &dup))
}

func TestSQLite_DeleteUserCascadesRecords(t *testing.T) {
	// GIVEN: A user with a meal record
	// WHEN: The user is deleted
	// THEN: The record is gone with them

	s := newTestStore(t)
	ctx := context.Background()
	u := saveUser(t, s, "alice")
	date := plan.NewDay(2024, time.June, 12)

	rec := plan.MealRecord{UserID: u.ID, Date: date, Lunch: plan.Opted(true), UpdatedAt: time.Now().UTC()}
	require.NoError(t, s.UpsertRecord(ctx, &rec))
	require.NoError(t, s.DeleteUser(ctx, u.ID))

	got, err := s.GetRecord(ctx, u.ID, date)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_TeamLeadLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := saveUser(t, s, "lead")

	team := plan.Team{Name: "Engineering", LeadID: &u.ID}
	require.NoError(t, s.SaveTeam(ctx, &team))

	got, err := s.GetTeamByLead(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, team.ID, got.ID)

	none, err := s.GetTeamByLead(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, none)
}

// =============================================================================
// RECORD TESTS
// =============================================================================

func TestSQLite_RecordTriStateRoundTrip(t *testing.T) {
	// GIVEN: A record mixing opted, n/a, and unset meal values
	// WHEN: Round-tripping through SQLite
	// THEN: Opted values survive; n/a and unset both come back unset (NULL)

	s := newTestStore(t)
	ctx := context.Background()
	u := saveUser(t, s, "alice")
	date := plan.NewDay(2024, time.June, 12)
	lead := saveUser(t, s, "bob")

	rec := plan.MealRecord{
		UserID:           u.ID,
		Date:             date,
		Lunch:            plan.Opted(true),
		Snacks:           plan.Opted(false),
		Iftar:            plan.NotApplicable(),
		WorkFromHome:     true,
		LastModifiedBy:   &lead.ID,
		NotificationSent: true,
		UpdatedAt:        time.Now().UTC(),
	}
	require.NoError(t, s.UpsertRecord(ctx, &rec))

	got, err := s.GetRecord(ctx, u.ID, date)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, got.Lunch.OptedIn())
	in, ok := got.Snacks.Bool()
	assert.True(t, ok)
	assert.False(t, in)
	assert.True(t, got.Iftar.IsUnset(), "n/a stores as NULL and loads as unset")
	assert.True(t, got.EventDinner.IsUnset())
	assert.True(t, got.WorkFromHome)
	assert.True(t, got.NotificationSent)
	require.NotNil(t, got.LastModifiedBy)
	assert.Equal(t, lead.ID, *got.LastModifiedBy)
}

func TestSQLite_UpsertRecordLastWriteWins(t *testing.T) {
	// GIVEN: A record already stored for (user, date)
	// WHEN: A second upsert lands on the same key
	// THEN: One row remains, holding the later values

	s := newTestStore(t)
	ctx := context.Background()
	u := saveUser(t, s, "alice")
	date := plan.NewDay(2024, time.June, 12)

	first := plan.MealRecord{UserID: u.ID, Date: date, Lunch: plan.Opted(true), UpdatedAt: time.Now().UTC()}
	require.NoError(t, s.UpsertRecord(ctx, &first))

	second := plan.MealRecord{UserID: u.ID, Date: date, Lunch: plan.Opted(false), WorkFromHome: true, UpdatedAt: time.Now().UTC()}
	require.NoError(t, s.UpsertRecord(ctx, &second))

	all, err := s.ListRecordsByDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Lunch.OptedIn())
	assert.True(t, all[0].WorkFromHome)
}

func TestSQLite_ListRecordsByUserRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := saveUser(t, s, "alice")

	for day := 10; day <= 14; day++ {
		rec := plan.MealRecord{UserID: u.ID, Date: plan.NewDay(2024, time.June, day), UpdatedAt: time.Now().UTC()}
		require.NoError(t, s.UpsertRecord(ctx, &rec))
	}

	rng := plan.DayRange{Start: plan.NewDay(2024, time.June, 11), End: plan.NewDay(2024, time.June, 13)}
	got, err := s.ListRecordsByUserRange(ctx, u.ID, rng)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-06-11", got[0].Date.String())
	assert.Equal(t, "2024-06-13", got[2].Date.String())
}

// =============================================================================
// SCHEDULE AND PERIOD TESTS
// =============================================================================

func TestSQLite_ScheduleUpsertByDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	date := plan.NewDay(2024, time.June, 12)

	first := plan.MealSchedule{Date: date, Flags: plan.Schedule{Lunch: true}, CreatedBy: 1}
	require.NoError(t, s.UpsertSchedule(ctx, &first))
	second := plan.MealSchedule{Date: date, Flags: plan.Schedule{Iftar: true, Occasion: "Ramadan"}, CreatedBy: 2}
	require.NoError(t, s.UpsertSchedule(ctx, &second))
	assert.Equal(t, first.ID, second.ID)

	got, err := s.GetScheduleByDate(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Flags.Lunch)
	assert.True(t, got.Flags.Iftar)
	assert.Equal(t, "Ramadan", got.Flags.Occasion)
}

func TestSQLite_FindPeriodCovering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := plan.WFHPeriod{
		DateFrom:  plan.NewDay(2024, time.June, 12),
		DateTo:    plan.NewDay(2024, time.June, 15),
		Note:      "office move",
		CreatedBy: 1,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SavePeriod(ctx, &p))

	got, err := s.FindPeriodCovering(ctx, plan.NewDay(2024, time.June, 13))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "office move", got.Note)

	none, err := s.FindPeriodCovering(ctx, plan.NewDay(2024, time.June, 16))
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, s.DeletePeriod(ctx, p.ID))
	assert.ErrorIs(t, s.DeletePeriod(ctx, p.ID), plan.ErrPeriodNotFound)
}
