package plan_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/mealplan-engine/plan"
	"github.com/warp/mealplan-engine/plan/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func seedTeam(t *testing.T, s *store.Memory, name string) plan.Team {
	t.Helper()
	team := plan.Team{Name: name}
	require.NoError(t, s.SaveTeam(context.Background(), &team))
	return team
}

func seedRecord(t *testing.T, s *store.Memory, userID plan.UserID, date plan.Day, lunch, snacks, wfh bool) {
	t.Helper()
	rec := plan.MealRecord{
		UserID:       userID,
		Date:         date,
		Lunch:        plan.Opted(lunch),
		Snacks:       plan.Opted(snacks),
		WorkFromHome: wfh,
	}
	require.NoError(t, s.UpsertRecord(context.Background(), &rec))
}

// =============================================================================
// DAILY HEADCOUNT TESTS
// =============================================================================

func TestDailyHeadcount_TotalsAndBreakdown(t *testing.T) {
	// GIVEN: Two teams plus a teamless user with records for one date
	// WHEN: Aggregating the headcount
	// THEN: Totals include everyone; the breakdown covers teams only

	s := newStore()
	ctx := context.Background()
	eng := seedTeam(t, s, "Engineering")
	ops := seedTeam(t, s, "Operations")

	alice := seedUser(t, s, "alice", plan.RoleEmployee, &eng.ID)
	bob := seedUser(t, s, "bob", plan.RoleEmployee, &eng.ID)
	carol := seedUser(t, s, "carol", plan.RoleEmployee, &ops.ID)
	dave := seedUser(t, s, "dave", plan.RoleEmployee, nil) // no team

	date := plan.NewDay(2024, time.June, 12)
	seedRecord(t, s, alice.ID, date, true, true, false)
	seedRecord(t, s, bob.ID, date, true, false, true)
	seedRecord(t, s, carol.ID, date, false, true, false)
	seedRecord(t, s, dave.ID, date, true, true, false)

	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}
	hc, err := reports.DailyHeadcount(ctx, date)
	require.NoError(t, err)

	assert.Equal(t, 3, hc.MealTotals.Lunch)
	assert.Equal(t, 3, hc.MealTotals.Snacks)
	assert.Equal(t, 6, hc.OverallTotal, "overall total sums meal counts, not people")

	assert.Equal(t, 3, hc.Location.Office)
	assert.Equal(t, 1, hc.Location.WFH)
	assert.Equal(t, "75.00", hc.OfficeShare.StringFixed(2))

	require.Len(t, hc.TeamBreakdown, 2, "teamless users stay out of the breakdown")
	assert.Equal(t, "Engineering", hc.TeamBreakdown[0].TeamName)
	assert.Equal(t, 2, hc.TeamBreakdown[0].Meals.Lunch)
	assert.Equal(t, 3, hc.TeamBreakdown[0].TotalMeals)
	assert.Equal(t, "Operations", hc.TeamBreakdown[1].TeamName)
	assert.Equal(t, 1, hc.TeamBreakdown[1].TotalMeals)
}

func TestDailyHeadcount_GlobalWFHAndOccasion(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	date := plan.NewDay(2024, time.June, 12)
	p := plan.WFHPeriod{DateFrom: date, DateTo: date, Note: "office move", CreatedBy: 1}
	require.NoError(t, s.SavePeriod(ctx, &p))
	seedSchedule(t, s, date, plan.Schedule{Lunch: true, Occasion: "Founders day"})

	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}
	hc, err := reports.DailyHeadcount(ctx, date)
	require.NoError(t, err)

	assert.True(t, hc.GlobalWFHActive)
	assert.Equal(t, "office move", hc.GlobalWFHNote)
	assert.Equal(t, "Founders day", hc.Occasion)
	assert.Equal(t, "0.00", hc.OfficeShare.StringFixed(2), "no records, no share")
}

// =============================================================================
// DAILY PARTICIPATION TESTS
// =============================================================================

func TestDailyParticipation_LeftJoinSemantics(t *testing.T) {
	// GIVEN: Two active users, only one with a record; one inactive user
	// WHEN: Building the participation view
	// THEN: Both active users appear exactly once; the recordless one shows
	//       unset meals and a nil modifier name

	s := newStore()
	ctx := context.Background()
	alice := seedUser(t, s, "alice", plan.RoleEmployee, nil)
	seedUser(t, s, "bob", plan.RoleEmployee, nil)
	seedInactiveUser(t, s, "ghost")

	date := plan.NewDay(2024, time.June, 12)
	seedRecord(t, s, alice.ID, date, true, false, false)

	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}
	part, err := reports.DailyParticipation(ctx, date, nil)
	require.NoError(t, err)
	require.Len(t, part.Employees, 2)

	byName := map[string]plan.ParticipationEntry{}
	for _, e := range part.Employees {
		byName[e.Name] = e
	}

	withRec := byName["alice"]
	assert.True(t, withRec.Meals[plan.MealLunch].OptedIn())
	require.NotNil(t, withRec.LastModifiedByName)
	assert.Equal(t, "System", *withRec.LastModifiedByName)

	without := byName["bob"]
	assert.True(t, without.Meals[plan.MealLunch].IsUnset())
	assert.False(t, without.WorkFromHome)
	assert.Nil(t, without.LastModifiedByName)
}

func TestDailyParticipation_ModifierNameResolution(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	alice := seedUser(t, s, "alice", plan.RoleEmployee, nil)
	lead := seedUser(t, s, "bob", plan.RoleLead, nil)

	date := plan.NewDay(2024, time.June, 12)
	rec := plan.MealRecord{UserID: alice.ID, Date: date, Lunch: plan.Opted(true), LastModifiedBy: &lead.ID}
	require.NoError(t, s.UpsertRecord(ctx, &rec))

	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}
	part, err := reports.DailyParticipation(ctx, date, nil)
	require.NoError(t, err)

	for _, e := range part.Employees {
		if e.UserID == alice.ID {
			require.NotNil(t, e.LastModifiedByName)
			assert.Equal(t, "bob", *e.LastModifiedByName)
		}
	}
}

func TestDailyParticipation_WFHLimit(t *testing.T) {
	// GIVEN: Alice with exactly 5 WFH days this month, Bob with 6
	// WHEN: Building the participation view
	// THEN: Only Bob is over the limit, with one extra day counted

	s := newStore()
	ctx := context.Background()
	alice := seedUser(t, s, "alice", plan.RoleEmployee, nil)
	bob := seedUser(t, s, "bob", plan.RoleEmployee, nil)

	for i := 0; i < 5; i++ {
		seedRecord(t, s, alice.ID, plan.NewDay(2024, time.June, 3+i), false, false, true)
	}
	for i := 0; i < 6; i++ {
		seedRecord(t, s, bob.ID, plan.NewDay(2024, time.June, 3+i), false, false, true)
	}

	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}
	part, err := reports.DailyParticipation(ctx, plan.NewDay(2024, time.June, 12), nil)
	require.NoError(t, err)

	byName := map[string]plan.ParticipationEntry{}
	for _, e := range part.Employees {
		byName[e.Name] = e
	}
	assert.Equal(t, 5, byName["alice"].WFHDaysThisMonth)
	assert.False(t, byName["alice"].OverWFHLimit, "exactly at the limit is fine")
	assert.Equal(t, 6, byName["bob"].WFHDaysThisMonth)
	assert.True(t, byName["bob"].OverWFHLimit)

	assert.Equal(t, 1, part.WFHOverLimitCount)
	assert.Equal(t, 1, part.TotalExtraWFHDays)
}

func TestDailyParticipation_TeamFilter(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	eng := seedTeam(t, s, "Engineering")
	seedUser(t, s, "alice", plan.RoleEmployee, &eng.ID)
	seedUser(t, s, "bob", plan.RoleEmployee, nil)

	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}
	part, err := reports.DailyParticipation(ctx, plan.NewDay(2024, time.June, 12), &eng.ID)
	require.NoError(t, err)
	require.Len(t, part.Employees, 1)
	assert.Equal(t, "alice", part.Employees[0].Name)
}

// =============================================================================
// MONTHLY STATS TESTS
// =============================================================================

func TestUserMonthlyStats_TakenVersusPlanned(t *testing.T) {
	// GIVEN: Today is June 10; records on June 5 (past), 10 (today), 15 (future)
	// WHEN: Computing monthly stats
	// THEN: Taken covers dates <= today, planned covers the whole month

	s := newStore()
	ctx := context.Background()
	alice := seedUser(t, s, "alice", plan.RoleEmployee, nil)

	seedRecord(t, s, alice.ID, plan.NewDay(2024, time.June, 5), true, true, false)  // 2 meals
	seedRecord(t, s, alice.ID, plan.NewDay(2024, time.June, 10), true, false, true) // 1 meal, WFH
	seedRecord(t, s, alice.ID, plan.NewDay(2024, time.June, 15), true, true, true)  // future
	// Last month's record must not count.
	seedRecord(t, s, alice.ID, plan.NewDay(2024, time.May, 30), true, true, false)

	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}
	stats, err := reports.UserMonthlyStats(ctx, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, "June", stats.Month)
	assert.Equal(t, 2024, stats.Year)
	assert.Equal(t, 3, stats.TotalMealsTaken)
	assert.Equal(t, 5, stats.TotalMealsPlanned)
	assert.Equal(t, 1, stats.WFHDaysTaken)
	assert.Equal(t, 2, stats.WFHDaysPlanned)
	assert.Equal(t, 2, stats.Breakdown.Lunch, "breakdown is taken-only")
	assert.Equal(t, 1, stats.Breakdown.Snacks)
}

// =============================================================================
// BULK UPDATE TESTS
// =============================================================================

func TestBulkUpdate_WFHAll(t *testing.T) {
	// GIVEN: A lead and two team members, target date June 12
	// WHEN: Applying WFH_ALL to both
	// THEN: Both records are all-off + WFH, stamped with the lead

	s := newStore()
	ctx := context.Background()
	eng := seedTeam(t, s, "Engineering")
	lead := seedUser(t, s, "lead", plan.RoleLead, &eng.ID)
	alice := seedUser(t, s, "alice", plan.RoleEmployee, &eng.ID)
	bob := seedUser(t, s, "bob", plan.RoleEmployee, &eng.ID)

	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}
	date := plan.NewDay(2024, time.June, 12)

	updated, err := reports.BulkUpdate(ctx, []plan.UserID{alice.ID, bob.ID}, date, plan.BulkWFHAll, lead.ID, &eng.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	for _, id := range []plan.UserID{alice.ID, bob.ID} {
		rec, err := s.GetRecord(ctx, id, date)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.True(t, rec.WorkFromHome)
		assert.False(t, rec.Lunch.OptedIn())
		require.NotNil(t, rec.LastModifiedBy)
		assert.Equal(t, lead.ID, *rec.LastModifiedBy)
	}
}

func TestBulkUpdate_AllOff(t *testing.T) {
	// GIVEN: A lead and two team members, target date June 12
	// WHEN: Applying ALL_OFF to both
	// THEN: Every meal is explicitly out, WFH stays off, stamped with the lead

	s := newStore()
	ctx := context.Background()
	eng := seedTeam(t, s, "Engineering")
	lead := seedUser(t, s, "lead", plan.RoleLead, &eng.ID)
	alice := seedUser(t, s, "alice", plan.RoleEmployee, &eng.ID)
	bob := seedUser(t, s, "bob", plan.RoleEmployee, &eng.ID)

	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}
	date := plan.NewDay(2024, time.June, 12)

	updated, err := reports.BulkUpdate(ctx, []plan.UserID{alice.ID, bob.ID}, date, plan.BulkAllOff, lead.ID, &eng.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	for _, id := range []plan.UserID{alice.ID, bob.ID} {
		rec, err := s.GetRecord(ctx, id, date)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.False(t, rec.WorkFromHome)
		for _, m := range plan.MealTypes {
			in, ok := rec.Meal(m).Bool()
			assert.True(t, ok, "meal %s is explicitly set", m)
			assert.False(t, in, "meal %s is out", m)
		}
		require.NotNil(t, rec.LastModifiedBy)
		assert.Equal(t, lead.ID, *rec.LastModifiedBy)
	}
}

func TestBulkUpdate_SetAllMealsTracksSchedule(t *testing.T) {
	// GIVEN: June 12 serves lunch and iftar only
	// WHEN: Applying SET_ALL_MEALS
	// THEN: Served meals go in, unserved go explicitly out, WFH off

	s := newStore()
	ctx := context.Background()
	admin := seedUser(t, s, "admin", plan.RoleAdmin, nil)
	alice := seedUser(t, s, "alice", plan.RoleEmployee, nil)
	date := plan.NewDay(2024, time.June, 12)
	seedSchedule(t, s, date, plan.Schedule{Lunch: true, Iftar: true})

	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}
	_, err := reports.BulkUpdate(ctx, []plan.UserID{alice.ID}, date, plan.BulkSetAllMeals, admin.ID, nil)
	require.NoError(t, err)

	rec, err := s.GetRecord(ctx, alice.ID, date)
	require.NoError(t, err)
	assert.True(t, rec.Lunch.OptedIn())
	assert.True(t, rec.Iftar.OptedIn())
	assert.False(t, rec.Snacks.OptedIn())
	assert.False(t, rec.WorkFromHome)
}

func TestBulkUpdate_UnknownActionRejected(t *testing.T) {
	s := newStore()
	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}

	_, err := reports.BulkUpdate(context.Background(), []plan.UserID{1}, june10.AddDays(1), "EVERYONE_PARTY", 1, nil)
	assert.ErrorIs(t, err, plan.ErrUnknownAction)
}

func TestBulkUpdate_OutsideWindowRejected(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	alice := seedUser(t, s, "alice", plan.RoleEmployee, nil)
	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}

	_, err := reports.BulkUpdate(ctx, []plan.UserID{alice.ID}, june10, plan.BulkAllOff, 1, nil)
	assert.ErrorIs(t, err, plan.ErrOutsideWindow)

	rec, err := s.GetRecord(ctx, alice.ID, june10)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestBulkUpdate_TeamScopeFailsBeforeAnyWrite(t *testing.T) {
	// GIVEN: A lead targeting one teammate and one outsider
	// WHEN: Applying a bulk action scoped to the lead's team
	// THEN: The whole batch fails; even the teammate's record is untouched

	s := newStore()
	ctx := context.Background()
	eng := seedTeam(t, s, "Engineering")
	ops := seedTeam(t, s, "Operations")
	lead := seedUser(t, s, "lead", plan.RoleLead, &eng.ID)
	alice := seedUser(t, s, "alice", plan.RoleEmployee, &eng.ID)
	carol := seedUser(t, s, "carol", plan.RoleEmployee, &ops.ID)

	reports := &plan.ReportEngine{Store: s, Clock: fixedClock(june10)}
	date := plan.NewDay(2024, time.June, 12)

	_, err := reports.BulkUpdate(ctx, []plan.UserID{alice.ID, carol.ID}, date, plan.BulkAllOff, lead.ID, &eng.ID)
	assert.ErrorIs(t, err, plan.ErrOutOfTeam)

	var scopeErr *plan.TeamScopeError
	require.ErrorAs(t, err, &scopeErr)
	assert.Equal(t, []plan.UserID{carol.ID}, scopeErr.Outsiders)

	rec, err := s.GetRecord(ctx, alice.ID, date)
	require.NoError(t, err)
	assert.Nil(t, rec, "scope check must run before any write")
}
