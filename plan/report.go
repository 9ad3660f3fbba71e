/*
report.go - Aggregation and reporting engine

PURPOSE:
  Reconciles the record/schedule/WFH layers into the views logistics and
  admins consume: daily headcounts for catering, employee-level daily
  participation, per-user monthly statistics, and the bulk record editor.

COUNTING RULES:
  - A meal counts only when explicitly opted in; unset and n/a never count
  - OverallTotal sums meal counts across types, NOT unique people
  - Users without a team are excluded from the team breakdown but still
    counted in totals
  - The WFH monthly allowance is a fixed business constant (5 days)

BULK SEMANTICS:
  Four canned actions applied per user, one upsert each, no cross-row
  transaction. A team-scoped caller is rejected before any write if even
  one target is outside their team; a mid-batch store failure leaves
  earlier targets updated (documented, not rolled back).

SEE ALSO:
  - record.go: Single-record write path with the stricter WFH block
*/
package plan

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// WFHMonthlyLimit is the number of WFH days per month an employee may take
// before counting as over limit.
const WFHMonthlyLimit = 5

// ReportEngine computes aggregate views over records, users and teams.
type ReportEngine struct {
	Store Store

	// Clock overrides "today" in tests. Nil means plan.Today.
	Clock func() Day
}

func NewReportEngine(store Store) *ReportEngine {
	return &ReportEngine{Store: store}
}

func (e *ReportEngine) today() Day {
	if e.Clock != nil {
		return e.Clock()
	}
	return Today()
}

// =============================================================================
// DAILY HEADCOUNT
// =============================================================================

// MealCounts is a per-meal-type tally.
type MealCounts struct {
	Lunch          int
	Snacks         int
	Iftar          int
	EventDinner    int
	OptionalDinner int
}

func (c *MealCounts) add(r *MealRecord) {
	if r.Lunch.OptedIn() {
		c.Lunch++
	}
	if r.Snacks.OptedIn() {
		c.Snacks++
	}
	if r.Iftar.OptedIn() {
		c.Iftar++
	}
	if r.EventDinner.OptedIn() {
		c.EventDinner++
	}
	if r.OptionalDinner.OptedIn() {
		c.OptionalDinner++
	}
}

// Total sums the counts across all meal types.
func (c MealCounts) Total() int {
	return c.Lunch + c.Snacks + c.Iftar + c.EventDinner + c.OptionalDinner
}

// TeamMealCounts is one team's share of a day's headcount.
type TeamMealCounts struct {
	TeamID     TeamID
	TeamName   string
	Meals      MealCounts
	TotalMeals int
}

// LocationSplit partitions a day's records by work location.
type LocationSplit struct {
	Office int
	WFH    int
}

// Headcount is the catering view for one date.
type Headcount struct {
	Date          Day
	MealTotals    MealCounts
	TeamBreakdown []TeamMealCounts
	Location      LocationSplit
	OverallTotal  int

	// OfficeShare is the percentage of the day's records planning to be in
	// the office, to two decimal places. Zero when there are no records.
	OfficeShare decimal.Decimal

	GlobalWFHActive bool
	GlobalWFHNote   string
	Occasion        string
}

// DailyHeadcount aggregates every record for a date into catering totals.
func (e *ReportEngine) DailyHeadcount(ctx context.Context, date Day) (*Headcount, error) {
	records, err := e.Store.ListRecordsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	users, err := e.Store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := e.Store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}

	teamOf := make(map[UserID]*TeamID, len(users))
	for i := range users {
		teamOf[users[i].ID] = users[i].TeamID
	}
	teamName := make(map[TeamID]string, len(teams))
	for _, t := range teams {
		teamName[t.ID] = t.Name
	}

	hc := &Headcount{Date: date}
	perTeam := make(map[TeamID]*TeamMealCounts)

	for i := range records {
		r := &records[i]
		hc.MealTotals.add(r)
		if r.WorkFromHome {
			hc.Location.WFH++
		} else {
			hc.Location.Office++
		}

		teamID := teamOf[r.UserID]
		if teamID == nil {
			continue // no team: excluded from breakdown, counted in totals
		}
		tc, ok := perTeam[*teamID]
		if !ok {
			tc = &TeamMealCounts{TeamID: *teamID, TeamName: teamName[*teamID]}
			perTeam[*teamID] = tc
		}
		tc.Meals.add(r)
	}

	hc.OverallTotal = hc.MealTotals.Total()

	for _, tc := range perTeam {
		tc.TotalMeals = tc.Meals.Total()
		hc.TeamBreakdown = append(hc.TeamBreakdown, *tc)
	}
	sort.Slice(hc.TeamBreakdown, func(i, j int) bool {
		return hc.TeamBreakdown[i].TeamName < hc.TeamBreakdown[j].TeamName
	})

	if n := len(records); n > 0 {
		hc.OfficeShare = decimal.NewFromInt(int64(hc.Location.Office * 100)).
			DivRound(decimal.NewFromInt(int64(n)), 2)
	}

	period, err := e.Store.FindPeriodCovering(ctx, date)
	if err != nil {
		return nil, err
	}
	if period != nil {
		hc.GlobalWFHActive = true
		hc.GlobalWFHNote = period.Note
	}

	resolver := &ScheduleResolver{Store: e.Store}
	sched, err := resolver.Resolve(ctx, date)
	if err != nil {
		return nil, err
	}
	hc.Occasion = sched.Occasion

	return hc, nil
}

// =============================================================================
// DAILY PARTICIPATION
// =============================================================================

// ParticipationEntry is one employee's row in the daily participation
// view. Meals are nil-valued Choices when no record exists.
type ParticipationEntry struct {
	UserID   UserID
	Name     string
	TeamName string

	WorkFromHome bool
	Meals        map[MealType]Choice

	// LastModifiedByName is nil when no record exists, "System" for
	// cron-generated records, else the modifier's display name.
	LastModifiedByName *string

	WFHDaysThisMonth int
	OverWFHLimit     bool
}

// Participation is the employee-level daily view.
type Participation struct {
	Date      Day
	Employees []ParticipationEntry

	WFHOverLimitCount int
	TotalExtraWFHDays int
}

// DailyParticipation lists every ACTIVE user for a date with left-join
// semantics: users with no record still appear, with all meals unset and
// WorkFromHome false. teamID narrows the view to one team.
func (e *ReportEngine) DailyParticipation(ctx context.Context, date Day, teamID *TeamID) (*Participation, error) {
	users, err := e.Store.ListActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	records, err := e.Store.ListRecordsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	teams, err := e.Store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}

	recordOf := make(map[UserID]*MealRecord, len(records))
	for i := range records {
		recordOf[records[i].UserID] = &records[i]
	}
	teamName := make(map[TeamID]string, len(teams))
	for _, t := range teams {
		teamName[t.ID] = t.Name
	}
	nameOf := make(map[UserID]string)
	all, err := e.Store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range all {
		nameOf[u.ID] = u.Name
	}

	month := MonthRangeOf(e.today())
	out := &Participation{Date: date}

	for _, u := range users {
		if teamID != nil && (u.TeamID == nil || *u.TeamID != *teamID) {
			continue
		}

		entry := ParticipationEntry{
			UserID: u.ID,
			Name:   u.Name,
			Meals:  make(map[MealType]Choice, len(MealTypes)),
		}
		if u.TeamID != nil {
			entry.TeamName = teamName[*u.TeamID]
		}

		if rec := recordOf[u.ID]; rec != nil {
			entry.WorkFromHome = rec.WorkFromHome
			for _, m := range MealTypes {
				entry.Meals[m] = rec.Meal(m)
			}
			entry.LastModifiedByName = modifierName(rec.LastModifiedBy, nameOf)
		} else {
			for _, m := range MealTypes {
				entry.Meals[m] = Unset
			}
		}

		wfhDays, err := e.wfhDaysInRange(ctx, u.ID, month)
		if err != nil {
			return nil, err
		}
		entry.WFHDaysThisMonth = wfhDays
		entry.OverWFHLimit = wfhDays > WFHMonthlyLimit
		if entry.OverWFHLimit {
			out.WFHOverLimitCount++
			out.TotalExtraWFHDays += wfhDays - WFHMonthlyLimit
		}

		out.Employees = append(out.Employees, entry)
	}
	return out, nil
}

func modifierName(id *UserID, nameOf map[UserID]string) *string {
	var name string
	if id == nil {
		name = "System"
	} else if n, ok := nameOf[*id]; ok {
		name = n
	} else {
		name = "Unknown"
	}
	return &name
}

func (e *ReportEngine) wfhDaysInRange(ctx context.Context, userID UserID, r DayRange) (int, error) {
	records, err := e.Store.ListRecordsByUserRange(ctx, userID, r)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range records {
		if records[i].WorkFromHome {
			n++
		}
	}
	return n, nil
}

// =============================================================================
// MONTHLY STATS
// =============================================================================

// MonthlyStats partitions one user's current-month records into taken
// (date <= today) and planned (all records including future).
type MonthlyStats struct {
	Month string
	Year  int

	TotalMealsTaken   int
	TotalMealsPlanned int
	WFHDaysTaken      int
	WFHDaysPlanned    int

	// Breakdown covers taken records only.
	Breakdown MealCounts
}

// UserMonthlyStats computes the current-month statistics for one user.
func (e *ReportEngine) UserMonthlyStats(ctx context.Context, userID UserID) (*MonthlyStats, error) {
	today := e.today()
	month := MonthRangeOf(today)

	records, err := e.Store.ListRecordsByUserRange(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	stats := &MonthlyStats{
		Month: month.Start.Month().String(),
		Year:  month.Start.Year(),
	}
	for i := range records {
		r := &records[i]
		stats.TotalMealsPlanned += r.MealCount()
		if r.WorkFromHome {
			stats.WFHDaysPlanned++
		}
		if r.Date.BeforeOrEqual(today) {
			stats.TotalMealsTaken += r.MealCount()
			stats.Breakdown.add(r)
			if r.WorkFromHome {
				stats.WFHDaysTaken++
			}
		}
	}
	return stats, nil
}

// =============================================================================
// BULK UPDATE
// =============================================================================

// BulkAction is one of the canned multi-user record edits.
type BulkAction string

const (
	// BulkWFHAll turns every meal off and WFH on.
	BulkWFHAll BulkAction = "WFH_ALL"
	// BulkAllOff turns every meal and WFH off.
	BulkAllOff BulkAction = "ALL_OFF"
	// BulkSetAllMeals sets each meal to the resolved schedule's enabled
	// flag, WFH off.
	BulkSetAllMeals BulkAction = "SET_ALL_MEALS"
	// BulkUnsetAllMeals turns every meal off, WFH off.
	BulkUnsetAllMeals BulkAction = "UNSET_ALL_MEALS"
)

// BulkUpdate applies one action to many users' records for one date, one
// upsert per user. teamScope, when supplied (a team-lead caller), must
// contain every target or the whole operation fails before any write.
// Partial store failures leave earlier upserts in place.
func (e *ReportEngine) BulkUpdate(ctx context.Context, userIDs []UserID, date Day, action BulkAction, modifiedBy UserID, teamScope *TeamID) (int, error) {
	switch action {
	case BulkWFHAll, BulkAllOff, BulkSetAllMeals, BulkUnsetAllMeals:
	default:
		return 0, ErrUnknownAction
	}

	window := ValidWindowFrom(e.today())
	if !window.Contains(date) {
		return 0, &WindowError{Date: date, Window: window}
	}

	if teamScope != nil {
		var outsiders []UserID
		for _, id := range userIDs {
			u, err := e.Store.GetUser(ctx, id)
			if err != nil {
				return 0, err
			}
			if u == nil || u.TeamID == nil || *u.TeamID != *teamScope {
				outsiders = append(outsiders, id)
			}
		}
		if len(outsiders) > 0 {
			return 0, &TeamScopeError{TeamID: *teamScope, Outsiders: outsiders}
		}
	}

	resolver := &ScheduleResolver{Store: e.Store}
	sched, err := resolver.Resolve(ctx, date)
	if err != nil {
		return 0, err
	}

	modifier := modifiedBy
	updated := 0
	for _, id := range userIDs {
		rec := bulkRecord(id, date, action, sched)
		rec.LastModifiedBy = &modifier
		if err := e.Store.UpsertRecord(ctx, rec); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

func bulkRecord(userID UserID, date Day, action BulkAction, sched Schedule) *MealRecord {
	rec := &MealRecord{
		UserID:    userID,
		Date:      date,
		UpdatedAt: time.Now().UTC(),
	}
	for _, m := range MealTypes {
		switch action {
		case BulkSetAllMeals:
			rec.SetMeal(m, Opted(sched.Enabled(m)))
		default:
			rec.SetMeal(m, Opted(false))
		}
	}
	rec.WorkFromHome = action == BulkWFHAll
	return rec
}
