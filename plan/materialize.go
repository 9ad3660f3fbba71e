/*
materialize.go - Nightly record materialization

PURPOSE:
  Ensures every ACTIVE user has a record for "tomorrow". Existing records
  keep every explicit choice; only unset fields are filled from the
  resolved schedule defaults. Missing records are created wholesale with
  LastModifiedBy nil (system-generated).

WFH INTERACTION:
  If a global WFH period covers tomorrow, the defaults become the mandated
  shape (all meals off, WorkFromHome on). This is how future-dated periods
  are fulfilled lazily: each covered date gets its records the night it
  becomes "tomorrow".

FAILURE BOUNDARY:
  One error aborts the remaining per-user work for the run. No retry
  within the run; the next scheduled run reprocesses tomorrow (now
  shifted) idempotently for any still-missing records.

SEE ALSO:
  - wfh.go:           Eager application for "today"
  - api/scheduler.go: The timer that invokes MaterializeTomorrow
*/
package plan

import (
	"context"
	"time"
)

// MaterializeResult summarizes one run.
type MaterializeResult struct {
	Date    Day
	Created int
	Updated int
}

// Materializer is the idempotent entry point for the nightly job. Any
// trigger (timer, manual admin action, test harness) calls the same method.
type Materializer struct {
	Store Store

	// Clock overrides "today" in tests. Nil means plan.Today.
	Clock func() Day
}

func NewMaterializer(store Store) *Materializer {
	return &Materializer{Store: store}
}

func (m *Materializer) today() Day {
	if m.Clock != nil {
		return m.Clock()
	}
	return Today()
}

// MaterializeTomorrow ensures a record exists for tomorrow for every
// ACTIVE user, filling only unset fields on records that already exist.
func (m *Materializer) MaterializeTomorrow(ctx context.Context) (MaterializeResult, error) {
	tomorrow := m.today().AddDays(1)
	res := MaterializeResult{Date: tomorrow}

	resolver := &ScheduleResolver{Store: m.Store}
	sched, err := resolver.Resolve(ctx, tomorrow)
	if err != nil {
		return res, err
	}

	period, err := m.Store.FindPeriodCovering(ctx, tomorrow)
	if err != nil {
		return res, err
	}
	mandated := period != nil

	users, err := m.Store.ListActiveUsers(ctx)
	if err != nil {
		return res, err
	}

	for _, u := range users {
		created, err := m.materializeUser(ctx, u.ID, tomorrow, sched, mandated)
		if err != nil {
			return res, err
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

func (m *Materializer) materializeUser(ctx context.Context, userID UserID, date Day, sched Schedule, mandated bool) (created bool, err error) {
	existing, err := m.Store.GetRecord(ctx, userID, date)
	if err != nil {
		return false, err
	}

	if existing == nil {
		rec := m.defaultRecord(userID, date, sched, mandated)
		return true, m.Store.UpsertRecord(ctx, rec)
	}

	// Fill only unset fields; an explicit user choice is never overwritten.
	rec := *existing
	for _, mt := range MealTypes {
		if rec.Meal(mt).IsUnset() {
			rec.SetMeal(mt, defaultChoice(sched, mt, mandated))
		}
	}
	if mandated {
		rec.WorkFromHome = true
	}
	rec.UpdatedAt = time.Now().UTC()
	return false, m.Store.UpsertRecord(ctx, &rec)
}

// defaultRecord builds a fresh system record from the resolved schedule.
func (m *Materializer) defaultRecord(userID UserID, date Day, sched Schedule, mandated bool) *MealRecord {
	if mandated {
		return MandatedWFHRecord(userID, date)
	}
	rec := &MealRecord{
		UserID:    userID,
		Date:      date,
		UpdatedAt: time.Now().UTC(),
	}
	for _, mt := range MealTypes {
		rec.SetMeal(mt, defaultChoice(sched, mt, false))
	}
	return rec
}

// defaultChoice derives the system default for one meal field: opted in
// when the schedule serves it, n/a when it does not, off under a mandate.
func defaultChoice(sched Schedule, mt MealType, mandated bool) Choice {
	if mandated {
		return Opted(false)
	}
	if !sched.Enabled(mt) {
		return NotApplicable()
	}
	return Opted(true)
}
