/*
record.go - The record merge engine

PURPOSE:
  The single write path for meal records outside of bulk/WFH application.
  Layers the caller's requested values over the date's resolved schedule:
  inapplicable meal types are forced to n/a no matter what was requested,
  applicable ones store whatever the caller supplied (including unset).

RULES ENFORCED HERE:
  1. The target date must be inside the valid window (tomorrow..tomorrow+6)
  2. Dates covered by a company-wide WFH period reject meal edits entirely;
     those days are written by the WFH engine or the nightly job instead
  3. Every write resets NotificationSent - an edit invalidates any prior
     "notified" state
  4. All checks run before the write; a failed upsert leaves no half state

WRITE SEMANTICS:
  Upsert keyed by (user, date): create if absent, else overwrite all five
  meal fields, WorkFromHome, and LastModifiedBy. WorkFromHome keeps its
  previous value (false for a new record) when the caller omits it.

SEE ALSO:
  - schedule.go:    Applicability resolution
  - materialize.go: The only other writer of system records
*/
package plan

import (
	"context"
	"time"
)

// RecordUpdate carries the requested values for an upsert. Meal fields are
// tri-state Choices; WorkFromHome nil means "keep previous value".
type RecordUpdate struct {
	Lunch          Choice
	Snacks         Choice
	Iftar          Choice
	EventDinner    Choice
	OptionalDinner Choice
	WorkFromHome   *bool
}

// Meal returns the requested choice for a meal type.
func (u RecordUpdate) Meal(m MealType) Choice {
	switch m {
	case MealLunch:
		return u.Lunch
	case MealSnacks:
		return u.Snacks
	case MealIftar:
		return u.Iftar
	case MealEventDinner:
		return u.EventDinner
	case MealOptionalDinner:
		return u.OptionalDinner
	}
	return Unset
}

// RecordEngine writes meal records with schedule-aware merge semantics.
type RecordEngine struct {
	Store Store

	// Clock overrides "today" in tests. Nil means plan.Today.
	Clock func() Day
}

func NewRecordEngine(store Store) *RecordEngine {
	return &RecordEngine{Store: store}
}

func (e *RecordEngine) today() Day {
	if e.Clock != nil {
		return e.Clock()
	}
	return Today()
}

// Upsert creates or overwrites the record for (userID, date).
// modifiedBy nil means a self-service edit by the owning employee; non-nil
// is a proxy edit whose authorization the caller has already checked.
func (e *RecordEngine) Upsert(ctx context.Context, userID UserID, date Day, upd RecordUpdate, modifiedBy *UserID) (*MealRecord, error) {
	window := ValidWindowFrom(e.today())
	if !window.Contains(date) {
		return nil, &WindowError{Date: date, Window: window}
	}

	period, err := e.Store.FindPeriodCovering(ctx, date)
	if err != nil {
		return nil, err
	}
	if period != nil {
		return nil, &MandateError{Date: date, PeriodID: period.ID}
	}

	resolver := &ScheduleResolver{Store: e.Store}
	sched, err := resolver.Resolve(ctx, date)
	if err != nil {
		return nil, err
	}

	existing, err := e.Store.GetRecord(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	rec := &MealRecord{UserID: userID, Date: date}
	if existing != nil {
		rec.WorkFromHome = existing.WorkFromHome
	}

	for _, m := range MealTypes {
		if !sched.Enabled(m) {
			rec.SetMeal(m, NotApplicable())
			continue
		}
		rec.SetMeal(m, upd.Meal(m))
	}

	if upd.WorkFromHome != nil {
		rec.WorkFromHome = *upd.WorkFromHome
	}

	rec.LastModifiedBy = modifiedBy
	rec.NotificationSent = false
	rec.UpdatedAt = time.Now().UTC()

	if err := e.Store.UpsertRecord(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// =============================================================================
// SEVEN-DAY SELF-SERVICE VIEW
// =============================================================================

// WeekDay is one day of an employee's editable window: the current values
// (record if present, defaults otherwise) plus availability flags from the
// resolved schedule.
type WeekDay struct {
	Date         Day
	Values       map[MealType]Choice
	Available    Schedule
	WorkFromHome bool
	Occasion     string
	RecordExists bool
}

// WeekView builds the 7-day grid for one user: every window day appears,
// whether or not a record exists yet.
func (e *RecordEngine) WeekView(ctx context.Context, userID UserID) ([]WeekDay, error) {
	window := ValidWindowFrom(e.today())

	records, err := e.Store.ListRecordsByUserRange(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	byDate := make(map[Day]*MealRecord, len(records))
	for i := range records {
		byDate[records[i].Date] = &records[i]
	}

	resolver := &ScheduleResolver{Store: e.Store}
	schedules, err := resolver.ResolveRange(ctx, window)
	if err != nil {
		return nil, err
	}

	var days []WeekDay
	for _, d := range window.Days() {
		sched := schedules[d]
		rec := byDate[d]

		day := WeekDay{
			Date:         d,
			Values:       make(map[MealType]Choice, len(MealTypes)),
			Available:    sched,
			Occasion:     sched.Occasion,
			RecordExists: rec != nil,
		}
		for _, m := range MealTypes {
			day.Values[m] = defaultedChoice(rec, m)
		}
		if rec != nil {
			day.WorkFromHome = rec.WorkFromHome
		}
		days = append(days, day)
	}
	return days, nil
}

// defaultedChoice returns the record's explicit value when one exists,
// otherwise the company-default participation for the meal type.
func defaultedChoice(rec *MealRecord, m MealType) Choice {
	if rec != nil {
		if c := rec.Meal(m); c.IsOpted() {
			return c
		}
	}
	return Opted(DefaultSchedule.Enabled(m))
}
