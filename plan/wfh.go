/*
wfh.go - Company-wide work-from-home period engine

PURPOSE:
  Validates and applies global WFH date ranges. Creation applies "today"
  immediately; future in-range dates are left to the nightly job, which
  picks each one up as it becomes "tomorrow".

LAZY MATERIALIZATION:
  Only today is written eagerly. Writing every future row up front would
  create thousands of records that admin changes to the period or the
  roster could invalidate; the nightly job writes each day exactly once,
  from current state.

DELETE CAVEAT:
  DeletePeriod is a hard delete. Records already materialized for past or
  already-processed dates stay as written; there is no retroactive undo.

SEE ALSO:
  - record.go:      Rejects direct meal edits on mandated dates
  - materialize.go: Applies future-dated periods as they roll in
*/
package plan

import (
	"context"
	"time"
)

// WFHEngine manages global WFH periods.
type WFHEngine struct {
	Store Store

	// Clock overrides "today" in tests. Nil means plan.Today.
	Clock func() Day
}

func NewWFHEngine(store Store) *WFHEngine {
	return &WFHEngine{Store: store}
}

func (e *WFHEngine) today() Day {
	if e.Clock != nil {
		return e.Clock()
	}
	return Today()
}

// CreatePeriod validates and persists a period. If today falls inside the
// range, a WFH record (all meals off, WorkFromHome on) is upserted for
// every ACTIVE user immediately; future dates are not touched.
func (e *WFHEngine) CreatePeriod(ctx context.Context, from, to Day, note string, createdBy UserID) (*WFHPeriod, error) {
	if to.Before(from) {
		return nil, &RangeError{From: from, To: to}
	}

	p := &WFHPeriod{
		DateFrom:  from,
		DateTo:    to,
		Note:      note,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.Store.SavePeriod(ctx, p); err != nil {
		return nil, err
	}

	today := e.today()
	if p.Covers(today) {
		if err := e.applyToDate(ctx, today, createdBy); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// applyToDate upserts a mandated-WFH record for every ACTIVE user.
func (e *WFHEngine) applyToDate(ctx context.Context, date Day, createdBy UserID) error {
	users, err := e.Store.ListActiveUsers(ctx)
	if err != nil {
		return err
	}
	modifier := createdBy
	for _, u := range users {
		rec := MandatedWFHRecord(u.ID, date)
		rec.LastModifiedBy = &modifier
		if err := e.Store.UpsertRecord(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// MandatedWFHRecord builds the canonical record for a mandated WFH day:
// every meal explicitly off, WorkFromHome on.
func MandatedWFHRecord(userID UserID, date Day) *MealRecord {
	rec := &MealRecord{
		UserID:       userID,
		Date:         date,
		WorkFromHome: true,
		UpdatedAt:    time.Now().UTC(),
	}
	for _, m := range MealTypes {
		rec.SetMeal(m, Opted(false))
	}
	return rec
}

// ListPeriods returns all periods, newest DateFrom first.
func (e *WFHEngine) ListPeriods(ctx context.Context) ([]WFHPeriod, error) {
	return e.Store.ListPeriods(ctx)
}

// DeletePeriod hard-deletes a period without undoing materialized records.
func (e *WFHEngine) DeletePeriod(ctx context.Context, id PeriodID) error {
	return e.Store.DeletePeriod(ctx, id)
}

// IsMandated reports whether any period covers the date.
func (e *WFHEngine) IsMandated(ctx context.Context, date Day) (bool, error) {
	p, err := e.Store.FindPeriodCovering(ctx, date)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}
