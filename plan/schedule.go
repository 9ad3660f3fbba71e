/*
schedule.go - Per-date schedule resolution and administration

PURPOSE:
  Resolves the effective meal schedule for any date: the per-date override
  row if one exists, otherwise the company defaults. The resolved schedule
  is advisory metadata - it decides which meal types are applicable, it
  never stores participation itself.

DEFAULTS:
  Lunch and snacks are served every day unless an override says otherwise;
  iftar, event dinner and optional dinner only on declared occasions.
  DefaultSchedule is the single source for these values.

SEE ALSO:
  - record.go:      Uses Resolve to coerce inapplicable fields to n/a
  - materialize.go: Uses Resolve to build nightly defaults
*/
package plan

import "context"

// DefaultSchedule is the implicit schedule for dates without an override.
var DefaultSchedule = Schedule{
	Lunch:          true,
	Snacks:         true,
	Iftar:          false,
	EventDinner:    false,
	OptionalDinner: false,
}

// ScheduleResolver merges per-date overrides with DefaultSchedule.
type ScheduleResolver struct {
	Store ScheduleStore
}

// Resolve returns the effective schedule for a date. Read-only; always
// produces a value via defaults, failing only on store errors.
func (r *ScheduleResolver) Resolve(ctx context.Context, date Day) (Schedule, error) {
	row, err := r.Store.GetScheduleByDate(ctx, date)
	if err != nil {
		return Schedule{}, err
	}
	if row == nil {
		return DefaultSchedule, nil
	}
	return row.Flags, nil
}

// ResolveRange resolves every day in the range in one store round trip.
func (r *ScheduleResolver) ResolveRange(ctx context.Context, rng DayRange) (map[Day]Schedule, error) {
	rows, err := r.Store.ListSchedulesRange(ctx, rng)
	if err != nil {
		return nil, err
	}
	byDate := make(map[Day]Schedule, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row.Flags
	}
	out := make(map[Day]Schedule)
	for _, d := range rng.Days() {
		if s, ok := byDate[d]; ok {
			out[d] = s
		} else {
			out[d] = DefaultSchedule
		}
	}
	return out, nil
}

// Upsert creates or replaces the override for a date. At most one schedule
// exists per date.
func (r *ScheduleResolver) Upsert(ctx context.Context, date Day, flags Schedule, createdBy UserID) (*MealSchedule, error) {
	s := &MealSchedule{
		Date:      date,
		Flags:     flags,
		CreatedBy: createdBy,
	}
	if err := r.Store.UpsertSchedule(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns all overrides, newest date first.
func (r *ScheduleResolver) List(ctx context.Context) ([]MealSchedule, error) {
	return r.Store.ListSchedules(ctx)
}

// Delete removes an override; the date falls back to DefaultSchedule.
func (r *ScheduleResolver) Delete(ctx context.Context, id ScheduleID) error {
	return r.Store.DeleteSchedule(ctx, id)
}
