/*
Package plan implements the meal-planning rule core.

PURPOSE:
  This package contains the temporal-window business rules of the company
  meal-planning system: which dates an actor may edit, how defaults merge
  across layers (per-date schedule, company-wide WFH period, existing
  record, nightly materialization), and the daily aggregation that
  reconciles those layers into headcounts.

KEY CONCEPTS IN THIS FILE (types.go):
  - User / Team:     Roster entities with roles and team membership
  - MealSchedule:    Per-date enable flags plus occasion name
  - MealRecord:      One user's choices for one date, keyed (user, date)
  - WFHPeriod:       Company-wide mandated work-from-home span
  - Choice:          Tagged tri-state meal value (unset | n/a | opted)

DESIGN PRINCIPLES:
  1. Dates are UTC-midnight Days, never raw time.Time (see dates.go)
  2. The three-way meal semantics are a tagged value, not an overloaded
     nullable boolean
  3. Persistence is behind interfaces (see store.go); engines never see SQL

SEE ALSO:
  - schedule.go: Default flags and the schedule resolver
  - record.go:   The merge engine that writes MealRecords
*/
package plan

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID int64
type TeamID int64
type ScheduleID int64
type PeriodID int64

// =============================================================================
// ROSTER ENTITIES
// =============================================================================

type Role string

const (
	RoleEmployee  Role = "EMPLOYEE"
	RoleLead      Role = "LEAD"
	RoleAdmin     Role = "ADMIN"
	RoleLogistics Role = "LOGISTICS"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// User is an employee account. TeamID is nil for users without a team.
type User struct {
	ID           UserID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	TeamID       *TeamID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Team has at most one lead. The one-lead invariant is enforced by the
// roster engine at create/update time, not by the store.
type Team struct {
	ID     TeamID
	Name   string
	LeadID *UserID
}

// =============================================================================
// MEAL TYPES AND SCHEDULES
// =============================================================================

type MealType string

const (
	MealLunch          MealType = "lunch"
	MealSnacks         MealType = "snacks"
	MealIftar          MealType = "iftar"
	MealEventDinner    MealType = "eventDinner"
	MealOptionalDinner MealType = "optionalDinner"
)

// MealTypes lists every meal type in canonical order.
var MealTypes = []MealType{MealLunch, MealSnacks, MealIftar, MealEventDinner, MealOptionalDinner}

// Schedule is the resolved per-date enable state: which meal types are
// applicable on a date, plus the occasion name if any.
type Schedule struct {
	Lunch          bool
	Snacks         bool
	Iftar          bool
	EventDinner    bool
	OptionalDinner bool
	Occasion       string
}

// Enabled reports whether a meal type is applicable under this schedule.
func (s Schedule) Enabled(m MealType) bool {
	switch m {
	case MealLunch:
		return s.Lunch
	case MealSnacks:
		return s.Snacks
	case MealIftar:
		return s.Iftar
	case MealEventDinner:
		return s.EventDinner
	case MealOptionalDinner:
		return s.OptionalDinner
	}
	return false
}

// MealSchedule is the persisted per-date override row. At most one exists
// per calendar date; absence means the hardcoded defaults apply.
type MealSchedule struct {
	ID        ScheduleID
	Date      Day
	Flags     Schedule
	CreatedBy UserID
}

// =============================================================================
// CHOICE - Tagged tri-state meal participation value
// =============================================================================

// Choice is a meal field's value: unset (nothing chosen yet), not
// applicable (meal type disabled for the date), or an explicit opt-in/out.
// The zero value is unset. Both unset and not-applicable persist as NULL;
// the tag exists so in-process logic never confuses the two.
type Choice struct {
	known bool
	na    bool
	value bool
}

// Unset is the zero Choice: no value chosen yet.
var Unset = Choice{}

// NotApplicable marks a meal type disabled for the date.
func NotApplicable() Choice { return Choice{na: true} }

// Opted records an explicit participation decision.
func Opted(v bool) Choice { return Choice{known: true, value: v} }

func (c Choice) IsUnset() bool         { return !c.known && !c.na }
func (c Choice) IsNotApplicable() bool { return c.na }
func (c Choice) IsOpted() bool         { return c.known }

// OptedIn reports whether the value is an explicit opt-in.
func (c Choice) OptedIn() bool { return c.known && c.value }

// Bool returns the explicit value, if one was opted.
func (c Choice) Bool() (value, ok bool) { return c.value, c.known }

// BoolPtr renders the tri-state as a nullable boolean: nil for unset and
// not-applicable, the value otherwise. This is the wire/DB representation.
func (c Choice) BoolPtr() *bool {
	if !c.known {
		return nil
	}
	v := c.value
	return &v
}

// ChoiceFromPtr is the inverse of BoolPtr: nil loads as unset.
func ChoiceFromPtr(p *bool) Choice {
	if p == nil {
		return Unset
	}
	return Opted(*p)
}

func (c Choice) String() string {
	switch {
	case c.na:
		return "n/a"
	case !c.known:
		return "unset"
	case c.value:
		return "in"
	default:
		return "out"
	}
}

// =============================================================================
// MEAL RECORD
// =============================================================================

// MealRecord holds one user's choices for one date. Uniquely keyed by
// (UserID, Date). LastModifiedBy nil means system/cron-generated.
type MealRecord struct {
	UserID           UserID
	Date             Day
	Lunch            Choice
	Snacks           Choice
	Iftar            Choice
	EventDinner      Choice
	OptionalDinner   Choice
	WorkFromHome     bool
	LastModifiedBy   *UserID
	NotificationSent bool
	UpdatedAt        time.Time
}

// Meal returns the choice for a meal type.
func (r *MealRecord) Meal(m MealType) Choice {
	switch m {
	case MealLunch:
		return r.Lunch
	case MealSnacks:
		return r.Snacks
	case MealIftar:
		return r.Iftar
	case MealEventDinner:
		return r.EventDinner
	case MealOptionalDinner:
		return r.OptionalDinner
	}
	return Unset
}

// SetMeal stores the choice for a meal type.
func (r *MealRecord) SetMeal(m MealType, c Choice) {
	switch m {
	case MealLunch:
		r.Lunch = c
	case MealSnacks:
		r.Snacks = c
	case MealIftar:
		r.Iftar = c
	case MealEventDinner:
		r.EventDinner = c
	case MealOptionalDinner:
		r.OptionalDinner = c
	}
}

// MealCount returns the number of explicit opt-ins on this record.
func (r *MealRecord) MealCount() int {
	n := 0
	for _, m := range MealTypes {
		if r.Meal(m).OptedIn() {
			n++
		}
	}
	return n
}

// =============================================================================
// GLOBAL WFH PERIOD
// =============================================================================

// WFHPeriod is a company-wide mandated work-from-home date span, inclusive
// on both ends. Overlapping periods are stored as-is; coverage queries
// treat any date inside any period as mandated.
type WFHPeriod struct {
	ID        PeriodID
	DateFrom  Day
	DateTo    Day
	Note      string
	CreatedBy UserID
	CreatedAt time.Time
}

// Covers reports whether d falls inside the period.
func (p WFHPeriod) Covers(d Day) bool {
	return DayRange{Start: p.DateFrom, End: p.DateTo}.Contains(d)
}
