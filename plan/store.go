/*
store.go - Persistence interfaces for the planning core

PURPOSE:
  Defines the boundary between the rule engines and the relational store.
  Engines read, check, then write; the store provides simple key-based
  queries and one atomic primitive: the (user, date) record upsert.

UPSERT CONTRACT:
  UpsertRecord must be insert-or-update by the (user_id, date) unique key,
  atomic at the storage layer. Concurrent writers (self-edit, proxy edit,
  nightly job) race last-write-wins; no application-level locking exists.

ABSENCE SEMANTICS:
  GetRecord, GetScheduleByDate and FindPeriodCovering return (nil, nil)
  when no row exists. Absence is a normal state, not an error: a missing
  record means "defaults apply, nothing chosen yet".

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - plan/store/memory.go:   In-memory for tests

SEE ALSO:
  - record.go: The main consumer of the upsert contract
*/
package plan

import "context"

// UserStore persists roster users.
type UserStore interface {
	// SaveUser inserts a new user and populates its ID.
	SaveUser(ctx context.Context, u *User) error

	// GetUser returns (nil, nil) if the id is unknown.
	GetUser(ctx context.Context, id UserID) (*User, error)

	// GetUserByEmail returns (nil, nil) if no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsers returns all users ordered by name.
	ListUsers(ctx context.Context) ([]User, error)

	// ListActiveUsers returns ACTIVE users ordered by name.
	ListActiveUsers(ctx context.Context) ([]User, error)

	// SearchUsers matches name or email, case-insensitively.
	SearchUsers(ctx context.Context, query string) ([]User, error)

	// UpdateUser overwrites an existing user by ID.
	UpdateUser(ctx context.Context, u *User) error

	// DeleteUser removes a user and cascades to their meal records.
	DeleteUser(ctx context.Context, id UserID) error
}

// TeamStore persists teams.
type TeamStore interface {
	SaveTeam(ctx context.Context, t *Team) error
	GetTeam(ctx context.Context, id TeamID) (*Team, error)

	// GetTeamByLead returns (nil, nil) if the user leads no team.
	GetTeamByLead(ctx context.Context, leadID UserID) (*Team, error)

	// ListTeams returns all teams ordered by name.
	ListTeams(ctx context.Context) ([]Team, error)

	// ListTeamMembers returns the team's users ordered by name.
	ListTeamMembers(ctx context.Context, id TeamID) ([]User, error)

	UpdateTeam(ctx context.Context, t *Team) error

	// DeleteTeam removes a team and detaches its members.
	DeleteTeam(ctx context.Context, id TeamID) error
}

// ScheduleStore persists per-date meal schedules, unique by date.
type ScheduleStore interface {
	// UpsertSchedule creates or replaces the schedule for its date.
	UpsertSchedule(ctx context.Context, s *MealSchedule) error

	// GetScheduleByDate returns (nil, nil) when no override exists.
	GetScheduleByDate(ctx context.Context, date Day) (*MealSchedule, error)

	// ListSchedules returns all schedules ordered by date descending.
	ListSchedules(ctx context.Context) ([]MealSchedule, error)

	// ListSchedulesRange returns schedules with dates in the range.
	ListSchedulesRange(ctx context.Context, r DayRange) ([]MealSchedule, error)

	// DeleteSchedule returns ErrScheduleNotFound for unknown ids.
	DeleteSchedule(ctx context.Context, id ScheduleID) error
}

// RecordStore persists meal records, unique by (user, date).
type RecordStore interface {
	// UpsertRecord atomically inserts or overwrites by (UserID, Date).
	UpsertRecord(ctx context.Context, r *MealRecord) error

	// GetRecord returns (nil, nil) when the user has no record for the date.
	GetRecord(ctx context.Context, userID UserID, date Day) (*MealRecord, error)

	// ListRecordsByDate returns every record for the date.
	ListRecordsByDate(ctx context.Context, date Day) ([]MealRecord, error)

	// ListRecordsByUserRange returns one user's records with dates in the
	// range, ordered by date ascending.
	ListRecordsByUserRange(ctx context.Context, userID UserID, r DayRange) ([]MealRecord, error)
}

// PeriodStore persists company-wide WFH periods.
type PeriodStore interface {
	// SavePeriod inserts a new period and populates its ID.
	SavePeriod(ctx context.Context, p *WFHPeriod) error

	// ListPeriods returns all periods ordered by DateFrom descending.
	ListPeriods(ctx context.Context) ([]WFHPeriod, error)

	// FindPeriodCovering returns any period whose range contains the date,
	// or (nil, nil). Overlaps are not merged; any cover counts.
	FindPeriodCovering(ctx context.Context, date Day) (*WFHPeriod, error)

	// DeletePeriod hard-deletes. It does NOT undo records already
	// materialized for covered dates. Returns ErrPeriodNotFound if absent.
	DeletePeriod(ctx context.Context, id PeriodID) error
}

// Store is the full persistence surface used by the engines.
type Store interface {
	UserStore
	TeamStore
	ScheduleStore
	RecordStore
	PeriodStore
}
