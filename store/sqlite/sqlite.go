/*
Package sqlite provides a SQLite-backed implementation of plan.Store.

PURPOSE:
  Implements the full persistence surface of the planning core over
  database/sql. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

KEY TABLES:
  users:          Roster accounts (email UNIQUE)
  teams:          Teams with an optional lead
  meal_schedules: Per-date enable flags (date UNIQUE)
  meal_records:   One row per (user_id, date), tri-state meal columns
  wfh_periods:    Company-wide mandated WFH spans

UPSERT ATOMICITY:
  UpsertRecord uses INSERT ... ON CONFLICT(user_id, date) DO UPDATE. The
  unique key makes concurrent self-edits, proxy edits, and the nightly
  job race last-write-wins without duplicate rows; the engines rely on
  exactly this guarantee.

NULL SEMANTICS:
  Meal columns are nullable integers. NULL loads as the unset Choice;
  both unset and not-applicable store as NULL. Dates are TEXT in
  YYYY-MM-DD form, always UTC midnight.

WAL MODE:
  The database is opened with WAL and foreign keys on. ON DELETE CASCADE
  from users to meal_records implements the delete-user cascade.

USAGE:
  store, err := sqlite.New("./data/mealplan.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - plan/store.go:        Interface contracts
  - plan/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/mealplan-engine/plan"
)

// Store implements plan.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS teams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		lead_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		team_id INTEGER REFERENCES teams(id) ON DELETE SET NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_team ON users(team_id);
	CREATE INDEX IF NOT EXISTS idx_users_status ON users(status);

	CREATE TABLE IF NOT EXISTS meal_schedules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		lunch_enabled INTEGER NOT NULL,
		snacks_enabled INTEGER NOT NULL,
		iftar_enabled INTEGER NOT NULL,
		event_dinner_enabled INTEGER NOT NULL,
		optional_dinner_enabled INTEGER NOT NULL,
		occasion_name TEXT,
		created_by INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meal_records (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		lunch INTEGER,
		snacks INTEGER,
		iftar INTEGER,
		event_dinner INTEGER,
		optional_dinner INTEGER,
		work_from_home INTEGER NOT NULL DEFAULT 0,
		last_modified_by INTEGER,
		notification_sent INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_meal_records_date ON meal_records(date);

	CREATE TABLE IF NOT EXISTS wfh_periods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date_from TEXT NOT NULL,
		date_to TEXT NOT NULL,
		note TEXT,
		created_by INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wfh_periods_range ON wfh_periods(date_from, date_to);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Reset wipes all tables (dev/test only).
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"meal_records", "meal_schedules", "wfh_periods", "users", "teams"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

func dayToDB(d plan.Day) string { return d.String() }

func dayFromDB(s string) (plan.Day, error) { return plan.ParseDay(s) }

func timeToDB(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func timeFromDB(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func choiceToDB(c plan.Choice) any {
	if v, ok := c.Bool(); ok {
		if v {
			return 1
		}
		return 0
	}
	return nil
}

func choiceFromDB(v sql.NullInt64) plan.Choice {
	if !v.Valid {
		return plan.Unset
	}
	return plan.Opted(v.Int64 != 0)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// USERS
// =============================================================================

const userColumns = "id, name, email, password_hash, role, status, team_id, created_at, updated_at"

func (s *Store) SaveUser(ctx context.Context, u *plan.User) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, status, team_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, string(u.Role), string(u.Status),
		teamIDToDB(u.TeamID), timeToDB(u.CreatedAt), timeToDB(u.UpdatedAt))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = plan.UserID(id)
	return nil
}

func teamIDToDB(id *plan.TeamID) any {
	if id == nil {
		return nil
	}
	return int64(*id)
}

func userIDToDB(id *plan.UserID) any {
	if id == nil {
		return nil
	}
	return int64(*id)
}

func (s *Store) GetUser(ctx context.Context, id plan.UserID) (*plan.User, error) {
	return s.queryUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", int64(id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*plan.User, error) {
	return s.queryUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

func (s *Store) queryUser(ctx context.Context, query string, args ...any) (*plan.User, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanUser(row rowScanner) (*plan.User, error) {
	var u plan.User
	var teamID sql.NullInt64
	var createdAt, updatedAt string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		(*string)(&u.Role), (*string)(&u.Status), &teamID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if teamID.Valid {
		tid := plan.TeamID(teamID.Int64)
		u.TeamID = &tid
	}
	u.CreatedAt = timeFromDB(createdAt)
	u.UpdatedAt = timeFromDB(updatedAt)
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]plan.User, error) {
	return s.queryUsers(ctx, "SELECT "+userColumns+" FROM users ORDER BY name")
}

func (s *Store) ListActiveUsers(ctx context.Context) ([]plan.User, error) {
	return s.queryUsers(ctx,
		"SELECT "+userColumns+" FROM users WHERE status = ? ORDER BY name",
		string(plan.StatusActive))
}

func (s *Store) SearchUsers(ctx context.Context, query string) ([]plan.User, error) {
	like := "%" + strings.ToLower(query) + "%"
	return s.queryUsers(ctx,
		"SELECT "+userColumns+" FROM users WHERE lower(name) LIKE ? OR lower(email) LIKE ? ORDER BY name",
		like, like)
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]plan.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u *plan.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET name = ?, email = ?, password_hash = ?, role = ?, status = ?, team_id = ?, updated_at = ?
		WHERE id = ?`,
		u.Name, u.Email, u.PasswordHash, string(u.Role), string(u.Status),
		teamIDToDB(u.TeamID), timeToDB(u.UpdatedAt), int64(u.ID))
	if err != nil {
		return err
	}
	return requireAffected(res, plan.ErrUserNotFound)
}

func (s *Store) DeleteUser(ctx context.Context, id plan.UserID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", int64(id))
	if err != nil {
		return err
	}
	return requireAffected(res, plan.ErrUserNotFound)
}

// requireAffected maps a zero-row write to the entity's not-found error.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// =============================================================================
// TEAMS
// =============================================================================

func (s *Store) SaveTeam(ctx context.Context, t *plan.Team) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO teams (name, lead_id) VALUES (?, ?)", t.Name, userIDToDB(t.LeadID))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = plan.TeamID(id)
	return nil
}

func (s *Store) GetTeam(ctx context.Context, id plan.TeamID) (*plan.Team, error) {
	return s.queryTeam(ctx, "SELECT id, name, lead_id FROM teams WHERE id = ?", int64(id))
}

func (s *Store) GetTeamByLead(ctx context.Context, leadID plan.UserID) (*plan.Team, error) {
	return s.queryTeam(ctx, "SELECT id, name, lead_id FROM teams WHERE lead_id = ?", int64(leadID))
}

func (s *Store) queryTeam(ctx context.Context, query string, args ...any) (*plan.Team, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	t, err := scanTeam(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func scanTeam(row rowScanner) (*plan.Team, error) {
	var t plan.Team
	var leadID sql.NullInt64
	if err := row.Scan(&t.ID, &t.Name, &leadID); err != nil {
		return nil, err
	}
	if leadID.Valid {
		lid := plan.UserID(leadID.Int64)
		t.LeadID = &lid
	}
	return &t, nil
}

func (s *Store) ListTeams(ctx context.Context) ([]plan.Team, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, lead_id FROM teams ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) ListTeamMembers(ctx context.Context, id plan.TeamID) ([]plan.User, error) {
	return s.queryUsers(ctx,
		"SELECT "+userColumns+" FROM users WHERE team_id = ? ORDER BY name", int64(id))
}

func (s *Store) UpdateTeam(ctx context.Context, t *plan.Team) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE teams SET name = ?, lead_id = ? WHERE id = ?",
		t.Name, userIDToDB(t.LeadID), int64(t.ID))
	if err != nil {
		return err
	}
	return requireAffected(res, plan.ErrTeamNotFound)
}

func (s *Store) DeleteTeam(ctx context.Context, id plan.TeamID) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE users SET team_id = NULL WHERE team_id = ?", int64(id)); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM teams WHERE id = ?", int64(id))
	if err != nil {
		return err
	}
	return requireAffected(res, plan.ErrTeamNotFound)
}

// =============================================================================
// SCHEDULES
// =============================================================================

const scheduleColumns = "id, date, lunch_enabled, snacks_enabled, iftar_enabled, event_dinner_enabled, optional_dinner_enabled, occasion_name, created_by"

func (s *Store) UpsertSchedule(ctx context.Context, sc *plan.MealSchedule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_schedules
			(date, lunch_enabled, snacks_enabled, iftar_enabled, event_dinner_enabled, optional_dinner_enabled, occasion_name, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			lunch_enabled = excluded.lunch_enabled,
			snacks_enabled = excluded.snacks_enabled,
			iftar_enabled = excluded.iftar_enabled,
			event_dinner_enabled = excluded.event_dinner_enabled,
			optional_dinner_enabled = excluded.optional_dinner_enabled,
			occasion_name = excluded.occasion_name,
			created_by = excluded.created_by`,
		dayToDB(sc.Date), sc.Flags.Lunch, sc.Flags.Snacks, sc.Flags.Iftar,
		sc.Flags.EventDinner, sc.Flags.OptionalDinner, nullString(sc.Flags.Occasion), int64(sc.CreatedBy))
	if err != nil {
		return err
	}
	// The upsert may have landed on an existing row; read the id back.
	row := s.db.QueryRowContext(ctx, "SELECT id FROM meal_schedules WHERE date = ?", dayToDB(sc.Date))
	return row.Scan(&sc.ID)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) GetScheduleByDate(ctx context.Context, date plan.Day) (*plan.MealSchedule, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+scheduleColumns+" FROM meal_schedules WHERE date = ?", dayToDB(date))
	sc, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func scanSchedule(row rowScanner) (*plan.MealSchedule, error) {
	var sc plan.MealSchedule
	var date string
	var occasion sql.NullString
	err := row.Scan(&sc.ID, &date, &sc.Flags.Lunch, &sc.Flags.Snacks, &sc.Flags.Iftar,
		&sc.Flags.EventDinner, &sc.Flags.OptionalDinner, &occasion, &sc.CreatedBy)
	if err != nil {
		return nil, err
	}
	d, err := dayFromDB(date)
	if err != nil {
		return nil, err
	}
	sc.Date = d
	sc.Flags.Occasion = occasion.String
	return &sc, nil
}

func (s *Store) ListSchedules(ctx context.Context) ([]plan.MealSchedule, error) {
	return s.querySchedules(ctx,
		"SELECT "+scheduleColumns+" FROM meal_schedules ORDER BY date DESC")
}

func (s *Store) ListSchedulesRange(ctx context.Context, r plan.DayRange) ([]plan.MealSchedule, error) {
	return s.querySchedules(ctx,
		"SELECT "+scheduleColumns+" FROM meal_schedules WHERE date >= ? AND date <= ? ORDER BY date",
		dayToDB(r.Start), dayToDB(r.End))
}

func (s *Store) querySchedules(ctx context.Context, query string, args ...any) ([]plan.MealSchedule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.MealSchedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSchedule(ctx context.Context, id plan.ScheduleID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM meal_schedules WHERE id = ?", int64(id))
	if err != nil {
		return err
	}
	return requireAffected(res, plan.ErrScheduleNotFound)
}

// =============================================================================
// RECORDS
// =============================================================================

const recordColumns = "user_id, date, lunch, snacks, iftar, event_dinner, optional_dinner, work_from_home, last_modified_by, notification_sent, updated_at"

func (s *Store) UpsertRecord(ctx context.Context, r *plan.MealRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_records
			(user_id, date, lunch, snacks, iftar, event_dinner, optional_dinner, work_from_home, last_modified_by, notification_sent, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			lunch = excluded.lunch,
			snacks = excluded.snacks,
			iftar = excluded.iftar,
			event_dinner = excluded.event_dinner,
			optional_dinner = excluded.optional_dinner,
			work_from_home = excluded.work_from_home,
			last_modified_by = excluded.last_modified_by,
			notification_sent = excluded.notification_sent,
			updated_at = excluded.updated_at`,
		int64(r.UserID), dayToDB(r.Date),
		choiceToDB(r.Lunch), choiceToDB(r.Snacks), choiceToDB(r.Iftar),
		choiceToDB(r.EventDinner), choiceToDB(r.OptionalDinner),
		r.WorkFromHome, userIDToDB(r.LastModifiedBy), r.NotificationSent,
		timeToDB(r.UpdatedAt))
	return err
}

func (s *Store) GetRecord(ctx context.Context, userID plan.UserID, date plan.Day) (*plan.MealRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM meal_records WHERE user_id = ? AND date = ?",
		int64(userID), dayToDB(date))
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func scanRecord(row rowScanner) (*plan.MealRecord, error) {
	var r plan.MealRecord
	var date, updatedAt string
	var lunch, snacks, iftar, eventDinner, optionalDinner, lastModifiedBy sql.NullInt64
	err := row.Scan(&r.UserID, &date, &lunch, &snacks, &iftar, &eventDinner, &optionalDinner,
		&r.WorkFromHome, &lastModifiedBy, &r.NotificationSent, &updatedAt)
	if err != nil {
		return nil, err
	}
	d, err := dayFromDB(date)
	if err != nil {
		return nil, err
	}
	r.Date = d
	r.Lunch = choiceFromDB(lunch)
	r.Snacks = choiceFromDB(snacks)
	r.Iftar = choiceFromDB(iftar)
	r.EventDinner = choiceFromDB(eventDinner)
	r.OptionalDinner = choiceFromDB(optionalDinner)
	if lastModifiedBy.Valid {
		id := plan.UserID(lastModifiedBy.Int64)
		r.LastModifiedBy = &id
	}
	r.UpdatedAt = timeFromDB(updatedAt)
	return &r, nil
}

func (s *Store) ListRecordsByDate(ctx context.Context, date plan.Day) ([]plan.MealRecord, error) {
	return s.queryRecords(ctx,
		"SELECT "+recordColumns+" FROM meal_records WHERE date = ? ORDER BY user_id",
		dayToDB(date))
}

func (s *Store) ListRecordsByUserRange(ctx context.Context, userID plan.UserID, r plan.DayRange) ([]plan.MealRecord, error) {
	return s.queryRecords(ctx,
		"SELECT "+recordColumns+" FROM meal_records WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date",
		int64(userID), dayToDB(r.Start), dayToDB(r.End))
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]plan.MealRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.MealRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// =============================================================================
// WFH PERIODS
// =============================================================================

func (s *Store) SavePeriod(ctx context.Context, p *plan.WFHPeriod) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO wfh_periods (date_from, date_to, note, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		dayToDB(p.DateFrom), dayToDB(p.DateTo), nullString(p.Note),
		int64(p.CreatedBy), timeToDB(p.CreatedAt))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = plan.PeriodID(id)
	return nil
}

func (s *Store) ListPeriods(ctx context.Context) ([]plan.WFHPeriod, error) {
	return s.queryPeriods(ctx,
		"SELECT id, date_from, date_to, note, created_by, created_at FROM wfh_periods ORDER BY date_from DESC")
}

func (s *Store) FindPeriodCovering(ctx context.Context, date plan.Day) (*plan.WFHPeriod, error) {
	periods, err := s.queryPeriods(ctx,
		"SELECT id, date_from, date_to, note, created_by, created_at FROM wfh_periods WHERE date_from <= ? AND date_to >= ? LIMIT 1",
		dayToDB(date), dayToDB(date))
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, nil
	}
	return &periods[0], nil
}

func (s *Store) queryPeriods(ctx context.Context, query string, args ...any) ([]plan.WFHPeriod, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.WFHPeriod
	for rows.Next() {
		var p plan.WFHPeriod
		var from, to, createdAt string
		var note sql.NullString
		if err := rows.Scan(&p.ID, &from, &to, &note, &p.CreatedBy, &createdAt); err != nil {
			return nil, err
		}
		if p.DateFrom, err = dayFromDB(from); err != nil {
			return nil, err
		}
		if p.DateTo, err = dayFromDB(to); err != nil {
			return nil, err
		}
		p.Note = note.String
		p.CreatedAt = timeFromDB(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeletePeriod(ctx context.Context, id plan.PeriodID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM wfh_periods WHERE id = ?", int64(id))
	if err != nil {
		return err
	}
	return requireAffected(res, plan.ErrPeriodNotFound)
}
