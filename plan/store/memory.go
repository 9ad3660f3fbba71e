// Package store provides plan.Store implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/mealplan-engine/plan"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements plan.Store with mutex-guarded maps. Reads return
// copies so callers never alias internal state.
type Memory struct {
	mu sync.RWMutex

	users     map[plan.UserID]plan.User
	teams     map[plan.TeamID]plan.Team
	schedules map[plan.ScheduleID]plan.MealSchedule
	records   map[recordKey]plan.MealRecord
	periods   map[plan.PeriodID]plan.WFHPeriod

	nextUser     plan.UserID
	nextTeam     plan.TeamID
	nextSchedule plan.ScheduleID
	nextPeriod   plan.PeriodID
}

type recordKey struct {
	UserID plan.UserID
	Date   string
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[plan.UserID]plan.User),
		teams:     make(map[plan.TeamID]plan.Team),
		schedules: make(map[plan.ScheduleID]plan.MealSchedule),
		records:   make(map[recordKey]plan.MealRecord),
		periods:   make(map[plan.PeriodID]plan.WFHPeriod),
	}
}

// =============================================================================
// USERS
// =============================================================================

func (m *Memory) SaveUser(_ context.Context, u *plan.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUser++
	u.ID = m.nextUser
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id plan.UserID) (*plan.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		c := u
		return &c, nil
	}
	return nil, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*plan.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			c := u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]plan.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usersWhere(func(plan.User) bool { return true }), nil
}

func (m *Memory) ListActiveUsers(_ context.Context) ([]plan.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usersWhere(func(u plan.User) bool { return u.Status == plan.StatusActive }), nil
}

func (m *Memory) SearchUsers(_ context.Context, query string) ([]plan.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	return m.usersWhere(func(u plan.User) bool {
		return strings.Contains(strings.ToLower(u.Name), q) ||
			strings.Contains(strings.ToLower(u.Email), q)
	}), nil
}

// usersWhere filters and name-sorts under an already-held lock.
func (m *Memory) usersWhere(keep func(plan.User) bool) []plan.User {
	var out []plan.User
	for _, u := range m.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Memory) UpdateUser(_ context.Context, u *plan.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return plan.ErrUserNotFound
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id plan.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return plan.ErrUserNotFound
	}
	delete(m.users, id)
	for k := range m.records {
		if k.UserID == id {
			delete(m.records, k)
		}
	}
	return nil
}

// =============================================================================
// TEAMS
// =============================================================================

func (m *Memory) SaveTeam(_ context.Context, t *plan.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTeam++
	t.ID = m.nextTeam
	m.teams[t.ID] = *t
	return nil
}

func (m *Memory) GetTeam(_ context.Context, id plan.TeamID) (*plan.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.teams[id]; ok {
		c := t
		return &c, nil
	}
	return nil, nil
}

func (m *Memory) GetTeamByLead(_ context.Context, leadID plan.UserID) (*plan.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.teams {
		if t.LeadID != nil && *t.LeadID == leadID {
			c := t
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListTeams(_ context.Context) ([]plan.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []plan.Team
	for _, t := range m.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) ListTeamMembers(_ context.Context, id plan.TeamID) ([]plan.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usersWhere(func(u plan.User) bool {
		return u.TeamID != nil && *u.TeamID == id
	}), nil
}

func (m *Memory) UpdateTeam(_ context.Context, t *plan.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[t.ID]; !ok {
		return plan.ErrTeamNotFound
	}
	m.teams[t.ID] = *t
	return nil
}

func (m *Memory) DeleteTeam(_ context.Context, id plan.TeamID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[id]; !ok {
		return plan.ErrTeamNotFound
	}
	delete(m.teams, id)
	for uid, u := range m.users {
		if u.TeamID != nil && *u.TeamID == id {
			u.TeamID = nil
			m.users[uid] = u
		}
	}
	return nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

func (m *Memory) UpsertSchedule(_ context.Context, s *plan.MealSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.schedules {
		if existing.Date.Equal(s.Date) {
			s.ID = id
			m.schedules[id] = *s
			return nil
		}
	}
	m.nextSchedule++
	s.ID = m.nextSchedule
	m.schedules[s.ID] = *s
	return nil
}

func (m *Memory) GetScheduleByDate(_ context.Context, date plan.Day) (*plan.MealSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.schedules {
		if s.Date.Equal(date) {
			c := s
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListSchedules(_ context.Context) ([]plan.MealSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []plan.MealSchedule
	for _, s := range m.schedules {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *Memory) ListSchedulesRange(_ context.Context, r plan.DayRange) ([]plan.MealSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []plan.MealSchedule
	for _, s := range m.schedules {
		if r.Contains(s.Date) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) DeleteSchedule(_ context.Context, id plan.ScheduleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return plan.ErrScheduleNotFound
	}
	delete(m.schedules, id)
	return nil
}

// =============================================================================
// RECORDS
// =============================================================================

func (m *Memory) UpsertRecord(_ context.Context, r *plan.MealRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[recordKey{UserID: r.UserID, Date: r.Date.String()}] = *r
	return nil
}

func (m *Memory) GetRecord(_ context.Context, userID plan.UserID, date plan.Day) (*plan.MealRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.records[recordKey{UserID: userID, Date: date.String()}]; ok {
		c := r
		return &c, nil
	}
	return nil, nil
}

func (m *Memory) ListRecordsByDate(_ context.Context, date plan.Day) ([]plan.MealRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []plan.MealRecord
	for _, r := range m.records {
		if r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *Memory) ListRecordsByUserRange(_ context.Context, userID plan.UserID, rng plan.DayRange) ([]plan.MealRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []plan.MealRecord
	for _, r := range m.records {
		if r.UserID == userID && rng.Contains(r.Date) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// =============================================================================
// WFH PERIODS
// =============================================================================

func (m *Memory) SavePeriod(_ context.Context, p *plan.WFHPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextPeriod++
	p.ID = m.nextPeriod
	m.periods[p.ID] = *p
	return nil
}

func (m *Memory) ListPeriods(_ context.Context) ([]plan.WFHPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []plan.WFHPeriod
	for _, p := range m.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateFrom.After(out[j].DateFrom) })
	return out, nil
}

func (m *Memory) FindPeriodCovering(_ context.Context, date plan.Day) (*plan.WFHPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.periods {
		if p.Covers(date) {
			c := p
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) DeletePeriod(_ context.Context, id plan.PeriodID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[id]; !ok {
		return plan.ErrPeriodNotFound
	}
	delete(m.periods, id)
	return nil
}
