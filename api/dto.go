/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TRI-STATE MEALS:
  Meal fields cross the wire as nullable booleans. In responses, null
  means "not applicable or nothing chosen". In requests, null (or an
  absent field) means "leave unset"; the merge engine decides
  applicability, clients never send n/a explicitly.

VALIDATION:
  Done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import "github.com/warp/mealplan-engine/plan"

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// =============================================================================
// USERS AND TEAMS
// =============================================================================

type UserDTO struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
	TeamID *int64 `json:"team_id,omitempty"`
}

func toUserDTO(u *plan.User) UserDTO {
	dto := UserDTO{
		ID:     int64(u.ID),
		Name:   u.Name,
		Email:  u.Email,
		Role:   string(u.Role),
		Status: string(u.Status),
	}
	if u.TeamID != nil {
		id := int64(*u.TeamID)
		dto.TeamID = &id
	}
	return dto
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
	TeamID   *int64 `json:"team_id,omitempty"`
}

// CreatedUserDTO carries the one-time initial password.
type CreatedUserDTO struct {
	User            UserDTO `json:"user"`
	InitialPassword string  `json:"initial_password"`
}

type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Role   *string `json:"role,omitempty"`
	TeamID *int64  `json:"team_id,omitempty"`
	Status *string `json:"status,omitempty"`
}

type TeamDTO struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	LeadID *int64 `json:"lead_id,omitempty"`
}

func toTeamDTO(t *plan.Team) TeamDTO {
	dto := TeamDTO{ID: int64(t.ID), Name: t.Name}
	if t.LeadID != nil {
		id := int64(*t.LeadID)
		dto.LeadID = &id
	}
	return dto
}

type CreateTeamRequest struct {
	Name   string `json:"name"`
	LeadID *int64 `json:"lead_id,omitempty"`
}

type UpdateTeamRequest struct {
	Name   *string `json:"name,omitempty"`
	LeadID *int64  `json:"lead_id,omitempty"`
}

// =============================================================================
// MEALS
// =============================================================================

// MealsDTO is the five tri-state meal fields as nullable booleans.
type MealsDTO struct {
	Lunch          *bool `json:"lunch"`
	Snacks         *bool `json:"snacks"`
	Iftar          *bool `json:"iftar"`
	EventDinner    *bool `json:"event_dinner"`
	OptionalDinner *bool `json:"optional_dinner"`
}

func toMealsDTO(r *plan.MealRecord) MealsDTO {
	return MealsDTO{
		Lunch:          r.Lunch.BoolPtr(),
		Snacks:         r.Snacks.BoolPtr(),
		Iftar:          r.Iftar.BoolPtr(),
		EventDinner:    r.EventDinner.BoolPtr(),
		OptionalDinner: r.OptionalDinner.BoolPtr(),
	}
}

func (m MealsDTO) toUpdate(wfh *bool) plan.RecordUpdate {
	return plan.RecordUpdate{
		Lunch:          plan.ChoiceFromPtr(m.Lunch),
		Snacks:         plan.ChoiceFromPtr(m.Snacks),
		Iftar:          plan.ChoiceFromPtr(m.Iftar),
		EventDinner:    plan.ChoiceFromPtr(m.EventDinner),
		OptionalDinner: plan.ChoiceFromPtr(m.OptionalDinner),
		WorkFromHome:   wfh,
	}
}

type RecordDTO struct {
	UserID           int64    `json:"user_id"`
	Date             string   `json:"date"`
	Meals            MealsDTO `json:"meals"`
	WorkFromHome     bool     `json:"work_from_home"`
	LastModifiedBy   *int64   `json:"last_modified_by"`
	NotificationSent bool     `json:"notification_sent"`
}

func toRecordDTO(r *plan.MealRecord) RecordDTO {
	dto := RecordDTO{
		UserID:           int64(r.UserID),
		Date:             r.Date.String(),
		Meals:            toMealsDTO(r),
		WorkFromHome:     r.WorkFromHome,
		NotificationSent: r.NotificationSent,
	}
	if r.LastModifiedBy != nil {
		id := int64(*r.LastModifiedBy)
		dto.LastModifiedBy = &id
	}
	return dto
}

type UpdateRecordRequest struct {
	Date         string   `json:"date"`
	Meals        MealsDTO `json:"meals"`
	WorkFromHome *bool    `json:"work_from_home,omitempty"`
}

// WeekDayDTO is one day of the self-service 7-day grid.
type WeekDayDTO struct {
	Date         string            `json:"date"`
	Meals        MealsDTO          `json:"meals"`
	Available    MealsAvailableDTO `json:"available"`
	WorkFromHome bool              `json:"work_from_home"`
	Occasion     string            `json:"occasion,omitempty"`
	RecordExists bool              `json:"record_exists"`
}

type MealsAvailableDTO struct {
	Lunch          bool `json:"lunch"`
	Snacks         bool `json:"snacks"`
	Iftar          bool `json:"iftar"`
	EventDinner    bool `json:"event_dinner"`
	OptionalDinner bool `json:"optional_dinner"`
}

// =============================================================================
// SCHEDULES
// =============================================================================

type ScheduleDTO struct {
	ID             int64  `json:"id"`
	Date           string `json:"date"`
	Lunch          bool   `json:"lunch_enabled"`
	Snacks         bool   `json:"snacks_enabled"`
	Iftar          bool   `json:"iftar_enabled"`
	EventDinner    bool   `json:"event_dinner_enabled"`
	OptionalDinner bool   `json:"optional_dinner_enabled"`
	Occasion       string `json:"occasion_name,omitempty"`
	CreatedBy      int64  `json:"created_by"`
}

func toScheduleDTO(s *plan.MealSchedule) ScheduleDTO {
	return ScheduleDTO{
		ID:             int64(s.ID),
		Date:           s.Date.String(),
		Lunch:          s.Flags.Lunch,
		Snacks:         s.Flags.Snacks,
		Iftar:          s.Flags.Iftar,
		EventDinner:    s.Flags.EventDinner,
		OptionalDinner: s.Flags.OptionalDinner,
		Occasion:       s.Flags.Occasion,
		CreatedBy:      int64(s.CreatedBy),
	}
}

type UpsertScheduleRequest struct {
	Date           string `json:"date"`
	Lunch          bool   `json:"lunch_enabled"`
	Snacks         bool   `json:"snacks_enabled"`
	Iftar          bool   `json:"iftar_enabled"`
	EventDinner    bool   `json:"event_dinner_enabled"`
	OptionalDinner bool   `json:"optional_dinner_enabled"`
	Occasion       string `json:"occasion_name,omitempty"`
}

// =============================================================================
// WFH PERIODS
// =============================================================================

type WFHPeriodDTO struct {
	ID        int64  `json:"id"`
	DateFrom  string `json:"date_from"`
	DateTo    string `json:"date_to"`
	Note      string `json:"note,omitempty"`
	CreatedBy int64  `json:"created_by"`
}

func toWFHPeriodDTO(p *plan.WFHPeriod) WFHPeriodDTO {
	return WFHPeriodDTO{
		ID:        int64(p.ID),
		DateFrom:  p.DateFrom.String(),
		DateTo:    p.DateTo.String(),
		Note:      p.Note,
		CreatedBy: int64(p.CreatedBy),
	}
}

type CreateWFHPeriodRequest struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Note     string `json:"note,omitempty"`
}

// =============================================================================
// REPORTS
// =============================================================================

type MealCountsDTO struct {
	Lunch          int `json:"lunch"`
	Snacks         int `json:"snacks"`
	Iftar          int `json:"iftar"`
	EventDinner    int `json:"event_dinner"`
	OptionalDinner int `json:"optional_dinner"`
}

func toMealCountsDTO(c plan.MealCounts) MealCountsDTO {
	return MealCountsDTO{
		Lunch:          c.Lunch,
		Snacks:         c.Snacks,
		Iftar:          c.Iftar,
		EventDinner:    c.EventDinner,
		OptionalDinner: c.OptionalDinner,
	}
}

type TeamBreakdownDTO struct {
	TeamID     int64         `json:"team_id"`
	TeamName   string        `json:"team_name"`
	Meals      MealCountsDTO `json:"meals"`
	TotalMeals int           `json:"total_meals"`
}

type HeadcountDTO struct {
	Date            string             `json:"date"`
	MealTotals      MealCountsDTO      `json:"meal_totals"`
	TeamBreakdown   []TeamBreakdownDTO `json:"team_breakdown"`
	Office          int                `json:"office"`
	WFH             int                `json:"wfh"`
	OverallTotal    int                `json:"overall_total"`
	OfficeShare     string             `json:"office_share_pct"`
	GlobalWFHActive bool               `json:"global_wfh_active"`
	GlobalWFHNote   string             `json:"global_wfh_note,omitempty"`
	Occasion        string             `json:"occasion,omitempty"`
}

type ParticipationEntryDTO struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	TeamName           string   `json:"team_name,omitempty"`
	WorkFromHome       bool     `json:"work_from_home"`
	Meals              MealsDTO `json:"meals"`
	LastModifiedByName *string  `json:"last_modified_by_name"`
	WFHDaysThisMonth   int      `json:"wfh_days_this_month"`
	OverWFHLimit       bool     `json:"over_wfh_limit"`
}

type ParticipationDTO struct {
	Date              string                  `json:"date"`
	Employees         []ParticipationEntryDTO `json:"employees"`
	WFHOverLimitCount int                     `json:"wfh_over_limit_count"`
	TotalExtraWFHDays int                     `json:"total_extra_wfh_days"`
}

type MonthlyStatsDTO struct {
	Month             string        `json:"month"`
	Year              int           `json:"year"`
	TotalMealsTaken   int           `json:"total_meals_taken"`
	TotalMealsPlanned int           `json:"total_meals_planned"`
	WFHDaysTaken      int           `json:"wfh_days_taken"`
	WFHDaysPlanned    int           `json:"wfh_days_planned"`
	Breakdown         MealCountsDTO `json:"breakdown"`
}

type BulkUpdateRequest struct {
	UserIDs []int64 `json:"user_ids"`
	Date    string  `json:"date"`
	Action  string  `json:"action"`
}

type BulkUpdateResponse struct {
	Updated int `json:"updated"`
}

// MaterializeResponse reports a manual materialization run.
type MaterializeResponse struct {
	Date    string `json:"date"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
}
