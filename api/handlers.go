/*
handlers.go - HTTP API handlers for the meal-planning system

PURPOSE:
  Exposes the planning engines via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    POST   /api/auth/login                  Login, returns bearer token

  Self-service (any authenticated user):
    GET    /api/meals/week                  7-day editable grid
    PUT    /api/meals/record                Upsert own record
    GET    /api/meals/stats                 Own current-month statistics

  Roster (ADMIN):
    GET    /api/admin/users                 List/search users
    POST   /api/admin/users                 Create user
    GET    /api/admin/users/{id}            Get user
    PUT    /api/admin/users/{id}            Update user
    DELETE /api/admin/users/{id}            Delete user
    POST   /api/admin/users/{id}/deactivate Soft delete
    GET    /api/admin/teams                 List teams
    POST   /api/admin/teams                 Create team
    PUT    /api/admin/teams/{id}            Update team
    DELETE /api/admin/teams/{id}            Delete team
    GET    /api/admin/teams/{id}/members    List members

  Schedules (ADMIN):
    GET    /api/admin/schedules             List overrides
    POST   /api/admin/schedules             Upsert override for a date
    DELETE /api/admin/schedules/{id}        Remove override

  Proxy and bulk edits (ADMIN, LEAD):
    PUT    /api/admin/records/{userID}      Proxy-edit one user's record
    POST   /api/admin/records/bulk          Bulk action on many users

  WFH periods (ADMIN):
    GET    /api/admin/wfh                   List periods
    POST   /api/admin/wfh                   Create period
    DELETE /api/admin/wfh/{id}              Delete period

  Reports (ADMIN, LEAD, LOGISTICS):
    GET    /api/reports/headcount           Daily catering headcount
    GET    /api/reports/participation       Employee-level daily view

  Admin maintenance (ADMIN):
    POST   /api/admin/materialize           Run record materialization now

ERROR HANDLING:
  Domain errors map to HTTP status by kind:
  - 400: Validation (malformed dates, out-of-window, unknown action)
  - 401: Bad credentials, inactive account
  - 403: Role/scope denial
  - 404: Missing entity
  - 409: Business-rule conflict (WFH mandate, duplicate email, lead rules)
  - 500: Everything else

SEE ALSO:
  - dto.go:    Request/response data structures
  - auth.go:   Token issue/verify and route guards
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warp/mealplan-engine/plan"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store plan.Store

	Roster       *plan.Roster
	Records      *plan.RecordEngine
	Schedules    *plan.ScheduleResolver
	WFH          *plan.WFHEngine
	Reports      *plan.ReportEngine
	Materializer *plan.Materializer
	Authz        plan.Authorizer
	Tokens       *TokenIssuer
}

// NewHandler wires every engine against the given store.
func NewHandler(store plan.Store, tokens *TokenIssuer) *Handler {
	return &Handler{
		Store:        store,
		Roster:       plan.NewRoster(store),
		Records:      plan.NewRecordEngine(store),
		Schedules:    &plan.ScheduleResolver{Store: store},
		WFH:          plan.NewWFHEngine(store),
		Reports:      plan.NewReportEngine(store),
		Materializer: plan.NewMaterializer(store),
		Authz:        &plan.RoleAuthorizer{Users: store},
		Tokens:       tokens,
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a domain error to an HTTP status by kind.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case plan.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, plan.ErrInvalidCredentials), errors.Is(err, plan.ErrAccountInactive):
		writeError(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, plan.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error(), nil)
	case plan.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case plan.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// mustActor returns the authenticated actor; guards guarantee presence,
// this is the belt for handlers wired without them (tests).
func mustActor(w http.ResponseWriter, r *http.Request) (plan.Actor, bool) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
	}
	return actor, ok
}

func mealsDTOFromMap(values map[plan.MealType]plan.Choice) MealsDTO {
	return MealsDTO{
		Lunch:          values[plan.MealLunch].BoolPtr(),
		Snacks:         values[plan.MealSnacks].BoolPtr(),
		Iftar:          values[plan.MealIftar].BoolPtr(),
		EventDinner:    values[plan.MealEventDinner].BoolPtr(),
		OptionalDinner: values[plan.MealOptionalDinner].BoolPtr(),
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Login authenticates credentials and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Roster.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: toUserDTO(user)})
}

// =============================================================================
// SELF-SERVICE MEAL HANDLERS
// =============================================================================

// WeekView returns the caller's 7-day editable grid.
func (h *Handler) WeekView(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	days, err := h.Records.WeekView(r.Context(), actor.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]WeekDayDTO, len(days))
	for i, d := range days {
		dtos[i] = WeekDayDTO{
			Date:  d.Date.String(),
			Meals: mealsDTOFromMap(d.Values),
			Available: MealsAvailableDTO{
				Lunch:          d.Available.Lunch,
				Snacks:         d.Available.Snacks,
				Iftar:          d.Available.Iftar,
				EventDinner:    d.Available.EventDinner,
				OptionalDinner: d.Available.OptionalDinner,
			},
			WorkFromHome: d.WorkFromHome,
			Occasion:     d.Occasion,
			RecordExists: d.RecordExists,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateOwnRecord upserts the caller's own record for one date.
func (h *Handler) UpdateOwnRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := plan.ParseDay(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Self edits record no modifier.
	rec, err := h.Records.Upsert(r.Context(), actor.UserID, date, req.Meals.toUpdate(req.WorkFromHome), nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// OwnMonthlyStats returns the caller's current-month statistics.
func (h *Handler) OwnMonthlyStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	stats, err := h.Reports.UserMonthlyStats(r.Context(), actor.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MonthlyStatsDTO{
		Month:             stats.Month,
		Year:              stats.Year,
		TotalMealsTaken:   stats.TotalMealsTaken,
		TotalMealsPlanned: stats.TotalMealsPlanned,
		WFHDaysTaken:      stats.WFHDaysTaken,
		WFHDaysPlanned:    stats.WFHDaysPlanned,
		Breakdown:         toMealCountsDTO(stats.Breakdown),
	})
}

// =============================================================================
// USER ADMIN HANDLERS
// =============================================================================

// ListUsers lists users, filtered by ?query= when present.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Roster.SearchUsers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(&users[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUser creates a user and returns the one-time initial password.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Name and email are required", nil)
		return
	}

	in := plan.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     plan.Role(req.Role),
	}
	if in.Role == "" {
		in.Role = plan.RoleEmployee
	}
	if req.TeamID != nil {
		id := plan.TeamID(*req.TeamID)
		in.TeamID = &id
	}

	user, password, err := h.Roster.CreateUser(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedUserDTO{User: toUserDTO(user), InitialPassword: password})
}

// GetUser returns a single user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id", err)
		return
	}
	user, err := h.Roster.GetUser(r.Context(), plan.UserID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// UpdateUser applies a partial update to a user.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id", err)
		return
	}
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := plan.UserPatch{Name: req.Name, Email: req.Email}
	if req.Role != nil {
		role := plan.Role(*req.Role)
		patch.Role = &role
	}
	if req.Status != nil {
		status := plan.Status(*req.Status)
		patch.Status = &status
	}
	if req.TeamID != nil {
		teamID := plan.TeamID(*req.TeamID)
		patch.TeamID = &teamID
	}

	user, err := h.Roster.UpdateUser(r.Context(), plan.UserID(id), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// DeleteUser hard-deletes a user.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id", err)
		return
	}
	if err := h.Roster.DeleteUser(r.Context(), plan.UserID(id)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeactivateUser soft-deletes a user.
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id", err)
		return
	}
	user, err := h.Roster.DeactivateUser(r.Context(), plan.UserID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// =============================================================================
// TEAM ADMIN HANDLERS
// =============================================================================

// ListTeams returns all teams.
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Roster.ListTeams(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]TeamDTO, len(teams))
	for i := range teams {
		dtos[i] = toTeamDTO(&teams[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTeam creates a team, optionally with a lead.
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	var leadID *plan.UserID
	if req.LeadID != nil {
		id := plan.UserID(*req.LeadID)
		leadID = &id
	}
	team, err := h.Roster.CreateTeam(r.Context(), req.Name, leadID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTeamDTO(team))
}

// UpdateTeam renames a team or reassigns its lead.
func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid team id", err)
		return
	}
	var req UpdateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := plan.TeamPatch{Name: req.Name}
	if req.LeadID != nil {
		leadID := plan.UserID(*req.LeadID)
		patch.LeadID = &leadID
	}
	team, err := h.Roster.UpdateTeam(r.Context(), plan.TeamID(id), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamDTO(team))
}

// DeleteTeam removes a team; members are detached.
func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid team id", err)
		return
	}
	if err := h.Roster.DeleteTeam(r.Context(), plan.TeamID(id)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTeamMembers lists a team's users.
func (h *Handler) ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid team id", err)
		return
	}
	members, err := h.Roster.TeamMembers(r.Context(), plan.TeamID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]UserDTO, len(members))
	for i := range members {
		dtos[i] = toUserDTO(&members[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SCHEDULE ADMIN HANDLERS
// =============================================================================

// ListSchedules returns all per-date overrides.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.Schedules.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]ScheduleDTO, len(schedules))
	for i := range schedules {
		dtos[i] = toScheduleDTO(&schedules[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpsertSchedule creates or replaces the override for a date.
func (h *Handler) UpsertSchedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req UpsertScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := plan.ParseDay(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	flags := plan.Schedule{
		Lunch:          req.Lunch,
		Snacks:         req.Snacks,
		Iftar:          req.Iftar,
		EventDinner:    req.EventDinner,
		OptionalDinner: req.OptionalDinner,
		Occasion:       req.Occasion,
	}
	sched, err := h.Schedules.Upsert(r.Context(), date, flags, actor.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(sched))
}

// DeleteSchedule removes an override; the date reverts to defaults.
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid schedule id", err)
		return
	}
	if err := h.Schedules.Delete(r.Context(), plan.ScheduleID(id)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PROXY AND BULK RECORD HANDLERS
// =============================================================================

// UpdateUserRecord proxy-edits another user's record. Leads are limited
// to their own team; admins may target anyone.
func (h *Handler) UpdateUserRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id", err)
		return
	}
	target := plan.UserID(id)

	if err := h.Authz.CanProxyEdit(r.Context(), actor, target); err != nil {
		writeDomainError(w, err)
		return
	}

	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := plan.ParseDay(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	modifier := actor.UserID
	rec, err := h.Records.Upsert(r.Context(), target, date, req.Meals.toUpdate(req.WorkFromHome), &modifier)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// BulkUpdateRecords applies one canned action to many users' records.
// A LEAD caller's targets are scoped to their own team before any write.
func (h *Handler) BulkUpdateRecords(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req BulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.UserIDs) == 0 {
		writeError(w, http.StatusBadRequest, "No target users", nil)
		return
	}
	date, err := plan.ParseDay(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	userIDs := make([]plan.UserID, len(req.UserIDs))
	for i, id := range req.UserIDs {
		userIDs[i] = plan.UserID(id)
	}

	var teamScope *plan.TeamID
	if actor.Role == plan.RoleLead {
		if actor.TeamID == nil {
			writeError(w, http.StatusForbidden, "Lead has no team", nil)
			return
		}
		teamScope = actor.TeamID
	}

	updated, err := h.Reports.BulkUpdate(r.Context(), userIDs, date, plan.BulkAction(req.Action), actor.UserID, teamScope)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BulkUpdateResponse{Updated: updated})
}

// =============================================================================
// WFH PERIOD HANDLERS
// =============================================================================

// ListWFHPeriods returns all periods, newest first.
func (h *Handler) ListWFHPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.WFH.ListPeriods(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]WFHPeriodDTO, len(periods))
	for i := range periods {
		dtos[i] = toWFHPeriodDTO(&periods[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWFHPeriod creates a company-wide WFH period. Today, if covered,
// is applied to every active user immediately.
func (h *Handler) CreateWFHPeriod(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req CreateWFHPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	from, err := plan.ParseDay(req.DateFrom)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	to, err := plan.ParseDay(req.DateTo)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	period, err := h.WFH.CreatePeriod(r.Context(), from, to, req.Note, actor.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWFHPeriodDTO(period))
}

// DeleteWFHPeriod hard-deletes a period.
func (h *Handler) DeleteWFHPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period id", err)
		return
	}
	if err := h.WFH.DeletePeriod(r.Context(), plan.PeriodID(id)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// dateParam reads ?date=, defaulting to today.
func dateParam(r *http.Request) (plan.Day, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return plan.Today(), nil
	}
	return plan.ParseDay(raw)
}

// Headcount returns the catering totals for a date.
func (h *Handler) Headcount(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	hc, err := h.Reports.DailyHeadcount(r.Context(), date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dto := HeadcountDTO{
		Date:            hc.Date.String(),
		MealTotals:      toMealCountsDTO(hc.MealTotals),
		Office:          hc.Location.Office,
		WFH:             hc.Location.WFH,
		OverallTotal:    hc.OverallTotal,
		OfficeShare:     hc.OfficeShare.StringFixed(2),
		GlobalWFHActive: hc.GlobalWFHActive,
		GlobalWFHNote:   hc.GlobalWFHNote,
		Occasion:        hc.Occasion,
	}
	for _, tc := range hc.TeamBreakdown {
		dto.TeamBreakdown = append(dto.TeamBreakdown, TeamBreakdownDTO{
			TeamID:     int64(tc.TeamID),
			TeamName:   tc.TeamName,
			Meals:      toMealCountsDTO(tc.Meals),
			TotalMeals: tc.TotalMeals,
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// Participation returns the employee-level daily view. A LEAD caller is
// narrowed to their own team; admins and logistics see everyone, with an
// optional ?team_id= filter.
func (h *Handler) Participation(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	date, err := dateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var teamID *plan.TeamID
	if actor.Role == plan.RoleLead {
		if actor.TeamID == nil {
			writeError(w, http.StatusForbidden, "Lead has no team", nil)
			return
		}
		teamID = actor.TeamID
	} else if raw := r.URL.Query().Get("team_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid team id", err)
			return
		}
		tid := plan.TeamID(id)
		teamID = &tid
	}

	part, err := h.Reports.DailyParticipation(r.Context(), date, teamID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dto := ParticipationDTO{
		Date:              part.Date.String(),
		WFHOverLimitCount: part.WFHOverLimitCount,
		TotalExtraWFHDays: part.TotalExtraWFHDays,
	}
	for _, e := range part.Employees {
		dto.Employees = append(dto.Employees, ParticipationEntryDTO{
			ID:                 int64(e.UserID),
			Name:               e.Name,
			TeamName:           e.TeamName,
			WorkFromHome:       e.WorkFromHome,
			Meals:              mealsDTOFromMap(e.Meals),
			LastModifiedByName: e.LastModifiedByName,
			WFHDaysThisMonth:   e.WFHDaysThisMonth,
			OverWFHLimit:       e.OverWFHLimit,
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// MAINTENANCE HANDLERS
// =============================================================================

// Materialize runs the nightly record materialization immediately.
func (h *Handler) Materialize(w http.ResponseWriter, r *http.Request) {
	res, err := h.Materializer.MaterializeTomorrow(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MaterializeResponse{
		Date:    res.Date.String(),
		Created: res.Created,
		Updated: res.Updated,
	})
}
