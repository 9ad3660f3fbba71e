/*
errors.go - Centralized error types for the planning core

PURPOSE:
  All error kinds in one place. The taxonomy mirrors what callers need to
  map onto HTTP statuses: validation, business-rule conflict, not-found,
  and everything else (fatal). Messages on sentinels are the stable,
  user-visible rule descriptions; tests assert against them.

USAGE:
  if errors.Is(err, plan.ErrOutsideWindow) { ... }
  if plan.IsConflict(err) { respond 409 }

SEE ALSO:
  - api/handlers.go: Maps these kinds to HTTP status codes
*/
package plan

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrOutsideWindow is returned when an edit targets a date outside the
	// valid editable window (tomorrow through tomorrow+6).
	ErrOutsideWindow = errors.New("can only add/edit meals for tomorrow through next 6 days")

	// ErrInvalidRange is returned when a period's end precedes its start.
	ErrInvalidRange = errors.New("invalid range: dateTo is before dateFrom")

	// ErrInvalidDate is returned for malformed date literals.
	ErrInvalidDate = errors.New("invalid date: expected YYYY-MM-DD")

	// ErrUnknownAction is returned for an unrecognized bulk action.
	ErrUnknownAction = errors.New("unknown bulk action")

	// ErrWFHMandated is returned when a meal edit targets a date covered by
	// a company-wide WFH period. Such days are managed by admin/system WFH
	// application, not individual meal toggles.
	ErrWFHMandated = errors.New("meal edits are disabled during a company-wide work-from-home period")

	// ErrEmailExists is returned on user creation/update with a taken email.
	ErrEmailExists = errors.New("email already exists")

	// ErrTeamHasLead is returned when assigning a lead to a team that
	// already has a different one.
	ErrTeamHasLead = errors.New("this team already has a lead assigned")

	// ErrUserLeadsTeam is returned when making a user lead of a second team.
	ErrUserLeadsTeam = errors.New("user already leads another team")

	// ErrUserIsLead is returned when deleting a user who still leads a team.
	ErrUserIsLead = errors.New("cannot delete user who is a team lead, reassign team lead first")

	// ErrOutOfTeam is returned when a team-scoped bulk operation targets
	// users outside the requester's team. Checked before any write.
	ErrOutOfTeam = errors.New("some employees are not in your team")

	// ErrForbidden is returned by the authorizer when the actor's role does
	// not permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials is returned on failed login. Deliberately does
	// not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountInactive is returned when an INACTIVE user tries to log in.
	ErrAccountInactive = errors.New("account is inactive")

	// Not-found sentinels.
	ErrUserNotFound     = errors.New("user not found")
	ErrTeamNotFound     = errors.New("team not found")
	ErrScheduleNotFound = errors.New("meal schedule not found")
	ErrPeriodNotFound   = errors.New("wfh period not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// WindowError reports which date violated the editable window.
type WindowError struct {
	Date   Day
	Window DayRange
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("%s: %s is outside %s", ErrOutsideWindow, e.Date, e.Window)
}

func (e *WindowError) Unwrap() error { return ErrOutsideWindow }

// RangeError reports an inverted period range.
type RangeError struct {
	From Day
	To   Day
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %s > %s", ErrInvalidRange, e.From, e.To)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// MandateError reports which WFH period blocked an edit.
type MandateError struct {
	Date     Day
	PeriodID PeriodID
}

func (e *MandateError) Error() string {
	return fmt.Sprintf("%s: %s is covered by period %d", ErrWFHMandated, e.Date, e.PeriodID)
}

func (e *MandateError) Unwrap() error { return ErrWFHMandated }

// TeamScopeError lists the target users outside the requester's team.
type TeamScopeError struct {
	TeamID    TeamID
	Outsiders []UserID
}

func (e *TeamScopeError) Error() string {
	return fmt.Sprintf("%s (team %d, %d outside)", ErrOutOfTeam, e.TeamID, len(e.Outsiders))
}

func (e *TeamScopeError) Unwrap() error { return ErrOutOfTeam }

// DateParseError reports a malformed date literal.
type DateParseError struct {
	Input string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidDate, e.Input)
}

func (e *DateParseError) Unwrap() error { return ErrInvalidDate }

// =============================================================================
// ERROR KIND HELPERS
// =============================================================================

// IsValidation reports malformed or out-of-window input, detected before
// any write.
func IsValidation(err error) bool {
	return errors.Is(err, ErrOutsideWindow) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrUnknownAction)
}

// IsConflict reports a business-rule violation on otherwise valid input.
func IsConflict(err error) bool {
	return errors.Is(err, ErrWFHMandated) ||
		errors.Is(err, ErrEmailExists) ||
		errors.Is(err, ErrTeamHasLead) ||
		errors.Is(err, ErrUserLeadsTeam) ||
		errors.Is(err, ErrUserIsLead) ||
		errors.Is(err, ErrOutOfTeam)
}

// IsNotFound reports a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTeamNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrPeriodNotFound)
}

// IsClientError reports any error caused by the caller rather than the
// system: validation, conflict, or not-found.
func IsClientError(err error) bool {
	return IsValidation(err) || IsConflict(err) || IsNotFound(err)
}
