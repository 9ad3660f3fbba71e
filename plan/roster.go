/*
roster.go - User and team administration

PURPOSE:
  Admin-side CRUD for the roster with the invariants the data model
  promises: unique emails, at most one lead per team, a lead heads at most
  one team, and no deleting a user who still leads a team. All checks run
  before any write (read-check-then-write), so single-entity operations
  never leave half-applied state.

LEAD ASSIGNMENT:
  Assigning role LEAD with a team that already has a different lead fails
  with a conflict; re-assigning the same lead to their own team is
  idempotent and succeeds.

SEE ALSO:
  - authz.go: Role-based scoping for proxy operations
*/
package plan

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

// GeneratePassword returns a random 12-character initial password for
// admin-created accounts.
func GeneratePassword() (string, error) {
	buf := make([]byte, 12)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passwordCharset[n.Int64()]
	}
	return string(buf), nil
}

// Roster administers users and teams.
type Roster struct {
	Store Store

	// BcryptCost overrides the hashing cost in tests (default 10).
	BcryptCost int
}

func NewRoster(store Store) *Roster {
	return &Roster{Store: store, BcryptCost: 10}
}

func (r *Roster) cost() int {
	if r.BcryptCost > 0 {
		return r.BcryptCost
	}
	return 10
}

// =============================================================================
// USERS
// =============================================================================

// NewUser is the input for user creation. An empty Password means
// "generate one"; the plaintext is returned once and never stored.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     Role
	TeamID   *TeamID
}

// CreateUser creates an ACTIVE user, enforcing email uniqueness and the
// one-lead-per-team invariant. Returns the user and the initial plaintext
// password.
func (r *Roster) CreateUser(ctx context.Context, in NewUser) (*User, string, error) {
	existing, err := r.Store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrEmailExists
	}

	var team *Team
	if in.Role == RoleLead && in.TeamID != nil {
		team, err = r.Store.GetTeam(ctx, *in.TeamID)
		if err != nil {
			return nil, "", err
		}
		if team == nil {
			return nil, "", ErrTeamNotFound
		}
		if team.LeadID != nil {
			return nil, "", ErrTeamHasLead
		}
	}

	password := in.Password
	if password == "" {
		password, err = GeneratePassword()
		if err != nil {
			return nil, "", err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost())
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	u := &User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Status:       StatusActive,
		TeamID:       in.TeamID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.Store.SaveUser(ctx, u); err != nil {
		return nil, "", err
	}

	if team != nil {
		lead := u.ID
		team.LeadID = &lead
		if err := r.Store.UpdateTeam(ctx, team); err != nil {
			return nil, "", err
		}
	}
	return u, password, nil
}

// UserPatch carries optional field updates; nil fields are untouched.
type UserPatch struct {
	Name   *string
	Email  *string
	Role   *Role
	TeamID *TeamID
	Status *Status
}

// UpdateUser applies a patch, re-running the email and lead checks for
// any changed field. Re-assigning a lead to their own team succeeds;
// moving a lead who still heads another team is rejected until that
// team's lead is reassigned.
func (r *Roster) UpdateUser(ctx context.Context, id UserID, patch UserPatch) (*User, error) {
	u, err := r.Store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	if patch.Email != nil && *patch.Email != u.Email {
		taken, err := r.Store.GetUserByEmail(ctx, *patch.Email)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, ErrEmailExists
		}
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.TeamID != nil {
		u.TeamID = patch.TeamID
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}

	if u.Role == RoleLead && u.TeamID != nil {
		if err := r.checkLeadFree(ctx, id, *u.TeamID); err != nil {
			return nil, err
		}
		team, err := r.Store.GetTeam(ctx, *u.TeamID)
		if err != nil {
			return nil, err
		}
		if team == nil {
			return nil, ErrTeamNotFound
		}
		if team.LeadID != nil && *team.LeadID != id {
			return nil, ErrTeamHasLead
		}
		if team.LeadID == nil {
			lead := id
			team.LeadID = &lead
			if err := r.Store.UpdateTeam(ctx, team); err != nil {
				return nil, err
			}
		}
	}

	u.UpdatedAt = time.Now().UTC()
	if err := r.Store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser hard-deletes a user. Fails while the user still leads a
// team; the store cascades their meal records.
func (r *Roster) DeleteUser(ctx context.Context, id UserID) error {
	u, err := r.Store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	team, err := r.Store.GetTeamByLead(ctx, id)
	if err != nil {
		return err
	}
	if team != nil {
		return ErrUserIsLead
	}
	return r.Store.DeleteUser(ctx, id)
}

// DeactivateUser is the soft delete: the user stops appearing in ACTIVE
// views and can no longer log in.
func (r *Roster) DeactivateUser(ctx context.Context, id UserID) (*User, error) {
	inactive := StatusInactive
	return r.UpdateUser(ctx, id, UserPatch{Status: &inactive})
}

// GetUser returns a user or ErrUserNotFound.
func (r *Roster) GetUser(ctx context.Context, id UserID) (*User, error) {
	u, err := r.Store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// SearchUsers lists users matching the query, or all users when empty.
func (r *Roster) SearchUsers(ctx context.Context, query string) ([]User, error) {
	if query == "" {
		return r.Store.ListUsers(ctx)
	}
	return r.Store.SearchUsers(ctx, query)
}

// Authenticate verifies credentials for login. INACTIVE accounts are
// rejected even with a correct password.
func (r *Roster) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := r.Store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if u.Status == StatusInactive {
		return nil, ErrAccountInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// =============================================================================
// TEAMS
// =============================================================================

// CreateTeam creates a team, optionally with a lead. The lead must not
// already head another team.
func (r *Roster) CreateTeam(ctx context.Context, name string, leadID *UserID) (*Team, error) {
	if leadID != nil {
		if err := r.checkLeadFree(ctx, *leadID, 0); err != nil {
			return nil, err
		}
	}
	t := &Team{Name: name, LeadID: leadID}
	if err := r.Store.SaveTeam(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// TeamPatch carries optional team updates; nil fields are untouched.
type TeamPatch struct {
	Name   *string
	LeadID *UserID
}

// UpdateTeam renames a team or reassigns its lead. Assigning the current
// lead again is idempotent.
func (r *Roster) UpdateTeam(ctx context.Context, id TeamID, patch TeamPatch) (*Team, error) {
	t, err := r.Store.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTeamNotFound
	}
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.LeadID != nil {
		if t.LeadID == nil || *t.LeadID != *patch.LeadID {
			if err := r.checkLeadFree(ctx, *patch.LeadID, id); err != nil {
				return nil, err
			}
		}
		t.LeadID = patch.LeadID
	}
	if err := r.Store.UpdateTeam(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// checkLeadFree verifies the user exists and leads no team other than
// exceptTeam.
func (r *Roster) checkLeadFree(ctx context.Context, leadID UserID, exceptTeam TeamID) error {
	u, err := r.Store.GetUser(ctx, leadID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	existing, err := r.Store.GetTeamByLead(ctx, leadID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != exceptTeam {
		return ErrUserLeadsTeam
	}
	return nil
}

// ListTeams returns all teams ordered by name.
func (r *Roster) ListTeams(ctx context.Context) ([]Team, error) {
	return r.Store.ListTeams(ctx)
}

// TeamMembers lists a team's users.
func (r *Roster) TeamMembers(ctx context.Context, id TeamID) ([]User, error) {
	t, err := r.Store.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTeamNotFound
	}
	return r.Store.ListTeamMembers(ctx, id)
}

// DeleteTeam removes a team; members are detached, not deleted.
func (r *Roster) DeleteTeam(ctx context.Context, id TeamID) error {
	t, err := r.Store.GetTeam(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTeamNotFound
	}
	return r.Store.DeleteTeam(ctx, id)
}
