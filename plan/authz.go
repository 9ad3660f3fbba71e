/*
authz.go - Proxy-edit authorization collaborator

PURPOSE:
  Role scoping for operations performed on behalf of another user. Kept as
  an interface so the rule engines stay testable without an auth stack:
  the HTTP layer resolves the actor, the engines consume the decision.

POLICY (RoleAuthorizer):
  - ADMIN bypasses all team checks
  - LEAD may only target users in their own team
  - EMPLOYEE and LOGISTICS cannot proxy-edit at all
  - LOGISTICS is read-only on reporting routes (enforced at the router)
*/
package plan

import "context"

// Actor is the authenticated caller's identity as the core sees it.
type Actor struct {
	UserID UserID
	Role   Role
	TeamID *TeamID
}

// Authorizer decides whether an actor may act on a target user.
type Authorizer interface {
	// CanProxyEdit returns nil to allow, ErrForbidden or a TeamScopeError
	// to deny.
	CanProxyEdit(ctx context.Context, actor Actor, target UserID) error
}

// RoleAuthorizer implements the role table above against the user store.
type RoleAuthorizer struct {
	Users UserStore
}

func (a *RoleAuthorizer) CanProxyEdit(ctx context.Context, actor Actor, target UserID) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleLead:
		if actor.TeamID == nil {
			return ErrForbidden
		}
		u, err := a.Users.GetUser(ctx, target)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrUserNotFound
		}
		if u.TeamID == nil || *u.TeamID != *actor.TeamID {
			return &TeamScopeError{TeamID: *actor.TeamID, Outsiders: []UserID{target}}
		}
		return nil
	default:
		return ErrForbidden
	}
}
