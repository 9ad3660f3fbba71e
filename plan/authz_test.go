package plan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/mealplan-engine/plan"
)

func TestCanProxyEdit_RoleTable(t *testing.T) {
	// GIVEN: A lead in Engineering, a teammate, and an outsider
	// WHEN: Each role tries to proxy-edit
	// THEN: Admin always may, lead only within their team, others never

	s := newStore()
	ctx := context.Background()
	eng := seedTeam(t, s, "Engineering")
	ops := seedTeam(t, s, "Operations")

	teammate := seedUser(t, s, "alice", plan.RoleEmployee, &eng.ID)
	outsider := seedUser(t, s, "carol", plan.RoleEmployee, &ops.ID)

	authz := &plan.RoleAuthorizer{Users: s}

	admin := plan.Actor{UserID: 99, Role: plan.RoleAdmin}
	assert.NoError(t, authz.CanProxyEdit(ctx, admin, teammate.ID))
	assert.NoError(t, authz.CanProxyEdit(ctx, admin, outsider.ID))

	lead := plan.Actor{UserID: 98, Role: plan.RoleLead, TeamID: &eng.ID}
	assert.NoError(t, authz.CanProxyEdit(ctx, lead, teammate.ID))
	assert.ErrorIs(t, authz.CanProxyEdit(ctx, lead, outsider.ID), plan.ErrOutOfTeam)

	teamlessLead := plan.Actor{UserID: 97, Role: plan.RoleLead}
	assert.ErrorIs(t, authz.CanProxyEdit(ctx, teamlessLead, teammate.ID), plan.ErrForbidden)

	employee := plan.Actor{UserID: teammate.ID, Role: plan.RoleEmployee, TeamID: &eng.ID}
	assert.ErrorIs(t, authz.CanProxyEdit(ctx, employee, outsider.ID), plan.ErrForbidden)

	logistics := plan.Actor{UserID: 96, Role: plan.RoleLogistics}
	assert.ErrorIs(t, authz.CanProxyEdit(ctx, logistics, teammate.ID), plan.ErrForbidden)
}

func TestCanProxyEdit_UnknownTarget(t *testing.T) {
	s := newStore()
	eng := seedTeam(t, s, "Engineering")
	authz := &plan.RoleAuthorizer{Users: s}

	lead := plan.Actor{UserID: 1, Role: plan.RoleLead, TeamID: &eng.ID}
	err := authz.CanProxyEdit(context.Background(), lead, 12345)
	assert.ErrorIs(t, err, plan.ErrUserNotFound)
}
