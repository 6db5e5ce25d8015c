package orgauthz

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedros/core/internal/store"
	"github.com/cedros/core/internal/store/memory"
)

func TestRoleHasPermission(t *testing.T) {
	assert.True(t, RoleHasPermission(store.RoleOwner, PermOwner))
	assert.True(t, RoleHasPermission(store.RoleAdmin, PermAdmin))
	assert.False(t, RoleHasPermission(store.RoleAdmin, PermOwner))
	assert.False(t, RoleHasPermission(store.RoleMember, PermAdmin))
}

func TestEvaluateDenyWinsTiesAtEqualPriority(t *testing.T) {
	org := uuid.New()
	policies := []*store.Policy{
		{ID: uuid.New(), OrgID: org, Effect: store.EffectAllow, Actions: []string{"wallet.sign"}, Priority: 10, Condition: store.ConditionNode{}},
		{ID: uuid.New(), OrgID: org, Effect: store.EffectDeny, Actions: []string{"wallet.sign"}, Priority: 10, Condition: store.ConditionNode{}},
	}
	matched, allow := Evaluate(policies, "user-1", "wallet.sign", AttributeBag{})
	assert.True(t, matched)
	assert.False(t, allow, "deny must win ties at equal priority")
}

func TestEvaluateHigherPriorityWinsOverLower(t *testing.T) {
	org := uuid.New()
	policies := []*store.Policy{
		{ID: uuid.New(), OrgID: org, Effect: store.EffectDeny, Actions: []string{"wallet.sign"}, Priority: 1, Condition: store.ConditionNode{}},
		{ID: uuid.New(), OrgID: org, Effect: store.EffectAllow, Actions: []string{"wallet.sign"}, Priority: 5, Condition: store.ConditionNode{}},
	}
	matched, allow := Evaluate(policies, "user-1", "wallet.sign", AttributeBag{})
	assert.True(t, matched)
	assert.True(t, allow)
}

func TestEvaluateConditionTreeEqAndIn(t *testing.T) {
	cond := store.ConditionNode{
		Op: "and",
		Children: []store.ConditionNode{
			{Op: "eq", Path: "user.role", Value: "admin"},
			{Op: "in", Path: "resource.tag", Value: []interface{}{"beta", "internal"}},
		},
	}
	bag := AttributeBag{"user.role": "admin", "resource.tag": "beta"}
	assert.True(t, evaluateCondition(cond, bag))

	bag["resource.tag"] = "public"
	assert.False(t, evaluateCondition(cond, bag))
}

func TestUpdateRoleRejectsLastOwnerDemotion(t *testing.T) {
	st := memory.New()
	eng := New(st)
	ctx := context.Background()
	org := uuid.New()
	m := &store.Membership{ID: uuid.New(), UserID: uuid.New(), OrgID: org, Role: store.RoleOwner}
	require.NoError(t, st.Memberships.Create(ctx, m))

	err := eng.UpdateRole(ctx, m.ID, store.RoleAdmin)
	require.Error(t, err)
}

func TestAcceptInviteRejectsEmailMismatch(t *testing.T) {
	st := memory.New()
	eng := New(st)
	ctx := context.Background()
	org := uuid.New()
	email := "expected@example.com"

	_, token, err := eng.CreateInvite(ctx, org, &email, nil, store.RoleMember)
	require.NoError(t, err)

	wrongEmail := "other@example.com"
	_, err = eng.AcceptInvite(ctx, token, uuid.New(), &wrongEmail, nil)
	require.Error(t, err)
}

func TestAcceptInviteIsIdempotentOnReplay(t *testing.T) {
	st := memory.New()
	eng := New(st)
	ctx := context.Background()
	org := uuid.New()
	email := "person@example.com"
	require.NoError(t, st.Orgs.Create(ctx, &store.Organization{ID: org, Name: "Acme", Slug: "acme", OwnerID: uuid.New(), CreatedAt: time.Now()}))

	_, token, err := eng.CreateInvite(ctx, org, &email, nil, store.RoleMember)
	require.NoError(t, err)

	userID := uuid.New()
	m1, err := eng.AcceptInvite(ctx, token, userID, &email, nil)
	require.NoError(t, err)
	m2, err := eng.AcceptInvite(ctx, token, userID, &email, nil)
	require.NoError(t, err)
	assert.Equal(t, m1.ID, m2.ID)
}

func TestCreateInviteRejectsDuplicatePendingRecipient(t *testing.T) {
	st := memory.New()
	eng := New(st)
	ctx := context.Background()
	org := uuid.New()
	email := "person@example.com"

	_, _, err := eng.CreateInvite(ctx, org, &email, nil, store.RoleMember)
	require.NoError(t, err)

	_, _, err = eng.CreateInvite(ctx, org, &email, nil, store.RoleAdmin)
	require.Error(t, err)
}
