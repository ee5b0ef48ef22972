package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lidercheck/internal/apperr"
	"lidercheck/internal/checklist"
	"lidercheck/internal/permission"
)

func TestReplaceItemsOfTypeKeepsOtherType(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.ReplaceItems(ctx, []checklist.Item{
		{ID: "l1", Category: "GERAL", Text: "5S ok?"},
		{ID: "m1", Category: "MX-01", Text: "Oil level", Type: checklist.ItemMaintenance},
		{ID: "l2", Category: "GERAL", Text: "EPI ok?", Type: checklist.ItemLeader},
	})
	require.NoError(t, err)

	leader, err := s.Items(ctx, checklist.ItemLeader)
	require.NoError(t, err)
	require.Len(t, leader, 2)
	assert.Equal(t, "l1", leader[0].ID)
	assert.Equal(t, checklist.ItemLeader, leader[0].Type)

	_, err = s.ReplaceItemsOfType(ctx, checklist.ItemMaintenance, []checklist.Item{
		{ID: "m2", Category: "mx-01", Text: "Belt tension"},
		{ID: "m3", Category: "MX-02", Text: "Guard closed"},
	})
	require.NoError(t, err)

	all, err := s.Items(ctx, "")
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, it := range all {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"l1", "l2", "m2", "m3"}, ids)

	forMachine, err := s.MaintenanceItems(ctx, "MX-01")
	require.NoError(t, err)
	require.Len(t, forMachine, 1)
	assert.Equal(t, "m2", forMachine[0].ID)
	assert.Equal(t, checklist.ItemMaintenance, forMachine[0].Type)
}

func TestReplaceItemsRejectsDuplicateIDs(t *testing.T) {
	_, err := newTestStore(t).ReplaceItems(context.Background(), []checklist.Item{{ID: "a"}, {ID: "a"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestReplaceWithStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v0, err := s.Version(ctx, KindRoles)
	require.NoError(t, err)

	v1, err := s.ReplaceRoles(ctx, []string{"TI", "Supervisor"}, IfVersion(v0))
	require.NoError(t, err)
	assert.Equal(t, v0+1, v1)

	_, err = s.ReplaceRoles(ctx, []string{"Auditor"}, IfVersion(v0))
	require.ErrorIs(t, err, apperr.ErrConflict)

	roles, err := s.Roles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"TI", "Supervisor"}, roles)

	// Without a token the last writer wins.
	_, err = s.ReplaceRoles(ctx, []string{"Auditor"})
	require.NoError(t, err)
	roles, err = s.Roles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Auditor"}, roles)
}

func TestReplaceLinesCanEmptyTable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.ReplaceLines(ctx, []string{"L1", " L2 ", ""})
	require.NoError(t, err)
	lines, err := s.Lines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2"}, lines)

	_, err = s.ReplaceLines(ctx, nil)
	require.NoError(t, err)
	lines, err = s.Lines(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestPermissionsReplaceAndToggle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.ReplacePermissions(ctx, []permission.Rule{
		{Role: "Operador", Module: permission.Checklist, Allowed: true},
		{Role: "Operador", Module: permission.Checklist, Allowed: false},
	})
	require.NoError(t, err)

	rules, err := s.Permissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []permission.Rule{{Role: "Operador", Module: permission.Checklist, Allowed: false}}, rules)

	rules, err = s.TogglePermission(ctx, "Operador", permission.Checklist)
	require.NoError(t, err)
	assert.Equal(t, []permission.Rule{{Role: "Operador", Module: permission.Checklist, Allowed: true}}, rules)

	_, err = s.TogglePermission(ctx, "Supervisor", permission.Audit)
	require.NoError(t, err)

	stored, err := s.Permissions(ctx)
	require.NoError(t, err)
	gate := permission.NewGate(permission.SuperAdmin{}, stored)
	assert.True(t, gate.Allowed(checklist.User{Role: "Supervisor"}, permission.Audit))
	assert.True(t, gate.Allowed(checklist.User{Role: "Operador"}, permission.Checklist))

	v, err := s.Version(ctx, KindPermissions)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}
