package perm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resdir/internal/apierror"
	"resdir/internal/db/dbtest"
	"resdir/internal/models"
)

func TestGrantCreatesThenMerges(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "g")
	ns := newNamespace(t, gdb, "ns")

	grant, err := r.Grant(ctx, models.NamespaceID(ns.ID), g.ID, []models.Permission{models.PermReadClass})
	require.NoError(t, err)
	assert.True(t, grant.HasReadClass)
	assert.False(t, grant.HasUpdateClass)

	// A second grant ORs bits in without clearing existing ones.
	grant, err = r.Grant(ctx, models.NamespaceID(ns.ID), g.ID, []models.Permission{models.PermUpdateClass})
	require.NoError(t, err)
	assert.True(t, grant.HasReadClass)
	assert.True(t, grant.HasUpdateClass)

	// Still exactly one row per (group, namespace).
	var count int64
	require.NoError(t, gdb.Model(&models.PermissionGrant{}).
		Where("namespace_id = ? AND group_id = ?", ns.ID, g.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// Granting on a class or object handle lands on the owning namespace's row.
func TestGrantResolvesResourceTargets(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "g")
	ns := newNamespace(t, gdb, "ns")
	class := &models.Class{Name: "host", NamespaceID: ns.ID}
	require.NoError(t, gdb.Create(class).Error)

	grant, err := r.Grant(ctx, models.ClassID(class.ID), g.ID, []models.Permission{models.PermReadClass})
	require.NoError(t, err)
	assert.Equal(t, ns.ID, grant.NamespaceID)

	_, err = r.Grant(ctx, models.ClassID(99999), g.ID, []models.Permission{models.PermReadClass})
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestRevokeClearsBits(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "g")
	ns := newNamespace(t, gdb, "ns")

	_, err := r.Grant(ctx, models.NamespaceID(ns.ID), g.ID, []models.Permission{
		models.PermReadClass, models.PermUpdateClass, models.PermDeleteClass})
	require.NoError(t, err)

	grant, err := r.Revoke(ctx, models.NamespaceID(ns.ID), g.ID, []models.Permission{models.PermUpdateClass})
	require.NoError(t, err)
	assert.True(t, grant.HasReadClass)
	assert.False(t, grant.HasUpdateClass)
	assert.True(t, grant.HasDeleteClass)
}

func TestRevokeWithoutGrantIsNotFound(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "g")
	ns := newNamespace(t, gdb, "ns")

	_, err := r.Revoke(ctx, models.NamespaceID(ns.ID), g.ID, []models.Permission{models.PermReadClass})
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestSetPermissionsReplacesMask(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "g")
	ns := newNamespace(t, gdb, "ns")

	_, err := r.Grant(ctx, models.NamespaceID(ns.ID), g.ID, []models.Permission{models.PermReadClass, models.PermDeleteClass})
	require.NoError(t, err)

	grant, err := r.SetPermissions(ctx, models.NamespaceID(ns.ID), g.ID, []models.Permission{models.PermReadObject})
	require.NoError(t, err)
	assert.True(t, grant.HasReadObject)
	assert.False(t, grant.HasReadClass)
	assert.False(t, grant.HasDeleteClass)

	// Setting on a fresh pair creates the row.
	g2 := newGroup(t, gdb, "g2")
	grant, err = r.SetPermissions(ctx, models.NamespaceID(ns.ID), g2.ID, []models.Permission{models.PermReadClass})
	require.NoError(t, err)
	assert.True(t, grant.HasReadClass)
}

func TestRevokeAllIsIdempotent(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "g")
	ns := newNamespace(t, gdb, "ns")

	_, err := r.Grant(ctx, models.NamespaceID(ns.ID), g.ID, []models.Permission{models.PermReadClass})
	require.NoError(t, err)

	require.NoError(t, r.RevokeAll(ctx, models.NamespaceID(ns.ID), g.ID))
	var count int64
	require.NoError(t, gdb.Model(&models.PermissionGrant{}).
		Where("namespace_id = ? AND group_id = ?", ns.ID, g.ID).Count(&count).Error)
	assert.Zero(t, count)

	// No row left, still no error.
	require.NoError(t, r.RevokeAll(ctx, models.NamespaceID(ns.ID), g.ID))
}

func TestCreateNamespaceWithGrant(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "owners")
	u := newUser(t, gdb, g)

	ns := models.Namespace{Name: "provisioned"}
	require.NoError(t, r.CreateNamespaceWithGrant(ctx, &ns, g.ID))
	require.NotZero(t, ns.ID)

	// The initial grant covers the full flag set.
	assert.NoError(t, r.Can(ctx, u.ID, models.AllPermissions(), refs(&ns)))

	err := r.CreateNamespaceWithGrant(ctx, &models.Namespace{Name: "provisioned"}, g.ID)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
}

func TestCreateNamespaceWithGrantRollsBack(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	// Unknown group makes the grant leg fail; the namespace insert must
	// roll back with it.
	err := r.CreateNamespaceWithGrant(ctx, &models.Namespace{Name: "orphan"}, 424242)
	require.Error(t, err)

	var count int64
	require.NoError(t, gdb.Model(&models.Namespace{}).Where("name = ?", "orphan").Count(&count).Error)
	assert.Zero(t, count)
}
