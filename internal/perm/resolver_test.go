package perm

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/db/dbtest"
	"resdir/internal/models"
)

const adminGroupName = "admin"

func newUser(t *testing.T, gdb *gorm.DB, groups ...*models.Group) *models.User {
	t.Helper()
	user := &models.User{Username: "u-" + uuid.NewString(), Active: true}
	require.NoError(t, gdb.Create(user).Error)
	for _, g := range groups {
		require.NoError(t, gdb.Exec(
			"INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)",
			user.ID, g.ID).Error)
	}
	return user
}

func newGroup(t *testing.T, gdb *gorm.DB, name string) *models.Group {
	t.Helper()
	g := &models.Group{Name: name}
	require.NoError(t, gdb.Create(g).Error)
	return g
}

func newNamespace(t *testing.T, gdb *gorm.DB, name string) *models.Namespace {
	t.Helper()
	ns := &models.Namespace{Name: name}
	require.NoError(t, gdb.Create(ns).Error)
	return ns
}

func refs(namespaces ...*models.Namespace) []models.NamespaceRef {
	out := make([]models.NamespaceRef, len(namespaces))
	for i, ns := range namespaces {
		out[i] = models.NamespaceID(ns.ID)
	}
	return out
}

func TestIsAdmin(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	admins := newGroup(t, gdb, adminGroupName)
	other := newGroup(t, gdb, "staff")
	root := newUser(t, gdb, admins)
	pleb := newUser(t, gdb, other)

	got, err := r.IsAdmin(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = r.IsAdmin(ctx, pleb.ID)
	require.NoError(t, err)
	assert.False(t, got)
}

// One group may satisfy different namespaces differently, but every
// requested namespace needs a single group holding the whole permission set.
func TestCanPerNamespacePermissionSets(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g1 := newGroup(t, gdb, "g1")
	u1 := newUser(t, gdb, g1)
	n1 := newNamespace(t, gdb, "n1")
	n2 := newNamespace(t, gdb, "n2")

	_, err := r.Grant(ctx, models.NamespaceID(n1.ID), g1.ID, []models.Permission{models.PermCreateClass, models.PermReadClass})
	require.NoError(t, err)
	_, err = r.Grant(ctx, models.NamespaceID(n2.ID), g1.ID, []models.Permission{models.PermCreateClass, models.PermDeleteClass})
	require.NoError(t, err)

	assert.NoError(t, r.Can(ctx, u1.ID, []models.Permission{models.PermCreateClass}, refs(n1)))

	err = r.Can(ctx, u1.ID, []models.Permission{models.PermReadClass, models.PermCreateClass}, refs(n1, n2))
	assert.True(t, apierror.IsKind(err, apierror.KindForbidden))

	assert.NoError(t, r.Can(ctx, u1.ID, []models.Permission{models.PermCreateClass}, refs(n1, n2)))
}

func TestCanIsMonotonicInGrants(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "readers")
	u := newUser(t, gdb, g)
	n1 := newNamespace(t, gdb, "m1")
	n2 := newNamespace(t, gdb, "m2")

	want := []models.Permission{models.PermReadClass, models.PermReadObject}
	for _, ns := range []*models.Namespace{n1, n2} {
		_, err := r.Grant(ctx, models.NamespaceID(ns.ID), g.ID, want)
		require.NoError(t, err)
	}
	require.NoError(t, r.Can(ctx, u.ID, want, refs(n1, n2)))

	// Removing any single required bit on one namespace flips the result.
	_, err := r.RevokeOne(ctx, models.NamespaceID(n2.ID), g.ID, models.PermReadObject)
	require.NoError(t, err)
	err = r.Can(ctx, u.ID, want, refs(n1, n2))
	assert.True(t, apierror.IsKind(err, apierror.KindForbidden))
}

func TestCanAdminBypass(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	admins := newGroup(t, gdb, adminGroupName)
	root := newUser(t, gdb, admins)
	ns := newNamespace(t, gdb, "locked")

	// No grant rows at all, yet the admin passes.
	assert.NoError(t, r.Can(ctx, root.ID, models.AllPermissions(), refs(ns)))
}

func TestCanResolvesHeterogeneousTargets(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "mixed")
	u := newUser(t, gdb, g)
	ns := newNamespace(t, gdb, "hetns")

	class := &models.Class{Name: "host", NamespaceID: ns.ID}
	require.NoError(t, gdb.Create(class).Error)
	obj := &models.Object{Name: "host-1", NamespaceID: ns.ID, ClassID: class.ID}
	require.NoError(t, gdb.Create(obj).Error)

	_, err := r.Grant(ctx, models.NamespaceID(ns.ID), g.ID, []models.Permission{models.PermReadClass})
	require.NoError(t, err)

	targets := []models.NamespaceRef{
		models.NamespaceID(ns.ID),
		models.ClassID(class.ID),
		models.ObjectID(obj.ID),
		*class,
	}
	assert.NoError(t, r.Can(ctx, u.ID, []models.Permission{models.PermReadClass}, targets))

	err = r.Can(ctx, u.ID, []models.Permission{models.PermReadClass},
		[]models.NamespaceRef{models.ClassID(99999)})
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestCanRejectsEmptyArguments(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "empty")
	u := newUser(t, gdb, g)

	err := r.Can(ctx, u.ID, nil, refs(newNamespace(t, gdb, "x")))
	assert.True(t, apierror.IsKind(err, apierror.KindBadRequest))
	err = r.Can(ctx, u.ID, []models.Permission{models.PermReadClass}, nil)
	assert.True(t, apierror.IsKind(err, apierror.KindBadRequest))
}

func TestUserCan(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "uc")
	u := newUser(t, gdb, g)
	ns := newNamespace(t, gdb, "ucns")

	_, err := r.Grant(ctx, models.NamespaceID(ns.ID), g.ID, []models.Permission{models.PermUpdateObject})
	require.NoError(t, err)

	ok, err := r.UserCan(ctx, u.ID, models.PermUpdateObject, ns.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.UserCan(ctx, u.ID, models.PermDeleteObject, ns.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNamespacesWithPermission(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	r := NewResolver(gdb, adminGroupName)
	ctx := context.Background()

	g := newGroup(t, gdb, "nwp")
	u := newUser(t, gdb, g)
	n1 := newNamespace(t, gdb, "nwp1")
	n2 := newNamespace(t, gdb, "nwp2")
	newNamespace(t, gdb, "nwp3")

	for _, ns := range []*models.Namespace{n1, n2} {
		_, err := r.Grant(ctx, models.NamespaceID(ns.ID), g.ID, []models.Permission{models.PermReadClass})
		require.NoError(t, err)
	}

	got, err := r.NamespacesWithPermission(ctx, u.ID, models.PermReadClass)
	require.NoError(t, err)
	assert.Equal(t, []int64{n1.ID, n2.ID}, got)

	got, err = r.NamespacesWithPermission(ctx, u.ID, models.PermDeleteClass)
	require.NoError(t, err)
	assert.Empty(t, got)
}
