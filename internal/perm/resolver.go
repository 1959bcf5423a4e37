package perm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/models"
	"resdir/internal/query"
)

// resolveFanOut bounds how many namespace lookups Can runs concurrently.
const resolveFanOut = 5

// Resolver answers permission questions and mutates grants. The admin group
// name is injected at construction; members of that group bypass every
// check.
type Resolver struct {
	db         *gorm.DB
	adminGroup string
}

func NewResolver(db *gorm.DB, adminGroup string) *Resolver {
	return &Resolver{db: db, adminGroup: adminGroup}
}

// IsAdmin reports membership in the configured admin group.
func (r *Resolver) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("user_groups ug").
		Joins("JOIN groups g ON g.id = ug.group_id").
		Where("ug.user_id = ? AND g.name = ?", userID, r.adminGroup).
		Count(&count).Error
	if err != nil {
		return false, apierror.Database(err)
	}
	return count > 0, nil
}

// Can succeeds iff for every requested namespace at least one of the user's
// groups holds all requested permission bits. Different namespaces may be
// satisfied by different groups, but each namespace needs one group holding
// the whole set. Targets are resolved to namespace ids concurrently with a
// bounded fan-out and joined before the aggregate count runs.
func (r *Resolver) Can(ctx context.Context, userID int64, perms []models.Permission, targets []models.NamespaceRef) error {
	if len(perms) == 0 || len(targets) == 0 {
		return apierror.BadRequest("permission check requires at least one permission and one target")
	}
	admin, err := r.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if admin {
		return nil
	}

	ids := make([]int64, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveFanOut)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			id, err := target.ResolveNamespaceID(gctx, r.db)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apierror.NotFound("resource %d not found", target.ResourceID())
				}
				return apierror.From(err)
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	wanted := query.UniqueSortedIDs(ids)

	var satisfied int64
	q := r.db.WithContext(ctx).Table("permission_grants pg").
		Joins("JOIN user_groups ug ON ug.group_id = pg.group_id").
		Where("ug.user_id = ?", userID).
		Where("pg.namespace_id IN ?", wanted)
	for _, p := range perms {
		q = q.Where(fmt.Sprintf("pg.%s = ?", p.Column()), true)
	}
	if err := q.Distinct("pg.namespace_id").Count(&satisfied).Error; err != nil {
		return apierror.Database(err)
	}
	if satisfied != int64(len(wanted)) {
		return apierror.Forbidden("missing %s on one or more namespaces", permNames(perms))
	}
	return nil
}

// UserCan is the single-permission, single-namespace convenience form.
func (r *Resolver) UserCan(ctx context.Context, userID int64, p models.Permission, namespaceID int64) (bool, error) {
	admin, err := r.IsAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	if admin {
		return true, nil
	}
	var count int64
	err = r.db.WithContext(ctx).Table("permission_grants pg").
		Joins("JOIN user_groups ug ON ug.group_id = pg.group_id").
		Where("ug.user_id = ? AND pg.namespace_id = ?", userID, namespaceID).
		Where(fmt.Sprintf("pg.%s = ?", p.Column()), true).
		Count(&count).Error
	if err != nil {
		return false, apierror.Database(err)
	}
	return count > 0, nil
}

// GroupsForUser returns the user's group memberships.
func (r *Resolver) GroupsForUser(ctx context.Context, userID int64) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).
		Joins("JOIN user_groups ug ON ug.group_id = groups.id").
		Where("ug.user_id = ?", userID).
		Find(&groups).Error
	if err != nil {
		return nil, apierror.Database(err)
	}
	return groups, nil
}

// NamespacesWithPermission lists the namespace ids on which any of the
// user's groups holds p. Admins see every namespace.
func (r *Resolver) NamespacesWithPermission(ctx context.Context, userID int64, p models.Permission) ([]int64, error) {
	admin, err := r.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	var ids []int64
	if admin {
		err = r.db.WithContext(ctx).Model(&models.Namespace{}).
			Pluck("id", &ids).Error
	} else {
		err = r.db.WithContext(ctx).Table("permission_grants pg").
			Joins("JOIN user_groups ug ON ug.group_id = pg.group_id").
			Where("ug.user_id = ?", userID).
			Where(fmt.Sprintf("pg.%s = ?", p.Column()), true).
			Distinct().Pluck("pg.namespace_id", &ids).Error
	}
	if err != nil {
		return nil, apierror.Database(err)
	}
	return query.UniqueSortedIDs(ids), nil
}

func permNames(perms []models.Permission) string {
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}
