package perm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/db"
	"resdir/internal/models"
)

// resolveTarget turns any resource handle into the namespace id its grant
// row lives under.
func (r *Resolver) resolveTarget(ctx context.Context, target models.NamespaceRef) (int64, error) {
	id, err := target.ResolveNamespaceID(ctx, r.db)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apierror.NotFound("resource %d not found", target.ResourceID())
		}
		return 0, apierror.From(err)
	}
	return id, nil
}

// Grant ORs the given permissions into the group's grant row for the
// target's namespace, creating the row on first grant. Bits are never
// cleared here.
func (r *Resolver) Grant(ctx context.Context, target models.NamespaceRef, groupID int64, perms []models.Permission) (*models.PermissionGrant, error) {
	namespaceID, err := r.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	var grant models.PermissionGrant
	err = db.WithRetry(ctx, r.db, func(gdb *gorm.DB) error {
		return gdb.Transaction(func(tx *gorm.DB) error {
			err := tx.Where("namespace_id = ? AND group_id = ?", namespaceID, groupID).
				First(&grant).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				grant = models.PermissionGrant{NamespaceID: namespaceID, GroupID: groupID}
				for _, p := range perms {
					grant.SetFlag(p, true)
				}
				return tx.Create(&grant).Error
			case err != nil:
				return err
			}
			for _, p := range perms {
				grant.SetFlag(p, true)
			}
			return tx.Save(&grant).Error
		})
	})
	if err != nil {
		return nil, apierror.From(err)
	}
	return &grant, nil
}

// GrantOne is Grant with a singleton permission list.
func (r *Resolver) GrantOne(ctx context.Context, target models.NamespaceRef, groupID int64, p models.Permission) (*models.PermissionGrant, error) {
	return r.Grant(ctx, target, groupID, []models.Permission{p})
}

// Revoke ANDs the given permissions out of an existing grant row. A group
// with no row has nothing to revoke, which is NotFound rather than a silent
// no-op.
func (r *Resolver) Revoke(ctx context.Context, target models.NamespaceRef, groupID int64, perms []models.Permission) (*models.PermissionGrant, error) {
	namespaceID, err := r.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	var grant models.PermissionGrant
	err = db.WithRetry(ctx, r.db, func(gdb *gorm.DB) error {
		return gdb.Transaction(func(tx *gorm.DB) error {
			err := tx.Where("namespace_id = ? AND group_id = ?", namespaceID, groupID).
				First(&grant).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("group %d has no permissions on namespace %d", groupID, namespaceID)
			}
			if err != nil {
				return err
			}
			for _, p := range perms {
				grant.SetFlag(p, false)
			}
			return tx.Save(&grant).Error
		})
	})
	if err != nil {
		return nil, apierror.From(err)
	}
	return &grant, nil
}

// RevokeOne is Revoke with a singleton permission list.
func (r *Resolver) RevokeOne(ctx context.Context, target models.NamespaceRef, groupID int64, p models.Permission) (*models.PermissionGrant, error) {
	return r.Revoke(ctx, target, groupID, []models.Permission{p})
}

// SetPermissions replaces the grant's whole bitmask with exactly the given
// list, creating the row if absent.
func (r *Resolver) SetPermissions(ctx context.Context, target models.NamespaceRef, groupID int64, perms []models.Permission) (*models.PermissionGrant, error) {
	namespaceID, err := r.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	var grant models.PermissionGrant
	err = db.WithRetry(ctx, r.db, func(gdb *gorm.DB) error {
		return gdb.Transaction(func(tx *gorm.DB) error {
			err := tx.Where("namespace_id = ? AND group_id = ?", namespaceID, groupID).
				First(&grant).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			create := errors.Is(err, gorm.ErrRecordNotFound)
			if create {
				grant = models.PermissionGrant{NamespaceID: namespaceID, GroupID: groupID}
			}
			for _, p := range models.AllPermissions() {
				grant.SetFlag(p, false)
			}
			for _, p := range perms {
				grant.SetFlag(p, true)
			}
			if create {
				return tx.Create(&grant).Error
			}
			return tx.Save(&grant).Error
		})
	})
	if err != nil {
		return nil, apierror.From(err)
	}
	return &grant, nil
}

// RevokeAll deletes the grant row entirely. Deleting a row that does not
// exist is not an error.
func (r *Resolver) RevokeAll(ctx context.Context, target models.NamespaceRef, groupID int64) error {
	namespaceID, err := r.resolveTarget(ctx, target)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Where("namespace_id = ? AND group_id = ?", namespaceID, groupID).
		Delete(&models.PermissionGrant{}).Error
	if err != nil {
		return apierror.Database(err)
	}
	return nil
}
