package perm

import (
	"context"

	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/db"
	"resdir/internal/models"
)

// CreateNamespaceWithGrant inserts the namespace and hands the group the
// full flag set, atomically. A failure on either side rolls back both.
func (r *Resolver) CreateNamespaceWithGrant(ctx context.Context, ns *models.Namespace, groupID int64) error {
	err := db.WithRetry(ctx, r.db, func(gdb *gorm.DB) error {
		return gdb.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Namespace{}).Where("name = ?", ns.Name).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apierror.Conflict("namespace '%s' already exists", ns.Name)
			}
			var group models.Group
			if err := tx.Select("id").First(&group, groupID).Error; err != nil {
				return apierror.NotFound("group %d not found", groupID)
			}
			if err := tx.Create(ns).Error; err != nil {
				return err
			}
			grant := models.PermissionGrant{NamespaceID: ns.ID, GroupID: groupID}
			for _, p := range models.AllPermissions() {
				grant.SetFlag(p, true)
			}
			return tx.Create(&grant).Error
		})
	})
	return wrapErr(err)
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	return apierror.From(err)
}
