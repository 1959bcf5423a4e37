package relations

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/db"
	"resdir/internal/models"
)

// DeleteNamespace removes a namespace and everything it owns: objects,
// classes, grants, and every relation touching one of its classes or
// objects. The closure index is rebuilt in the same transaction.
func (g *Graph) DeleteNamespace(ctx context.Context, namespaceID int64) error {
	err := db.WithRetry(ctx, g.db, func(gdb *gorm.DB) error {
		return gdb.Transaction(deleteNamespaceTx(namespaceID))
	})
	return wrap(err)
}

func deleteNamespaceTx(namespaceID int64) func(*gorm.DB) error {
	return func(tx *gorm.DB) error {
		var ns models.Namespace
		if err := tx.First(&ns, namespaceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("namespace %d not found", namespaceID)
			}
			return err
		}

		var classIDs []int64
		if err := tx.Model(&models.Class{}).
			Where("namespace_id = ?", namespaceID).Pluck("id", &classIDs).Error; err != nil {
			return err
		}
		var objectIDs []int64
		if err := tx.Model(&models.Object{}).
			Where("namespace_id = ?", namespaceID).Pluck("id", &objectIDs).Error; err != nil {
			return err
		}

		if len(objectIDs) > 0 {
			if err := tx.Where("from_object_id IN ? OR to_object_id IN ?", objectIDs, objectIDs).
				Delete(&models.ObjectRelation{}).Error; err != nil {
				return err
			}
		}
		if len(classIDs) > 0 {
			var relIDs []int64
			if err := tx.Model(&models.ClassRelation{}).
				Where("from_class_id IN ? OR to_class_id IN ?", classIDs, classIDs).
				Pluck("id", &relIDs).Error; err != nil {
				return err
			}
			if len(relIDs) > 0 {
				if err := tx.Where("class_relation_id IN ?", relIDs).
					Delete(&models.ObjectRelation{}).Error; err != nil {
					return err
				}
				if err := tx.Where("id IN ?", relIDs).
					Delete(&models.ClassRelation{}).Error; err != nil {
					return err
				}
			}
		}

		if err := tx.Where("namespace_id = ?", namespaceID).
			Delete(&models.Object{}).Error; err != nil {
			return err
		}
		if err := tx.Where("namespace_id = ?", namespaceID).
			Delete(&models.Class{}).Error; err != nil {
			return err
		}
		if err := tx.Where("namespace_id = ?", namespaceID).
			Delete(&models.PermissionGrant{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ns).Error; err != nil {
			return err
		}
		return rebuildClosure(tx)
	}
}
