package relations

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/db"
	"resdir/internal/models"
)

// Graph maintains class and object relation edges plus the derived
// transitive closure over class relations.
type Graph struct {
	db *gorm.DB
}

func NewGraph(db *gorm.DB) *Graph {
	return &Graph{db: db}
}

// CreateClassRelation stores the unordered pair (a, b) canonically as
// (min, max). Self-relations are rejected, and a pair that already exists in
// either order is a Conflict, not a silent merge. The edge insert and the
// closure recompute commit together.
func (g *Graph) CreateClassRelation(ctx context.Context, a, b int64) (*models.ClassRelation, error) {
	if a == b {
		return nil, apierror.BadRequest("cannot relate class %d to itself", a)
	}
	from, to := a, b
	if from > to {
		from, to = to, from
	}

	var rel models.ClassRelation
	err := db.WithRetry(ctx, g.db, func(gdb *gorm.DB) error {
		return gdb.Transaction(g.createClassRelationTx(from, to, &rel))
	})
	if err != nil {
		return nil, apierror.From(err)
	}
	return &rel, nil
}

func (g *Graph) createClassRelationTx(from, to int64, rel *models.ClassRelation) func(*gorm.DB) error {
	return func(tx *gorm.DB) error {
		for _, id := range []int64{from, to} {
			var cls models.Class
			if err := tx.Select("id").First(&cls, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apierror.NotFound("class %d not found", id)
				}
				return err
			}
		}
		var existing models.ClassRelation
		err := tx.Where("from_class_id = ? AND to_class_id = ?", from, to).
			First(&existing).Error
		if err == nil {
			return apierror.Conflict("relation between classes %d and %d already exists", from, to)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		*rel = models.ClassRelation{FromClassID: from, ToClassID: to}
		if err := tx.Create(rel).Error; err != nil {
			return err
		}
		return rebuildClosure(tx)
	}
}

// DeleteClassRelation removes the edge, its object relations, and the
// closure rows it carried, in one transaction.
func (g *Graph) DeleteClassRelation(ctx context.Context, id int64) error {
	err := db.WithRetry(ctx, g.db, func(gdb *gorm.DB) error {
		return gdb.Transaction(g.deleteClassRelationTx(id))
	})
	return wrap(err)
}

func (g *Graph) deleteClassRelationTx(id int64) func(*gorm.DB) error {
	return func(tx *gorm.DB) error {
		var rel models.ClassRelation
		if err := tx.First(&rel, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("class relation %d not found", id)
			}
			return err
		}
		if err := tx.Where("class_relation_id = ?", id).
			Delete(&models.ObjectRelation{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&rel).Error; err != nil {
			return err
		}
		return rebuildClosure(tx)
	}
}

// CreateObjectRelation links two objects under an existing class relation.
// Validation order is fixed: relation exists, both objects exist, the
// objects are in different classes, and each object's class matches the
// relation's corresponding endpoint. Class relations are stored canonically
// but object relations are directional.
func (g *Graph) CreateObjectRelation(ctx context.Context, classRelationID, fromObjectID, toObjectID int64) (*models.ObjectRelation, error) {
	var rel models.ObjectRelation
	err := db.WithRetry(ctx, g.db, func(gdb *gorm.DB) error {
		return gdb.Transaction(g.createObjectRelationTx(classRelationID, fromObjectID, toObjectID, &rel))
	})
	if err != nil {
		return nil, apierror.From(err)
	}
	return &rel, nil
}

func (g *Graph) createObjectRelationTx(classRelationID, fromObjectID, toObjectID int64, rel *models.ObjectRelation) func(*gorm.DB) error {
	return func(tx *gorm.DB) error {
		var classRel models.ClassRelation
		if err := tx.First(&classRel, classRelationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("class relation %d not found", classRelationID)
			}
			return err
		}

		var fromObj, toObj models.Object
		if err := tx.First(&fromObj, fromObjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("object %d not found", fromObjectID)
			}
			return err
		}
		if err := tx.First(&toObj, toObjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("object %d not found", toObjectID)
			}
			return err
		}

		if fromObj.ClassID == toObj.ClassID {
			return apierror.BadRequest("objects %d and %d share class %d", fromObjectID, toObjectID, fromObj.ClassID)
		}
		if fromObj.ClassID != classRel.FromClassID || toObj.ClassID != classRel.ToClassID {
			return apierror.BadRequest(
				"object classes (%d, %d) do not match relation endpoints (%d, %d)",
				fromObj.ClassID, toObj.ClassID, classRel.FromClassID, classRel.ToClassID)
		}

		var existing models.ObjectRelation
		err := tx.Where("class_relation_id = ? AND from_object_id = ? AND to_object_id = ?",
			classRelationID, fromObjectID, toObjectID).First(&existing).Error
		if err == nil {
			return apierror.Conflict("objects %d and %d are already related", fromObjectID, toObjectID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		*rel = models.ObjectRelation{
			ClassRelationID: classRelationID,
			FromObjectID:    fromObjectID,
			ToObjectID:      toObjectID,
		}
		return tx.Create(rel).Error
	}
}

// DeleteObjectRelation removes one object relation.
func (g *Graph) DeleteObjectRelation(ctx context.Context, id int64) error {
	res := g.db.WithContext(ctx).Delete(&models.ObjectRelation{}, id)
	if res.Error != nil {
		return apierror.Database(res.Error)
	}
	if res.RowsAffected == 0 {
		return apierror.NotFound("object relation %d not found", id)
	}
	return nil
}

// ClassRelationNamespaces returns the namespace pair of a class relation's
// endpoints. The pair may be equal. Callers require read permission in both
// before showing the relation.
func (g *Graph) ClassRelationNamespaces(ctx context.Context, rel *models.ClassRelation) (int64, int64, error) {
	fromNS, err := models.ClassID(rel.FromClassID).ResolveNamespaceID(ctx, g.db)
	if err != nil {
		return 0, 0, wrap(err)
	}
	toNS, err := models.ClassID(rel.ToClassID).ResolveNamespaceID(ctx, g.db)
	if err != nil {
		return 0, 0, wrap(err)
	}
	return fromNS, toNS, nil
}

// ObjectRelationNamespaces returns the namespace pair of an object
// relation's endpoints.
func (g *Graph) ObjectRelationNamespaces(ctx context.Context, rel *models.ObjectRelation) (int64, int64, error) {
	fromNS, err := models.ObjectID(rel.FromObjectID).ResolveNamespaceID(ctx, g.db)
	if err != nil {
		return 0, 0, wrap(err)
	}
	toNS, err := models.ObjectID(rel.ToObjectID).ResolveNamespaceID(ctx, g.db)
	if err != nil {
		return 0, 0, wrap(err)
	}
	return fromNS, toNS, nil
}

// TransitiveClosure returns the closure rows touching classID on either
// side.
func (g *Graph) TransitiveClosure(ctx context.Context, classID int64) ([]models.ClassClosure, error) {
	var rows []models.ClassClosure
	err := g.db.WithContext(ctx).
		Where("ancestor_class_id = ? OR descendant_class_id = ?", classID, classID).
		Order("depth, ancestor_class_id, descendant_class_id").
		Find(&rows).Error
	if err != nil {
		return nil, apierror.Database(err)
	}
	return rows, nil
}

// RelatedClasses lists the ids of every class reachable from classID.
func (g *Graph) RelatedClasses(ctx context.Context, classID int64) ([]int64, error) {
	rows, err := g.TransitiveClosure(ctx, classID)
	if err != nil {
		return nil, err
	}
	seen := map[int64]struct{}{}
	var ids []int64
	for _, row := range rows {
		other := row.DescendantClassID
		if other == classID {
			other = row.AncestorClassID
		}
		if _, ok := seen[other]; !ok {
			seen[other] = struct{}{}
			ids = append(ids, other)
		}
	}
	return ids, nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return apierror.From(err)
}
