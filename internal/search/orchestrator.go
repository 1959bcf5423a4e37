package search

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/models"
	"resdir/internal/perm"
	"resdir/internal/query"
	"resdir/internal/relations"
)

// Orchestrator composes the permission resolver, the filter compiler, and
// the relation graph into permission-scoped listing. Every search re-derives
// the caller's visible namespaces; nothing is cached between requests.
type Orchestrator struct {
	db       *gorm.DB
	resolver *perm.Resolver
	graph    *relations.Graph
}

func New(db *gorm.DB, resolver *perm.Resolver, graph *relations.Graph) *Orchestrator {
	return &Orchestrator{db: db, resolver: resolver, graph: graph}
}

// compile parses the raw query and compiles it against the entity's field
// set, returning the predicate scopes and the sort/limit options.
func compile(raw, entity string, fields query.FieldSet) ([]query.Scope, query.Options, error) {
	params, opts, err := query.ParseQuery(raw)
	if err != nil {
		return nil, opts, err
	}
	scopes, err := query.Compile(params, entity, fields)
	return scopes, opts, err
}

func applyOptions(q *gorm.DB, opts query.Options, entity string, fields query.FieldSet) (*gorm.DB, error) {
	for _, sf := range opts.Sort {
		binding, ok := fields[sf.Field]
		if !ok {
			return nil, apierror.BadRequest(
				"Field '%s' isn't searchable (or does not exist) for %s", sf.Field, entity)
		}
		dir := "ASC"
		if sf.Descending {
			dir = "DESC"
		}
		q = q.Order(fmt.Sprintf("%s %s", binding.Column, dir))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	return q, nil
}

// Namespaces lists the namespaces the caller can read that match the query.
func (o *Orchestrator) Namespaces(ctx context.Context, userID int64, raw string) ([]models.Namespace, error) {
	scopes, opts, err := compile(raw, "namespaces", namespaceFields)
	if err != nil {
		return nil, err
	}
	visible, err := o.resolver.NamespacesWithPermission(ctx, userID, models.PermReadNamespace)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return []models.Namespace{}, nil
	}
	q := o.db.WithContext(ctx).Model(&models.Namespace{}).
		Scopes(scopes...).Where("id IN ?", visible)
	if q, err = applyOptions(q, opts, "namespaces", namespaceFields); err != nil {
		return nil, err
	}
	var out []models.Namespace
	if err := q.Find(&out).Error; err != nil {
		return nil, apierror.Database(err)
	}
	return out, nil
}

// Classes lists classes in namespaces where the caller holds ReadClass.
func (o *Orchestrator) Classes(ctx context.Context, userID int64, raw string) ([]models.Class, error) {
	scopes, opts, err := compile(raw, "classes", classFields)
	if err != nil {
		return nil, err
	}
	visible, err := o.resolver.NamespacesWithPermission(ctx, userID, models.PermReadClass)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return []models.Class{}, nil
	}
	q := o.db.WithContext(ctx).Model(&models.Class{}).
		Scopes(scopes...).Where("classes.namespace_id IN ?", visible)
	if q, err = applyOptions(q, opts, "classes", classFields); err != nil {
		return nil, err
	}
	var out []models.Class
	if err := q.Find(&out).Error; err != nil {
		return nil, apierror.Database(err)
	}
	return out, nil
}

// Objects lists objects in namespaces where the caller holds ReadObject.
func (o *Orchestrator) Objects(ctx context.Context, userID int64, raw string) ([]models.Object, error) {
	scopes, opts, err := compile(raw, "objects", objectFields)
	if err != nil {
		return nil, err
	}
	visible, err := o.resolver.NamespacesWithPermission(ctx, userID, models.PermReadObject)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return []models.Object{}, nil
	}
	q := o.db.WithContext(ctx).Model(&models.Object{}).
		Scopes(scopes...).Where("objects.namespace_id IN ?", visible)
	if q, err = applyOptions(q, opts, "objects", objectFields); err != nil {
		return nil, err
	}
	var out []models.Object
	if err := q.Find(&out).Error; err != nil {
		return nil, apierror.Database(err)
	}
	return out, nil
}

// ClassRelations lists relations whose endpoint classes both sit in
// namespaces the caller can read classes in. A relation is hidden unless
// both sides pass.
func (o *Orchestrator) ClassRelations(ctx context.Context, userID int64, raw string) ([]models.ClassRelation, error) {
	scopes, opts, err := compile(raw, "class_relations", classRelationFields)
	if err != nil {
		return nil, err
	}
	visible, err := o.resolver.NamespacesWithPermission(ctx, userID, models.PermReadClass)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return []models.ClassRelation{}, nil
	}
	q := o.db.WithContext(ctx).Model(&models.ClassRelation{}).
		Joins("JOIN classes fc ON fc.id = class_relations.from_class_id").
		Joins("JOIN classes tc ON tc.id = class_relations.to_class_id").
		Where("fc.namespace_id IN ? AND tc.namespace_id IN ?", visible, visible).
		Scopes(scopes...)
	if q, err = applyOptions(q, opts, "class_relations", classRelationFields); err != nil {
		return nil, err
	}
	var out []models.ClassRelation
	if err := q.Find(&out).Error; err != nil {
		return nil, apierror.Database(err)
	}
	return out, nil
}

// ObjectRelations lists object relations with both endpoint objects in
// namespaces the caller can read objects in.
func (o *Orchestrator) ObjectRelations(ctx context.Context, userID int64, raw string) ([]models.ObjectRelation, error) {
	scopes, opts, err := compile(raw, "object_relations", objectRelationFields)
	if err != nil {
		return nil, err
	}
	visible, err := o.resolver.NamespacesWithPermission(ctx, userID, models.PermReadObject)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return []models.ObjectRelation{}, nil
	}
	q := o.db.WithContext(ctx).Model(&models.ObjectRelation{}).
		Joins("JOIN objects fo ON fo.id = object_relations.from_object_id").
		Joins("JOIN objects tobj ON tobj.id = object_relations.to_object_id").
		Where("fo.namespace_id IN ? AND tobj.namespace_id IN ?", visible, visible).
		Scopes(scopes...)
	if q, err = applyOptions(q, opts, "object_relations", objectRelationFields); err != nil {
		return nil, err
	}
	var out []models.ObjectRelation
	if err := q.Find(&out).Error; err != nil {
		return nil, apierror.Database(err)
	}
	return out, nil
}

// Users lists users matching the query. Directory-wide identity listing is
// admin only.
func (o *Orchestrator) Users(ctx context.Context, userID int64, raw string) ([]models.User, error) {
	admin, err := o.resolver.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, apierror.Forbidden("user search requires admin")
	}
	scopes, opts, err := compile(raw, "users", userFields)
	if err != nil {
		return nil, err
	}
	q := o.db.WithContext(ctx).Model(&models.User{}).Scopes(scopes...)
	if q, err = applyOptions(q, opts, "users", userFields); err != nil {
		return nil, err
	}
	var out []models.User
	if err := q.Find(&out).Error; err != nil {
		return nil, apierror.Database(err)
	}
	return out, nil
}

// Groups lists groups matching the query, admin only.
func (o *Orchestrator) Groups(ctx context.Context, userID int64, raw string) ([]models.Group, error) {
	admin, err := o.resolver.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, apierror.Forbidden("group search requires admin")
	}
	scopes, opts, err := compile(raw, "groups", groupFields)
	if err != nil {
		return nil, err
	}
	q := o.db.WithContext(ctx).Model(&models.Group{}).Scopes(scopes...)
	if q, err = applyOptions(q, opts, "groups", groupFields); err != nil {
		return nil, err
	}
	var out []models.Group
	if err := q.Find(&out).Error; err != nil {
		return nil, apierror.Database(err)
	}
	return out, nil
}
