package models

import "time"

// ClassRelation is an unordered pair of distinct classes, stored with
// FromClassID < ToClassID so each pair exists at most once.
type ClassRelation struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	FromClassID int64     `gorm:"not null;uniqueIndex:idx_class_relations_pair" json:"from_class_id"`
	ToClassID   int64     `gorm:"not null;uniqueIndex:idx_class_relations_pair" json:"to_class_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ObjectRelation links two objects under an existing class relation. Unlike
// the class relation it references, direction matters: FromObject's class
// must equal the relation's FromClassID and ToObject's its ToClassID.
type ObjectRelation struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	ClassRelationID int64     `gorm:"not null;uniqueIndex:idx_object_relations_triple" json:"class_relation_id"`
	FromObjectID    int64     `gorm:"not null;uniqueIndex:idx_object_relations_triple" json:"from_object_id"`
	ToObjectID      int64     `gorm:"not null;uniqueIndex:idx_object_relations_triple" json:"to_object_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ClassClosure is the derived reachability index over class relations. It is
// recomputed from direct edges whenever an edge is inserted or removed, never
// edited directly.
type ClassClosure struct {
	ID                int64  `gorm:"primaryKey" json:"id"`
	AncestorClassID   int64  `gorm:"not null;index" json:"ancestor_class_id"`
	DescendantClassID int64  `gorm:"not null;index" json:"descendant_class_id"`
	Depth             int    `gorm:"not null" json:"depth"`
	Path              string `gorm:"size:1024" json:"path"`
}

func (ClassClosure) TableName() string { return "class_closures" }
