package models

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Object struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null;uniqueIndex:idx_objects_class_name" json:"name"`
	Description string         `gorm:"size:255" json:"description"`
	NamespaceID int64          `gorm:"index;not null" json:"namespace_id"`
	ClassID     int64          `gorm:"not null;uniqueIndex:idx_objects_class_name" json:"class_id"`
	Data        datatypes.JSON `gorm:"type:json" json:"data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Namespace *Namespace `gorm:"foreignKey:NamespaceID" json:"-"`
	Class     *Class     `gorm:"foreignKey:ClassID" json:"-"`
}

func (o Object) ResourceID() int64 { return o.ID }

func (o Object) ResolveNamespaceID(ctx context.Context, db *gorm.DB) (int64, error) {
	if o.NamespaceID != 0 {
		return o.NamespaceID, nil
	}
	var loaded Object
	if err := db.WithContext(ctx).Select("id", "namespace_id").First(&loaded, o.ID).Error; err != nil {
		return 0, err
	}
	return loaded.NamespaceID, nil
}

// ObjectID is a bare object identifier; its namespace is looked up on demand.
type ObjectID int64

func (o ObjectID) ResourceID() int64 { return int64(o) }

func (o ObjectID) ResolveNamespaceID(ctx context.Context, db *gorm.DB) (int64, error) {
	return Object{ID: int64(o)}.ResolveNamespaceID(ctx, db)
}
