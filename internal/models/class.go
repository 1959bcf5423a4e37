package models

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Class struct {
	ID             int64          `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"uniqueIndex;size:200;not null" json:"name"`
	Description    string         `gorm:"size:255" json:"description"`
	NamespaceID    int64          `gorm:"index;not null" json:"namespace_id"`
	JSONSchema     datatypes.JSON `gorm:"type:json" json:"json_schema,omitempty"`
	ValidateSchema bool           `gorm:"default:false" json:"validate_schema"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Namespace *Namespace `gorm:"foreignKey:NamespaceID" json:"-"`
}

func (c Class) ResourceID() int64 { return c.ID }

func (c Class) ResolveNamespaceID(ctx context.Context, db *gorm.DB) (int64, error) {
	if c.NamespaceID != 0 {
		return c.NamespaceID, nil
	}
	var loaded Class
	if err := db.WithContext(ctx).Select("id", "namespace_id").First(&loaded, c.ID).Error; err != nil {
		return 0, err
	}
	return loaded.NamespaceID, nil
}

// ClassID is a bare class identifier; its namespace is looked up on demand.
type ClassID int64

func (c ClassID) ResourceID() int64 { return int64(c) }

func (c ClassID) ResolveNamespaceID(ctx context.Context, db *gorm.DB) (int64, error) {
	return Class{ID: int64(c)}.ResolveNamespaceID(ctx, db)
}
