package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Namespace struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:200;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NamespaceRef is implemented by anything that lives in (or is) a namespace.
// Both fully loaded records and bare-id wrappers satisfy it, so permission
// checks accept either form.
type NamespaceRef interface {
	ResourceID() int64
	ResolveNamespaceID(ctx context.Context, db *gorm.DB) (int64, error)
}

func (n Namespace) ResourceID() int64 { return n.ID }

func (n Namespace) ResolveNamespaceID(ctx context.Context, db *gorm.DB) (int64, error) {
	return n.ID, nil
}

// NamespaceID is a bare namespace identifier usable wherever a NamespaceRef
// is expected.
type NamespaceID int64

func (n NamespaceID) ResourceID() int64 { return int64(n) }

func (n NamespaceID) ResolveNamespaceID(ctx context.Context, db *gorm.DB) (int64, error) {
	return int64(n), nil
}
