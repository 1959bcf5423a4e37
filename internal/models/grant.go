package models

import "time"

// PermissionGrant is the single grant row for a (group, namespace) pair.
// Absence of a row means no permission. Flags cover namespace scope plus
// class and object CRUD, 13 in total.
type PermissionGrant struct {
	ID          int64 `gorm:"primaryKey" json:"id"`
	NamespaceID int64 `gorm:"not null;uniqueIndex:idx_grants_ns_group" json:"namespace_id"`
	GroupID     int64 `gorm:"not null;uniqueIndex:idx_grants_ns_group" json:"group_id"`

	HasCreateNamespace   bool `gorm:"column:has_create_namespace;default:false" json:"has_create_namespace"`
	HasReadNamespace     bool `gorm:"column:has_read_namespace;default:false" json:"has_read_namespace"`
	HasUpdateNamespace   bool `gorm:"column:has_update_namespace;default:false" json:"has_update_namespace"`
	HasDeleteNamespace   bool `gorm:"column:has_delete_namespace;default:false" json:"has_delete_namespace"`
	HasDelegateNamespace bool `gorm:"column:has_delegate_namespace;default:false" json:"has_delegate_namespace"`

	HasCreateClass bool `gorm:"column:has_create_class;default:false" json:"has_create_class"`
	HasReadClass   bool `gorm:"column:has_read_class;default:false" json:"has_read_class"`
	HasUpdateClass bool `gorm:"column:has_update_class;default:false" json:"has_update_class"`
	HasDeleteClass bool `gorm:"column:has_delete_class;default:false" json:"has_delete_class"`

	HasCreateObject bool `gorm:"column:has_create_object;default:false" json:"has_create_object"`
	HasReadObject   bool `gorm:"column:has_read_object;default:false" json:"has_read_object"`
	HasUpdateObject bool `gorm:"column:has_update_object;default:false" json:"has_update_object"`
	HasDeleteObject bool `gorm:"column:has_delete_object;default:false" json:"has_delete_object"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PermissionGrant) TableName() string { return "permission_grants" }
