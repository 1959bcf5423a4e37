package models

import (
	"fmt"
	"strings"
)

// Permission names one of the grant flags. The string form is what the API
// accepts and returns; Column gives the flag's column in permission_grants.
type Permission string

const (
	PermCreateNamespace   Permission = "CreateNamespace"
	PermReadNamespace     Permission = "ReadNamespace"
	PermUpdateNamespace   Permission = "UpdateNamespace"
	PermDeleteNamespace   Permission = "DeleteNamespace"
	PermDelegateNamespace Permission = "DelegateNamespace"

	PermCreateClass Permission = "CreateClass"
	PermReadClass   Permission = "ReadClass"
	PermUpdateClass Permission = "UpdateClass"
	PermDeleteClass Permission = "DeleteClass"

	PermCreateObject Permission = "CreateObject"
	PermReadObject   Permission = "ReadObject"
	PermUpdateObject Permission = "UpdateObject"
	PermDeleteObject Permission = "DeleteObject"
)

var permissionColumns = map[Permission]string{
	PermCreateNamespace:   "has_create_namespace",
	PermReadNamespace:     "has_read_namespace",
	PermUpdateNamespace:   "has_update_namespace",
	PermDeleteNamespace:   "has_delete_namespace",
	PermDelegateNamespace: "has_delegate_namespace",
	PermCreateClass:       "has_create_class",
	PermReadClass:         "has_read_class",
	PermUpdateClass:       "has_update_class",
	PermDeleteClass:       "has_delete_class",
	PermCreateObject:      "has_create_object",
	PermReadObject:        "has_read_object",
	PermUpdateObject:      "has_update_object",
	PermDeleteObject:      "has_delete_object",
}

// Column returns the permission_grants column backing the flag.
func (p Permission) Column() string { return permissionColumns[p] }

func (p Permission) Valid() bool {
	_, ok := permissionColumns[p]
	return ok
}

// ParsePermission matches a permission name case-insensitively.
func ParsePermission(s string) (Permission, error) {
	for p := range permissionColumns {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// AllPermissions lists every flag, namespace scope first.
func AllPermissions() []Permission {
	return []Permission{
		PermCreateNamespace, PermReadNamespace, PermUpdateNamespace,
		PermDeleteNamespace, PermDelegateNamespace,
		PermCreateClass, PermReadClass, PermUpdateClass, PermDeleteClass,
		PermCreateObject, PermReadObject, PermUpdateObject, PermDeleteObject,
	}
}

// SetFlag flips the grant column matching p.
func (g *PermissionGrant) SetFlag(p Permission, v bool) {
	switch p {
	case PermCreateNamespace:
		g.HasCreateNamespace = v
	case PermReadNamespace:
		g.HasReadNamespace = v
	case PermUpdateNamespace:
		g.HasUpdateNamespace = v
	case PermDeleteNamespace:
		g.HasDeleteNamespace = v
	case PermDelegateNamespace:
		g.HasDelegateNamespace = v
	case PermCreateClass:
		g.HasCreateClass = v
	case PermReadClass:
		g.HasReadClass = v
	case PermUpdateClass:
		g.HasUpdateClass = v
	case PermDeleteClass:
		g.HasDeleteClass = v
	case PermCreateObject:
		g.HasCreateObject = v
	case PermReadObject:
		g.HasReadObject = v
	case PermUpdateObject:
		g.HasUpdateObject = v
	case PermDeleteObject:
		g.HasDeleteObject = v
	}
}

// HasFlag reports whether the grant carries p.
func (g *PermissionGrant) HasFlag(p Permission) bool {
	switch p {
	case PermCreateNamespace:
		return g.HasCreateNamespace
	case PermReadNamespace:
		return g.HasReadNamespace
	case PermUpdateNamespace:
		return g.HasUpdateNamespace
	case PermDeleteNamespace:
		return g.HasDeleteNamespace
	case PermDelegateNamespace:
		return g.HasDelegateNamespace
	case PermCreateClass:
		return g.HasCreateClass
	case PermReadClass:
		return g.HasReadClass
	case PermUpdateClass:
		return g.HasUpdateClass
	case PermDeleteClass:
		return g.HasDeleteClass
	case PermCreateObject:
		return g.HasCreateObject
	case PermReadObject:
		return g.HasReadObject
	case PermUpdateObject:
		return g.HasUpdateObject
	case PermDeleteObject:
		return g.HasDeleteObject
	}
	return false
}
