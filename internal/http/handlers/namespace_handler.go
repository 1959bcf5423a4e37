package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/models"
	"resdir/internal/perm"
	"resdir/internal/relations"
	"resdir/internal/search"
)

// ListNamespaces searches the namespaces the caller can read.
func ListNamespaces(orch *search.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := orch.Namespaces(c.Request.Context(), claims(c).UserID, c.Request.URL.RawQuery)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"namespaces": out})
	}
}

// CreateNamespace inserts the namespace and grants the assignee group the
// full permission set, atomically. Requires CreateNamespace somewhere or
// admin.
func CreateNamespace(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Name        string `json:"name" binding:"required"`
			Description string `json:"description"`
			GroupID     int64  `json:"group_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			renderError(c, apierror.BadRequest("%s", err.Error()))
			return
		}
		cl := claims(c)

		admin, err := resolver.IsAdmin(c.Request.Context(), cl.UserID)
		if err != nil {
			renderError(c, err)
			return
		}
		if !admin {
			allowed, err := userHoldsAnywhere(c, db, cl.UserID, models.PermCreateNamespace)
			if err != nil {
				renderError(c, err)
				return
			}
			if !allowed {
				renderError(c, apierror.Forbidden("missing CreateNamespace"))
				return
			}
		}

		ns := models.Namespace{Name: strings.TrimSpace(in.Name), Description: in.Description}
		if err := resolver.CreateNamespaceWithGrant(c.Request.Context(), &ns, in.GroupID); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"namespace": ns})
	}
}

// userHoldsAnywhere reports whether any of the user's groups holds p on any
// namespace. CreateNamespace is the one flag checked without a concrete
// target namespace.
func userHoldsAnywhere(c *gin.Context, db *gorm.DB, userID int64, p models.Permission) (bool, error) {
	var count int64
	err := db.WithContext(c.Request.Context()).Table("permission_grants pg").
		Joins("JOIN user_groups ug ON ug.group_id = pg.group_id").
		Where("ug.user_id = ?", userID).
		Where("pg."+p.Column()+" = ?", true).
		Count(&count).Error
	if err != nil {
		return false, apierror.Database(err)
	}
	return count > 0, nil
}

// GetNamespace returns one namespace if the caller can read it.
func GetNamespace(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermReadNamespace},
			[]models.NamespaceRef{models.NamespaceID(id)}); err != nil {
			renderError(c, err)
			return
		}
		var ns models.Namespace
		if err := db.First(&ns, id).Error; err != nil {
			renderError(c, apierror.NotFound("namespace %d not found", id))
			return
		}
		c.JSON(http.StatusOK, gin.H{"namespace": ns})
	}
}

// UpdateNamespace renames or redescribes a namespace.
func UpdateNamespace(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var in struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			renderError(c, apierror.BadRequest("%s", err.Error()))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermUpdateNamespace},
			[]models.NamespaceRef{models.NamespaceID(id)}); err != nil {
			renderError(c, err)
			return
		}
		var ns models.Namespace
		if err := db.First(&ns, id).Error; err != nil {
			renderError(c, apierror.NotFound("namespace %d not found", id))
			return
		}
		if in.Name != nil {
			ns.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			ns.Description = *in.Description
		}
		if err := db.Save(&ns).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"namespace": ns})
	}
}

// DeleteNamespace cascades through classes, objects, relations, and grants.
func DeleteNamespace(graph *relations.Graph, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermDeleteNamespace},
			[]models.NamespaceRef{models.NamespaceID(id)}); err != nil {
			renderError(c, err)
			return
		}
		if err := graph.DeleteNamespace(c.Request.Context(), id); err != nil {
			renderError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type permissionBody struct {
	Permissions []string `json:"permissions" binding:"required"`
}

func (b permissionBody) parse() ([]models.Permission, error) {
	perms := make([]models.Permission, 0, len(b.Permissions))
	for _, name := range b.Permissions {
		p, err := models.ParsePermission(name)
		if err != nil {
			return nil, apierror.BadRequest("%s", err.Error())
		}
		perms = append(perms, p)
	}
	return perms, nil
}

// requireDelegate gates grant mutation: the caller needs DelegateNamespace
// on the namespace (or admin, which Can short-circuits).
func requireDelegate(c *gin.Context, resolver *perm.Resolver, namespaceID int64) error {
	return resolver.Can(c.Request.Context(), claims(c).UserID,
		[]models.Permission{models.PermDelegateNamespace},
		[]models.NamespaceRef{models.NamespaceID(namespaceID)})
}

// GetGroupPermissions returns the grant row for (namespace, group).
func GetGroupPermissions(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		nsID, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		groupID, err := pathID(c, "group_id")
		if err != nil {
			renderError(c, err)
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermReadNamespace},
			[]models.NamespaceRef{models.NamespaceID(nsID)}); err != nil {
			renderError(c, err)
			return
		}
		var grant models.PermissionGrant
		if err := db.Where("namespace_id = ? AND group_id = ?", nsID, groupID).
			First(&grant).Error; err != nil {
			renderError(c, apierror.NotFound("group %d has no permissions on namespace %d", groupID, nsID))
			return
		}
		c.JSON(http.StatusOK, gin.H{"grant": grant})
	}
}

// GrantPermissions ORs the listed flags into the group's grant.
func GrantPermissions(resolver *perm.Resolver) gin.HandlerFunc {
	return grantMutation(resolver, func(c *gin.Context, r *perm.Resolver, nsID, groupID int64, perms []models.Permission) (any, error) {
		return r.Grant(c.Request.Context(), models.NamespaceID(nsID), groupID, perms)
	})
}

// SetPermissions replaces the group's grant with exactly the listed flags.
func SetPermissions(resolver *perm.Resolver) gin.HandlerFunc {
	return grantMutation(resolver, func(c *gin.Context, r *perm.Resolver, nsID, groupID int64, perms []models.Permission) (any, error) {
		return r.SetPermissions(c.Request.Context(), models.NamespaceID(nsID), groupID, perms)
	})
}

// RevokePermissions clears the listed flags from the group's grant.
func RevokePermissions(resolver *perm.Resolver) gin.HandlerFunc {
	return grantMutation(resolver, func(c *gin.Context, r *perm.Resolver, nsID, groupID int64, perms []models.Permission) (any, error) {
		return r.Revoke(c.Request.Context(), models.NamespaceID(nsID), groupID, perms)
	})
}

func grantMutation(resolver *perm.Resolver, fn func(*gin.Context, *perm.Resolver, int64, int64, []models.Permission) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		nsID, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		groupID, err := pathID(c, "group_id")
		if err != nil {
			renderError(c, err)
			return
		}
		var body permissionBody
		if err := c.ShouldBindJSON(&body); err != nil {
			renderError(c, apierror.BadRequest("%s", err.Error()))
			return
		}
		perms, err := body.parse()
		if err != nil {
			renderError(c, err)
			return
		}
		if err := requireDelegate(c, resolver, nsID); err != nil {
			renderError(c, err)
			return
		}
		grant, err := fn(c, resolver, nsID, groupID, perms)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"grant": grant})
	}
}

// RevokeAllPermissions deletes the grant row; idempotent.
func RevokeAllPermissions(resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		nsID, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		groupID, err := pathID(c, "group_id")
		if err != nil {
			renderError(c, err)
			return
		}
		if err := requireDelegate(c, resolver, nsID); err != nil {
			renderError(c, err)
			return
		}
		if err := resolver.RevokeAll(c.Request.Context(), models.NamespaceID(nsID), groupID); err != nil {
			renderError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
