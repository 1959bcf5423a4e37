package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/models"
	"resdir/internal/perm"
	"resdir/internal/search"
)

// ListObjects searches objects across the caller's readable namespaces.
func ListObjects(orch *search.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := orch.Objects(c.Request.Context(), claims(c).UserID, c.Request.URL.RawQuery)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"objects": out})
	}
}

func CreateObject(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Name        string         `json:"name" binding:"required"`
			Description string         `json:"description"`
			NamespaceID int64          `json:"namespace_id" binding:"required"`
			ClassID     int64          `json:"class_id" binding:"required"`
			Data        datatypes.JSON `json:"data"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			renderError(c, apierror.BadRequest("%s", err.Error()))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermCreateObject},
			[]models.NamespaceRef{models.NamespaceID(in.NamespaceID)}); err != nil {
			renderError(c, err)
			return
		}
		var class models.Class
		if err := db.First(&class, in.ClassID).Error; err != nil {
			renderError(c, apierror.NotFound("class %d not found", in.ClassID))
			return
		}

		var existing int64
		if err := db.Model(&models.Object{}).
			Where("class_id = ? AND name = ?", in.ClassID, in.Name).
			Count(&existing).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		if existing > 0 {
			renderError(c, apierror.Conflict("object '%s' already exists in class %d", in.Name, in.ClassID))
			return
		}

		obj := models.Object{
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			NamespaceID: in.NamespaceID,
			ClassID:     in.ClassID,
			Data:        in.Data,
		}
		if err := db.Create(&obj).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		c.JSON(http.StatusCreated, gin.H{"object": obj})
	}
}

func GetObject(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var obj models.Object
		if err := db.First(&obj, id).Error; err != nil {
			renderError(c, apierror.NotFound("object %d not found", id))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermReadObject},
			[]models.NamespaceRef{obj}); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"object": obj})
	}
}

func UpdateObject(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var in struct {
			Name        *string         `json:"name"`
			Description *string         `json:"description"`
			Data        *datatypes.JSON `json:"data"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			renderError(c, apierror.BadRequest("%s", err.Error()))
			return
		}
		var obj models.Object
		if err := db.First(&obj, id).Error; err != nil {
			renderError(c, apierror.NotFound("object %d not found", id))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermUpdateObject},
			[]models.NamespaceRef{obj}); err != nil {
			renderError(c, err)
			return
		}
		if in.Name != nil {
			obj.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			obj.Description = *in.Description
		}
		if in.Data != nil {
			obj.Data = *in.Data
		}
		if err := db.Save(&obj).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"object": obj})
	}
}

// DeleteObject removes the object and any relations it participates in.
func DeleteObject(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var obj models.Object
		if err := db.First(&obj, id).Error; err != nil {
			renderError(c, apierror.NotFound("object %d not found", id))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermDeleteObject},
			[]models.NamespaceRef{obj}); err != nil {
			renderError(c, err)
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("from_object_id = ? OR to_object_id = ?", id, id).
				Delete(&models.ObjectRelation{}).Error; err != nil {
				return err
			}
			return tx.Delete(&obj).Error
		})
		if err != nil {
			renderError(c, apierror.From(err))
			return
		}
		c.Status(http.StatusNoContent)
	}
}
