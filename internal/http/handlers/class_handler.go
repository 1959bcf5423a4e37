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

// ListClasses searches classes across the caller's readable namespaces.
func ListClasses(orch *search.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := orch.Classes(c.Request.Context(), claims(c).UserID, c.Request.URL.RawQuery)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"classes": out})
	}
}

func CreateClass(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Name           string         `json:"name" binding:"required"`
			Description    string         `json:"description"`
			NamespaceID    int64          `json:"namespace_id" binding:"required"`
			JSONSchema     datatypes.JSON `json:"json_schema"`
			ValidateSchema bool           `json:"validate_schema"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			renderError(c, apierror.BadRequest("%s", err.Error()))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermCreateClass},
			[]models.NamespaceRef{models.NamespaceID(in.NamespaceID)}); err != nil {
			renderError(c, err)
			return
		}

		var existing int64
		if err := db.Model(&models.Class{}).Where("name = ?", in.Name).Count(&existing).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		if existing > 0 {
			renderError(c, apierror.Conflict("class '%s' already exists", in.Name))
			return
		}

		class := models.Class{
			Name:           strings.TrimSpace(in.Name),
			Description:    in.Description,
			NamespaceID:    in.NamespaceID,
			JSONSchema:     in.JSONSchema,
			ValidateSchema: in.ValidateSchema,
		}
		if err := db.Create(&class).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		c.JSON(http.StatusCreated, gin.H{"class": class})
	}
}

func GetClass(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var class models.Class
		if err := db.First(&class, id).Error; err != nil {
			renderError(c, apierror.NotFound("class %d not found", id))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermReadClass},
			[]models.NamespaceRef{class}); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"class": class})
	}
}

func UpdateClass(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var in struct {
			Name           *string         `json:"name"`
			Description    *string         `json:"description"`
			JSONSchema     *datatypes.JSON `json:"json_schema"`
			ValidateSchema *bool           `json:"validate_schema"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			renderError(c, apierror.BadRequest("%s", err.Error()))
			return
		}
		var class models.Class
		if err := db.First(&class, id).Error; err != nil {
			renderError(c, apierror.NotFound("class %d not found", id))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermUpdateClass},
			[]models.NamespaceRef{class}); err != nil {
			renderError(c, err)
			return
		}
		if in.Name != nil {
			class.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			class.Description = *in.Description
		}
		if in.JSONSchema != nil {
			class.JSONSchema = *in.JSONSchema
		}
		if in.ValidateSchema != nil {
			class.ValidateSchema = *in.ValidateSchema
		}
		if err := db.Save(&class).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"class": class})
	}
}

// DeleteClass refuses while objects or relations still reference the class.
func DeleteClass(db *gorm.DB, resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var class models.Class
		if err := db.First(&class, id).Error; err != nil {
			renderError(c, apierror.NotFound("class %d not found", id))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermDeleteClass},
			[]models.NamespaceRef{class}); err != nil {
			renderError(c, err)
			return
		}
		var objects int64
		if err := db.Model(&models.Object{}).Where("class_id = ?", id).Count(&objects).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		if objects > 0 {
			renderError(c, apierror.Conflict("class %d still has %d objects", id, objects))
			return
		}
		var rels int64
		if err := db.Model(&models.ClassRelation{}).
			Where("from_class_id = ? OR to_class_id = ?", id, id).Count(&rels).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		if rels > 0 {
			renderError(c, apierror.Conflict("class %d still has %d relations", id, rels))
			return
		}
		if err := db.Delete(&class).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		c.Status(http.StatusNoContent)
	}
}
