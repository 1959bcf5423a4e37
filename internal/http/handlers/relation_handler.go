package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/models"
	"resdir/internal/perm"
	"resdir/internal/relations"
	"resdir/internal/search"
)

// ListClassRelations searches relations whose endpoints are both readable.
func ListClassRelations(orch *search.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := orch.ClassRelations(c.Request.Context(), claims(c).UserID, c.Request.URL.RawQuery)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"class_relations": out})
	}
}

// CreateClassRelation relates the path class to the body class. The caller
// needs UpdateClass in both endpoint namespaces; the pair is stored
// canonically regardless of call order.
func CreateClassRelation(db *gorm.DB, resolver *perm.Resolver, graph *relations.Graph) gin.HandlerFunc {
	return func(c *gin.Context) {
		fromID, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var in struct {
			ToClassID int64 `json:"to_class_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			renderError(c, apierror.BadRequest("%s", err.Error()))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermUpdateClass},
			[]models.NamespaceRef{models.ClassID(fromID), models.ClassID(in.ToClassID)}); err != nil {
			renderError(c, err)
			return
		}
		rel, err := graph.CreateClassRelation(c.Request.Context(), fromID, in.ToClassID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"class_relation": rel})
	}
}

// DeleteClassRelation removes the edge after checking UpdateClass on both
// endpoint namespaces.
func DeleteClassRelation(db *gorm.DB, resolver *perm.Resolver, graph *relations.Graph) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var rel models.ClassRelation
		if err := db.First(&rel, id).Error; err != nil {
			renderError(c, apierror.NotFound("class relation %d not found", id))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermUpdateClass},
			[]models.NamespaceRef{models.ClassID(rel.FromClassID), models.ClassID(rel.ToClassID)}); err != nil {
			renderError(c, err)
			return
		}
		if err := graph.DeleteClassRelation(c.Request.Context(), id); err != nil {
			renderError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// RelatedClasses returns the transitive closure rows around one class.
// Requires ReadClass on the class's own namespace.
func RelatedClasses(db *gorm.DB, resolver *perm.Resolver, graph *relations.Graph) gin.HandlerFunc {
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
		rows, err := graph.TransitiveClosure(c.Request.Context(), id)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"closure": rows})
	}
}

// ListObjectRelations searches object relations with both endpoints
// readable.
func ListObjectRelations(orch *search.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := orch.ObjectRelations(c.Request.Context(), claims(c).UserID, c.Request.URL.RawQuery)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"object_relations": out})
	}
}

// CreateObjectRelation links the path object to the body object under a
// class relation. The caller needs UpdateObject in both endpoint
// namespaces.
func CreateObjectRelation(db *gorm.DB, resolver *perm.Resolver, graph *relations.Graph) gin.HandlerFunc {
	return func(c *gin.Context) {
		fromID, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var in struct {
			ClassRelationID int64 `json:"class_relation_id" binding:"required"`
			ToObjectID      int64 `json:"to_object_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			renderError(c, apierror.BadRequest("%s", err.Error()))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermUpdateObject},
			[]models.NamespaceRef{models.ObjectID(fromID), models.ObjectID(in.ToObjectID)}); err != nil {
			renderError(c, err)
			return
		}
		rel, err := graph.CreateObjectRelation(c.Request.Context(), in.ClassRelationID, fromID, in.ToObjectID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"object_relation": rel})
	}
}

// DeleteObjectRelation removes one object relation after checking
// UpdateObject on both endpoint namespaces.
func DeleteObjectRelation(db *gorm.DB, resolver *perm.Resolver, graph *relations.Graph) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var rel models.ObjectRelation
		if err := db.First(&rel, id).Error; err != nil {
			renderError(c, apierror.NotFound("object relation %d not found", id))
			return
		}
		if err := resolver.Can(c.Request.Context(), claims(c).UserID,
			[]models.Permission{models.PermUpdateObject},
			[]models.NamespaceRef{models.ObjectID(rel.FromObjectID), models.ObjectID(rel.ToObjectID)}); err != nil {
			renderError(c, err)
			return
		}
		if err := graph.DeleteObjectRelation(c.Request.Context(), id); err != nil {
			renderError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
