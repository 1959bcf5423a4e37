package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/models"
	"resdir/internal/search"
)

// ListGroups searches groups with the standard filter grammar, admin only.
func ListGroups(orch *search.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := orch.Groups(c.Request.Context(), claims(c).UserID, c.Request.URL.RawQuery)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"groups": groups})
	}
}

func CreateGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Name        string `json:"name" binding:"required"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			renderError(c, apierror.BadRequest("%s", err.Error()))
			return
		}
		in.Name = strings.TrimSpace(in.Name)

		var existing int64
		if err := db.Model(&models.Group{}).Where("name = ?", in.Name).Count(&existing).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		if existing > 0 {
			renderError(c, apierror.Conflict("group '%s' already exists", in.Name))
			return
		}

		group := models.Group{Name: in.Name, Description: in.Description}
		if err := db.Create(&group).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		c.JSON(http.StatusCreated, gin.H{"group": group})
	}
}

// DeleteGroup removes the group, its memberships, and every grant it held.
func DeleteGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			res := tx.Delete(&models.Group{}, id)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apierror.NotFound("group %d not found", id)
			}
			if err := tx.Exec("DELETE FROM user_groups WHERE group_id = ?", id).Error; err != nil {
				return err
			}
			return tx.Where("group_id = ?", id).Delete(&models.PermissionGrant{}).Error
		})
		if err != nil {
			renderError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ListGroupMembers returns the users in a group.
func ListGroupMembers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		var group models.Group
		if err := db.First(&group, id).Error; err != nil {
			renderError(c, apierror.NotFound("group %d not found", id))
			return
		}
		var users []models.User
		if err := db.Joins("JOIN user_groups ug ON ug.user_id = users.id").
			Where("ug.group_id = ?", id).Find(&users).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"group": group.Name, "members": users})
	}
}
