package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/models"
	"resdir/internal/search"
)

// ListUsers searches users with the standard filter grammar. Admin only,
// enforced by the orchestrator.
func ListUsers(orch *search.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := orch.Users(c.Request.Context(), claims(c).UserID, c.Request.URL.RawQuery)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

// CreateUser inserts a new user.
func CreateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Username string `json:"username" binding:"required"`
			Email    string `json:"email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			renderError(c, apierror.BadRequest("%s", err.Error()))
			return
		}
		in.Username = strings.TrimSpace(in.Username)
		if len(in.Password) < 8 {
			renderError(c, apierror.BadRequest("password must be at least 8 characters"))
			return
		}

		var existing int64
		if err := db.Model(&models.User{}).
			Where("username = ?", in.Username).Count(&existing).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		if existing > 0 {
			renderError(c, apierror.Conflict("username '%s' already exists", in.Username))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			renderError(c, apierror.Internal("failed to hash password"))
			return
		}

		user := models.User{
			Username:     in.Username,
			Email:        strings.TrimSpace(in.Email),
			PasswordHash: string(hash),
			Active:       true,
		}
		if err := db.Create(&user).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": user})
	}
}

// DeleteUser removes a user and their group memberships.
func DeleteUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			res := tx.Delete(&models.User{}, id)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apierror.NotFound("user %d not found", id)
			}
			return tx.Exec("DELETE FROM user_groups WHERE user_id = ?", id).Error
		})
		if err != nil {
			renderError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// SetUserActive flips the active flag; deactivated users fail every
// authentication, tokens included.
func SetUserActive(db *gorm.DB, active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		res := db.Model(&models.User{}).Where("id = ?", id).Update("active", active)
		if res.Error != nil {
			renderError(c, apierror.Database(res.Error))
			return
		}
		if res.RowsAffected == 0 {
			renderError(c, apierror.NotFound("user %d not found", id))
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "active": active})
	}
}

// AddUserToGroup inserts a membership row; already-member is a Conflict.
func AddUserToGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		groupID, err := pathID(c, "group_id")
		if err != nil {
			renderError(c, err)
			return
		}
		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			renderError(c, apierror.NotFound("user %d not found", userID))
			return
		}
		var group models.Group
		if err := db.First(&group, groupID).Error; err != nil {
			renderError(c, apierror.NotFound("group %d not found", groupID))
			return
		}
		var count int64
		db.Table("user_groups").
			Where("user_id = ? AND group_id = ?", userID, groupID).Count(&count)
		if count > 0 {
			renderError(c, apierror.Conflict("user %d is already in group %d", userID, groupID))
			return
		}
		if err := db.Exec("INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)",
			userID, groupID).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// RemoveUserFromGroup deletes a membership row.
func RemoveUserFromGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := pathID(c, "id")
		if err != nil {
			renderError(c, err)
			return
		}
		groupID, err := pathID(c, "group_id")
		if err != nil {
			renderError(c, err)
			return
		}
		res := db.Exec("DELETE FROM user_groups WHERE user_id = ? AND group_id = ?", userID, groupID)
		if res.Error != nil {
			renderError(c, apierror.Database(res.Error))
			return
		}
		if res.RowsAffected == 0 {
			renderError(c, apierror.NotFound("user %d is not in group %d", userID, groupID))
			return
		}
		c.Status(http.StatusNoContent)
	}
}
