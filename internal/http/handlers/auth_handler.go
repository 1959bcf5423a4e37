package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/auth"
)

// LoginHandler authenticates the user and returns a JWT. Every failure mode
// produces the same generic 401 body.
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			renderError(c, apierror.Unauthorized())
			return
		}

		user, err := auth.Authenticate(db, input.Username, input.Password)
		if err != nil {
			renderError(c, err)
			return
		}

		tokenString, err := auth.IssueToken(user, jwtSecret)
		if err != nil {
			renderError(c, apierror.Internal("failed to create token"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": tokenString,
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
			},
		})
	}
}

// MeHandler returns the authenticated user with group memberships.
func MeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := claims(c)
		var user struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
			Active   bool   `json:"active"`
		}
		if err := db.Table("users").Where("id = ?", cl.UserID).Take(&user).Error; err != nil {
			renderError(c, apierror.Unauthorized())
			return
		}
		var groups []string
		if err := db.Table("groups g").
			Joins("JOIN user_groups ug ON ug.group_id = g.id").
			Where("ug.user_id = ?", cl.UserID).
			Pluck("g.name", &groups).Error; err != nil {
			renderError(c, apierror.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "groups": groups})
	}
}
