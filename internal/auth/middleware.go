package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/models"
)

// Claims represents the JWT claims structure.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticate verifies a username/password pair and returns the user.
// Every failure, unknown user or wrong password alike, yields the same
// generic Unauthorized so callers cannot probe which accounts exist.
func Authenticate(db *gorm.DB, username, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, apierror.Unauthorized()
	}
	if !user.Active {
		return nil, apierror.Unauthorized()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apierror.Unauthorized()
	}
	return &user, nil
}

// IssueToken signs a 24h HS256 token for the user.
func IssueToken(user *models.User, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	return token.SignedString([]byte(secret))
}

// JWT returns a Gin middleware that validates bearer tokens and verifies the
// user is still active. Whatever failed (missing header, bad signature,
// expired token, deactivated user), the response is the same generic 401.
func JWT(db *gorm.DB, secret string) gin.HandlerFunc {
	unauthorized := func(c *gin.Context) {
		ae := apierror.Unauthorized()
		c.AbortWithStatusJSON(http.StatusUnauthorized, ae)
	}

	return func(c *gin.Context) {
		tokenStr := c.GetHeader("Authorization")
		if tokenStr == "" {
			unauthorized(c)
			return
		}
		tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))

		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			unauthorized(c)
			return
		}
		claims, ok := token.Claims.(*Claims)
		if !ok {
			unauthorized(c)
			return
		}

		// Verify the user still exists and is active.
		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			unauthorized(c)
			return
		}
		if !user.Active {
			unauthorized(c)
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}
