package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"resdir/internal/apierror"
	"resdir/internal/auth"
)

// renderError maps a typed error to its status and the standard
// {"error": kind, "message": text} body.
func renderError(c *gin.Context, err error) {
	ae := apierror.From(err)
	c.JSON(ae.Status(), ae)
}

// claims pulls the authenticated identity set by the JWT middleware.
func claims(c *gin.Context) *auth.Claims {
	v, _ := c.Get("claims")
	return v.(*auth.Claims)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest("invalid %s '%s'", name, c.Param(name))
	}
	return id, nil
}
