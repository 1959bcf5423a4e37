package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resdir/internal/apierror"
	"resdir/internal/auth"
	"resdir/internal/config"
	"resdir/internal/http/handlers"
	"resdir/internal/perm"
	"resdir/internal/relations"
	"resdir/internal/search"
)

func NewRouter(db *gorm.DB, cfg config.Config) *gin.Engine {
	r := gin.Default()

	resolver := perm.NewResolver(db, cfg.AdminGroup)
	graph := relations.NewGraph(db)
	orch := search.New(db, resolver, graph)

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	// Public routes
	r.POST("/api/v1/auth/login", handlers.LoginHandler(db, cfg.JWTSecret))

	authMW := auth.JWT(db, cfg.JWTSecret)
	api := r.Group("/api/v1", authMW)
	{
		api.GET("/me", handlers.MeHandler(db))

		// Identity management; mutation is admin only, listing is enforced
		// by the search orchestrator itself.
		api.GET("/users", handlers.ListUsers(orch))
		api.POST("/users", adminOnly(resolver), handlers.CreateUser(db))
		api.DELETE("/users/:id", adminOnly(resolver), handlers.DeleteUser(db))
		api.POST("/users/:id/activate", adminOnly(resolver), handlers.SetUserActive(db, true))
		api.POST("/users/:id/deactivate", adminOnly(resolver), handlers.SetUserActive(db, false))
		api.PUT("/users/:id/groups/:group_id", adminOnly(resolver), handlers.AddUserToGroup(db))
		api.DELETE("/users/:id/groups/:group_id", adminOnly(resolver), handlers.RemoveUserFromGroup(db))

		api.GET("/groups", handlers.ListGroups(orch))
		api.POST("/groups", adminOnly(resolver), handlers.CreateGroup(db))
		api.DELETE("/groups/:id", adminOnly(resolver), handlers.DeleteGroup(db))
		api.GET("/groups/:id/members", adminOnly(resolver), handlers.ListGroupMembers(db))

		// Namespaces and their grants
		api.GET("/namespaces", handlers.ListNamespaces(orch))
		api.POST("/namespaces", handlers.CreateNamespace(db, resolver))
		api.GET("/namespaces/:id", handlers.GetNamespace(db, resolver))
		api.PATCH("/namespaces/:id", handlers.UpdateNamespace(db, resolver))
		api.DELETE("/namespaces/:id", handlers.DeleteNamespace(graph, resolver))
		api.GET("/namespaces/:id/permissions/:group_id", handlers.GetGroupPermissions(db, resolver))
		api.POST("/namespaces/:id/permissions/:group_id", handlers.GrantPermissions(resolver))
		api.PUT("/namespaces/:id/permissions/:group_id", handlers.SetPermissions(resolver))
		api.PATCH("/namespaces/:id/permissions/:group_id", handlers.RevokePermissions(resolver))
		api.DELETE("/namespaces/:id/permissions/:group_id", handlers.RevokeAllPermissions(resolver))

		// Classes
		api.GET("/classes", handlers.ListClasses(orch))
		api.POST("/classes", handlers.CreateClass(db, resolver))
		api.GET("/classes/:id", handlers.GetClass(db, resolver))
		api.PATCH("/classes/:id", handlers.UpdateClass(db, resolver))
		api.DELETE("/classes/:id", handlers.DeleteClass(db, resolver))
		api.POST("/classes/:id/relations", handlers.CreateClassRelation(db, resolver, graph))
		api.GET("/classes/:id/related", handlers.RelatedClasses(db, resolver, graph))

		// Objects
		api.GET("/objects", handlers.ListObjects(orch))
		api.POST("/objects", handlers.CreateObject(db, resolver))
		api.GET("/objects/:id", handlers.GetObject(db, resolver))
		api.PATCH("/objects/:id", handlers.UpdateObject(db, resolver))
		api.DELETE("/objects/:id", handlers.DeleteObject(db, resolver))
		api.POST("/objects/:id/relations", handlers.CreateObjectRelation(db, resolver, graph))

		// Relations as their own collections
		api.GET("/relations/classes", handlers.ListClassRelations(orch))
		api.DELETE("/relations/classes/:id", handlers.DeleteClassRelation(db, resolver, graph))
		api.GET("/relations/objects", handlers.ListObjectRelations(orch))
		api.DELETE("/relations/objects/:id", handlers.DeleteObjectRelation(db, resolver, graph))
	}

	return r
}

// adminOnly gates identity management behind the configured admin group.
func adminOnly(resolver *perm.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, exists := c.Get("claims")
		if !exists {
			ae := apierror.Unauthorized()
			c.AbortWithStatusJSON(ae.Status(), ae)
			return
		}
		admin, err := resolver.IsAdmin(c.Request.Context(), cl.(*auth.Claims).UserID)
		if err != nil {
			ae := apierror.From(err)
			c.AbortWithStatusJSON(ae.Status(), ae)
			return
		}
		if !admin {
			ae := apierror.Forbidden("admin required")
			c.AbortWithStatusJSON(ae.Status(), ae)
			return
		}
		c.Next()
	}
}
