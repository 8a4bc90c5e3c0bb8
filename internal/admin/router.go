package admin

import (
	"boutique/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

type Router struct {
	controller *Controller
	verifier   middleware.TokenVerifier
	cookieName string
}

func NewRouter(controller *Controller, verifier middleware.TokenVerifier, cookieName string) *Router {
	return &Router{
		controller: controller,
		verifier:   verifier,
		cookieName: cookieName,
	}
}

// SetupRoutes registers the back-office API
func (r *Router) SetupRoutes(rg *gin.RouterGroup) {
	requireAuth := middleware.RequireAuth(r.verifier, r.cookieName)

	staff := rg.Group("/admin", requireAuth, middleware.RequireStaff())
	{
		staff.GET("/users", r.controller.ListUsers)
		staff.GET("/users/:id", r.controller.GetUser)
	}

	super := rg.Group("/superadmin", requireAuth, middleware.RequireSuperAdmin())
	{
		super.PATCH("/users/:id/role", r.controller.ChangeRole)
	}
}
