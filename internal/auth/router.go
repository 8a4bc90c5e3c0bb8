package auth

import (
	"boutique/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles auth-related routes
type Router struct {
	controller *Controller
	verifier   middleware.TokenVerifier
	cookieName string
}

// NewRouter creates a new auth router
func NewRouter(controller *Controller, verifier middleware.TokenVerifier) *Router {
	return &Router{
		controller: controller,
		verifier:   verifier,
		cookieName: controller.cookies.AccessName(),
	}
}

// SetupRoutes registers all auth routes
func (authRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		// public routes; /me answers {"user": null} rather than 401
		auth.POST("/register", authRouter.controller.Register)
		auth.POST("/login", authRouter.controller.Login)
		auth.GET("/me", authRouter.controller.Me)
		auth.POST("/refresh", authRouter.controller.Refresh)
		auth.POST("/logout", authRouter.controller.Logout)

		protected := auth.Group("")
		protected.Use(middleware.RequireAuth(authRouter.verifier, authRouter.cookieName))
		{
			protected.PUT("/change-password", authRouter.controller.ChangePassword)
		}
	}
}
