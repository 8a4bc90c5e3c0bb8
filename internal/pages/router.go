package pages

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

type Router struct {
	controller *Controller
}

func NewRouter(controller *Controller) *Router {
	return &Router{controller: controller}
}

// SetupRoutes installs the templates on the engine and registers the pages.
func (r *Router) SetupRoutes(engine *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return fmt.Errorf("pages.SetupRoutes: %w", err)
	}
	engine.SetHTMLTemplate(tmpl)

	engine.GET("/", r.controller.Home)
	engine.GET("/login", r.controller.Login)
	engine.GET("/account", r.controller.Account)
	engine.GET("/account/orders", r.controller.Orders)

	engine.GET("/admin", r.controller.Admin)
	engine.GET("/admin/login", r.controller.AdminLogin)
	engine.GET("/admin/users", r.controller.AdminUsers)

	engine.GET("/superadmin", r.controller.SuperAdmin)
	engine.GET("/superadmin/admins", r.controller.SuperAdminAdmins)
	return nil
}
