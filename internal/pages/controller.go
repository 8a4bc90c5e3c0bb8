package pages

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"boutique/internal/shared/middleware"
	"boutique/internal/users"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

type pageData struct {
	Title    string
	Role     users.Role
	Section  string
	Redirect string
	Home     string
}

// Controller renders the storefront pages. Access control happens in
// middleware.PageGate before any handler here runs.
type Controller struct{}

func NewController() *Controller {
	return &Controller{}
}

func (pc *Controller) render(c *gin.Context, name, title, section string) {
	role, _ := middleware.UserRole(c)
	c.HTML(http.StatusOK, name, pageData{
		Title:    title,
		Role:     role,
		Section:  section,
		Redirect: safeRedirect(c.Query("redirect")),
		Home:     middleware.HomeFor(role),
	})
}

func (pc *Controller) Home(c *gin.Context) {
	pc.render(c, "home.html", "Accueil", "")
}

func (pc *Controller) Login(c *gin.Context) {
	pc.render(c, "login.html", "Connexion", "")
}

func (pc *Controller) AdminLogin(c *gin.Context) {
	pc.render(c, "admin_login.html", "Connexion équipe", "")
}

func (pc *Controller) Account(c *gin.Context) {
	pc.render(c, "account.html", "Mon compte", "")
}

func (pc *Controller) Orders(c *gin.Context) {
	pc.render(c, "account.html", "Mes commandes", "orders")
}

func (pc *Controller) Admin(c *gin.Context) {
	pc.render(c, "admin.html", "Administration", "")
}

func (pc *Controller) AdminUsers(c *gin.Context) {
	pc.render(c, "admin.html", "Comptes", "users")
}

func (pc *Controller) SuperAdmin(c *gin.Context) {
	pc.render(c, "superadmin.html", "Superadmin", "")
}

func (pc *Controller) SuperAdminAdmins(c *gin.Context) {
	pc.render(c, "superadmin.html", "Administrateurs", "admins")
}

// safeRedirect keeps only same-site absolute paths.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return ""
	}
	// Browsers drop tab and newline from URLs, so "/\t/host" becomes "//host".
	if strings.IndexFunc(target, func(r rune) bool { return r < 0x20 || r == 0x7f }) >= 0 {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return target
}
