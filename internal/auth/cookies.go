package auth

import (
	"net/http"
	"time"

	"boutique/internal/shared/config"

	"github.com/gin-gonic/gin"
)

// CookieManager writes the two session cookies. Both are httpOnly,
// SameSite=Strict and scoped to the whole site.
type CookieManager struct {
	accessName  string
	refreshName string
	domain      string
	secure      bool
	accessAge   int
	refreshAge  int
}

func NewCookieManager(cfg *config.Config) *CookieManager {
	return &CookieManager{
		accessName:  cfg.Cookie.AccessName,
		refreshName: cfg.Cookie.RefreshName,
		domain:      cfg.Cookie.Domain,
		secure:      cfg.IsProduction(),
		accessAge:   seconds(cfg.JWT.AccessTTL),
		refreshAge:  seconds(cfg.JWT.RefreshTTL),
	}
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

func (m *CookieManager) AccessName() string  { return m.accessName }
func (m *CookieManager) RefreshName() string { return m.refreshName }

func (m *CookieManager) SetSession(c *gin.Context, accessToken, refreshToken string) {
	m.set(c, m.accessName, accessToken, m.accessAge)
	m.set(c, m.refreshName, refreshToken, m.refreshAge)
}

// Clear expires both cookies (Max-Age=0).
func (m *CookieManager) Clear(c *gin.Context) {
	m.set(c, m.accessName, "", -1)
	m.set(c, m.refreshName, "", -1)
}

func (m *CookieManager) AccessToken(c *gin.Context) string {
	return m.read(c, m.accessName)
}

func (m *CookieManager) RefreshToken(c *gin.Context) string {
	return m.read(c, m.refreshName)
}

func (m *CookieManager) read(c *gin.Context, name string) string {
	value, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return value
}

func (m *CookieManager) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, "/", m.domain, m.secure, true)
}
