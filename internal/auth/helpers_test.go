package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"boutique/internal/notifications"
	"boutique/internal/shared/config"
	"boutique/internal/users"
	"boutique/pkg/cache"
	"boutique/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*notifications.EmailNotification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, notification *notifications.EmailNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return n.err
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) types() []notifications.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifications.NotificationType, 0, len(n.sent))
	for _, sent := range n.sent {
		out = append(out, sent.Type)
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		GinMode:   gin.TestMode,
		APIPrefix: "/api",
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret-for-tests",
			RefreshSecret: "refresh-secret-for-tests",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			Issuer:        "boutique",
		},
		Cookie: config.CookieConfig{
			AccessName:  "accessToken",
			RefreshName: "refreshToken",
		},
	}
}

type testApp struct {
	engine   *gin.Engine
	users    users.Repository
	tokens   RefreshTokenStore
	jwt      *TokenManager
	notifier *recordingNotifier
	service  Service
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWith(t, NewMemoryTokenStore(), nil)
}

func newTestAppWith(t *testing.T, tokens RefreshTokenStore, profileCache cache.Service) *testApp {
	t.Helper()

	cfg := testConfig()
	log := logger.Discard()
	app := &testApp{
		users:    users.NewMemoryRepository(),
		tokens:   tokens,
		jwt:      NewTokenManager(cfg.JWT),
		notifier: &recordingNotifier{},
	}
	app.service = NewService(ServiceDeps{
		Users:      app.users,
		Tokens:     app.tokens,
		JWT:        app.jwt,
		Cache:      profileCache,
		Notifier:   app.notifier,
		Logger:     log,
		BcryptCost: bcrypt.MinCost,
	})

	controller := NewController(app.service, NewCookieManager(cfg), log)
	app.engine = gin.New()
	NewRouter(controller, app.jwt).SetupRoutes(app.engine.Group(cfg.APIPrefix))
	return app
}

func (a *testApp) seedUser(t *testing.T, email, phone, password string, role users.Role) *users.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &users.User{Name: "Camille Martin", PasswordHash: string(hash), Role: role}
	if email != "" {
		user.Email = &email
	}
	if phone != "" {
		user.Phone = &phone
	}
	require.NoError(t, a.users.Create(context.Background(), user))
	return user
}

func (a *testApp) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(t *testing.T, identifier, password string) (*http.Cookie, *http.Cookie) {
	t.Helper()

	w := a.do(http.MethodPost, "/api/auth/login", gin.H{"email": identifier, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	set := responseCookies(w)
	require.Contains(t, set, "accessToken")
	require.Contains(t, set, "refreshToken")
	return set["accessToken"], set["refreshToken"]
}

func responseCookies(w *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range w.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func asRequestCookie(c *http.Cookie) *http.Cookie {
	return &http.Cookie{Name: c.Name, Value: c.Value}
}
