package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"boutique/internal/auth"
	"boutique/internal/notifications"
	"boutique/internal/shared/config"
	"boutique/internal/users"
	"boutique/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*notifications.EmailNotification
}

func (n *recordingNotifier) Notify(_ context.Context, notification *notifications.EmailNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

type fixture struct {
	engine   *gin.Engine
	users    users.Repository
	tokens   auth.RefreshTokenStore
	jwt      *auth.TokenManager
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.Discard()
	f := &fixture{
		users:  users.NewMemoryRepository(),
		tokens: auth.NewMemoryTokenStore(),
		jwt: auth.NewTokenManager(config.JWTConfig{
			AccessSecret:  "access-secret-for-tests",
			RefreshSecret: "refresh-secret-for-tests",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			Issuer:        "boutique",
		}),
		notifier: &recordingNotifier{},
	}

	svc := NewService(f.users, auth.NewSessionRevoker(f.tokens, nil, log), f.notifier, log)
	f.engine = gin.New()
	NewRouter(NewController(svc, log), f.jwt, "accessToken").SetupRoutes(f.engine.Group("/api"))
	return f
}

func (f *fixture) user(t *testing.T, email string, role users.Role) *users.User {
	t.Helper()
	u := &users.User{Email: &email, Name: email, PasswordHash: "x", Role: role}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) as(t *testing.T, u *users.User) *http.Cookie {
	t.Helper()
	token, err := f.jwt.IssueAccess(u.ID, u.Role)
	require.NoError(t, err)
	return &http.Cookie{Name: "accessToken", Value: token}
}

func (f *fixture) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin@exemple.fr", users.RoleAdmin)
	client := f.user(t, "client@exemple.fr", users.RoleClient)
	for i := 0; i < 3; i++ {
		f.user(t, fmt.Sprintf("c%d@exemple.fr", i), users.RoleClient)
	}

	w := f.do(http.MethodGet, "/api/admin/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/admin/users", nil, f.as(t, client))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodGet, "/api/admin/users?role=client&page=2&limit=3", nil, f.as(t, admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body UserListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(4), body.Total)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 3, body.Limit)
	assert.Equal(t, 2, body.TotalPages)
	assert.Len(t, body.Users, 1)
	assert.NotContains(t, w.Body.String(), "password")

	w = f.do(http.MethodGet, "/api/admin/users?role=root", nil, f.as(t, admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUser(t *testing.T) {
	f := newFixture(t)
	super := f.user(t, "super@exemple.fr", users.RoleSuperAdmin)
	client := f.user(t, "client@exemple.fr", users.RoleClient)

	w := f.do(http.MethodGet, "/api/admin/users/"+client.ID.String(), nil, f.as(t, super))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"client@exemple.fr"`)

	w = f.do(http.MethodGet, "/api/admin/users/"+uuid.NewString(), nil, f.as(t, super))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/admin/users/not-a-uuid", nil, f.as(t, super))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangeRole(t *testing.T) {
	f := newFixture(t)
	super := f.user(t, "super@exemple.fr", users.RoleSuperAdmin)
	admin := f.user(t, "admin@exemple.fr", users.RoleAdmin)
	client := f.user(t, "client@exemple.fr", users.RoleClient)
	ctx := context.Background()

	require.NoError(t, f.tokens.Save(ctx, &auth.RefreshToken{UserID: client.ID, TokenHash: auth.HashToken("s"), ExpiresAt: time.Now().Add(time.Hour)}))

	path := "/api/superadmin/users/" + client.ID.String() + "/role"

	w := f.do(http.MethodPatch, path, gin.H{"role": "admin"}, f.as(t, admin))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodPatch, path, gin.H{"role": "root"}, f.as(t, super))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPatch, "/api/superadmin/users/"+uuid.NewString()+"/role", gin.H{"role": "admin"}, f.as(t, super))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPatch, path, gin.H{"role": "admin"}, f.as(t, super))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	updated, err := f.users.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, users.RoleAdmin, updated.Role)

	_, err = f.tokens.Get(ctx, client.ID)
	assert.ErrorIs(t, err, auth.ErrRefreshTokenNotFound)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notifications.NotificationTypeRoleChanged, f.notifier.sent[0].Type)
	assert.Equal(t, "admin", f.notifier.sent[0].TemplateData["role"])
}

func TestChangeRole_Self(t *testing.T) {
	f := newFixture(t)
	super := f.user(t, "super@exemple.fr", users.RoleSuperAdmin)

	w := f.do(http.MethodPatch, "/api/superadmin/users/"+super.ID.String()+"/role", gin.H{"role": "client"}, f.as(t, super))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Vous ne pouvez pas modifier votre propre rôle"}`, w.Body.String())

	still, err := f.users.GetByID(context.Background(), super.ID)
	require.NoError(t, err)
	assert.Equal(t, users.RoleSuperAdmin, still.Role)
}

func TestChangeRole_SameRoleKeepsSession(t *testing.T) {
	f := newFixture(t)
	super := f.user(t, "super@exemple.fr", users.RoleSuperAdmin)
	admin := f.user(t, "admin@exemple.fr", users.RoleAdmin)
	ctx := context.Background()
	require.NoError(t, f.tokens.Save(ctx, &auth.RefreshToken{UserID: admin.ID, TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour)}))

	svc := NewService(f.users, auth.NewSessionRevoker(f.tokens, nil, logger.Discard()), f.notifier, logger.Discard())
	got, err := svc.ChangeRole(ctx, super.ID, admin.ID, users.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, users.RoleAdmin, got.Role)

	_, err = f.tokens.Get(ctx, admin.ID)
	assert.NoError(t, err)
	assert.Empty(t, f.notifier.sent)
}

func TestListUsers_PageBeyondRange(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin@exemple.fr", users.RoleAdmin)
	f.user(t, "client@exemple.fr", users.RoleClient)

	svc := NewService(f.users, auth.NewSessionRevoker(f.tokens, nil, logger.Discard()), f.notifier, logger.Discard())
	got, err := svc.ListUsers(context.Background(), ListUsersQuery{Page: 461168601842738793, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, got.Users)
	assert.Equal(t, int64(2), got.Total)
	assert.Equal(t, 1, got.TotalPages)

	got, err = svc.ListUsers(context.Background(), ListUsersQuery{Page: 2, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Empty(t, got.Users)

	w := f.do(http.MethodGet, "/api/admin/users?page=100001", nil, f.as(t, admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/admin/users?page=100000", nil, f.as(t, admin))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"users":[]`)
}
