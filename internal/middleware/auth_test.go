package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/netgraph/backend/internal/config"
	"github.com/netgraph/backend/internal/domain"
	"github.com/netgraph/backend/internal/repository/memory"
	"github.com/netgraph/backend/internal/usecase"
)

type authFixture struct {
	middleware *AuthMiddleware
	auth       *usecase.AuthUsecase
	userRepo   *memory.UserRepository
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := &config.JWTConfig{
		Secret:        strings.Repeat("x", 32),
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
	}
	userRepo := memory.NewUserRepository()
	auth := usecase.NewAuthUsecase(userRepo, memory.NewRefreshTokenRepository(),
		usecase.NewTokenSigner(cfg), cfg, zap.NewNop())
	require.NoError(t, auth.BootstrapAdmin("admin", "admin-pw"))
	return &authFixture{
		middleware: NewAuthMiddleware(auth),
		auth:       auth,
		userRepo:   userRepo,
	}
}

func (f *authFixture) addUser(t *testing.T, username string, role domain.Role) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(username+"-pw"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, f.userRepo.Create(&domain.User{
		Username:     username,
		PasswordHash: string(hashed),
		Role:         role,
		IsActive:     true,
	}))
}

func (f *authFixture) login(t *testing.T, username, password string) string {
	t.Helper()
	_, pair, err := f.auth.Login(username, password)
	require.NoError(t, err)
	return pair.AccessToken
}

func echoIdentity(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := GetUserID(r.Context())
		assert.True(t, ok)
		_, ok = GetRole(r.Context())
		assert.True(t, ok)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateMissingHeader(t *testing.T) {
	f := newAuthFixture(t)
	rec := httptest.NewRecorder()

	f.middleware.Authenticate(echoIdentity(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestAuthenticateBadScheme(t *testing.T) {
	f := newAuthFixture(t)

	for _, header := range []string{"Basic abc123", "Bearer", "Bearer a b"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		f.middleware.Authenticate(echoIdentity(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestAuthenticateGarbageToken(t *testing.T) {
	f := newAuthFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	f.middleware.Authenticate(echoIdentity(t)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateValidToken(t *testing.T) {
	f := newAuthFixture(t)
	token := f.login(t, "admin", "admin-pw")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	f.middleware.Authenticate(echoIdentity(t)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminOnly(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "viewer", domain.RoleStandard)

	guarded := f.middleware.Authenticate(f.middleware.AdminOnly(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

	adminReq := httptest.NewRequest(http.MethodGet, "/", nil)
	adminReq.Header.Set("Authorization", "Bearer "+f.login(t, "admin", "admin-pw"))
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, adminReq)
	assert.Equal(t, http.StatusOK, rec.Code)

	viewerReq := httptest.NewRequest(http.MethodGet, "/", nil)
	viewerReq.Header.Set("Authorization", "Bearer "+f.login(t, "viewer", "viewer-pw"))
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, viewerReq)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
