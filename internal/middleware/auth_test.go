package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"teeshop/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := &service.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "token-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func protectedHandler() http.Handler {
	tokens := service.NewAdminAuthService(nil, testSecret, time.Hour)
	logger := zap.NewNop()
	return AuthMiddleware(tokens, logger)(RequireAdmin(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
}

func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests without a token are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			handler := protectedHandler()

			req := httptest.NewRequest(method, "/api/admin/"+pathSuffix, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf("GET", "POST", "PUT", "DELETE"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_InvalidTokensAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("garbage bearer tokens are rejected", prop.ForAll(
		func(token string) bool {
			handler := protectedHandler()

			req := httptest.NewRequest("GET", "/api/admin/dashboard", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{
			name:   "bearer admin token",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+signedToken(t, service.RoleAdmin, time.Hour)) },
			status: http.StatusOK,
		},
		{
			name: "cookie admin token",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AdminCookieName, Value: signedToken(t, service.RoleAdmin, time.Hour)})
			},
			status: http.StatusOK,
		},
		{
			name:   "expired token",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+signedToken(t, service.RoleAdmin, -time.Hour)) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "missing bearer prefix",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", signedToken(t, service.RoleAdmin, time.Hour)) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "non admin role",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+signedToken(t, "customer", time.Hour)) },
			status: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/admin/dashboard", nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			protectedHandler().ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestRequireAdminWithoutRole(t *testing.T) {
	handler := RequireAdmin(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}
