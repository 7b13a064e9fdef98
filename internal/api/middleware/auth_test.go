package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	am := NewAuthMiddleware("scan", "secret-token")
	called := false
	handler := am.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/scan/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	am := NewAuthMiddleware("scan", "secret-token")
	handler := am.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be called")
	}))

	tests := []string{
		"secret-token",
		"Basic secret-token",
		"bearer",
	}
	for _, authHeader := range tests {
		t.Run(authHeader, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/scan/status", nil)
			req.Header.Set("Authorization", authHeader)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	am := NewAuthMiddleware("scan", "secret-token")
	handler := am.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/scan/status", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthMiddleware_CorrectToken(t *testing.T) {
	am := NewAuthMiddleware("scan", "secret-token")
	var gotSlug string
	handler := am.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSlug = GetSlug(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/scan/status", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "scan", gotSlug)
}

func TestAuthMiddleware_CaseInsensitiveScheme(t *testing.T) {
	am := NewAuthMiddleware("scan", "secret-token")
	handler := am.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/scan/status", nil)
	req.Header.Set("Authorization", "BEARER secret-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_DistinctTokensPerSlug(t *testing.T) {
	acme := NewAuthMiddleware("acme-scan", "token-acme")
	beta := NewAuthMiddleware("beta-scan", "token-beta")

	handler := func(am *AuthMiddleware) http.Handler {
		return am.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/acme-scan/status", nil)
	req.Header.Set("Authorization", "Bearer token-beta")
	rec := httptest.NewRecorder()
	handler(acme).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, "beta's token must not unlock acme's slug")

	req2 := httptest.NewRequest(http.MethodGet, "/api/beta-scan/status", nil)
	req2.Header.Set("Authorization", "Bearer token-beta")
	rec2 := httptest.NewRecorder()
	handler(beta).ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestGetSlug_Absent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", GetSlug(req.Context()))
}
