package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role, tokenType string, expiresIn time.Duration) string {
	t.Helper()
	claims := Claims{
		UserID:    "admin-1",
		Email:     "admin@example.com",
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newProtectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewAuthMiddleware(testSecret)

	router := gin.New()
	router.GET("/admin", m.RequireAuth(), m.RequireAdminRights(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/admin", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	router := newProtectedRouter()

	t.Run("accepts valid admin token", func(t *testing.T) {
		token := signToken(t, "admin", "access", time.Hour)
		rec := doRequest(router, "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects missing header", func(t *testing.T) {
		rec := doRequest(router, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects malformed header", func(t *testing.T) {
		rec := doRequest(router, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		token := signToken(t, "admin", "access", -time.Hour)
		rec := doRequest(router, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects refresh token", func(t *testing.T) {
		token := signToken(t, "admin", "refresh", time.Hour)
		rec := doRequest(router, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAdminRights(t *testing.T) {
	router := newProtectedRouter()

	token := signToken(t, "client", "access", time.Hour)
	rec := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
