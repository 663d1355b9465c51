package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "test-jwt-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func runMiddleware(t *testing.T, cfg JWTConfig, req *http.Request) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := JWTMiddleware(cfg)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)
	assert.NoError(t, err)
	return rec, c, called
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New().String()
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"sub":   userID,
		"email": "seller@example.com",
		"role":  "seller",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)

	rec, c, called := runMiddleware(t, JWTConfig{Secret: testSecret, Logger: zap.NewNop()}, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, c.Get("user_id"))

	user, err := GetUserFromContext(c)
	assert.NoError(t, err)
	assert.Equal(t, userID, user.UserID)
	assert.Equal(t, "seller@example.com", user.Email)
	assert.Equal(t, "seller", user.Role)
}

func TestJWTMiddleware_MissingAuthHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)

	rec, _, called := runMiddleware(t, JWTConfig{Secret: testSecret, Logger: zap.NewNop()}, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_AUTH_HEADER")
}

func TestJWTMiddleware_InvalidHeaderFormat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Token abc123")

	rec, _, called := runMiddleware(t, JWTConfig{Secret: testSecret, Logger: zap.NewNop()}, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_AUTH_FORMAT")
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	tokenString := signToken(t, "some-other-secret", jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)

	rec, _, called := runMiddleware(t, JWTConfig{Secret: testSecret, Logger: zap.NewNop()}, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TOKEN")
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)

	rec, _, called := runMiddleware(t, JWTConfig{Secret: testSecret, Logger: zap.NewNop()}, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TOKEN")
}

func TestJWTMiddleware_MissingSubjectClaim(t *testing.T) {
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"email": "seller@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)

	rec, _, called := runMiddleware(t, JWTConfig{Secret: testSecret, Logger: zap.NewNop()}, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_SUBJECT")
}

func TestJWTMiddleware_NonUUIDSubject(t *testing.T) {
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)

	rec, _, called := runMiddleware(t, JWTConfig{Secret: testSecret, Logger: zap.NewNop()}, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_SUBJECT_FORMAT")
}

func TestJWTMiddleware_SkipPaths(t *testing.T) {
	cfg := JWTConfig{
		Secret:    testSecret,
		Logger:    zap.NewNop(),
		SkipPaths: []string{"/health", "/webhook"},
	}

	t.Run("Skipped path passes without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook", nil)

		rec, _, called := runMiddleware(t, cfg, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Other paths still require token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)

		rec, _, called := runMiddleware(t, cfg, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetUserFromContext_NoUser(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	user, err := GetUserFromContext(c)
	assert.Error(t, err)
	assert.Nil(t, user)
}
