package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matuszelenak/trojsten-graph/config"
	"github.com/matuszelenak/trojsten-graph/domain"
)

func setSecret(t *testing.T) {
	t.Helper()
	viper.Set("jwt_secret", "test-secret")
	t.Cleanup(func() { viper.Set("jwt_secret", "") })
}

func TestJWTRoundTrip(t *testing.T) {
	setSecret(t)
	email := "jana@example.com"

	token, err := GenerateJWT(&domain.Person{ID: 42, Email: &email, IsStaff: true}, time.Hour)
	require.NoError(t, err)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.PersonID)
	assert.Equal(t, email, claims.Email)
	assert.True(t, claims.IsStaff)
	assert.False(t, claims.IsSuperuser)
}

func TestVerifyJWTRejectsExpiredAndForeign(t *testing.T) {
	setSecret(t)

	expired, err := GenerateJWT(&domain.Person{ID: 1}, -time.Minute)
	require.NoError(t, err)
	_, err = VerifyJWT(expired)
	assert.Error(t, err)

	valid, err := GenerateJWT(&domain.Person{ID: 1}, time.Hour)
	require.NoError(t, err)
	viper.Set("jwt_secret", "another-secret")
	_, err = VerifyJWT(valid)
	assert.Error(t, err)
}

func TestEmptySecretIsRefused(t *testing.T) {
	viper.Set("jwt_secret", "")

	_, err := GenerateJWT(&domain.Person{ID: 1}, time.Hour)
	assert.ErrorIs(t, err, config.ErrMissingJWTSecret)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &domain.Claims{
		PersonID:    1,
		IsStaff:     true,
		IsSuperuser: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(""))
	require.NoError(t, err)

	_, err = VerifyJWT(forged)
	assert.ErrorIs(t, err, config.ErrMissingJWTSecret)

	req := httptest.NewRequest("GET", "/staff", nil)
	req.Header.Set("Authorization", forged)
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthRequired(), func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*domain.Claims)
		return c.JSON(fiber.Map{"id": claims.PersonID})
	})
	app.Get("/staff", AuthRequired(), StaffRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	setSecret(t)
	app := newApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := GenerateJWT(&domain.Person{ID: 7}, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"id":7}`, string(body))

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestStaffRequired(t *testing.T) {
	setSecret(t)
	app := newApp()

	regular, _ := GenerateJWT(&domain.Person{ID: 1}, time.Hour)
	staff, _ := GenerateJWT(&domain.Person{ID: 2, IsStaff: true}, time.Hour)

	req := httptest.NewRequest("GET", "/staff", nil)
	req.Header.Set("Authorization", regular)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/staff", nil)
	req.Header.Set("Authorization", staff)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestRequestIDAndMetrics(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	metrics := NewMetrics("graph_test")

	app := fiber.New()
	app.Use(RequestID(log), metrics.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", metrics.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(HeaderRequestID), 36)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(HeaderRequestID, "3f1c5a52-5d2b-4ad0-8d3f-3f0b0d6a1e7c")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "3f1c5a52-5d2b-4ad0-8d3f-3f0b0d6a1e7c", resp.Header.Get(HeaderRequestID))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), `graph_test_http_requests_total{method="GET",route="/ping",status="200"} 2`))
}
