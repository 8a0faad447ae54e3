package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const jwtTestSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtTestSecret))
	require.NoError(t, err)
	return signed
}

func requestWithToken(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestJWTProtectedSetsSubjectAndRole(t *testing.T) {
	app := fiber.New()
	var gotUserID interface{}
	var gotRole interface{}
	app.Get("/protected", JWTProtected(jwtTestSecret), func(c *fiber.Ctx) error {
		gotUserID = c.Locals("user_id")
		gotRole = c.Locals("user_role")
		return c.SendStatus(fiber.StatusOK)
	})

	token := signToken(t, jwt.MapClaims{"sub": float64(42), "role": "Moderator"})
	resp := requestWithToken(t, app, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(42), gotUserID)
	require.Equal(t, "moderator", gotRole)
}

func TestJWTProtectedPicksStrongestRole(t *testing.T) {
	app := fiber.New()
	var gotRole interface{}
	app.Get("/protected", JWTProtected(jwtTestSecret), func(c *fiber.Ctx) error {
		gotRole = c.Locals("user_role")
		return c.SendStatus(fiber.StatusOK)
	})

	token := signToken(t, jwt.MapClaims{
		"sub":   "7",
		"roles": []interface{}{"participant", "admin", "organizer"},
	})
	resp := requestWithToken(t, app, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "admin", gotRole, "the most privileged recognised role wins")
}

func TestJWTProtectedRejectsMissingAndMalformedTokens(t *testing.T) {
	app := fiber.New()
	app.Get("/protected", JWTProtected(jwtTestSecret), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp := requestWithToken(t, app, "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = requestWithToken(t, app, "not-a-token")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": float64(1)})
	signed, err := wrongKey.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	resp = requestWithToken(t, app, signed)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
