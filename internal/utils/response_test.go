package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, handler fiber.Handler) (*http.Response, APIResponse) {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed APIResponse
	require.NoError(t, json.Unmarshal(body, &parsed))
	return resp, parsed
}

func TestSendSuccessDefaultsMessage(t *testing.T) {
	resp, parsed := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccess(c, "", map[string]int{"count": 3})
	})

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, parsed.Success)
	require.Equal(t, "success", parsed.Message)
	require.NotNil(t, parsed.Data)
}

func TestSendErrorStatusAndMessage(t *testing.T) {
	resp, parsed := performRequest(t, func(c *fiber.Ctx) error {
		return SendError(c, fiber.StatusConflict, "queue item already claimed")
	})

	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.False(t, parsed.Success)
	require.Equal(t, "queue item already claimed", parsed.Message)
}

func TestSendErrorWithDetailsCarriesFailures(t *testing.T) {
	resp, parsed := performRequest(t, func(c *fiber.Ctx) error {
		return SendErrorWithDetails(c, fiber.StatusBadGateway, "notify failed", []string{"hackathon 4: timeout"})
	})

	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	require.Equal(t, []string{"hackathon 4: timeout"}, parsed.Errors)
}
