package middlewares

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAuth(_ context.Context, token string) (Identity, error) {
	if token == "good" {
		return Identity{MemberID: "user1", DisplayName: "User One"}, nil
	}
	return Identity{}, errors.New("invalid")
}

func newApp(required bool) *fiber.App {
	app := fiber.New()
	app.Use(SessionMiddleware(fakeAuth, required))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(id.MemberID + "/" + id.DisplayName)
	})
	return app
}

func TestSessionMiddleware(t *testing.T) {
	cases := []struct {
		name     string
		required bool
		setup    func(r *http.Request)
		status   int
		body     string
	}{
		{"cookie", true, func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieToken, Value: "good"}) }, 200, "user1/User One"},
		{"query", true, func(r *http.Request) { r.URL.RawQuery = QueryToken + "=good" }, 200, "user1/User One"},
		{"bearer", true, func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, 200, "user1/User One"},
		{"missing required", true, func(r *http.Request) {}, 401, `{"error":"Not authenticated"}`},
		{"invalid required", true, func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieToken, Value: "bad"}) }, 401, `{"error":"Not authenticated"}`},
		{"missing optional", false, func(r *http.Request) {}, 200, "anonymous"},
		{"invalid optional", false, func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieToken, Value: "bad"}) }, 200, "anonymous"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			c.setup(req)

			resp, err := newApp(c.required).Test(req)
			require.NoError(t, err)
			b, _ := io.ReadAll(resp.Body)

			assert.Equal(t, c.status, resp.StatusCode)
			assert.Equal(t, c.body, string(b))
		})
	}
}
