package middlewares

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	//QueryToken token in query name
	QueryToken = "auth"

	//CookieToken token in cookie name
	CookieToken = "auth_token"

	//TokenMemberID member id of the session, c.Locals name
	TokenMemberID = "MemberID"
	//TokenDisplayName display name of the session, c.Locals name
	TokenDisplayName = "DisplayName"
	//TokenRaw the raw session token, c.Locals name
	TokenRaw = "Token"
)

// Identity resolved session owner
type Identity struct {
	MemberID    string
	DisplayName string
}

// AuthFunc resolve a token to an identity, error when the session is not valid
type AuthFunc func(ctx context.Context, token string) (Identity, error)

// TokenFromRequest query param, then cookie, then Authorization: Bearer
func TokenFromRequest(c *fiber.Ctx) string {
	if t := c.Query(QueryToken); t != "" {
		return t
	}
	if t := c.Cookies(CookieToken); t != "" {
		return t
	}
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// SessionMiddleware attach the session identity to c.Locals. With required
// set, requests without a valid session get 401.
func SessionMiddleware(auth AuthFunc, required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := TokenFromRequest(c)

		if tokenStr != "" {
			if id, err := auth(c.UserContext(), tokenStr); err == nil {
				c.Locals(TokenMemberID, id.MemberID)
				c.Locals(TokenDisplayName, id.DisplayName)
				c.Locals(TokenRaw, tokenStr)
				return c.Next()
			}
		}

		if required {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}
		return c.Next()
	}
}

// CurrentIdentity identity set by SessionMiddleware, ok false when anonymous
func CurrentIdentity(c *fiber.Ctx) (Identity, bool) {
	id, _ := c.Locals(TokenMemberID).(string)
	if id == "" {
		return Identity{}, false
	}
	name, _ := c.Locals(TokenDisplayName).(string)
	return Identity{MemberID: id, DisplayName: name}, true
}
