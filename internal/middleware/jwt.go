// Package middleware holds the echo middleware shared by every route group.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/renorris/cs496-todo-app/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the caller's claims into the request context. It never touches the
// database: a signed, unexpired access token is the identity. Handlers read
// the caller through CallerID and CallerClaims.
//
// Refresh tokens are rejected here; they are only good at /user/refresh.
func JWTAuth(codec *utils.SessionCodec) echo.MiddlewareFunc {
	// The outer function runs once when the group registers the middleware.
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		// The returned handler runs for every request on the group.
		return func(c echo.Context) error {
			// Expect "Bearer <token>". The scheme is matched case-insensitively.
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, raw, ok := strings.Cut(auth, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			// Check signature and expiry, then insist on an access token.
			claims, err := codec.Verify(strings.TrimSpace(raw))
			if err != nil || claims.TokenType != utils.TokenAccess {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			// Verify already rejected tokens whose uuid claim does not parse.
			id, _ := claims.UserID()

			// Expose the caller to handlers, then continue the chain.
			c.Set(claimsKey, claims)
			c.Set(userIDKey, id)
			return next(c)
		}
	}
}
