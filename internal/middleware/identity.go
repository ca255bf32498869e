package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/renorris/cs496-todo-app/internal/utils"
)

const (
	claimsKey = "claims"
	userIDKey = "user_id"
)

// CallerID returns the authenticated user's id stored by JWTAuth. ok is
// false on routes the middleware does not guard.
func CallerID(c echo.Context) (id uuid.UUID, ok bool) {
	id, ok = c.Get(userIDKey).(uuid.UUID)
	return id, ok
}

// CallerClaims returns the verified token claims stored by JWTAuth.
func CallerClaims(c echo.Context) (*utils.SessionClaims, bool) {
	claims, ok := c.Get(claimsKey).(*utils.SessionClaims)
	return claims, ok
}

// callerLabel names the caller for log lines: the user id, or "guest".
func callerLabel(c echo.Context) string {
	if id, ok := CallerID(c); ok {
		return id.String()
	}
	return "guest"
}
