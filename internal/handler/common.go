// Package handler contains the echo handlers of the HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/renorris/cs496-todo-app/internal/logging"
	"github.com/renorris/cs496-todo-app/internal/mail"
	"github.com/renorris/cs496-todo-app/internal/middleware"
	"github.com/renorris/cs496-todo-app/internal/service"
)

// statusOf maps service sentinels to HTTP statuses. Not-found variants keep
// their own messages; all of them answer 404.
var statusOf = []struct {
	err  error
	code int
}{
	{service.ErrConflict, http.StatusConflict},
	{service.ErrInvalidToken, http.StatusBadRequest},
	{service.ErrBadRequest, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrTaskNotFound, http.StatusNotFound},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrNoAccess, http.StatusNotFound},
}

// fail writes the JSON error for err. Anything unmapped is logged and
// answered with a bare 500.
func fail(c echo.Context, log logging.Logger, err error) error {
	for _, m := range statusOf {
		if errors.Is(err, m.err) {
			return c.JSON(m.code, echo.Map{"error": m.err.Error()})
		}
	}
	log.Error(c.Request().Context(), "request failed", "route", c.Path(), "error", err)
	if errors.Is(err, mail.ErrTemplate) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "email template unavailable"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// caller returns the authenticated user id. Routes using it sit behind
// JWTAuth, so a miss is a wiring bug.
func caller(c echo.Context) (uuid.UUID, error) {
	id, ok := middleware.CallerID(c)
	if !ok {
		return uuid.Nil, errors.New("no caller in context")
	}
	return id, nil
}

// pathUUID parses a path parameter. A malformed id cannot name anything, so
// it is reported with notFound rather than as a bad request.
func pathUUID(c echo.Context, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

// pathEmail returns the :email segment percent-decoded. echo matches on the
// raw path and hands the segment back still encoded.
func pathEmail(c echo.Context) (string, error) {
	email, err := url.PathUnescape(c.Param("email"))
	if err != nil {
		return "", service.ErrUserNotFound
	}
	return email, nil
}

// timestamp accepts RFC 3339 as well as the zone-less ISO 8601 forms
// browsers send from date and datetime-local inputs, which are taken as UTC.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// scopeList resolves the caller and the :list_uuid parameter.
func scopeList(c echo.Context) (me, listID uuid.UUID, err error) {
	if me, err = caller(c); err != nil {
		return
	}
	listID, err = pathUUID(c, "list_uuid", service.ErrNotFound)
	return
}
