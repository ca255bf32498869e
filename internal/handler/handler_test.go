package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renorris/cs496-todo-app/internal/logging"
	"github.com/renorris/cs496-todo-app/internal/mail"
	"github.com/renorris/cs496-todo-app/internal/service"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2030-01-02T03:04:05Z"`, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)},
		{`"2030-01-02T05:04:05+02:00"`, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)},
		{`"2030-01-02T03:04:05.250"`, time.Date(2030, 1, 2, 3, 4, 5, 250_000_000, time.UTC)},
		{`"2030-01-02T03:04"`, time.Date(2030, 1, 2, 3, 4, 0, 0, time.UTC)},
		{`"2030-01-02"`, time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		var ts timestamp
		require.NoError(t, json.Unmarshal([]byte(tc.in), &ts), tc.in)
		assert.True(t, tc.want.Equal(ts.Time), "%s -> %s", tc.in, ts.Time)
		assert.Equal(t, time.UTC, ts.Location())
	}

	for _, bad := range []string{`"tomorrow"`, `12345`, `"2030-13-01"`} {
		var ts timestamp
		assert.Error(t, json.Unmarshal([]byte(bad), &ts), bad)
	}
}

func TestValidator_MessagesUseJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&createUserReq{Email: "nope", Password: "pw", FirstName: "A", LastName: "B"})
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "email: email", he.Message)

	err = v.Validate(&createTaskReq{Title: strings.Repeat("x", 256)})
	require.ErrorAs(t, err, &he)
	assert.Contains(t, fmt.Sprint(he.Message), "title: max=255")
	assert.Contains(t, fmt.Sprint(he.Message), "due_date: required")

	assert.NoError(t, v.Validate(&updateTaskReq{}), "empty patch is valid")
	empty := ""
	assert.Error(t, v.Validate(&updateTaskReq{Title: &empty}))
}

func TestFail_StatusMapping(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantMsg  string
	}{
		{service.ErrConflict, http.StatusConflict, "email already registered"},
		{service.ErrInvalidToken, http.StatusBadRequest, "invalid token"},
		{service.ErrBadRequest, http.StatusBadRequest, "bad request"},
		{service.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{service.ErrNotFound, http.StatusNotFound, "list not found"},
		{service.ErrTaskNotFound, http.StatusNotFound, "task not found"},
		{service.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{service.ErrNoAccess, http.StatusNotFound, "user does not have access"},
		{fmt.Errorf("confirmation email: %w", mail.ErrTemplate), http.StatusInternalServerError, "email template unavailable"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}
	e := echo.New()
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, fail(c, logging.Nop(), tc.err))
		assert.Equal(t, tc.wantCode, rec.Code, tc.err.Error())
		assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tc.wantMsg), rec.Body.String())
	}
}

func TestPathUUID_MalformedIsNotFound(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("list_uuid")
	c.SetParamValues("1234")

	_, err := pathUUID(c, "list_uuid", service.ErrNotFound)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestPathEmail(t *testing.T) {
	e := echo.New()
	for _, tc := range []struct {
		raw     string
		want    string
		wantErr error
	}{
		{"bob@example.com", "bob@example.com", nil},
		{"bob%40example.com", "bob@example.com", nil},
		{"a%2Bb%3Fc%23d%25e%40example.com", "a+b?c#d%e@example.com", nil},
		{"bob%zz", "", service.ErrUserNotFound},
	} {
		c := e.NewContext(httptest.NewRequest(http.MethodPut, "/", nil), httptest.NewRecorder())
		c.SetParamNames("email")
		c.SetParamValues(tc.raw)

		got, err := pathEmail(c)
		if tc.wantErr != nil {
			assert.ErrorIs(t, err, tc.wantErr, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	e := echo.New()
	for _, tc := range []struct {
		ping     error
		wantCode int
	}{
		{nil, http.StatusOK},
		{errors.New("down"), http.StatusServiceUnavailable},
	} {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
		ping := tc.ping
		require.NoError(t, Health(pingFunc(func(context.Context) error { return ping }))(c))
		assert.Equal(t, tc.wantCode, rec.Code)
	}
}
