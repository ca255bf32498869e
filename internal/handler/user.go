package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/renorris/cs496-todo-app/internal/logging"
	"github.com/renorris/cs496-todo-app/internal/middleware"
	"github.com/renorris/cs496-todo-app/internal/service"
)

// UserHandler serves registration, confirmation and session endpoints.
type UserHandler struct {
	Users *service.UserService
	// RedirectURL receives confirmed users, with their tokens as query params.
	RedirectURL string
	Log         logging.Logger
}

func NewUserHandler(users *service.UserService, redirectURL string, log logging.Logger) *UserHandler {
	return &UserHandler{Users: users, RedirectURL: redirectURL, Log: log}
}

// ----- DTOs -----

type createUserReq struct {
	Email     string `json:"email" validate:"required,email,max=320"`
	Password  string `json:"password" validate:"required,max=72"`
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Create: seal the registration into a token and email the link.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	// Nothing is stored yet; the token in the email carries the registration.
	err := h.Users.Register(c.Request().Context(), service.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Confirmation email sent"})
}

// Confirm: create the account from the emailed token and hand the new
// session to the frontend through a redirect.
func (h *UserHandler) Confirm(c echo.Context) error {
	pair, err := h.Users.Confirm(c.Request().Context(), c.Param("token"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	// Keep any query the redirect URL already has and add the pair to it.
	target, err := url.Parse(h.RedirectURL)
	if err != nil {
		return fail(c, h.Log, err)
	}
	q := target.Query()
	q.Set("access_token", pair.AccessToken)
	q.Set("refresh_token", pair.RefreshToken)
	target.RawQuery = q.Encode()
	return c.Redirect(http.StatusFound, target.String())
}

// Login: verify credentials and return a new pair.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	pair, err := h.Users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh: trade a refresh token for a new access token. The refresh
// token itself is not rotated.
func (h *UserHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	access, err := h.Users.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"access_token": access})
}

// Me echoes the identity carried by the caller's access token.
func (h *UserHandler) Me(c echo.Context) error {
	// JWTAuth put the claims there; absence means the route was not guarded.
	claims, ok := middleware.CallerClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"uuid":       claims.UUID,
		"email":      claims.Email,
		"first_name": claims.FirstName,
		"last_name":  claims.LastName,
	})
}
