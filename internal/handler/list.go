package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/renorris/cs496-todo-app/internal/logging"
	"github.com/renorris/cs496-todo-app/internal/model"
	"github.com/renorris/cs496-todo-app/internal/service"
)

// ListHandler serves list CRUD and sharing. Every route sits behind JWTAuth.
type ListHandler struct {
	Lists *service.ListService
	Log   logging.Logger
}

func NewListHandler(lists *service.ListService, log logging.Logger) *ListHandler {
	return &ListHandler{Lists: lists, Log: log}
}

type listReq struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
}

type listJSON struct {
	UUID            string     `json:"uuid"`
	CreatedAt       time.Time  `json:"created_at"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	TotalTasks      int        `json:"total_tasks"`
	TasksCompleted  int        `json:"tasks_completed"`
	EarliestDueDate *time.Time `json:"earliest_due_date"`
}

func toListJSON(s model.ListSummary) listJSON {
	return listJSON{
		UUID:            s.UUID.String(),
		CreatedAt:       s.CreatedAt.UTC(),
		Title:           s.Title,
		Description:     s.Description,
		TotalTasks:      s.TotalTasks,
		TasksCompleted:  s.TasksCompleted,
		EarliestDueDate: s.EarliestDueDate,
	}
}

type accessorJSON struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Create: store a list and give the caller access to it.
func (h *ListHandler) Create(c echo.Context) error {
	me, err := caller(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req listReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	l, err := h.Lists.Create(c.Request().Context(), me, req.Title, req.Description)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toListJSON(l))
}

// Index returns every list the caller can see, newest first.
func (h *ListHandler) Index(c echo.Context) error {
	me, err := caller(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	sums, err := h.Lists.Summaries(c.Request().Context(), me)
	if err != nil {
		return fail(c, h.Log, err)
	}
	// Always an array, never null, even with no lists.
	out := make([]listJSON, 0, len(sums))
	for _, s := range sums {
		out = append(out, toListJSON(s))
	}
	return c.JSON(http.StatusOK, out)
}

// Get: one list with its task aggregates. 404 covers "no access".
func (h *ListHandler) Get(c echo.Context) error {
	me, listID, err := scopeList(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	s, err := h.Lists.Get(c.Request().Context(), me, listID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toListJSON(s))
}

// Update: replace title and description.
func (h *ListHandler) Update(c echo.Context) error {
	me, listID, err := scopeList(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req listReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	s, err := h.Lists.Update(c.Request().Context(), me, listID, req.Title, req.Description)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toListJSON(s))
}

// Delete: drop the list for everyone, with its access rows and tasks.
func (h *ListHandler) Delete(c echo.Context) error {
	me, listID, err := scopeList(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := h.Lists.Delete(c.Request().Context(), me, listID); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Accessors lists who may use the list.
func (h *ListHandler) Accessors(c echo.Context) error {
	me, listID, err := scopeList(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	accs, err := h.Lists.Accessors(c.Request().Context(), me, listID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	out := make([]accessorJSON, 0, len(accs))
	for _, a := range accs {
		out = append(out, accessorJSON{UUID: a.UUID.String(), Name: a.Name, Email: a.Email})
	}
	return c.JSON(http.StatusOK, out)
}

// Grant shares the list with the account behind :email. Repeating a grant
// is a successful no-op.
func (h *ListHandler) Grant(c echo.Context) error {
	me, listID, err := scopeList(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	// The target is named by email; clients may percent-encode it.
	email, err := pathEmail(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	created, err := h.Lists.Grant(c.Request().Context(), me, listID, email)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if !created {
		return c.JSON(http.StatusOK, echo.Map{"message": "User already has access"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Access granted"})
}

// Revoke: remove the access of :user_uuid. Any accessor may do this.
func (h *ListHandler) Revoke(c echo.Context) error {
	me, listID, err := scopeList(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	// A malformed id cannot hold access.
	target, err := pathUUID(c, "user_uuid", service.ErrNoAccess)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := h.Lists.Revoke(c.Request().Context(), me, listID, target); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
