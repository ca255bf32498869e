package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/renorris/cs496-todo-app/internal/logging"
	"github.com/renorris/cs496-todo-app/internal/model"
	"github.com/renorris/cs496-todo-app/internal/service"
)

// TaskHandler serves tasks nested under /lists/:list_uuid/tasks.
type TaskHandler struct {
	Tasks *service.TaskService
	Log   logging.Logger
}

func NewTaskHandler(tasks *service.TaskService, log logging.Logger) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Log: log}
}

type createTaskReq struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description"`
	DueDate     *timestamp `json:"due_date" validate:"required"`
	Done        bool       `json:"done"`
}

// updateTaskReq is a partial update: absent fields stay as they are.
type updateTaskReq struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description"`
	DueDate     *timestamp `json:"due_date"`
	Done        *bool      `json:"done"`
}

func (r updateTaskReq) patch() model.TaskPatch {
	p := model.TaskPatch{Title: r.Title, Description: r.Description, Done: r.Done}
	if r.DueDate != nil {
		p.DueDate = &r.DueDate.Time
	}
	return p
}

type taskJSON struct {
	UUID        string    `json:"uuid"`
	ListUUID    string    `json:"list_uuid"`
	CreatedAt   time.Time `json:"created_at"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Done        bool      `json:"done"`
}

func toTaskJSON(t model.Task) taskJSON {
	return taskJSON{
		UUID:        t.UUID.String(),
		ListUUID:    t.ListUUID.String(),
		CreatedAt:   t.CreatedAt.UTC(),
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate.UTC(),
		Done:        t.Done,
	}
}

// Create: add a task to a list the caller can use.
func (h *TaskHandler) Create(c echo.Context) error {
	me, listID, err := scopeList(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req createTaskReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	// due_date is required, so the validator already rejected a nil DueDate.
	t, err := h.Tasks.Create(c.Request().Context(), me, listID, model.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.Time,
		Done:        req.Done,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toTaskJSON(t))
}

// Index returns the list's tasks, latest due date first.
func (h *TaskHandler) Index(c echo.Context) error {
	me, listID, err := scopeList(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	tasks, err := h.Tasks.List(c.Request().Context(), me, listID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	out := make([]taskJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskJSON(t))
	}
	return c.JSON(http.StatusOK, out)
}

// Get: one task, looked up inside its list.
func (h *TaskHandler) Get(c echo.Context) error {
	me, listID, taskID, err := scopeTask(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	t, err := h.Tasks.Get(c.Request().Context(), me, listID, taskID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toTaskJSON(t))
}

// Update: apply only the fields present in the body.
func (h *TaskHandler) Update(c echo.Context) error {
	me, listID, taskID, err := scopeTask(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req updateTaskReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	t, err := h.Tasks.Update(c.Request().Context(), me, listID, taskID, req.patch())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toTaskJSON(t))
}

// Delete: remove one task.
func (h *TaskHandler) Delete(c echo.Context) error {
	me, listID, taskID, err := scopeTask(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := h.Tasks.Delete(c.Request().Context(), me, listID, taskID); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// scopeTask resolves the caller and both path ids. A malformed task id
// answers like a missing task.
func scopeTask(c echo.Context) (me, listID, taskID uuid.UUID, err error) {
	if me, listID, err = scopeList(c); err != nil {
		return
	}
	taskID, err = pathUUID(c, "task_uuid", service.ErrTaskNotFound)
	return
}
