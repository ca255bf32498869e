package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/renorris/cs496-todo-app/internal/model"
	"github.com/renorris/cs496-todo-app/internal/repository"
)

// TaskService manages tasks. Every call is gated by the parent list's
// access rows; a task is never reachable on its own.
type TaskService struct {
	db *sql.DB
}

func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db}
}

// Create adds t to listID. ListUUID, UUID and CreatedAt are assigned here.
func (s *TaskService) Create(ctx context.Context, caller, listID uuid.UUID, t model.Task) (model.Task, error) {
	t.UUID = uuid.Nil
	t.ListUUID = listID
	t.CreatedAt = repository.Now()
	err := inTx(ctx, s.db, func(ctx context.Context, r repos) error {
		if err := r.requireAccess(ctx, listID, caller); err != nil {
			return err
		}
		if err := r.tasks.Create(ctx, &t); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("insert task: %w", err)
		}
		return nil
	})
	return t, err
}

// List returns the list's tasks, latest due date first.
func (s *TaskService) List(ctx context.Context, caller, listID uuid.UUID) ([]model.Task, error) {
	var out []model.Task
	err := inTx(ctx, s.db, func(ctx context.Context, r repos) error {
		if err := r.requireAccess(ctx, listID, caller); err != nil {
			return err
		}
		var err error
		out, err = r.tasks.ListByList(ctx, listID)
		return err
	})
	return out, err
}

func (s *TaskService) Get(ctx context.Context, caller, listID, taskID uuid.UUID) (model.Task, error) {
	var t model.Task
	err := inTx(ctx, s.db, func(ctx context.Context, r repos) error {
		if err := r.requireAccess(ctx, listID, caller); err != nil {
			return err
		}
		var err error
		t, err = r.getTask(ctx, listID, taskID)
		return err
	})
	return t, err
}

// Update applies the set fields of p. An empty patch returns the task as is.
func (s *TaskService) Update(ctx context.Context, caller, listID, taskID uuid.UUID, p model.TaskPatch) (model.Task, error) {
	var t model.Task
	err := inTx(ctx, s.db, func(ctx context.Context, r repos) error {
		if err := r.requireAccess(ctx, listID, caller); err != nil {
			return err
		}
		if !p.Empty() {
			if err := r.tasks.Update(ctx, listID, taskID, caller, p); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrTaskNotFound
				}
				return fmt.Errorf("update task: %w", err)
			}
		}
		var err error
		t, err = r.getTask(ctx, listID, taskID)
		return err
	})
	return t, err
}

func (s *TaskService) Delete(ctx context.Context, caller, listID, taskID uuid.UUID) error {
	return inTx(ctx, s.db, func(ctx context.Context, r repos) error {
		if err := r.requireAccess(ctx, listID, caller); err != nil {
			return err
		}
		if err := r.tasks.Delete(ctx, listID, taskID, caller); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

func (r repos) getTask(ctx context.Context, listID, taskID uuid.UUID) (model.Task, error) {
	t, err := r.tasks.Get(ctx, listID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Task{}, ErrTaskNotFound
	}
	return t, err
}
