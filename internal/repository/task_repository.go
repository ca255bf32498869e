package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/renorris/cs496-todo-app/internal/database"
	"github.com/renorris/cs496-todo-app/internal/model"
)

// TaskRepo encapsulates queries on the `tasks` table. Every statement is
// scoped by list id; writes also carry the caller's access predicate.
type TaskRepo struct{ DB database.DBTX }

func NewTaskRepo(db database.DBTX) *TaskRepo { return &TaskRepo{DB: db} }

const taskColumns = "uuid, list_uuid, created_at, title, description, due_date, done"

// Create inserts t. ErrNotFound when the parent list no longer exists.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = Now()
	}
	t.DueDate = t.DueDate.UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES (?,?,?,?,?,?,?)",
		t.UUID, t.ListUUID, t.CreatedAt, t.Title, t.Description, t.DueDate, t.Done)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListByList returns the tasks of listID, latest due date first.
func (r *TaskRepo) ListByList(ctx context.Context, listID uuid.UUID) ([]model.Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE list_uuid = ? ORDER BY due_date DESC, uuid", listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one task of listID.
func (r *TaskRepo) Get(ctx context.Context, listID, taskID uuid.UUID) (model.Task, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE uuid = ? AND list_uuid = ? LIMIT 1", taskID, listID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return t, nil
}

// Update applies the non-nil fields of p if ownerID holds access to listID.
func (r *TaskRepo) Update(ctx context.Context, listID, taskID, ownerID uuid.UUID, p model.TaskPatch) error {
	var due any
	if p.DueDate != nil {
		due = p.DueDate.UTC()
	}
	q := `UPDATE tasks SET
	        title = COALESCE(?, title),
	        description = COALESCE(?, description),
	        due_date = COALESCE(?, due_date),
	        done = COALESCE(?, done)
	      WHERE uuid = ? AND list_uuid = ? AND ` + hasAccessClause
	res, err := r.DB.ExecContext(ctx, q,
		nullable(p.Title), nullable(p.Description), due, nullable(p.Done),
		taskID, listID, listID, ownerID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes one task if ownerID holds access to listID.
func (r *TaskRepo) Delete(ctx context.Context, listID, taskID, ownerID uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tasks WHERE uuid = ? AND list_uuid = ? AND "+hasAccessClause,
		taskID, listID, listID, ownerID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (model.Task, error) {
	var (
		t            model.Task
		created, due sqlTime
	)
	if err := s.Scan(&t.UUID, &t.ListUUID, &created, &t.Title, &t.Description, &due, &t.Done); err != nil {
		return model.Task{}, err
	}
	t.CreatedAt = created.Time
	t.DueDate = due.Time
	return t, nil
}

// nullable turns a nil pointer into SQL NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
