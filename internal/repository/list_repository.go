package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/renorris/cs496-todo-app/internal/database"
	"github.com/renorris/cs496-todo-app/internal/model"
)

// ListRepo encapsulates queries on the `lists` table. Reads and writes that
// take an owner id only touch lists that owner holds a list_access row for.
type ListRepo struct{ DB database.DBTX }

func NewListRepo(db database.DBTX) *ListRepo { return &ListRepo{DB: db} }

// hasAccessClause restricts a statement on list id ? to callers holding access.
// Arguments: list uuid, owner uuid.
const hasAccessClause = "EXISTS (SELECT 1 FROM list_access la WHERE la.list_uuid = ? AND la.owner_uuid = ?)"

// summarySelect aggregates task counts and the earliest due date per list,
// limited to the lists the given owner can see.
const summarySelect = `SELECT l.uuid, l.created_at, l.title, l.description,
       COUNT(t.uuid),
       COALESCE(SUM(CASE WHEN t.done THEN 1 ELSE 0 END), 0),
       MIN(t.due_date)
FROM lists l
JOIN list_access a ON a.list_uuid = l.uuid
LEFT JOIN tasks t ON t.list_uuid = l.uuid
WHERE a.owner_uuid = ?`

const summaryGroup = " GROUP BY l.uuid, l.created_at, l.title, l.description"

// Create inserts a new list. The caller is responsible for granting access.
func (r *ListRepo) Create(ctx context.Context, l *model.List) error {
	if l.UUID == uuid.Nil {
		l.UUID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = Now()
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO lists (uuid, created_at, title, description) VALUES (?,?,?,?)",
		l.UUID, l.CreatedAt, l.Title, l.Description)
	return err
}

// Get fetches a list visible to ownerID.
func (r *ListRepo) Get(ctx context.Context, listID, ownerID uuid.UUID) (model.List, error) {
	const q = `SELECT l.uuid, l.created_at, l.title, l.description FROM lists l
	           WHERE l.uuid = ? AND ` + hasAccessClause
	var (
		l       model.List
		created sqlTime
	)
	err := r.DB.QueryRowContext(ctx, q, listID, listID, ownerID).
		Scan(&l.UUID, &created, &l.Title, &l.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.List{}, ErrNotFound
		}
		return model.List{}, err
	}
	l.CreatedAt = created.Time
	return l, nil
}

// Summary returns one list with its task aggregates.
func (r *ListRepo) Summary(ctx context.Context, listID, ownerID uuid.UUID) (model.ListSummary, error) {
	rows, err := r.DB.QueryContext(ctx, summarySelect+" AND l.uuid = ?"+summaryGroup, ownerID, listID)
	if err != nil {
		return model.ListSummary{}, err
	}
	out, err := scanSummaries(rows)
	if err != nil {
		return model.ListSummary{}, err
	}
	if len(out) == 0 {
		return model.ListSummary{}, ErrNotFound
	}
	return out[0], nil
}

// Summaries returns every list ownerID can see, newest first.
func (r *ListRepo) Summaries(ctx context.Context, ownerID uuid.UUID) ([]model.ListSummary, error) {
	rows, err := r.DB.QueryContext(ctx, summarySelect+summaryGroup+" ORDER BY l.created_at DESC, l.uuid", ownerID)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]model.ListSummary, error) {
	defer rows.Close()

	out := []model.ListSummary{}
	for rows.Next() {
		var (
			s                model.ListSummary
			created, minDue  sqlTime
			total, completed int64
		)
		if err := rows.Scan(&s.UUID, &created, &s.Title, &s.Description, &total, &completed, &minDue); err != nil {
			return nil, err
		}
		s.CreatedAt = created.Time
		s.TotalTasks = int(total)
		s.TasksCompleted = int(completed)
		s.EarliestDueDate = minDue.Ptr()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces title and description if ownerID holds access.
// It returns ErrNotFound when no row is affected (missing or not shared).
func (r *ListRepo) Update(ctx context.Context, listID, ownerID uuid.UUID, title, description string) error {
	q := "UPDATE lists SET title = ?, description = ? WHERE uuid = ? AND " + hasAccessClause
	res, err := r.DB.ExecContext(ctx, q, title, description, listID, listID, ownerID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes the list, all its access rows and all its tasks. It must run
// inside a transaction so no partial state is ever visible.
func (r *ListRepo) Delete(ctx context.Context, listID, ownerID uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM lists WHERE uuid = ? AND "+hasAccessClause, listID, listID, ownerID)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	// No-ops once the cascades fired; needed when foreign keys are off.
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM list_access WHERE list_uuid = ?", listID); err != nil {
		return err
	}
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE list_uuid = ?", listID); err != nil {
		return err
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
