package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/renorris/cs496-todo-app/internal/database"
	"github.com/renorris/cs496-todo-app/internal/model"
)

// AccessRepo manages the `list_access` join table.
type AccessRepo struct{ DB database.DBTX }

func NewAccessRepo(db database.DBTX) *AccessRepo { return &AccessRepo{DB: db} }

// Get returns ownerID's access row for listID, or ErrNotFound.
func (r *AccessRepo) Get(ctx context.Context, listID, ownerID uuid.UUID) (model.ListAccess, error) {
	var a model.ListAccess
	err := r.DB.QueryRowContext(ctx,
		"SELECT uuid, list_uuid, owner_uuid FROM list_access WHERE list_uuid = ? AND owner_uuid = ?",
		listID, ownerID).Scan(&a.UUID, &a.ListUUID, &a.OwnerUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ListAccess{}, ErrNotFound
		}
		return model.ListAccess{}, err
	}
	return a, nil
}

// Grant inserts an access row. created is false when the pair already
// existed, which is not an error. A vanished list or user gives ErrNotFound.
func (r *AccessRepo) Grant(ctx context.Context, listID, ownerID uuid.UUID) (created bool, err error) {
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO list_access (uuid, list_uuid, owner_uuid) VALUES (?,?,?)",
		uuid.New(), listID, ownerID)
	switch {
	case err == nil:
		return true, nil
	case isUniqueViolation(err):
		return false, nil
	case isForeignKeyViolation(err):
		return false, ErrNotFound
	default:
		return false, err
	}
}

// Revoke removes ownerID's access row. ErrNotFound when there was none.
func (r *AccessRepo) Revoke(ctx context.Context, listID, ownerID uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM list_access WHERE list_uuid = ? AND owner_uuid = ?", listID, ownerID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Accessors lists every user holding access to listID, ordered by email.
func (r *AccessRepo) Accessors(ctx context.Context, listID uuid.UUID) ([]model.Accessor, error) {
	const q = `SELECT u.uuid, u.first_name, u.last_name, u.email
	           FROM list_access a JOIN users u ON u.uuid = a.owner_uuid
	           WHERE a.list_uuid = ? ORDER BY u.email`
	rows, err := r.DB.QueryContext(ctx, q, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Accessor{}
	for rows.Next() {
		var (
			a           model.Accessor
			first, last string
		)
		if err := rows.Scan(&a.UUID, &first, &last, &a.Email); err != nil {
			return nil, err
		}
		a.Name = model.User{FirstName: first, LastName: last}.FullName()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
