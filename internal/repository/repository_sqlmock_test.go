package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renorris/cs496-todo-app/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestUserRepo_Create_NormalizesEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users\s*\(uuid, email, password_hash, first_name, last_name, created_at\)`).
		WithArgs(sqlmock.AnyArg(), "alice@example.com", "hash", "Alice", "L", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &model.User{Email: "  Alice@Example.COM ", PasswordHash: "hash", FirstName: "Alice", LastName: "L"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, uuid.Nil, u.UUID)
	assert.False(t, u.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_DuplicateMapsToErrEmailExists(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"mysql", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectExec(`INSERT INTO users`).WillReturnError(tc.err)

			err := NewUserRepo(db).Create(context.Background(), &model.User{Email: "a@b.c"})
			assert.ErrorIs(t, err, ErrEmailExists)
		})
	}
}

func TestUserRepo_Create_OtherErrorPassesThrough(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	err := NewUserRepo(db).Create(context.Background(), &model.User{Email: "a@b.c"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`(?s)^SELECT .* FROM users WHERE email = \? LIMIT 1$`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := NewUserRepo(db).GetByEmail(context.Background(), "Ghost@Example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccessRepo_Grant_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		execErr     error
		wantCreated bool
		wantErr     error
	}{
		{"inserted", nil, true, nil},
		{"duplicate mysql", &mysql.MySQLError{Number: 1062}, false, nil},
		{"duplicate sqlite", errors.New("UNIQUE constraint failed: list_access.list_uuid, list_access.owner_uuid"), false, nil},
		{"list vanished mysql", &mysql.MySQLError{Number: 1452}, false, ErrNotFound},
		{"list vanished sqlite", errors.New("FOREIGN KEY constraint failed"), false, ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			exp := mock.ExpectExec(`INSERT INTO list_access`)
			if tc.execErr != nil {
				exp.WillReturnError(tc.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			created, err := NewAccessRepo(db).Grant(context.Background(), uuid.New(), uuid.New())
			assert.Equal(t, tc.wantCreated, created)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccessRepo_Revoke_NoRow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM list_access WHERE list_uuid = \? AND owner_uuid = \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewAccessRepo(db).Revoke(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRepo_Update_CarriesAccessPredicate(t *testing.T) {
	db, mock := newMock(t)
	listID, owner := uuid.New(), uuid.New()

	mock.ExpectExec(`(?s)^UPDATE lists SET title = \?, description = \? WHERE uuid = \? AND EXISTS \(SELECT 1 FROM list_access la WHERE la.list_uuid = \? AND la.owner_uuid = \?\)$`).
		WithArgs("t", "d", listID, listID, owner).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewListRepo(db).Update(context.Background(), listID, owner, "t", "d")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRepo_Delete_RemovesChildren(t *testing.T) {
	db, mock := newMock(t)
	listID, owner := uuid.New(), uuid.New()

	mock.ExpectExec(`DELETE FROM lists WHERE uuid = \? AND EXISTS`).
		WithArgs(listID, listID, owner).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM list_access WHERE list_uuid = \?`).
		WithArgs(listID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM tasks WHERE list_uuid = \?`).
		WithArgs(listID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewListRepo(db).Delete(context.Background(), listID, owner))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRepo_Delete_NoAccessStopsEarly(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM lists`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewListRepo(db).Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepo_Update_PassesNullForMissingFields(t *testing.T) {
	db, mock := newMock(t)
	listID, taskID, owner := uuid.New(), uuid.New(), uuid.New()
	done := true

	mock.ExpectExec(`(?s)^UPDATE tasks SET.*COALESCE.*WHERE uuid = \? AND list_uuid = \? AND EXISTS`).
		WithArgs(nil, nil, nil, true, taskID, listID, listID, owner).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewTaskRepo(db).Update(context.Background(), listID, taskID, owner, model.TaskPatch{Done: &done})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTime_Scan(t *testing.T) {
	tests := []struct {
		name  string
		src   any
		valid bool
		want  string
	}{
		{"nil", nil, false, ""},
		{"sqlite text", "2024-05-01 10:00:00+00:00", true, "2024-05-01T10:00:00Z"},
		{"mysql bytes", []byte("2024-05-01 10:00:00"), true, "2024-05-01T10:00:00Z"},
		{"iso", "2024-05-01T12:00:00+02:00", true, "2024-05-01T10:00:00Z"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var st sqlTime
			require.NoError(t, st.Scan(tc.src))
			assert.Equal(t, tc.valid, st.Valid)
			if tc.valid {
				assert.Equal(t, tc.want, st.Time.Format("2006-01-02T15:04:05Z07:00"))
			} else {
				assert.Nil(t, st.Ptr())
			}
		})
	}

	var st sqlTime
	assert.Error(t, st.Scan("yesterday"))
	assert.Error(t, st.Scan(42))
}
