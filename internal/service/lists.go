package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/renorris/cs496-todo-app/internal/database"
	"github.com/renorris/cs496-todo-app/internal/model"
	"github.com/renorris/cs496-todo-app/internal/repository"
)

// serializable makes InnoDB take shared locks on the rows an access check
// reads, so a concurrent revoke or delete waits for the check's transaction.
// SQLite ignores it; its single connection already serializes writers.
var serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

// repos is the set of repositories bound to one transaction.
type repos struct {
	users  *repository.UserRepo
	lists  *repository.ListRepo
	access *repository.AccessRepo
	tasks  *repository.TaskRepo
}

func bind(tx database.DBTX) repos {
	return repos{
		users:  repository.NewUserRepo(tx),
		lists:  repository.NewListRepo(tx),
		access: repository.NewAccessRepo(tx),
		tasks:  repository.NewTaskRepo(tx),
	}
}

func inTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, r repos) error) error {
	return database.WithTx(ctx, db, serializable, func(ctx context.Context, tx database.DBTX) error {
		return fn(ctx, bind(tx))
	})
}

// requireAccess resolves caller's access row for listID. A missing row
// answers ErrNotFound, so existence is never revealed.
func (r repos) requireAccess(ctx context.Context, listID, caller uuid.UUID) error {
	if _, err := r.access.Get(ctx, listID, caller); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("check access: %w", err)
	}
	return nil
}

// ListService manages lists and who may use them.
type ListService struct {
	db *sql.DB
}

func NewListService(db *sql.DB) *ListService {
	return &ListService{db: db}
}

// Create stores a list and grants its creator access in one transaction.
func (s *ListService) Create(ctx context.Context, caller uuid.UUID, title, description string) (model.ListSummary, error) {
	l := model.List{Title: title, Description: description}
	err := inTx(ctx, s.db, func(ctx context.Context, r repos) error {
		if err := r.lists.Create(ctx, &l); err != nil {
			return fmt.Errorf("insert list: %w", err)
		}
		if _, err := r.access.Grant(ctx, l.UUID, caller); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// The token outlived its user.
				return ErrUnauthorized
			}
			return fmt.Errorf("grant creator: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.ListSummary{}, err
	}
	return model.ListSummary{List: l}, nil
}

// Summaries returns every list caller can see with its task aggregates.
func (s *ListService) Summaries(ctx context.Context, caller uuid.UUID) ([]model.ListSummary, error) {
	return repository.NewListRepo(s.db).Summaries(ctx, caller)
}

// Get returns one list summary.
func (s *ListService) Get(ctx context.Context, caller, listID uuid.UUID) (model.ListSummary, error) {
	sum, err := repository.NewListRepo(s.db).Summary(ctx, listID, caller)
	if errors.Is(err, repository.ErrNotFound) {
		return model.ListSummary{}, ErrNotFound
	}
	return sum, err
}

// Update replaces the title and description.
func (s *ListService) Update(ctx context.Context, caller, listID uuid.UUID, title, description string) (model.ListSummary, error) {
	var sum model.ListSummary
	err := inTx(ctx, s.db, func(ctx context.Context, r repos) error {
		if err := r.lists.Update(ctx, listID, caller, title, description); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("update list: %w", err)
		}
		var err error
		sum, err = r.lists.Summary(ctx, listID, caller)
		return err
	})
	return sum, err
}

// Delete removes the list with every access row and task it owns.
func (s *ListService) Delete(ctx context.Context, caller, listID uuid.UUID) error {
	return inTx(ctx, s.db, func(ctx context.Context, r repos) error {
		if err := r.lists.Delete(ctx, listID, caller); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("delete list: %w", err)
		}
		return nil
	})
}

// Accessors lists everyone holding access to the list.
func (s *ListService) Accessors(ctx context.Context, caller, listID uuid.UUID) ([]model.Accessor, error) {
	var out []model.Accessor
	err := inTx(ctx, s.db, func(ctx context.Context, r repos) error {
		if err := r.requireAccess(ctx, listID, caller); err != nil {
			return err
		}
		var err error
		out, err = r.access.Accessors(ctx, listID)
		return err
	})
	return out, err
}

// Grant shares the list with the user registered under email. created is
// false when that user already had access, which is still a success.
func (s *ListService) Grant(ctx context.Context, caller, listID uuid.UUID, email string) (created bool, err error) {
	err = inTx(ctx, s.db, func(ctx context.Context, r repos) error {
		if err := r.requireAccess(ctx, listID, caller); err != nil {
			return err
		}
		target, err := r.users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lookup target: %w", err)
		}
		created, err = r.access.Grant(ctx, listID, target.UUID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	})
	return created, err
}

// Revoke removes target's access. Any accessor may revoke any other,
// themselves included.
func (s *ListService) Revoke(ctx context.Context, caller, listID, target uuid.UUID) error {
	return inTx(ctx, s.db, func(ctx context.Context, r repos) error {
		if err := r.requireAccess(ctx, listID, caller); err != nil {
			return err
		}
		if err := r.access.Revoke(ctx, listID, target); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoAccess
			}
			return fmt.Errorf("revoke: %w", err)
		}
		return nil
	})
}
