package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"entity-chat-service/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrTaskNotFound = errors.New("task not found")
)

// UserDirectory resolves user references against the directory.
type UserDirectory interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	ListActive(ctx context.Context) ([]models.User, error)
	ListActiveByRoles(ctx context.Context, roles []string) ([]models.User, error)
}

// TaskDirectory answers the questions the chat subsystem asks about tasks.
type TaskDirectory interface {
	ResponsibleFor(ctx context.Context, taskID string) (string, error)
}

const userColumns = `id, name, surname, email, role, active`

// UserRepo is a sqlx-backed directory over the users and tasks tables.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindByIDs returns the users that exist among ids. Unknown ids are simply absent.
func (r *UserRepo) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	err = r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...)
	return users, err
}

// FindByID retrieves a single user.
func (r *UserRepo) FindByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}

// ListActive returns every active user ordered by surname.
func (r *UserRepo) ListActive(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE active = TRUE ORDER BY surname, name`)
	return users, err
}

// ListActiveByRoles returns active users holding one of roles.
func (r *UserRepo) ListActiveByRoles(ctx context.Context, roles []string) ([]models.User, error) {
	if len(roles) == 0 {
		return []models.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE active = TRUE AND role IN (?) ORDER BY surname, name`, roles)
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	err = r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...)
	return users, err
}

// ResponsibleFor returns the designated responsible user of a task, empty when
// the task has none.
func (r *UserRepo) ResponsibleFor(ctx context.Context, taskID string) (string, error) {
	var responsible sql.NullString
	err := r.db.GetContext(ctx, &responsible, `SELECT responsible_id FROM tasks WHERE id=$1`, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTaskNotFound
	}
	if err != nil {
		return "", err
	}
	return responsible.String, nil
}
