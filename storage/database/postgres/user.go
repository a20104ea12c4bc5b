package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

type userRow struct {
	ID           string      `db:"id"`
	Email        string      `db:"email"`
	PasswordHash []byte      `db:"password_hash"`
	IsActive     bool        `db:"is_active"`
	Role         null.String `db:"role"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Email:        r.Email,
		IsActive:     r.IsActive,
		Role:         user.Role(r.Role.String),
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		LastLogin:    r.LastLogin.Time.UTC(),
	}
}

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) selectUsers() sq.SelectBuilder {
	return psql.
		Select("u.id", "u.email", "u.password_hash", "u.is_active", "r.role", "u.created_at", "u.updated_at", "u.last_login").
		From("users u").
		LeftJoin("user_roles r ON r.user_id = u.id")
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	err := repo.db.WithinTx(ctx, func(ctx context.Context) error {
		_, err := repo.db.exec(ctx, psql.Insert("users").
			Columns("id", "email", "password_hash", "is_active", "created_at", "updated_at").
			Values(usr.ID, usr.Email, usr.PasswordHash, usr.IsActive, usr.CreatedAt, usr.UpdatedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return core.NewValidationError(user.ErrEmailExists, core.FieldError{Field: "email", Error: user.ErrEmailExists.Error()})
			}
			return errors.Wrap(err, "inserting user")
		}
		_, err = repo.db.exec(ctx, psql.Insert("user_roles").
			Columns("id", "user_id", "role").
			Values(uuid.NewString(), usr.ID, string(usr.Role)))
		return errors.Wrap(err, "inserting user role")
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) getUser(ctx context.Context, where sq.Sqlizer) (user.User, error) {
	var row userRow
	if err := repo.db.get(ctx, &row, repo.selectUsers().Where(where), user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, sq.Eq{"u.id": id})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"u.email": email})
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := repo.selectUsers()
	if filter.Search != "" {
		q = q.Where(ilike("u.email", filter.Search))
	}
	if len(filter.Roles) > 0 {
		roles := make([]string, 0, len(filter.Roles))
		for _, r := range filter.Roles {
			roles = append(roles, string(r))
		}
		q = q.Where(sq.Eq{"r.role": roles})
	}
	if filter.IsActive != nil {
		q = q.Where(sq.Eq{"u.is_active": *filter.IsActive})
	}
	if !filter.CreatedFrom.IsZero() {
		q = q.Where(sq.GtOrEq{"u.created_at": filter.CreatedFrom.UTC()})
	}
	if !filter.CreatedTo.IsZero() {
		q = q.Where(sq.LtOrEq{"u.created_at": filter.CreatedTo.UTC()})
	}
	if len(ordering) == 0 {
		q = q.OrderBy("u.created_at DESC")
	}
	for _, ord := range ordering {
		if ord.Field == "role" {
			ord.Field = "r.role"
		} else {
			ord.Field = "u." + ord.Field
		}
		q = q.OrderBy(ord.String())
	}

	var rows []userRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) QueryRolesByUserIDs(ctx context.Context, ids ...string) (map[string]user.Role, error) {
	var rows []struct {
		UserID string `db:"user_id"`
		Role   string `db:"role"`
	}
	q := psql.Select("user_id", "role").From("user_roles").Where(sq.Eq{"user_id": ids})
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting roles")
	}
	roles := make(map[string]user.Role, len(rows))
	for _, r := range rows {
		roles[r.UserID] = user.Role(r.Role)
	}
	return roles, nil
}

func (repo *userRepository) EmailExists(ctx context.Context, email string, excludedIDs ...string) (bool, error) {
	q := psql.Select("COUNT(*)").From("users").Where(sq.Eq{"email": email})
	if len(excludedIDs) > 0 {
		q = q.Where(sq.NotEq{"id": excludedIDs})
	}
	var n int
	if err := repo.db.scalar(ctx, &n, q, nil); err != nil {
		return false, errors.Wrap(err, "counting users")
	}
	return n > 0, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	lastLogin := null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero())
	err := repo.db.WithinTx(ctx, func(ctx context.Context) error {
		n, err := repo.db.exec(ctx, psql.Update("users").
			Set("email", usr.Email).
			Set("password_hash", usr.PasswordHash).
			Set("is_active", usr.IsActive).
			Set("updated_at", usr.UpdatedAt).
			Set("last_login", lastLogin).
			Where(sq.Eq{"id": usr.ID}))
		if err != nil {
			if isUniqueViolation(err) {
				return core.NewValidationError(user.ErrEmailExists, core.FieldError{Field: "email", Error: user.ErrEmailExists.Error()})
			}
			return errors.Wrap(err, "updating user")
		}
		if n == 0 {
			return user.ErrNotFound
		}
		_, err = repo.db.exec(ctx, psql.Insert("user_roles").
			Columns("id", "user_id", "role").
			Values(uuid.NewString(), usr.ID, string(usr.Role)).
			Suffix("ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role"))
		return errors.Wrap(err, "updating user role")
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.exec(ctx, psql.Delete("users").Where(sq.Eq{"id": ids}))
	return errors.Wrap(err, "deleting users")
}
