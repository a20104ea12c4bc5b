package inmemdb

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) emailTaken(email string, excludedIDs ...string) bool {
	_, found := repo.db.users.find(func(u user.User) bool {
		return strings.EqualFold(u.Email, email) && !slices.Contains(excludedIDs, u.ID)
	})
	return found
}

func emailExistsErr() error {
	return core.NewValidationError(user.ErrEmailExists, core.FieldError{Field: "email", Error: user.ErrEmailExists.Error()})
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.emailTaken(usr.Email) {
		return user.User{}, emailExistsErr()
	}
	usr.ID = uuid.NewString()
	repo.db.users.put(ctx, usr.ID, usr)
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users.get(id); ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users.find(func(u user.User) bool { return strings.EqualFold(u.Email, email) }); ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func compareUsers(a, b user.User, field string) int {
	switch field {
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "role":
		return strings.Compare(string(a.Role), string(b.Role))
	case "is_active":
		switch {
		case a.IsActive == b.IsActive:
			return 0
		case a.IsActive:
			return 1
		default:
			return -1
		}
	case "last_login":
		return a.LastLogin.Compare(b.LastLogin)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	search := strings.ToLower(filter.Search)
	roles := make([]string, 0, len(filter.Roles))
	for _, r := range filter.Roles {
		roles = append(roles, string(r))
	}
	if filter.Roles == nil {
		roles = nil
	}

	return repo.db.users.filter(
		func(u user.User) bool {
			return (search == "" || strings.Contains(strings.ToLower(u.Email), search)) &&
				allowed(roles, string(u.Role)) &&
				(filter.IsActive == nil || u.IsActive == *filter.IsActive) &&
				(filter.CreatedFrom.IsZero() || !u.CreatedAt.Before(filter.CreatedFrom)) &&
				(filter.CreatedTo.IsZero() || !u.CreatedAt.After(filter.CreatedTo))
		},
		func(a, b user.User) bool {
			for _, ord := range ordering {
				c := compareUsers(a, b, ord.Field)
				if c == 0 {
					continue
				}
				return (c < 0) == ord.Ascending
			}
			return false
		},
	), nil
}

func (repo *userRepository) QueryRolesByUserIDs(_ context.Context, ids ...string) (map[string]user.Role, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	roles := make(map[string]user.Role, len(ids))
	for _, id := range ids {
		if usr, ok := repo.db.users.get(id); ok {
			roles[id] = usr.Role
		}
	}
	return roles, nil
}

func (repo *userRepository) EmailExists(_ context.Context, email string, excludedIDs ...string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.emailTaken(email, excludedIDs...), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users.get(usr.ID); !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.emailTaken(usr.Email, usr.ID) {
		return user.User{}, emailExistsErr()
	}
	repo.db.users.put(ctx, usr.ID, usr)
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		repo.db.users.remove(ctx, id)
	}
	return nil
}
