package inmemdb

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/connection"
)

type connectionRepository struct {
	db *DB
}

var _ connection.Repository = (*connectionRepository)(nil) // interface compliance check

func NewConnectionRepository(db *DB) connection.Repository {
	return &connectionRepository{db: db}
}

func (repo *connectionRepository) CreateRequest(ctx context.Context, r connection.Request) (connection.Request, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	_, dup := repo.db.requests.find(func(o connection.Request) bool {
		return o.FromUserID == r.FromUserID && o.ToUserID == r.ToUserID
	})
	if dup {
		return connection.Request{}, core.NewValidationError(connection.ErrRequestPending)
	}
	r.ID = uuid.NewString()
	repo.db.requests.put(ctx, r.ID, r)
	return r, nil
}

func (repo *connectionRepository) GetRequestByID(_ context.Context, id string) (connection.Request, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if r, ok := repo.db.requests.get(id); ok {
		return r, nil
	}
	return connection.Request{}, connection.ErrRequestNotFound
}

func (repo *connectionRepository) QueryRequests(_ context.Context, filter connection.RequestFilter) ([]connection.Request, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.requests.filter(
		func(r connection.Request) bool {
			return (filter.Involving == "" || r.FromUserID == filter.Involving || r.ToUserID == filter.Involving) &&
				(filter.FromUserID == "" || r.FromUserID == filter.FromUserID) &&
				(filter.ToUserID == "" || r.ToUserID == filter.ToUserID) &&
				(filter.Status == "" || r.Status == filter.Status)
		},
		func(a, b connection.Request) bool { return a.CreatedAt.After(b.CreatedAt) },
	), nil
}

func (repo *connectionRepository) UpdateRequest(ctx context.Context, r connection.Request) (connection.Request, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.requests.get(r.ID); !ok {
		return connection.Request{}, connection.ErrRequestNotFound
	}
	repo.db.requests.put(ctx, r.ID, r)
	return r, nil
}

func (repo *connectionRepository) DeleteRequest(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.requests.remove(ctx, id) {
		return connection.ErrRequestNotFound
	}
	return nil
}

func (repo *connectionRepository) DeleteRequestsBetween(ctx context.Context, a, b string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, r := range repo.db.requests.filter(func(r connection.Request) bool { return r.Between(a, b) }, nil) {
		repo.db.requests.remove(ctx, r.ID)
	}
	return nil
}

func (repo *connectionRepository) CreateConnection(ctx context.Context, c connection.Connection) (connection.Connection, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	_, dup := repo.db.connections.find(func(o connection.Connection) bool {
		return o.Involves(c.UserID) && o.Involves(c.ConnectedUserID)
	})
	if dup {
		return connection.Connection{}, core.NewValidationError(connection.ErrAlreadyConnected)
	}
	c.ID = uuid.NewString()
	repo.db.connections.put(ctx, c.ID, c)
	return c, nil
}

func (repo *connectionRepository) QueryConnections(_ context.Context, userIDs ...string) ([]connection.Connection, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.connections.filter(
		func(c connection.Connection) bool {
			return slices.Contains(userIDs, c.UserID) || slices.Contains(userIDs, c.ConnectedUserID)
		},
		func(a, b connection.Connection) bool { return a.CreatedAt.After(b.CreatedAt) },
	), nil
}

func (repo *connectionRepository) DeleteConnectionBetween(ctx context.Context, a, b string) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	removed := false
	for _, c := range repo.db.connections.filter(func(c connection.Connection) bool { return c.Involves(a) && c.Involves(b) }, nil) {
		removed = repo.db.connections.remove(ctx, c.ID) || removed
	}
	return removed, nil
}
