package inmemdb

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/akia2466/PMNTS-Lovable/core/profile"
)

type profileRepository struct {
	db *DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	p.ID = uuid.NewString()
	repo.db.profiles.put(ctx, p.UserID, p)
	return p, nil
}

func (repo *profileRepository) GetProfileByUserID(_ context.Context, userID string) (profile.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if p, ok := repo.db.profiles.get(userID); ok {
		return p, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) QueryProfiles(_ context.Context, filter profile.QueryFilter) ([]profile.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	return repo.db.profiles.filter(
		func(p profile.Profile) bool {
			return (search == "" || strings.Contains(strings.ToLower(p.FullName), search)) &&
				allowed(filter.UserIDs, p.UserID) &&
				!slices.Contains(filter.ExcludeUserIDs, p.UserID)
		},
		func(a, b profile.Profile) bool { return strings.ToLower(a.FullName) < strings.ToLower(b.FullName) },
	), nil
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.profiles.get(p.UserID); !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	repo.db.profiles.put(ctx, p.UserID, p)
	return p, nil
}
