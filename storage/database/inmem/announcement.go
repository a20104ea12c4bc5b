package inmemdb

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/akia2466/PMNTS-Lovable/core/announcement"
)

type announcementRepository struct {
	db *DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	a.ID = uuid.NewString()
	repo.db.announcements.put(ctx, a.ID, a)
	return a, nil
}

func (repo *announcementRepository) GetAnnouncementByID(_ context.Context, id string) (announcement.Announcement, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if a, ok := repo.db.announcements.get(id); ok {
		return a, nil
	}
	return announcement.Announcement{}, announcement.ErrNotFound
}

func (repo *announcementRepository) QueryAnnouncements(_ context.Context, filter announcement.QueryFilter) ([]announcement.Announcement, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.announcements.filter(
		func(a announcement.Announcement) bool {
			return (filter.Audiences == nil || slices.Contains(filter.Audiences, a.VisibleTo)) &&
				(filter.ActiveAt.IsZero() || !a.Expired(filter.ActiveAt))
		},
		func(a, b announcement.Announcement) bool { return a.CreatedAt.After(b.CreatedAt) },
	), nil
}

func (repo *announcementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.announcements.remove(ctx, id) {
		return announcement.ErrNotFound
	}
	return nil
}
