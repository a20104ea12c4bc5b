package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/akia2466/PMNTS-Lovable/core/contact"
)

type contactRepository struct {
	db *DB
}

var _ contact.Repository = (*contactRepository)(nil) // interface compliance check

func NewContactRepository(db *DB) contact.Repository {
	return &contactRepository{db: db}
}

func (repo *contactRepository) CreateSubmission(ctx context.Context, s contact.Submission) (contact.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	s.ID = uuid.NewString()
	repo.db.contacts.put(ctx, s.ID, s)
	return s, nil
}

func (repo *contactRepository) GetSubmissionByID(_ context.Context, id string) (contact.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.contacts.get(id); ok {
		return s, nil
	}
	return contact.Submission{}, contact.ErrNotFound
}

func (repo *contactRepository) QuerySubmissions(_ context.Context, filter contact.QueryFilter) ([]contact.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.contacts.filter(
		func(s contact.Submission) bool { return filter.Status == "" || s.Status == filter.Status },
		func(a, b contact.Submission) bool { return a.CreatedAt.After(b.CreatedAt) },
	), nil
}

func (repo *contactRepository) UpdateSubmission(ctx context.Context, s contact.Submission) (contact.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.contacts.get(s.ID); !ok {
		return contact.Submission{}, contact.ErrNotFound
	}
	repo.db.contacts.put(ctx, s.ID, s)
	return s, nil
}
