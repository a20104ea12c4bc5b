package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/akia2466/PMNTS-Lovable/core/file"
)

type fileRepository struct {
	db *DB
}

var _ file.Repository = (*fileRepository)(nil) // interface compliance check

func NewFileRepository(db *DB) file.Repository {
	return &fileRepository{db: db}
}

func (repo *fileRepository) CreateFile(ctx context.Context, f file.File) (file.File, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	f.ID = uuid.NewString()
	repo.db.files.put(ctx, f.ID, f)
	return f, nil
}

func (repo *fileRepository) GetFileByID(_ context.Context, id string) (file.File, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if f, ok := repo.db.files.get(id); ok {
		return f, nil
	}
	return file.File{}, file.ErrNotFound
}

func (repo *fileRepository) QueryFiles(_ context.Context, filter file.QueryFilter) ([]file.File, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	return repo.db.files.filter(
		func(f file.File) bool {
			return (filter.UserID == "" || f.UserID == filter.UserID) &&
				(search == "" || strings.Contains(strings.ToLower(f.Name), search)) &&
				(filter.Folder == "" || f.Folder == filter.Folder) &&
				(filter.Type == "" || f.FileType == filter.Type)
		},
		func(a, b file.File) bool { return a.CreatedAt.After(b.CreatedAt) },
	), nil
}

func (repo *fileRepository) DeleteFile(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.files.remove(ctx, id) {
		return file.ErrNotFound
	}
	return nil
}
