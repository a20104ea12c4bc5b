package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/akia2466/PMNTS-Lovable/core/file"
)

type fileRow struct {
	ID         string      `db:"id"`
	UserID     string      `db:"user_id"`
	Name       string      `db:"name"`
	FileType   string      `db:"file_type"`
	FileSize   int64       `db:"file_size"`
	FileURL    string      `db:"file_url"`
	StorageKey null.String `db:"storage_key"`
	Folder     string      `db:"folder"`
	CreatedAt  time.Time   `db:"created_at"`
}

func (r fileRow) toFile() file.File {
	return file.File{
		ID:         r.ID,
		UserID:     r.UserID,
		Name:       r.Name,
		FileType:   file.Type(r.FileType),
		FileSize:   r.FileSize,
		FileURL:    r.FileURL,
		StorageKey: r.StorageKey.String,
		Folder:     r.Folder,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type fileRepository struct {
	db *DB
}

var _ file.Repository = (*fileRepository)(nil) // interface compliance check

func NewFileRepository(db *DB) file.Repository {
	return &fileRepository{db: db}
}

var fileColumns = []string{"id", "user_id", "name", "file_type", "file_size", "file_url", "storage_key", "folder", "created_at"}

func (repo *fileRepository) CreateFile(ctx context.Context, f file.File) (file.File, error) {
	f.ID = uuid.NewString()
	_, err := repo.db.exec(ctx, psql.Insert("user_files").
		Columns(fileColumns...).
		Values(f.ID, f.UserID, f.Name, string(f.FileType), f.FileSize, f.FileURL, nullString(f.StorageKey), f.Folder, f.CreatedAt))
	if err != nil {
		return file.File{}, errors.Wrap(err, "inserting file")
	}
	return f, nil
}

func (repo *fileRepository) GetFileByID(ctx context.Context, id string) (file.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return file.File{}, file.ErrNotFound
	}
	var row fileRow
	q := psql.Select(fileColumns...).From("user_files").Where(sq.Eq{"id": id})
	if err := repo.db.get(ctx, &row, q, file.ErrNotFound); err != nil {
		return file.File{}, err
	}
	return row.toFile(), nil
}

func (repo *fileRepository) QueryFiles(ctx context.Context, filter file.QueryFilter) ([]file.File, error) {
	q := psql.Select(fileColumns...).From("user_files").OrderBy("created_at DESC")
	if filter.UserID != "" {
		q = q.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.Search != "" {
		q = q.Where(ilike("name", filter.Search))
	}
	if filter.Folder != "" {
		q = q.Where(sq.Eq{"folder": filter.Folder})
	}
	if filter.Type != "" {
		q = q.Where(sq.Eq{"file_type": string(filter.Type)})
	}

	var rows []fileRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting files")
	}
	files := make([]file.File, 0, len(rows))
	for _, r := range rows {
		files = append(files, r.toFile())
	}
	return files, nil
}

func (repo *fileRepository) DeleteFile(ctx context.Context, id string) error {
	n, err := repo.db.exec(ctx, psql.Delete("user_files").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting file")
	}
	if n == 0 {
		return file.ErrNotFound
	}
	return nil
}
