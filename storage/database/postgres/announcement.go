package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/akia2466/PMNTS-Lovable/core/announcement"
)

type announcementRow struct {
	ID        string    `db:"id"`
	AuthorID  string    `db:"author_id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	Priority  string    `db:"priority"`
	VisibleTo string    `db:"visible_to"`
	ExpiresAt null.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (r announcementRow) toAnnouncement() announcement.Announcement {
	a := announcement.Announcement{
		ID:        r.ID,
		AuthorID:  r.AuthorID,
		Title:     r.Title,
		Content:   r.Content,
		Priority:  announcement.Priority(r.Priority),
		VisibleTo: announcement.Audience(r.VisibleTo),
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.ExpiresAt.Valid {
		t := r.ExpiresAt.Time.UTC()
		a.ExpiresAt = &t
	}
	return a
}

type announcementRepository struct {
	db *DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{db: db}
}

var announcementColumns = []string{"id", "author_id", "title", "content", "priority", "visible_to", "expires_at", "created_at"}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	a.ID = uuid.NewString()
	var expiresAt null.Time
	if a.ExpiresAt != nil {
		expiresAt = null.TimeFrom(*a.ExpiresAt)
	}
	_, err := repo.db.exec(ctx, psql.Insert("announcements").
		Columns(announcementColumns...).
		Values(a.ID, a.AuthorID, a.Title, a.Content, string(a.Priority), string(a.VisibleTo), expiresAt, a.CreatedAt))
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return a, nil
}

func (repo *announcementRepository) GetAnnouncementByID(ctx context.Context, id string) (announcement.Announcement, error) {
	if _, err := uuid.Parse(id); err != nil {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	var row announcementRow
	q := psql.Select(announcementColumns...).From("announcements").Where(sq.Eq{"id": id})
	if err := repo.db.get(ctx, &row, q, announcement.ErrNotFound); err != nil {
		return announcement.Announcement{}, err
	}
	return row.toAnnouncement(), nil
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, filter announcement.QueryFilter) ([]announcement.Announcement, error) {
	q := psql.Select(announcementColumns...).From("announcements").OrderBy("created_at DESC")
	if filter.Audiences != nil {
		audiences := make([]string, 0, len(filter.Audiences))
		for _, a := range filter.Audiences {
			audiences = append(audiences, string(a))
		}
		q = q.Where(sq.Eq{"visible_to": audiences})
	}
	if !filter.ActiveAt.IsZero() {
		q = q.Where(sq.Or{sq.Eq{"expires_at": nil}, sq.Gt{"expires_at": filter.ActiveAt.UTC()}})
	}

	var rows []announcementRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting announcements")
	}
	announcements := make([]announcement.Announcement, 0, len(rows))
	for _, r := range rows {
		announcements = append(announcements, r.toAnnouncement())
	}
	return announcements, nil
}

func (repo *announcementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	n, err := repo.db.exec(ctx, psql.Delete("announcements").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	if n == 0 {
		return announcement.ErrNotFound
	}
	return nil
}
