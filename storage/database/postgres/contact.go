package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/contact"
)

type contactRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Subject   string    `db:"subject"`
	Message   string    `db:"message"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func (r contactRow) toSubmission() contact.Submission {
	return contact.Submission{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Subject:   r.Subject,
		Message:   r.Message,
		Status:    contact.Status(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type contactRepository struct {
	db *DB
}

var _ contact.Repository = (*contactRepository)(nil) // interface compliance check

func NewContactRepository(db *DB) contact.Repository {
	return &contactRepository{db: db}
}

var contactColumns = []string{"id", "name", "email", "subject", "message", "status", "created_at"}

func (repo *contactRepository) CreateSubmission(ctx context.Context, s contact.Submission) (contact.Submission, error) {
	s.ID = uuid.NewString()
	_, err := repo.db.exec(ctx, psql.Insert("contact_submissions").
		Columns(contactColumns...).
		Values(s.ID, s.Name, s.Email, s.Subject, s.Message, string(s.Status), s.CreatedAt))
	if err != nil {
		return contact.Submission{}, errors.Wrap(err, "inserting contact submission")
	}
	return s, nil
}

func (repo *contactRepository) GetSubmissionByID(ctx context.Context, id string) (contact.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return contact.Submission{}, contact.ErrNotFound
	}
	var row contactRow
	q := psql.Select(contactColumns...).From("contact_submissions").Where(sq.Eq{"id": id})
	if err := repo.db.get(ctx, &row, q, contact.ErrNotFound); err != nil {
		return contact.Submission{}, err
	}
	return row.toSubmission(), nil
}

func (repo *contactRepository) QuerySubmissions(ctx context.Context, filter contact.QueryFilter) ([]contact.Submission, error) {
	q := psql.Select(contactColumns...).From("contact_submissions").OrderBy("created_at DESC")
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": string(filter.Status)})
	}

	var rows []contactRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting contact submissions")
	}
	subs := make([]contact.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toSubmission())
	}
	return subs, nil
}

func (repo *contactRepository) UpdateSubmission(ctx context.Context, s contact.Submission) (contact.Submission, error) {
	n, err := repo.db.exec(ctx, psql.Update("contact_submissions").
		Set("status", string(s.Status)).
		Where(sq.Eq{"id": s.ID}))
	if err != nil {
		return contact.Submission{}, errors.Wrap(err, "updating contact submission")
	}
	if n == 0 {
		return contact.Submission{}, contact.ErrNotFound
	}
	return s, nil
}
