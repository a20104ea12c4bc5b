package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/akia2466/PMNTS-Lovable/core/profile"
)

type profileRow struct {
	ID         string      `db:"id"`
	UserID     string      `db:"user_id"`
	FullName   string      `db:"full_name"`
	AvatarURL  null.String `db:"avatar_url"`
	GradeLevel null.String `db:"grade_level"`
	Department null.String `db:"department"`
	Phone      null.String `db:"phone"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func (r profileRow) toProfile() profile.Profile {
	return profile.Profile{
		ID:         r.ID,
		UserID:     r.UserID,
		FullName:   r.FullName,
		AvatarURL:  r.AvatarURL.String,
		GradeLevel: r.GradeLevel.String,
		Department: r.Department.String,
		Phone:      r.Phone.String,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

// nullString maps the empty string to NULL.
func nullString(s string) null.String { return null.NewString(s, s != "") }

type profileRepository struct {
	db *DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db}
}

var profileColumns = []string{"id", "user_id", "full_name", "avatar_url", "grade_level", "department", "phone", "created_at", "updated_at"}

func (repo *profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	p.ID = uuid.NewString()
	_, err := repo.db.exec(ctx, psql.Insert("profiles").
		Columns(profileColumns...).
		Values(p.ID, p.UserID, p.FullName, nullString(p.AvatarURL), nullString(p.GradeLevel),
			nullString(p.Department), nullString(p.Phone), p.CreatedAt, p.UpdatedAt))
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return p, nil
}

func (repo *profileRepository) GetProfileByUserID(ctx context.Context, userID string) (profile.Profile, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return profile.Profile{}, profile.ErrNotFound
	}
	var row profileRow
	q := psql.Select(profileColumns...).From("profiles").Where(sq.Eq{"user_id": userID})
	if err := repo.db.get(ctx, &row, q, profile.ErrNotFound); err != nil {
		return profile.Profile{}, err
	}
	return row.toProfile(), nil
}

func (repo *profileRepository) QueryProfiles(ctx context.Context, filter profile.QueryFilter) ([]profile.Profile, error) {
	q := psql.Select(profileColumns...).From("profiles").OrderBy("LOWER(full_name) ASC")
	if filter.Search != "" {
		q = q.Where(ilike("full_name", filter.Search))
	}
	if filter.UserIDs != nil {
		q = q.Where(sq.Eq{"user_id": filter.UserIDs})
	}
	if len(filter.ExcludeUserIDs) > 0 {
		q = q.Where(sq.NotEq{"user_id": filter.ExcludeUserIDs})
	}

	var rows []profileRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting profiles")
	}
	profiles := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.toProfile())
	}
	return profiles, nil
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	n, err := repo.db.exec(ctx, psql.Update("profiles").
		Set("full_name", p.FullName).
		Set("avatar_url", nullString(p.AvatarURL)).
		Set("grade_level", nullString(p.GradeLevel)).
		Set("department", nullString(p.Department)).
		Set("phone", nullString(p.Phone)).
		Set("updated_at", p.UpdatedAt).
		Where(sq.Eq{"id": p.ID}))
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "updating profile")
	}
	if n == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}
