package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/akia2466/PMNTS-Lovable/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertRecords(ctx context.Context, records ...attendance.Record) ([]attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	saved := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		day := r.Date.Format(attendance.DateLayout)
		prev, found := repo.db.attendance.find(func(o attendance.Record) bool {
			return o.CourseID == r.CourseID && o.StudentID == r.StudentID && o.Date.Format(attendance.DateLayout) == day
		})
		if found {
			prev.Status = r.Status
			prev.Notes = r.Notes
			r = prev
		} else {
			r.ID = uuid.NewString()
		}
		repo.db.attendance.put(ctx, r.ID, r)
		saved = append(saved, r)
	}
	return saved, nil
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.attendance.filter(
		func(r attendance.Record) bool {
			return allowed(filter.StudentIDs, r.StudentID) &&
				allowed(filter.CourseIDs, r.CourseID) &&
				(filter.From.IsZero() || !r.Date.Before(filter.From)) &&
				(filter.To.IsZero() || !r.Date.After(filter.To))
		},
		func(a, b attendance.Record) bool {
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			return a.CreatedAt.After(b.CreatedAt)
		},
	), nil
}
