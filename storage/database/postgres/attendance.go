package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/akia2466/PMNTS-Lovable/core/attendance"
)

type attendanceRow struct {
	ID        string      `db:"id"`
	CourseID  string      `db:"course_id"`
	StudentID string      `db:"student_id"`
	Date      time.Time   `db:"date"`
	Status    string      `db:"status"`
	Notes     null.String `db:"notes"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r attendanceRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		CourseID:  r.CourseID,
		StudentID: r.StudentID,
		Date:      r.Date.UTC(),
		Status:    attendance.Status(r.Status),
		Notes:     r.Notes.String,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

var attendanceColumns = []string{"id", "course_id", "student_id", "date", "status", "notes", "created_at"}

func (repo *attendanceRepository) UpsertRecords(ctx context.Context, records ...attendance.Record) ([]attendance.Record, error) {
	if len(records) == 0 {
		return records, nil
	}
	q := psql.Insert("attendance").Columns(attendanceColumns...)
	for _, r := range records {
		q = q.Values(uuid.NewString(), r.CourseID, r.StudentID, r.Date.Format(attendance.DateLayout), string(r.Status), nullString(r.Notes), r.CreatedAt)
	}
	q = q.Suffix("ON CONFLICT (course_id, student_id, date) DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes " +
		"RETURNING id, course_id, student_id, date, status, notes, created_at")

	var rows []attendanceRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "upserting attendance")
	}
	saved := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		saved = append(saved, r.toRecord())
	}
	return saved, nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	q := psql.Select(attendanceColumns...).From("attendance").OrderBy("date DESC", "created_at DESC")
	if filter.StudentIDs != nil {
		q = q.Where(sq.Eq{"student_id": filter.StudentIDs})
	}
	if filter.CourseIDs != nil {
		q = q.Where(sq.Eq{"course_id": filter.CourseIDs})
	}
	if !filter.From.IsZero() {
		q = q.Where(sq.GtOrEq{"date": filter.From.Format(attendance.DateLayout)})
	}
	if !filter.To.IsZero() {
		q = q.Where(sq.LtOrEq{"date": filter.To.Format(attendance.DateLayout)})
	}

	var rows []attendanceRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting attendance")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toRecord())
	}
	return records, nil
}
