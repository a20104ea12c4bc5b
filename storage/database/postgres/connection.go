package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/connection"
)

type requestRow struct {
	ID         string    `db:"id"`
	FromUserID string    `db:"from_user_id"`
	ToUserID   string    `db:"to_user_id"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r requestRow) toRequest() connection.Request {
	return connection.Request{
		ID:         r.ID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Status:     connection.RequestStatus(r.Status),
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type connectionRow struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	ConnectedUserID string    `db:"connected_user_id"`
	CreatedAt       time.Time `db:"created_at"`
}

type connectionRepository struct {
	db *DB
}

var _ connection.Repository = (*connectionRepository)(nil) // interface compliance check

func NewConnectionRepository(db *DB) connection.Repository {
	return &connectionRepository{db: db}
}

var requestColumns = []string{"id", "from_user_id", "to_user_id", "status", "created_at"}

// pair matches the rows linking a and b through cols, in either direction.
func pair(from, to, a, b string) sq.Sqlizer {
	return sq.Or{sq.Eq{from: a, to: b}, sq.Eq{from: b, to: a}}
}

func (repo *connectionRepository) CreateRequest(ctx context.Context, r connection.Request) (connection.Request, error) {
	r.ID = uuid.NewString()
	_, err := repo.db.exec(ctx, psql.Insert("connection_requests").
		Columns(requestColumns...).
		Values(r.ID, r.FromUserID, r.ToUserID, string(r.Status), r.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return connection.Request{}, core.NewValidationError(connection.ErrRequestPending)
		}
		return connection.Request{}, errors.Wrap(err, "inserting connection request")
	}
	return r, nil
}

func (repo *connectionRepository) GetRequestByID(ctx context.Context, id string) (connection.Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return connection.Request{}, connection.ErrRequestNotFound
	}
	var row requestRow
	q := psql.Select(requestColumns...).From("connection_requests").Where(sq.Eq{"id": id})
	if err := repo.db.get(ctx, &row, q, connection.ErrRequestNotFound); err != nil {
		return connection.Request{}, err
	}
	return row.toRequest(), nil
}

func (repo *connectionRepository) QueryRequests(ctx context.Context, filter connection.RequestFilter) ([]connection.Request, error) {
	q := psql.Select(requestColumns...).From("connection_requests").OrderBy("created_at DESC")
	if filter.Involving != "" {
		q = q.Where(sq.Or{sq.Eq{"from_user_id": filter.Involving}, sq.Eq{"to_user_id": filter.Involving}})
	}
	if filter.FromUserID != "" {
		q = q.Where(sq.Eq{"from_user_id": filter.FromUserID})
	}
	if filter.ToUserID != "" {
		q = q.Where(sq.Eq{"to_user_id": filter.ToUserID})
	}
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": string(filter.Status)})
	}

	var rows []requestRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting connection requests")
	}
	requests := make([]connection.Request, 0, len(rows))
	for _, r := range rows {
		requests = append(requests, r.toRequest())
	}
	return requests, nil
}

func (repo *connectionRepository) UpdateRequest(ctx context.Context, r connection.Request) (connection.Request, error) {
	n, err := repo.db.exec(ctx, psql.Update("connection_requests").
		Set("status", string(r.Status)).
		Where(sq.Eq{"id": r.ID}))
	if err != nil {
		return connection.Request{}, errors.Wrap(err, "updating connection request")
	}
	if n == 0 {
		return connection.Request{}, connection.ErrRequestNotFound
	}
	return r, nil
}

func (repo *connectionRepository) DeleteRequest(ctx context.Context, id string) error {
	n, err := repo.db.exec(ctx, psql.Delete("connection_requests").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting connection request")
	}
	if n == 0 {
		return connection.ErrRequestNotFound
	}
	return nil
}

func (repo *connectionRepository) DeleteRequestsBetween(ctx context.Context, a, b string) error {
	_, err := repo.db.exec(ctx, psql.Delete("connection_requests").Where(pair("from_user_id", "to_user_id", a, b)))
	return errors.Wrap(err, "deleting connection requests")
}

func (repo *connectionRepository) CreateConnection(ctx context.Context, c connection.Connection) (connection.Connection, error) {
	c.ID = uuid.NewString()
	_, err := repo.db.exec(ctx, psql.Insert("connections").
		Columns("id", "user_id", "connected_user_id", "created_at").
		Values(c.ID, c.UserID, c.ConnectedUserID, c.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return connection.Connection{}, core.NewValidationError(connection.ErrAlreadyConnected)
		}
		return connection.Connection{}, errors.Wrap(err, "inserting connection")
	}
	return c, nil
}

func (repo *connectionRepository) QueryConnections(ctx context.Context, userIDs ...string) ([]connection.Connection, error) {
	if len(userIDs) == 0 {
		return []connection.Connection{}, nil
	}
	var rows []connectionRow
	q := psql.Select("id", "user_id", "connected_user_id", "created_at").
		From("connections").
		Where(sq.Or{sq.Eq{"user_id": userIDs}, sq.Eq{"connected_user_id": userIDs}}).
		OrderBy("created_at DESC")
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting connections")
	}
	conns := make([]connection.Connection, 0, len(rows))
	for _, r := range rows {
		conns = append(conns, connection.Connection{
			ID:              r.ID,
			UserID:          r.UserID,
			ConnectedUserID: r.ConnectedUserID,
			CreatedAt:       r.CreatedAt.UTC(),
		})
	}
	return conns, nil
}

func (repo *connectionRepository) DeleteConnectionBetween(ctx context.Context, a, b string) (bool, error) {
	n, err := repo.db.exec(ctx, psql.Delete("connections").Where(pair("user_id", "connected_user_id", a, b)))
	if err != nil {
		return false, errors.Wrap(err, "deleting connection")
	}
	return n > 0, nil
}
