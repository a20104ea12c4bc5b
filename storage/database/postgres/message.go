package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/messaging"
)

type messageRow struct {
	ID         string    `db:"id"`
	SenderID   string    `db:"sender_id"`
	ReceiverID string    `db:"receiver_id"`
	Content    string    `db:"content"`
	Read       bool      `db:"read"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r messageRow) toMessage() messaging.Message {
	return messaging.Message{
		ID:         r.ID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Content:    r.Content,
		Read:       r.Read,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type messageRepository struct {
	db *DB
}

var _ messaging.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) messaging.Repository {
	return &messageRepository{db: db}
}

var messageColumns = []string{"id", "sender_id", "receiver_id", "content", "read", "created_at"}

func (repo *messageRepository) CreateMessage(ctx context.Context, m messaging.Message) (messaging.Message, error) {
	m.ID = uuid.NewString()
	_, err := repo.db.exec(ctx, psql.Insert("messages").
		Columns(messageColumns...).
		Values(m.ID, m.SenderID, m.ReceiverID, m.Content, m.Read, m.CreatedAt))
	if err != nil {
		return messaging.Message{}, errors.Wrap(err, "inserting message")
	}
	return m, nil
}

func (repo *messageRepository) QueryThread(ctx context.Context, a, b string) ([]messaging.Message, error) {
	var rows []messageRow
	q := psql.Select(messageColumns...).From("messages").
		Where(pair("sender_id", "receiver_id", a, b)).
		OrderBy("created_at ASC")
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting messages")
	}
	msgs := make([]messaging.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.toMessage())
	}
	return msgs, nil
}

func (repo *messageRepository) MarkRead(ctx context.Context, receiverID, senderID string, ids ...string) ([]string, error) {
	q := psql.Update("messages").
		Set("read", true).
		Where(sq.Eq{"receiver_id": receiverID, "sender_id": senderID, "read": false}).
		Suffix("RETURNING id")
	if len(ids) > 0 {
		q = q.Where(sq.Eq{"id": ids})
	}
	marked := []string{}
	if err := repo.db.selectAll(ctx, &marked, q); err != nil {
		return nil, errors.Wrap(err, "marking messages read")
	}
	return marked, nil
}

func (repo *messageRepository) UnreadCounts(ctx context.Context, receiverID string) (map[string]int, error) {
	var rows []struct {
		SenderID string `db:"sender_id"`
		Unread   int    `db:"unread"`
	}
	q := psql.Select("sender_id", "COUNT(*) AS unread").From("messages").
		Where(sq.Eq{"receiver_id": receiverID, "read": false}).
		GroupBy("sender_id")
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "counting unread messages")
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.SenderID] = r.Unread
	}
	return counts, nil
}

func (repo *messageRepository) LastMessages(ctx context.Context, userID string) (map[string]messaging.Message, error) {
	const pairKey = "LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id)"
	var rows []messageRow
	q := psql.Select(messageColumns...).
		Options("DISTINCT ON (" + pairKey + ")").
		From("messages").
		Where(sq.Or{sq.Eq{"sender_id": userID}, sq.Eq{"receiver_id": userID}}).
		OrderBy(pairKey, "created_at DESC")
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting last messages")
	}
	last := make(map[string]messaging.Message, len(rows))
	for _, r := range rows {
		other := r.SenderID
		if other == userID {
			other = r.ReceiverID
		}
		last[other] = r.toMessage()
	}
	return last, nil
}
