package inmemdb

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/akia2466/PMNTS-Lovable/core/messaging"
)

type messageRepository struct {
	db *DB
}

var _ messaging.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) messaging.Repository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, m messaging.Message) (messaging.Message, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	m.ID = uuid.NewString()
	repo.db.messages.put(ctx, m.ID, m)
	return m, nil
}

func oldestFirst(a, b messaging.Message) bool { return a.CreatedAt.Before(b.CreatedAt) }

func (repo *messageRepository) QueryThread(_ context.Context, a, b string) ([]messaging.Message, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.messages.filter(func(m messaging.Message) bool { return m.Between(a, b) }, oldestFirst), nil
}

func (repo *messageRepository) MarkRead(ctx context.Context, receiverID, senderID string, ids ...string) ([]string, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	unread := repo.db.messages.filter(func(m messaging.Message) bool {
		return m.ReceiverID == receiverID && m.SenderID == senderID && !m.Read &&
			(len(ids) == 0 || slices.Contains(ids, m.ID))
	}, oldestFirst)
	marked := make([]string, 0, len(unread))
	for _, m := range unread {
		m.Read = true
		repo.db.messages.put(ctx, m.ID, m)
		marked = append(marked, m.ID)
	}
	return marked, nil
}

func (repo *messageRepository) UnreadCounts(_ context.Context, receiverID string) (map[string]int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	counts := make(map[string]int)
	for _, m := range repo.db.messages.filter(func(m messaging.Message) bool { return m.ReceiverID == receiverID && !m.Read }, nil) {
		counts[m.SenderID]++
	}
	return counts, nil
}

func (repo *messageRepository) LastMessages(_ context.Context, userID string) (map[string]messaging.Message, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	last := make(map[string]messaging.Message)
	mine := repo.db.messages.filter(func(m messaging.Message) bool { return m.SenderID == userID || m.ReceiverID == userID }, oldestFirst)
	for _, m := range mine {
		other := m.SenderID
		if other == userID {
			other = m.ReceiverID
		}
		last[other] = m
	}
	return last, nil
}
