package cache

import (
	"context"
	"sync"
	"time"

	"github.com/akia2466/PMNTS-Lovable/core/session"
)

// MemoryBlacklist forgets the revoked tokens once they expire.
type MemoryBlacklist struct {
	mu      sync.Mutex
	expires map[string]time.Time
	nowFunc func() time.Time // mockable
}

var _ session.TokenBlacklist = (*MemoryBlacklist)(nil)

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{expires: make(map[string]time.Time), nowFunc: time.Now}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	for id, exp := range b.expires {
		if !exp.After(now) {
			delete(b.expires, id)
		}
	}
	b.expires[tokenID] = now.Add(ttl)
	return nil
}

func (b *MemoryBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	exp, ok := b.expires[tokenID]
	return ok && exp.After(b.nowFunc()), nil
}
