// Package realtime implements core.PubSub in process and on Redis.
package realtime

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
)

// subscriptionBuffer is the number of payloads a slow subscriber may lag behind before losing some.
const subscriptionBuffer = 64

var ErrClosed = errors.New("pubsub closed")

type MemoryPubSub struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySubscription]struct{}
	closed bool
	logger core.Logger
}

var _ core.PubSub = (*MemoryPubSub)(nil)

func NewMemoryPubSub(logger core.Logger) *MemoryPubSub {
	return &MemoryPubSub{subs: make(map[string]map[*memorySubscription]struct{}), logger: logger}
}

func (ps *MemoryPubSub) Publish(_ context.Context, channel string, payload []byte) error {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	if ps.closed {
		return ErrClosed
	}
	for sub := range ps.subs[channel] {
		sub.deliver(payload, ps.logger, channel)
	}
	return nil
}

func (ps *MemoryPubSub) Subscribe(_ context.Context, channels ...string) (core.Subscription, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return nil, ErrClosed
	}
	sub := &memorySubscription{ps: ps, channels: channels, ch: make(chan []byte, subscriptionBuffer)}
	for _, c := range channels {
		if ps.subs[c] == nil {
			ps.subs[c] = make(map[*memorySubscription]struct{})
		}
		ps.subs[c][sub] = struct{}{}
	}
	return sub, nil
}

func (ps *MemoryPubSub) Close() error {
	ps.mu.Lock()
	if ps.closed {
		ps.mu.Unlock()
		return nil
	}
	ps.closed = true
	var subs []*memorySubscription
	for _, set := range ps.subs {
		for sub := range set {
			subs = append(subs, sub)
		}
	}
	ps.subs = nil
	ps.mu.Unlock()

	for _, sub := range subs {
		sub.closeCh()
	}
	return nil
}

func (ps *MemoryPubSub) unsubscribe(sub *memorySubscription) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, c := range sub.channels {
		delete(ps.subs[c], sub)
		if len(ps.subs[c]) == 0 {
			delete(ps.subs, c)
		}
	}
}

type memorySubscription struct {
	ps       *MemoryPubSub
	channels []string

	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func (sub *memorySubscription) deliver(payload []byte, logger core.Logger, channel string) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case sub.ch <- payload:
	default:
		logger.Warn("realtime: subscriber too slow, dropping payload on " + channel)
	}
}

func (sub *memorySubscription) Messages() <-chan []byte { return sub.ch }

func (sub *memorySubscription) closeCh() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

func (sub *memorySubscription) Close() error {
	sub.ps.unsubscribe(sub)
	sub.closeCh()
	return nil
}
