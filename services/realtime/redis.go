package realtime

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/akia2466/PMNTS-Lovable/core"
)

// RedisPubSub fans the payloads out to every API instance connected to the same Redis.
type RedisPubSub struct {
	client *redis.Client
	logger core.Logger
}

var _ core.PubSub = (*RedisPubSub)(nil)

func NewRedisPubSub(client *redis.Client, logger core.Logger) *RedisPubSub {
	return &RedisPubSub{client: client, logger: logger}
}

func (ps *RedisPubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	return errors.Wrapf(ps.client.Publish(ctx, channel, payload).Err(), "publishing on %s", channel)
}

func (ps *RedisPubSub) Subscribe(ctx context.Context, channels ...string) (core.Subscription, error) {
	pubsub := ps.client.Subscribe(ctx, channels...)
	// wait for the confirmation so that no payload published after Subscribe returns is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(err, "subscribing")
	}

	sub := &redisSubscription{pubsub: pubsub, ch: make(chan []byte, subscriptionBuffer), done: make(chan struct{})}
	go sub.forward(ps.logger)
	return sub, nil
}

// Close is a no-op: the client is owned by the caller.
func (ps *RedisPubSub) Close() error { return nil }

type redisSubscription struct {
	pubsub *redis.PubSub
	ch     chan []byte
	done   chan struct{}
	once   sync.Once
}

func (sub *redisSubscription) forward(logger core.Logger) {
	defer close(sub.ch)
	for msg := range sub.pubsub.Channel() {
		select {
		case sub.ch <- []byte(msg.Payload):
		case <-sub.done:
			return
		default:
			logger.Warn("realtime: subscriber too slow, dropping payload on " + msg.Channel)
		}
	}
}

func (sub *redisSubscription) Messages() <-chan []byte { return sub.ch }

func (sub *redisSubscription) Close() error {
	var err error
	sub.once.Do(func() {
		close(sub.done)
		err = sub.pubsub.Close()
	})
	return errors.Wrap(err, "closing subscription")
}
