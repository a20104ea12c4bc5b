package core

import "context"

type (
	// PubSub is a realtime change feed: payloads published on a channel reach every live Subscription to it.
	PubSub interface {
		Publish(ctx context.Context, channel string, payload []byte) error
		Subscribe(ctx context.Context, channels ...string) (Subscription, error)
		Close() error
	}

	Subscription interface {
		// Messages is closed once the Subscription is closed.
		Messages() <-chan []byte
		Close() error
	}
)
