package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
)

// ChannelAuthEvents is the realtime channel carrying auth-state changes.
const ChannelAuthEvents = "auth:events"

type EventType string

const (
	EventSignedUp       EventType = "signed_up"
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
	EventProfileUpdated EventType = "profile_updated"
)

// Event is an auth-state change of a user.
type Event struct {
	Type   EventType `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

func publish(ctx context.Context, bus core.PubSub, typ EventType, userID string) error {
	payload, err := json.Marshal(Event{Type: typ, UserID: userID, At: time.Now().UTC()})
	if err != nil {
		return errors.Wrap(err, "encoding auth event")
	}
	return errors.Wrap(bus.Publish(ctx, ChannelAuthEvents, payload), "publishing auth event")
}
