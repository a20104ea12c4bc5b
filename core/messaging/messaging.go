package messaging

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
)

// ChannelFor is the realtime channel carrying the messages received by userID.
func ChannelFor(userID string) string { return "messages:" + userID }

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Between reports whether m was exchanged by a and b.
func (m Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

type NewMessage struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
	Content    string `json:"content" validate:"required,notblank,max=4000"`
	// ClientID is the sender-side id of the message, echoed back in acknowledgments.
	ClientID string `json:"client_id" validate:"omitempty,max=64"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Content = core.CleanString(nm.Content)
	return validate.Struct(nm)
}

// Contact is a user the viewer can message.
type Contact struct {
	Person      directory.Person `json:"person"`
	Info        string           `json:"info"`
	Unread      int              `json:"unread"`
	LastMessage *Message         `json:"last_message"`
}

type Repository interface {
	CreateMessage(ctx context.Context, m Message) (Message, error)
	// QueryThread returns the messages exchanged by a and b, oldest first.
	QueryThread(ctx context.Context, a, b string) ([]Message, error)
	// MarkRead flags as read the unread messages sent by senderID to receiverID and returns their ids.
	// With ids, only those messages are considered.
	MarkRead(ctx context.Context, receiverID, senderID string, ids ...string) ([]string, error)
	// UnreadCounts groups the unread messages of receiverID by sender.
	UnreadCounts(ctx context.Context, receiverID string) (map[string]int, error)
	// LastMessages returns the most recent message exchanged with each correspondent of userID.
	LastMessages(ctx context.Context, userID string) (map[string]Message, error)
}
