package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

// Conversation is a live, open thread: it holds the realtime subscription of its owner
// and appends the messages arriving from the contact, marking them read.
type Conversation struct {
	svc    *Service
	me     user.User
	thread *Thread
	sub    core.Subscription

	incoming chan Message
	done     sync.WaitGroup
	closeMu  sync.Mutex
	closed   bool
}

// Open loads the thread of me with contactID and subscribes to me's messages.
// The Conversation must be closed when the contact changes or the stream ends.
func (svc *Service) Open(ctx context.Context, me user.User, contactID string) (*Conversation, error) {
	people, err := svc.dir.Lookup(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if _, ok := people[contactID]; !ok || contactID == me.ID {
		return nil, user.ErrNotFound
	}

	sub, err := svc.bus.Subscribe(ctx, ChannelFor(me.ID))
	if err != nil {
		return nil, errors.Wrap(err, "subscribing to messages")
	}
	// subscribe first: a message sent while the history loads is deduplicated by the Thread.
	history, err := svc.Thread(ctx, me.ID, contactID)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	c := &Conversation{
		svc:      svc,
		me:       me,
		thread:   NewThread(me.ID, contactID, history),
		sub:      sub,
		incoming: make(chan Message, 16),
	}
	c.done.Add(1)
	go c.listen()
	return c, nil
}

func (c *Conversation) Thread() *Thread { return c.thread }

func (c *Conversation) ContactID() string { return c.thread.Contact }

// Incoming delivers the messages received from the contact, once appended to the Thread.
// It is closed when the Conversation closes.
func (c *Conversation) Incoming() <-chan Message { return c.incoming }

func (c *Conversation) listen() {
	defer c.done.Done()
	defer close(c.incoming)

	for payload := range c.sub.Messages() {
		var m Message
		if err := json.Unmarshal(payload, &m); err != nil {
			c.svc.logger.Warn(fmt.Sprintf("messaging: decoding message: %v", err), err)
			continue
		}
		if m.SenderID != c.thread.Contact || m.ReceiverID != c.me.ID {
			continue
		}
		if !c.thread.Receive(m) {
			continue
		}

		ctx := context.Background()
		read, err := c.svc.MarkRead(ctx, c.me.ID, m.SenderID, m.ID)
		if err != nil {
			c.svc.logger.Warn(fmt.Sprintf("messaging: marking %s read: %v", m.ID, err), err, c.me)
		} else if len(read) > 0 {
			c.thread.SetRead(read...)
			m.Read = true
		}
		c.incoming <- m
	}
}

// Send appends the message to the Thread as pending, stores it and reconciles its state
// with the outcome of the write.
func (c *Conversation) Send(ctx context.Context, clientID, content string) (Entry, error) {
	if clientID == "" {
		return Entry{}, core.NewValidationError(nil, core.FieldError{Field: "client_id", Error: "this field is required"})
	}
	if _, err := c.thread.AddPending(clientID, content); err != nil {
		return Entry{}, core.NewValidationError(err, core.FieldError{Field: "client_id", Error: err.Error()})
	}
	return c.deliver(ctx, clientID, content), nil
}

// Resend retries the write of a failed message.
func (c *Conversation) Resend(ctx context.Context, clientID string) (Entry, error) {
	e, err := c.thread.Retry(clientID)
	if err != nil {
		return Entry{}, core.NewValidationError(err, core.FieldError{Field: "client_id", Error: err.Error()})
	}
	return c.deliver(ctx, clientID, e.Message.Content), nil
}

func (c *Conversation) deliver(ctx context.Context, clientID, content string) Entry {
	m, err := c.svc.Send(ctx, c.me, NewMessage{ReceiverID: c.thread.Contact, Content: content, ClientID: clientID})
	if err != nil {
		c.svc.logger.Warn(fmt.Sprintf("messaging: sending %s: %v", clientID, err), err, c.me)
		e, _ := c.thread.Fail(clientID, errors.Cause(err))
		return e
	}
	e, _ := c.thread.Confirm(clientID, m)
	return e
}

// Close tears down the realtime subscription.
func (c *Conversation) Close() error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	c.closeMu.Unlock()

	err := c.sub.Close()
	// drain so that listen never blocks on a reader that went away
	go func() {
		for range c.incoming {
		}
	}()
	c.done.Wait()
	return errors.Wrap(err, "closing messages subscription")
}
