package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

type Service struct {
	repo   Repository
	dir    *directory.Directory
	bus    core.PubSub
	logger core.Logger
}

func NewService(repo Repository, dir *directory.Directory, bus core.PubSub, logger core.Logger) *Service {
	return &Service{repo: repo, dir: dir, bus: bus, logger: logger}
}

// Contacts lists every other user with the unread count and the last message of their conversation.
// Contacts with recent messages come first.
func (svc *Service) Contacts(ctx context.Context, me user.User, search string) ([]Contact, error) {
	people, err := svc.dir.Find(ctx, directory.Filter{Search: search, ExcludeUserIDs: []string{me.ID}})
	if err != nil {
		return nil, err
	}
	unread, err := svc.repo.UnreadCounts(ctx, me.ID)
	if err != nil {
		return nil, errors.Wrap(err, "counting unread messages")
	}
	last, err := svc.repo.LastMessages(ctx, me.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying last messages")
	}

	contacts := make([]Contact, 0, len(people))
	for _, p := range people {
		c := Contact{Person: p, Info: p.Info(), Unread: unread[p.UserID]}
		if m, ok := last[p.UserID]; ok {
			c.LastMessage = &m
		}
		contacts = append(contacts, c)
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		li, lj := contacts[i].LastMessage, contacts[j].LastMessage
		switch {
		case li != nil && lj != nil:
			return li.CreatedAt.After(lj.CreatedAt)
		case li != nil || lj != nil:
			return li != nil
		}
		return strings.ToLower(contacts[i].Person.FullName) < strings.ToLower(contacts[j].Person.FullName)
	})
	return contacts, nil
}

// UnreadTotal counts the unread messages of me.
func (svc *Service) UnreadTotal(ctx context.Context, me string) (int, error) {
	counts, err := svc.repo.UnreadCounts(ctx, me)
	if err != nil {
		return 0, errors.Wrap(err, "counting unread messages")
	}
	var total int
	for _, n := range counts {
		total += n
	}
	return total, nil
}

// Thread loads the conversation of me with contactID and marks the incoming unread messages read.
func (svc *Service) Thread(ctx context.Context, me, contactID string) ([]Message, error) {
	msgs, err := svc.repo.QueryThread(ctx, me, contactID)
	if err != nil {
		return nil, errors.Wrap(err, "querying thread")
	}
	read, err := svc.repo.MarkRead(ctx, me, contactID)
	if err != nil {
		return nil, errors.Wrap(err, "marking messages read")
	}
	applyRead(msgs, read)
	return msgs, nil
}

// MarkRead flags the given incoming messages of contactID as read and returns the ids actually flagged.
func (svc *Service) MarkRead(ctx context.Context, me, contactID string, ids ...string) ([]string, error) {
	read, err := svc.repo.MarkRead(ctx, me, contactID, ids...)
	return read, errors.Wrap(err, "marking messages read")
}

// Send stores a message from sender and pushes it to the receiver's realtime channel.
// nm must have been validated.
func (svc *Service) Send(ctx context.Context, sender user.User, nm NewMessage) (Message, error) {
	if nm.ReceiverID == sender.ID {
		return Message{}, core.NewValidationError(nil, core.FieldError{Field: "receiver_id", Error: "you cannot message yourself"})
	}
	people, err := svc.dir.Lookup(ctx, nm.ReceiverID)
	if err != nil {
		return Message{}, err
	}
	if _, ok := people[nm.ReceiverID]; !ok {
		return Message{}, user.ErrNotFound
	}

	m, err := svc.repo.CreateMessage(ctx, Message{
		SenderID:   sender.ID,
		ReceiverID: nm.ReceiverID,
		Content:    nm.Content,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return Message{}, errors.Wrap(err, "creating message")
	}
	svc.push(ctx, m)
	return m, nil
}

// push is best-effort: the receiver still finds the message when reloading the thread.
func (svc *Service) push(ctx context.Context, m Message) {
	payload, err := json.Marshal(m)
	if err == nil {
		err = svc.bus.Publish(ctx, ChannelFor(m.ReceiverID), payload)
	}
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("messaging: pushing message %s: %v", m.ID, err), err)
	}
}

func applyRead(msgs []Message, ids []string) {
	if len(ids) == 0 {
		return
	}
	read := make(map[string]bool, len(ids))
	for _, id := range ids {
		read[id] = true
	}
	for i := range msgs {
		if read[msgs[i].ID] {
			msgs[i].Read = true
		}
	}
}
