package messaging

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	errDuplicateClientID = errors.New("a message with this client id was already sent")
	errUnknownClientID   = errors.New("unknown client id")
	errNotFailed         = errors.New("only failed messages can be resent")
)

// DeliveryState is the lifecycle of a message sent from a live thread.
type DeliveryState string

const (
	DeliveryPending   DeliveryState = "pending"
	DeliveryConfirmed DeliveryState = "confirmed"
	DeliveryFailed    DeliveryState = "failed"
)

// Entry is a message of a Thread. Messages loaded from storage or received are always confirmed.
type Entry struct {
	ClientID string        `json:"client_id,omitempty"`
	Message  Message       `json:"message"`
	State    DeliveryState `json:"state"`
	Error    string        `json:"error,omitempty"`
}

// Thread is the local view of a conversation between Me and Contact.
// Sent messages stay in it as pending until acknowledged and are never dropped:
// a failed write is kept as failed until resent.
type Thread struct {
	Me      string
	Contact string

	mu       sync.RWMutex
	entries  []Entry
	byClient map[string]int
	seen     map[string]bool // confirmed message ids
}

func NewThread(me, contact string, history []Message) *Thread {
	t := &Thread{
		Me:       me,
		Contact:  contact,
		entries:  make([]Entry, 0, len(history)),
		byClient: make(map[string]int),
		seen:     make(map[string]bool, len(history)),
	}
	for _, m := range history {
		t.appendConfirmed(m)
	}
	return t
}

func (t *Thread) appendConfirmed(m Message) bool {
	if t.seen[m.ID] {
		return false
	}
	t.seen[m.ID] = true
	t.entries = append(t.entries, Entry{Message: m, State: DeliveryConfirmed})
	return true
}

// AddPending appends an outgoing message awaiting its acknowledgment.
func (t *Thread) AddPending(clientID, content string) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byClient[clientID]; ok {
		return Entry{}, errDuplicateClientID
	}
	e := Entry{
		ClientID: clientID,
		State:    DeliveryPending,
		Message: Message{
			SenderID:   t.Me,
			ReceiverID: t.Contact,
			Content:    content,
			CreatedAt:  time.Now().UTC(),
		},
	}
	t.byClient[clientID] = len(t.entries)
	t.entries = append(t.entries, e)
	return e, nil
}

// Confirm reconciles the pending message clientID with its stored version.
func (t *Thread) Confirm(clientID string, m Message) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.byClient[clientID]
	if !ok {
		return Entry{}, errUnknownClientID
	}
	t.entries[i] = Entry{ClientID: clientID, Message: m, State: DeliveryConfirmed}
	t.seen[m.ID] = true
	return t.entries[i], nil
}

// Fail marks the pending message clientID as not stored.
func (t *Thread) Fail(clientID string, cause error) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.byClient[clientID]
	if !ok {
		return Entry{}, errUnknownClientID
	}
	t.entries[i].State = DeliveryFailed
	t.entries[i].Error = cause.Error()
	return t.entries[i], nil
}

// Retry moves the failed message clientID back to pending and returns it.
func (t *Thread) Retry(clientID string) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.byClient[clientID]
	if !ok {
		return Entry{}, errUnknownClientID
	}
	if t.entries[i].State != DeliveryFailed {
		return Entry{}, errNotFailed
	}
	t.entries[i].State = DeliveryPending
	t.entries[i].Error = ""
	return t.entries[i], nil
}

// Receive appends a message of the conversation not yet in the Thread.
func (t *Thread) Receive(m Message) bool {
	if !m.Between(t.Me, t.Contact) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appendConfirmed(m)
}

// SetRead flags the given messages as read.
func (t *Thread) SetRead(ids ...string) {
	read := make(map[string]bool, len(ids))
	for _, id := range ids {
		read[id] = true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if read[t.entries[i].Message.ID] {
			t.entries[i].Message.Read = true
		}
	}
}

// Entries returns a copy of the Thread in display order.
func (t *Thread) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Entry(nil), t.entries...)
}

// Get returns the entry of clientID.
func (t *Thread) Get(clientID string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.byClient[clientID]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}
