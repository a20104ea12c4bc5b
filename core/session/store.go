package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

var errStoreClosed = errors.New("session store closed")

// Identity is the current user of a session: account, role & profile.
type Identity struct {
	User    user.User       `json:"user"`
	Role    user.Role       `json:"role"`
	Profile profile.Profile `json:"profile"`
}

// Loader fetches the Identity of userID from storage.
type Loader func(ctx context.Context, userID string) (Identity, error)

// Store holds the identities of the signed-in users.
// It is populated by auth events (deferred loads after sign-in) and by direct fetches on cache misses;
// when both race, the last writer wins as both converge to the stored state.
type Store struct {
	bus         core.PubSub
	load        Loader
	logger      core.Logger
	loadTimeout time.Duration

	mu          sync.RWMutex
	identities  map[string]Identity
	generations map[string]uint64 // bumped by Evict, a load started before is dropped
	sub        core.Subscription
	closed     bool

	listening sync.WaitGroup
	loads     sync.WaitGroup
}

func NewStore(bus core.PubSub, load Loader, logger core.Logger) *Store {
	return &Store{
		bus:         bus,
		load:        load,
		logger:      logger,
		loadTimeout: 5 * time.Second,
		identities:  make(map[string]Identity),
		generations: make(map[string]uint64),
	}
}

// Start subscribes the Store to the auth events.
func (s *Store) Start(ctx context.Context) error {
	sub, err := s.bus.Subscribe(ctx, ChannelAuthEvents)
	if err != nil {
		return errors.Wrap(err, "subscribing to auth events")
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	s.listening.Add(1)
	go s.listen(sub)
	return nil
}

func (s *Store) listen(sub core.Subscription) {
	defer s.listening.Done()

	for payload := range sub.Messages() {
		var evt Event
		if err := json.Unmarshal(payload, &evt); err != nil {
			s.logger.Warn(fmt.Sprintf("session: decoding auth event: %v", err), err)
			continue
		}
		switch evt.Type {
		case EventSignedOut:
			s.Evict(evt.UserID)
		case EventSignedIn, EventSignedUp, EventTokenRefreshed, EventProfileUpdated:
			s.deferLoad(evt.UserID)
		}
	}
}

// deferLoad refreshes the identity outside of the event callback.
func (s *Store) deferLoad(userID string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.loads.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.loads.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
		defer cancel()
		if _, err := s.refresh(ctx, userID); err != nil {
			s.logger.Warn(fmt.Sprintf("session: loading identity of %s: %v", userID, err), err)
		}
	}()
}

func (s *Store) refresh(ctx context.Context, userID string) (Identity, error) {
	s.mu.RLock()
	gen := s.generations[userID]
	s.mu.RUnlock()

	id, err := s.load(ctx, userID)
	if err != nil {
		return Identity{}, err
	}

	s.mu.Lock()
	if !s.closed && s.generations[userID] == gen {
		s.identities[userID] = id
	}
	s.mu.Unlock()
	return id, nil
}

// Get returns the cached identity of userID, fetching it on a miss.
func (s *Store) Get(ctx context.Context, userID string) (Identity, error) {
	s.mu.RLock()
	id, ok := s.identities[userID]
	closed := s.closed
	s.mu.RUnlock()
	if ok {
		return id, nil
	}
	if closed {
		return Identity{}, errStoreClosed
	}
	return s.refresh(ctx, userID)
}

func (s *Store) Put(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.identities[id.User.ID] = id
	}
}

// Evict clears all the cached identity state of userID.
func (s *Store) Evict(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.identities, userID)
	s.generations[userID]++
}

// Cached reports whether userID's identity is in the Store.
func (s *Store) Cached(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.identities[userID]
	return ok
}

// Close unsubscribes from the auth events and waits for the pending loads.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sub := s.sub
	s.identities = make(map[string]Identity)
	s.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Close()
	}
	s.listening.Wait()
	s.loads.Wait()
	return errors.Wrap(err, "closing auth events subscription")
}
