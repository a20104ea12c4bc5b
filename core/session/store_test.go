package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/session"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	"github.com/akia2466/PMNTS-Lovable/services/realtime"
)

func TestStore_evictWinsOverPendingLoad(t *testing.T) {
	ctx := context.Background()
	bus := realtime.NewMemoryPubSub(core.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	started := make(chan struct{})
	release := make(chan struct{})
	store := session.NewStore(bus, func(ctx context.Context, userID string) (session.Identity, error) {
		close(started)
		<-release
		return session.Identity{User: user.User{ID: userID}, Role: user.RoleStudent}, nil
	}, core.NopLogger{})

	loaded := make(chan session.Identity)
	go func() {
		id, _ := store.Get(ctx, "ana")
		loaded <- id
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("Get() never loaded the identity")
	}
	store.Evict("ana")
	close(release)

	id := <-loaded
	assert.Equal(t, "ana", id.User.ID)
	assert.False(t, store.Cached("ana"), "a sign-out clears the identity loaded before it")
}

func TestStore_loadAfterEvict(t *testing.T) {
	ctx := context.Background()
	bus := realtime.NewMemoryPubSub(core.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	store := session.NewStore(bus, func(ctx context.Context, userID string) (session.Identity, error) {
		return session.Identity{User: user.User{ID: userID}}, nil
	}, core.NopLogger{})

	store.Evict("ana")
	_, err := store.Get(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, store.Cached("ana"), "loads started after a sign-out are kept")
}
