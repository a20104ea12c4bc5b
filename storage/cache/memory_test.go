package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlacklist(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	b := NewMemoryBlacklist()
	b.nowFunc = func() time.Time { return now }

	require.NoError(t, b.Revoke(ctx, "jti-1", time.Hour))
	require.NoError(t, b.Revoke(ctx, "jti-expired", 0))

	tests := []struct {
		name    string
		tokenID string
		at      time.Time
		want    bool
	}{
		{"revoked", "jti-1", now, true},
		{"unknown", "jti-2", now, false},
		{"non-positive ttl is ignored", "jti-expired", now, false},
		{"expired", "jti-1", now.Add(time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			b.nowFunc = func() time.Time { return at }
			got, err := b.IsRevoked(ctx, tt.tokenID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
