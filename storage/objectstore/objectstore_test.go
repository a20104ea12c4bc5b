package objectstore

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ref, err := s.Put(ctx, "u1/abc-notes.pdf", strings.NewReader("%PDF"), 4, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "memory://u1/abc-notes.pdf", ref)

	obj, ok := s.Get("u1/abc-notes.pdf")
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(obj.Content))

	require.NoError(t, s.Delete(ctx, "u1/abc-notes.pdf"))
	_, err = s.URL(ctx, "u1/abc-notes.pdf")
	assert.Equal(t, ErrObjectNotFound, err)

	s.Err = errors.New("unavailable")
	_, err = s.Put(ctx, "k", strings.NewReader(""), 0, "text/plain")
	assert.Equal(t, s.Err, err)
}

func Test_objectBaseURL(t *testing.T) {
	tests := []struct {
		name string
		conf core.StorageConfig
		want string
	}{
		{"aws", core.StorageConfig{Bucket: "pmnts", Region: "ap-southeast-2"}, "https://pmnts.s3.ap-southeast-2.amazonaws.com"},
		{"path style", core.StorageConfig{Bucket: "pmnts", Endpoint: "http://localhost:9000/", UsePathStyle: true}, "http://localhost:9000/pmnts"},
		{"virtual host", core.StorageConfig{Bucket: "pmnts", Endpoint: "https://r2.example.com"}, "https://pmnts.r2.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := objectBaseURL(tt.conf); got != tt.want {
				t.Errorf("objectBaseURL() = %v; want %v", got, tt.want)
			}
		})
	}
}

func Test_escapeKey(t *testing.T) {
	if got := escapeKey("u1/abc-my notes.pdf"); got != "u1/abc-my%20notes.pdf" {
		t.Errorf("escapeKey() = %v; want %v", got, "u1/abc-my%20notes.pdf")
	}
}
