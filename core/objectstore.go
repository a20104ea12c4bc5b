package core

import (
	"context"
	"io"
)

type (
	// ObjectStore is a blob store addressed by key.
	ObjectStore interface {
		// Put stores the object and returns its public reference.
		Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
		// URL returns a (possibly time-limited) download URL for key.
		URL(ctx context.Context, key string) (string, error)
		Delete(ctx context.Context, key string) error
	}

	// Upload is a file received from a client.
	Upload struct {
		Name        string
		Size        int64
		ContentType string
		Content     io.Reader
	}
)
