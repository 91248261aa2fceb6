package proof

import (
	"context"
	"io"
)

type Upload struct {
	ScopeID       string
	ParticipantID string
	DayKey        string
	ContentType   string
	Size          int64
	Body          io.Reader
}

// Store persists proof images and returns an opaque reference.
type Store interface {
	Put(ctx context.Context, upload Upload) (string, error)
}
