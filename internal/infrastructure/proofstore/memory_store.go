package proofstore

import (
	"context"
	"io"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/proof"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/id"
)

type MemoryObject struct {
	ContentType string
	Data        []byte
}

// MemoryStore keeps uploads in process memory for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]MemoryObject
	ids     id.Generator
}

func NewMemoryStore(ids id.Generator) *MemoryStore {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &MemoryStore{objects: make(map[string]MemoryObject), ids: ids}
}

func (s *MemoryStore) Put(_ context.Context, upload proof.Upload) (string, error) {
	if upload.Body == nil {
		return "", crerr.New("proof body is required")
	}
	data, err := io.ReadAll(io.LimitReader(upload.Body, defaultMaxBytes+1))
	if err != nil {
		return "", crerr.Wrap(err, "read proof body")
	}
	if len(data) > defaultMaxBytes {
		return "", crerr.Newf("proof exceeds %d bytes", defaultMaxBytes)
	}

	key, err := objectKey(s.ids, upload)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.objects[key] = MemoryObject{ContentType: upload.ContentType, Data: data}
	s.mu.Unlock()
	return key, nil
}

func (s *MemoryStore) Get(key string) (MemoryObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}
