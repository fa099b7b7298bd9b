package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	dErrors "presence/pkg/domainerrors"
)

type memoryObject struct {
	payload     []byte
	contentType string
}

// Memory is an in-memory evidence store for tests.
type Memory struct {
	mu      sync.Mutex
	objects map[string]memoryObject
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject)}
}

func (s *Memory) Put(ctx context.Context, objectName string, payload []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(payload))
	copy(copied, payload)
	s.objects[objectName] = memoryObject{payload: copied, contentType: contentType}
	return nil
}

func (s *Memory) PresignedGet(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[objectName]; !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "unknown_evidence_reference")
	}
	return fmt.Sprintf("memory://evidence/%s?expires=%d", objectName, int(expiry.Seconds())), nil
}

// Get returns a stored payload. Test helper.
func (s *Memory) Get(objectName string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[objectName]
	if !ok {
		return nil, false
	}
	return obj.payload, true
}

// Len reports how many objects are stored. Test helper.
func (s *Memory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
