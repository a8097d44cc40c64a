package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/openfun/marsha-lambdas/pkg/types"
	"github.com/stretchr/testify/require"
)

// Must takes return values from a function and returns the non-error one. If
// the error value is non-nil then it fails the test
func Must[T any](val T, err error) func(*testing.T) T {
	return func(t *testing.T) T {
		require.NoError(t, err)
		return val
	}
}

// MapStore is an in memory types.ObjectStore
type MapStore struct {
	lk      sync.Mutex
	objects map[string][]byte
	// GetErr, PutErr and HasErr are returned by the matching methods when set
	GetErr error
	PutErr error
	HasErr error
}

var _ types.ObjectStore = (*MapStore)(nil)

// NewMapStore returns a store holding a copy of objects.
func NewMapStore(objects map[string][]byte) *MapStore {
	s := &MapStore{objects: map[string][]byte{}}
	for k, v := range objects {
		s.objects[k] = bytes.Clone(v)
	}
	return s
}

func (s *MapStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, types.ErrKeyNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MapStore) Put(ctx context.Context, key string, length uint64, data io.Reader) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.lk.Lock()
	defer s.lk.Unlock()
	s.objects[key] = b
	return nil
}

func (s *MapStore) Has(ctx context.Context, key string) (bool, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	if s.HasErr != nil {
		return false, s.HasErr
	}
	_, ok := s.objects[key]
	return ok, nil
}

// Object returns the stored bytes at key and whether they exist.
func (s *MapStore) Object(key string) ([]byte, bool) {
	s.lk.Lock()
	defer s.lk.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// Len returns the number of stored objects.
func (s *MapStore) Len() int {
	s.lk.Lock()
	defer s.lk.Unlock()
	return len(s.objects)
}
