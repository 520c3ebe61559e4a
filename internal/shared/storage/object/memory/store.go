package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"media-insights-backend/internal/shared/storage/object"
)

type record struct {
	body        []byte
	contentType string
	metadata    map[string]string
}

// Store implements object.Store in memory for tests and local development.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]map[string]record
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{buckets: map[string]map[string]record{}}
}

// Put stores the body under bucket/key, overwriting any previous object.
func (s *Store) Put(ctx context.Context, bucket, key, contentType string, body io.Reader, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buckets[bucket] == nil {
		s.buckets[bucket] = map[string]record{}
	}
	s.buckets[bucket][key] = record{body: data, contentType: contentType, metadata: meta}
	return nil
}

// Get opens the object for reading.
func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, object.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(rec.body)), nil
}

// Exists reports whether the object is present. Absence is not an error.
func (s *Store) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[bucket][key]
	return ok, nil
}

// List returns all keys under the prefix in lexical order.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.buckets[bucket] {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Head returns the object size.
func (s *Store) Head(ctx context.Context, bucket, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.buckets[bucket][key]
	if !ok {
		return 0, fmt.Errorf("head %s/%s: %w", bucket, key, object.ErrNotFound)
	}
	return int64(len(rec.body)), nil
}

// Metadata returns a copy of the metadata stored with the object, for tests.
func (s *Store) Metadata(bucket, key string) (map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.buckets[bucket][key]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(rec.metadata))
	for k, v := range rec.metadata {
		out[k] = v
	}
	return out, true
}

// ContentType returns the content type recorded for the object, for tests.
func (s *Store) ContentType(bucket, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.buckets[bucket][key]
	if !ok {
		return "", false
	}
	return rec.contentType, true
}

var _ object.Store = (*Store)(nil)
