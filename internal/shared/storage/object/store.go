package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ErrNotFound indicates the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Store defines the contract for the durable object store backing the
// pipeline. Existence probes never return ErrNotFound; Exists is the
// cross-invocation synchronization signal and must report absence as
// (false, nil).
type Store interface {
	Put(ctx context.Context, bucket, key, contentType string, body io.Reader, metadata map[string]string) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, bucket, key string) (bool, error)
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	Head(ctx context.Context, bucket, key string) (int64, error)
}

// Ref names a stored object.
type Ref struct {
	Bucket string
	Key    string
}

// URI renders the reference as an s3 URI.
func (r Ref) URI() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}

// ParseURI resolves a store reference from either an s3://bucket/key URI or
// an https path-style URI (https://s3.<region>.amazonaws.com/bucket/key), the
// two forms the transcription engine reports output locations in.
func ParseURI(raw string) (Ref, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Ref{}, fmt.Errorf("parse store uri %q: %w", raw, err)
	}

	switch u.Scheme {
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Ref{}, fmt.Errorf("incomplete store uri %q", raw)
		}
		return Ref{Bucket: u.Host, Key: key}, nil
	case "https":
		bucket, key, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if !ok || bucket == "" || key == "" {
			return Ref{}, fmt.Errorf("incomplete store uri %q", raw)
		}
		return Ref{Bucket: bucket, Key: key}, nil
	default:
		return Ref{}, fmt.Errorf("unsupported store uri scheme %q", raw)
	}
}

// ReadAll fetches a whole object body.
func ReadAll(ctx context.Context, s Store, bucket, key string) ([]byte, error) {
	rc, err := s.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
