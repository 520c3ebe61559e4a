package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"media-insights-backend/internal/shared/storage/object"
)

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	if err := s.Put(ctx, "tours", "a/b.json", "application/json", strings.NewReader(`{"ok":true}`), map[string]string{"analysis-id": "x"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := object.ReadAll(ctx, s, "tours", "a/b.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Fatalf("body = %q", got)
	}

	size, err := s.Head(ctx, "tours", "a/b.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if size != int64(len(`{"ok":true}`)) {
		t.Fatalf("size = %d", size)
	}

	meta, ok := s.Metadata("tours", "a/b.json")
	if !ok || meta["analysis-id"] != "x" {
		t.Fatalf("metadata = %v, %v", meta, ok)
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := s.Get(context.Background(), "tours", "missing")
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.Head(context.Background(), "tours", "missing"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("head err = %v, want ErrNotFound", err)
	}
}

func TestExistsNeverErrorsOnAbsence(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	ok, err := s.Exists(ctx, "tours", "missing")
	if err != nil || ok {
		t.Fatalf("exists = %v, %v; want false, nil", ok, err)
	}

	if err := s.Put(ctx, "tours", "present", "text/plain", strings.NewReader("x"), nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err = s.Exists(ctx, "tours", "present")
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v; want true, nil", ok, err)
	}
}

func TestListSortedByPrefix(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	for _, key := range []string{"out/b.gz", "out/a.out", "other/c"} {
		if err := s.Put(ctx, "tours", key, "", strings.NewReader("x"), nil); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	keys, err := s.List(ctx, "tours", "out/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "out/a.out" || keys[1] != "out/b.gz" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestPutOverwritesLastWriteWins(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	if err := s.Put(ctx, "tours", "k", "", strings.NewReader("one"), nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "tours", "k", "", strings.NewReader("two"), nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := object.ReadAll(ctx, s, "tours", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "two" {
		t.Fatalf("body = %q, want two", got)
	}
}
