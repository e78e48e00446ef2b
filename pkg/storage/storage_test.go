package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "currentUser"); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "currentUser", []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, ok, err := s.Get(ctx, "currentUser")
	if err != nil || !ok || string(raw) != `{"id":"1"}` {
		t.Fatalf("unexpected get: %q %v %v", raw, ok, err)
	}

	if err := s.Set(ctx, "currentUser", []byte(`{"id":"2"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	raw, _, _ = s.Get(ctx, "currentUser")
	if string(raw) != `{"id":"2"}` {
		t.Fatalf("expected overwritten value, got %q", raw)
	}

	if err := s.Delete(ctx, "currentUser"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "currentUser"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "currentUser"); ok {
		t.Fatal("expected key to be gone")
	}

	if err := s.Set(ctx, "", []byte("x")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exerciseStore(t, s)

	if err := s.Set(context.Background(), "../escape", []byte("x")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected path traversal to be rejected, got %v", err)
	}
}

func TestFile_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := SetJSON(ctx, first, "savedAccounts", []string{"maria"}); err != nil {
		t.Fatalf("set json: %v", err)
	}

	second, err := NewFile(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	var got []string
	ok, err := GetJSON(ctx, second, "savedAccounts", &got)
	if err != nil || !ok || len(got) != 1 || got[0] != "maria" {
		t.Fatalf("unexpected round trip: %v %v %v", got, ok, err)
	}
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedis(client, "")
	exerciseStore(t, s)

	_ = s.Set(context.Background(), "authToken", []byte("tok"))
	if !mr.Exists(defaultRedisPrefix + "authToken") {
		t.Fatal("expected prefixed key in redis")
	}
}

func TestGetJSON_CorruptValue(t *testing.T) {
	s := NewMemory()
	_ = s.Set(context.Background(), "eduka_notifications", []byte("{not json"))

	var v []string
	if _, err := GetJSON(context.Background(), s, "eduka_notifications", &v); err == nil {
		t.Fatal("expected decode error")
	}
}
