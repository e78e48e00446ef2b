package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduka/campus-auth/pkg/storage"
)

type recordingNotifier struct {
	permitted bool
	err       error
	seen      []Notification
}

func (r *recordingNotifier) Permitted() bool { return r.permitted }

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.seen = append(r.seen, n)
	return r.err
}

func TestAdd_NewestFirstAndUnreadCount(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemory(), zerolog.Nop())

	a := s.Add(ctx, Notification{Title: "A", Message: "order confirmed", Category: Success})
	b := s.Add(ctx, Notification{Title: "B", Message: "book due"})

	list := s.List()
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != a.ID {
		t.Fatalf("expected [B A], got %+v", list)
	}
	if s.UnreadCount() != 2 {
		t.Fatalf("expected 2 unread, got %d", s.UnreadCount())
	}
	if b.Category != Info {
		t.Fatalf("expected default category info, got %q", b.Category)
	}
	if a.ID == "" || a.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp assigned, got %+v", a)
	}

	s.MarkAllRead(ctx)
	if s.UnreadCount() != 0 {
		t.Fatalf("expected 0 unread, got %d", s.UnreadCount())
	}
	after := s.List()
	if after[0].ID != b.ID || after[1].ID != a.ID {
		t.Fatal("markAllRead must keep order")
	}
}

func TestAdd_KeepsProvidedIDAndTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s := New(storage.NewMemory(), zerolog.Nop())

	n := s.Add(context.Background(), Notification{ID: "fixed", Timestamp: ts, Read: true})
	if n.ID != "fixed" || !n.Timestamp.Equal(ts) {
		t.Fatalf("expected provided fields kept, got %+v", n)
	}
	if n.Read {
		t.Fatal("new notifications are always unread")
	}
}

func TestMarkReadDeleteClear(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemory(), zerolog.Nop())
	a := s.Add(ctx, Notification{Title: "A"})
	b := s.Add(ctx, Notification{Title: "B"})
	s.Add(ctx, Notification{Title: "C"})

	if !s.MarkRead(ctx, a.ID) || s.UnreadCount() != 2 {
		t.Fatalf("expected A read, unread=%d", s.UnreadCount())
	}
	if s.MarkRead(ctx, "missing") {
		t.Fatal("expected unknown id to report false")
	}
	if !s.Delete(ctx, b.ID) || len(s.List()) != 2 || s.UnreadCount() != 1 {
		t.Fatalf("unexpected state after delete: %+v", s.List())
	}
	if s.Delete(ctx, b.ID) {
		t.Fatal("second delete must report false")
	}

	s.Clear(ctx)
	if len(s.List()) != 0 || s.UnreadCount() != 0 {
		t.Fatal("expected empty store after clear")
	}
}

func TestLoad_RestoresPersistedList(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	first := New(mem, zerolog.Nop())
	a := first.Add(ctx, Notification{Title: "A"})
	first.Add(ctx, Notification{Title: "B"})
	first.MarkRead(ctx, a.ID)

	second := New(mem, zerolog.Nop())
	second.Load(ctx)
	if len(second.List()) != 2 || second.UnreadCount() != 1 {
		t.Fatalf("unexpected restored state: %+v", second.List())
	}
	if second.List()[0].Title != "B" {
		t.Fatal("expected order preserved across restore")
	}
}

func TestLoad_CorruptListIsDiscarded(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	_ = mem.Set(ctx, StorageKey, []byte("not json"))

	s := New(mem, zerolog.Nop())
	s.Load(ctx)
	if len(s.List()) != 0 {
		t.Fatal("expected empty list")
	}
}

func TestNotifier_OnlyWhenPermitted(t *testing.T) {
	ctx := context.Background()

	denied := &recordingNotifier{}
	New(storage.NewMemory(), zerolog.Nop(), WithNotifier(denied)).Add(ctx, Notification{Title: "x"})
	if len(denied.seen) != 0 {
		t.Fatal("notifier called without permission")
	}

	granted := &recordingNotifier{permitted: true, err: errors.New("no display")}
	s := New(storage.NewMemory(), zerolog.Nop(), WithNotifier(granted))
	s.Add(ctx, Notification{Title: "y"})
	if len(granted.seen) != 1 {
		t.Fatal("expected notifier call")
	}
	if len(s.List()) != 1 {
		t.Fatal("notifier failure must not affect the list")
	}
}

type brokenStore struct{ storage.Store }

func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("quota exceeded") }

func TestPersistFailureIsBestEffort(t *testing.T) {
	s := New(brokenStore{storage.NewMemory()}, zerolog.Nop())
	s.Add(context.Background(), Notification{Title: "x"})
	if s.UnreadCount() != 1 {
		t.Fatal("in-memory list must still update")
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := ParseCategory("warning"); err != nil || c != Warning {
		t.Fatalf("got %q %v", c, err)
	}
	if c, _ := ParseCategory(""); c != Info {
		t.Fatalf("expected info default, got %q", c)
	}
	if _, err := ParseCategory("urgent"); err == nil {
		t.Fatal("expected error")
	}
}
