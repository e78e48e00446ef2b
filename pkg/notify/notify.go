// Package notify keeps the user-facing notification list, newest first, with
// a read/unread projection. Every mutation is mirrored to storage.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduka/campus-auth/pkg/storage"
)

// StorageKey is where the list is persisted.
const StorageKey = "eduka_notifications"

type Category string

const (
	Success Category = "success"
	Error   Category = "error"
	Warning Category = "warning"
	Info    Category = "info"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case Success, Error, Warning, Info:
		return c, nil
	case "":
		return Info, nil
	default:
		return "", fmt.Errorf("unknown notification category %q", s)
	}
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  Category  `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Notifier raises an out-of-band alert, such as a desktop notification.
type Notifier interface {
	// Permitted reports whether the user allowed alerts.
	Permitted() bool
	Notify(ctx context.Context, n Notification) error
}

type Store struct {
	store    storage.Store
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time

	mu     sync.RWMutex
	items  []Notification
	unread int
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(store storage.Store, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. An unreadable
// list is logged and discarded.
func (s *Store) Load(ctx context.Context) {
	var items []Notification
	ok, err := storage.GetJSON(ctx, s.store, StorageKey, &items)
	if err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable notifications")
	}
	if !ok {
		items = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.recount()
}

// Add prepends n as unread, assigning an id and timestamp when missing, and
// returns the stored notification.
func (s *Store) Add(ctx context.Context, n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now().UTC()
	}
	if n.Category == "" {
		n.Category = Info
	}
	n.Read = false

	s.mutate(ctx, func(items []Notification) []Notification {
		return append([]Notification{n}, items...)
	})

	if s.notifier != nil && s.notifier.Permitted() {
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.Debug().Err(err).Str("notification_id", n.ID).Msg("alert not shown")
		}
	}
	return n
}

// MarkRead marks one notification read. It reports whether id was found.
func (s *Store) MarkRead(ctx context.Context, id string) bool {
	found := false
	s.mutate(ctx, func(items []Notification) []Notification {
		for i := range items {
			if items[i].ID == id {
				items[i].Read = true
				found = true
			}
		}
		return items
	})
	return found
}

func (s *Store) MarkAllRead(ctx context.Context) {
	s.mutate(ctx, func(items []Notification) []Notification {
		for i := range items {
			items[i].Read = true
		}
		return items
	})
}

// Delete removes one notification. It reports whether id was found.
func (s *Store) Delete(ctx context.Context, id string) bool {
	found := false
	s.mutate(ctx, func(items []Notification) []Notification {
		kept := items[:0]
		for _, n := range items {
			if n.ID == id {
				found = true
				continue
			}
			kept = append(kept, n)
		}
		return kept
	})
	return found
}

func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, func([]Notification) []Notification { return nil })
}

// List returns a copy, newest first.
func (s *Store) List() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// mutate applies fn, recounts and persists under one lock.
func (s *Store) mutate(ctx context.Context, fn func([]Notification) []Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = fn(s.items)
	s.recount()
	if err := storage.SetJSON(ctx, s.store, StorageKey, s.items); err != nil {
		s.log.Warn().Err(err).Msg("persisting notifications failed")
	}
}

func (s *Store) recount() {
	n := 0
	for _, item := range s.items {
		if !item.Read {
			n++
		}
	}
	s.unread = n
}
