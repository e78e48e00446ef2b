// Package session holds the client's record of who is logged in, mirrored to
// durable storage so it survives restarts.
//
// Operations that talk to the user service are single-flight: starting one
// cancels any that is still in flight, and a superseded operation never
// touches state. A slow login can therefore not resurrect a session that a
// later logout cleared.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eduka/campus-auth/pkg/authclient"
	"github.com/eduka/campus-auth/pkg/roles"
	"github.com/eduka/campus-auth/pkg/storage"
)

// Persisted keys.
const (
	KeyCurrentUser   = "currentUser"
	KeyAuthToken     = "authToken"
	KeySavedAccounts = "savedAccounts"
)

// ErrSuperseded is returned by an operation that a newer one replaced.
var ErrSuperseded = errors.New("session: operation superseded")

// Backend is the subset of the user service the session needs.
type Backend interface {
	Login(ctx context.Context, identifier, password string) (*authclient.LoginResult, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*authclient.User, error)
}

// Session is one authenticated user plus the bearer token.
type Session struct {
	User  authclient.User
	Token string
}

// SavedAccount is an entry in the remembered-accounts list.
type SavedAccount struct {
	User  authclient.User `json:"user"`
	Token string          `json:"token,omitempty"`
}

// Manager owns the live Session. The zero value is not usable; call New.
type Manager struct {
	backend Backend
	store   storage.Store
	log     zerolog.Logger

	// mu guards current and the persisted mirror together, so readers never
	// observe one without the other.
	mu      sync.RWMutex
	current *Session
	gen     uint64
	cancel  context.CancelFunc
}

func New(backend Backend, store storage.Store, log zerolog.Logger) *Manager {
	return &Manager{backend: backend, store: store, log: log}
}

// begin starts a new operation, cancelling the one in flight.
func (m *Manager) begin(ctx context.Context) (context.Context, uint64, context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beginLocked(ctx)
}

// beginLocked is begin for callers already holding mu, so they can read or
// change the session in the same critical section that claims the
// generation.
func (m *Manager) beginLocked(ctx context.Context) (context.Context, uint64, context.CancelFunc) {
	opCtx, cancel := context.WithCancel(ctx)
	if m.cancel != nil {
		m.cancel()
	}
	m.gen++
	m.cancel = cancel
	return opCtx, m.gen, cancel
}

// end releases the operation's context. Callers hold no lock.
func (m *Manager) end(gen uint64, cancel context.CancelFunc) {
	m.mu.Lock()
	if m.gen == gen {
		m.cancel = nil
	}
	m.mu.Unlock()
	cancel()
}

// Restore hydrates the in-memory session from storage without contacting the
// service. The restored token is trusted only until Revalidate runs.
func (m *Manager) Restore(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return true
	}

	var user authclient.User
	ok, err := storage.GetJSON(ctx, m.store, KeyCurrentUser, &user)
	if err != nil {
		m.log.Warn().Err(err).Msg("discarding unreadable persisted session")
		m.clearPersisted(ctx)
		return false
	}
	if !ok || user.ID == "" {
		return false
	}

	token, _, err := m.store.Get(ctx, KeyAuthToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("reading persisted token")
	}
	m.current = &Session{User: user, Token: string(token)}
	return true
}

// Login authenticates and replaces the session. With remember set, the account
// is added to the saved-accounts list, replacing any entry with the same
// username or e-mail. Failures are *authclient.Error values of kind
// InvalidCredentials, NetworkUnavailable or ServerError.
func (m *Manager) Login(ctx context.Context, identifier, password string, remember bool) (*Session, error) {
	opCtx, gen, cancel := m.begin(ctx)
	defer m.end(gen, cancel)

	res, err := m.backend.Login(opCtx, identifier, password)
	if err != nil {
		if m.superseded(gen) {
			return nil, ErrSuperseded
		}
		return nil, loginError(err)
	}

	sess := &Session{User: res.User, Token: res.Token}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return nil, ErrSuperseded
	}
	m.current = sess
	m.persist(ctx, sess)
	if remember {
		m.saveAccount(ctx, SavedAccount{User: sess.User, Token: sess.Token})
	}
	m.mu.Unlock()

	m.log.Info().Str("user_id", sess.User.ID).Str("role", string(sess.User.Role)).Msg("logged in")
	out := *sess
	return &out, nil
}

func loginError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var e *authclient.Error
	if !errors.As(err, &e) {
		return &authclient.Error{Kind: authclient.KindServerError, Message: "Login failed. Please try again.", Err: err}
	}
	switch e.Kind {
	case authclient.KindInvalidCredentials, authclient.KindNetworkUnavailable, authclient.KindServerError:
		return e
	default:
		return &authclient.Error{Kind: authclient.KindServerError, Status: e.Status, Message: e.Message, Err: e}
	}
}

// Logout clears the session locally, then tells the service. The local clear
// always happens; a failed server call is only logged. Logging out with no
// session is a no-op.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	opCtx, gen, cancel := m.beginLocked(ctx)
	sess := m.current
	m.current = nil
	m.clearPersisted(ctx)
	m.mu.Unlock()
	defer m.end(gen, cancel)

	if sess == nil || sess.Token == "" {
		return
	}
	if err := m.backend.Logout(opCtx, sess.Token); err != nil {
		m.log.Warn().Err(err).Str("user_id", sess.User.ID).Msg("server logout failed, local session cleared")
	}
	m.log.Info().Str("user_id", sess.User.ID).Msg("logged out")
}

// Revalidate checks the session's token with the service and refreshes the
// cached user. An authorization failure ends the session. Network failures
// leave it in place and are returned.
func (m *Manager) Revalidate(ctx context.Context) error {
	m.mu.Lock()
	sess := m.current
	if sess == nil {
		m.mu.Unlock()
		return nil
	}
	opCtx, gen, cancel := m.beginLocked(ctx)
	m.mu.Unlock()
	defer m.end(gen, cancel)

	user, err := m.backend.CurrentUser(opCtx, sess.Token)
	if m.superseded(gen) {
		return ErrSuperseded
	}
	if err != nil {
		if errors.Is(err, authclient.ErrAuthorization) || errors.Is(err, authclient.ErrNotFound) {
			m.mu.Lock()
			if m.gen == gen {
				m.current = nil
				m.clearPersisted(ctx)
			}
			m.mu.Unlock()
			m.log.Warn().Str("user_id", sess.User.ID).Msg("session rejected by server, cleared")
		}
		return err
	}

	refreshed := &Session{User: *user, Token: sess.Token}
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return ErrSuperseded
	}
	m.current = refreshed
	m.persist(ctx, refreshed)
	m.mu.Unlock()
	return nil
}

func (m *Manager) superseded(gen uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen != gen
}

// Current returns a copy of the live session.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// CurrentUser returns the logged-in user, or nil.
func (m *Manager) CurrentUser() *authclient.User {
	sess, ok := m.Current()
	if !ok {
		return nil
	}
	return &sess.User
}

// UserID returns the logged-in user's id, or "".
func (m *Manager) UserID() string {
	sess, _ := m.Current()
	return sess.User.ID
}

// Role returns the logged-in user's role, or "".
func (m *Manager) Role() roles.Role {
	sess, _ := m.Current()
	return sess.User.Role
}

// Token returns the bearer token, or "".
func (m *Manager) Token() string {
	sess, _ := m.Current()
	return sess.Token
}

func (m *Manager) IsLoggedIn() bool {
	_, ok := m.Current()
	return ok
}

// HasRole compares case-insensitively.
func (m *Manager) HasRole(role roles.Role) bool {
	sess, ok := m.Current()
	return ok && roles.Equal(sess.User.Role, role)
}

// HasAnyRole compares case-insensitively.
func (m *Manager) HasAnyRole(set ...roles.Role) bool {
	sess, ok := m.Current()
	return ok && roles.In(sess.User.Role, set...)
}

// SavedAccounts lists remembered accounts, oldest first.
func (m *Manager) SavedAccounts(ctx context.Context) ([]SavedAccount, error) {
	var accounts []SavedAccount
	if _, err := storage.GetJSON(ctx, m.store, KeySavedAccounts, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// RemoveSavedAccount drops every remembered account whose username or e-mail
// equals identity.
func (m *Manager) RemoveSavedAccount(ctx context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	accounts, err := m.SavedAccounts(ctx)
	if err != nil {
		return err
	}
	kept := accounts[:0]
	for _, a := range accounts {
		if a.User.Username == identity || strings.EqualFold(a.User.Email, identity) {
			continue
		}
		kept = append(kept, a)
	}
	return storage.SetJSON(ctx, m.store, KeySavedAccounts, kept)
}

func (m *Manager) saveAccount(ctx context.Context, acc SavedAccount) {
	accounts, err := m.SavedAccounts(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("saved accounts unreadable, starting a new list")
		accounts = nil
	}

	kept := make([]SavedAccount, 0, len(accounts)+1)
	for _, a := range accounts {
		if a.User.Username == acc.User.Username || strings.EqualFold(a.User.Email, acc.User.Email) {
			continue
		}
		kept = append(kept, a)
	}
	kept = append(kept, acc)

	if err := storage.SetJSON(ctx, m.store, KeySavedAccounts, kept); err != nil {
		m.log.Warn().Err(err).Msg("saving account failed")
	}
}

func (m *Manager) persist(ctx context.Context, sess *Session) {
	if err := storage.SetJSON(ctx, m.store, KeyCurrentUser, sess.User); err != nil {
		m.log.Warn().Err(err).Msg("persisting session failed")
		return
	}
	if sess.Token == "" {
		return
	}
	if err := m.store.Set(ctx, KeyAuthToken, []byte(sess.Token)); err != nil {
		m.log.Warn().Err(err).Msg("persisting token failed")
	}
}

func (m *Manager) clearPersisted(ctx context.Context) {
	for _, key := range []string{KeyCurrentUser, KeyAuthToken} {
		if err := m.store.Delete(ctx, key); err != nil {
			m.log.Warn().Err(err).Str("key", key).Msg("clearing persisted session failed")
		}
	}
}
