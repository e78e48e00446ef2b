// Package guard decides whether the current session may open a route, and
// where to send it when it may not. Decisions are made from in-memory session
// state only and never touch the network.
package guard

import (
	"net/url"

	"github.com/eduka/campus-auth/pkg/roles"
)

// SessionReader is the part of the session the guard consults.
// *session.Manager satisfies it.
type SessionReader interface {
	IsLoggedIn() bool
	Role() roles.Role
	UserID() string
}

// Outcome is the result of a navigation check.
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectRole
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectRole:
		return "redirect-role"
	default:
		return "unknown"
	}
}

// Decision is an Outcome plus the path to navigate to. For Allow, Target is
// the requested path.
type Decision struct {
	Outcome Outcome
	Target  string
}

// DefaultLoginPath receives unauthenticated navigations.
const DefaultLoginPath = "/login"

// ReturnURLParam carries the originally requested path to the login page.
const ReturnURLParam = "returnUrl"

type Guard struct {
	session   SessionReader
	router    *RoleRouter
	loginPath string
}

type Option func(*Guard)

// WithLoginPath overrides DefaultLoginPath.
func WithLoginPath(p string) Option {
	return func(g *Guard) { g.loginPath = p }
}

func New(session SessionReader, router *RoleRouter, opts ...Option) *Guard {
	g := &Guard{session: session, router: router, loginPath: DefaultLoginPath}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check evaluates a navigation to path. With no required roles any logged-in
// user is allowed. Role matching ignores case.
func (g *Guard) Check(path string, required ...roles.Role) Decision {
	if !g.session.IsLoggedIn() {
		return Decision{Outcome: RedirectLogin, Target: g.loginURL(path)}
	}
	if len(required) > 0 && !roles.In(g.session.Role(), required...) {
		return Decision{
			Outcome: RedirectRole,
			Target:  g.router.Route(g.session.Role(), g.session.UserID()),
		}
	}
	return Decision{Outcome: Allow, Target: path}
}

// Navigate checks path against the route table. Public routes are always
// allowed; paths no route matches require only a session.
func (g *Guard) Navigate(path string, table Table) Decision {
	route, ok := table.Match(path)
	if ok && route.Public {
		return Decision{Outcome: Allow, Target: path}
	}
	return g.Check(path, route.Roles...)
}

func (g *Guard) loginURL(returnTo string) string {
	if returnTo == "" || returnTo == g.loginPath {
		return g.loginPath
	}
	q := url.Values{ReturnURLParam: {returnTo}}
	return g.loginPath + "?" + q.Encode()
}
