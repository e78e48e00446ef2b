package guard

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/eduka/campus-auth/pkg/roles"
)

// HomePath is where users with an unmapped role land.
const HomePath = "/"

// DefaultRoutes is the landing page per role. "{id}" is replaced with the
// user's id.
func DefaultRoutes() map[roles.Role]string {
	return map[roles.Role]string{
		roles.Admin:     "/admin/{id}",
		roles.Teacher:   "/teacher/{id}",
		roles.Student:   "/student/{id}",
		roles.Assistant: "/assistant/{id}",
		roles.Client:    "/client/{id}",
	}
}

// RoleRouter maps a role to its landing route.
type RoleRouter struct {
	routes map[roles.Role]string
	log    zerolog.Logger
}

// NewRoleRouter copies routes; a nil map means DefaultRoutes.
func NewRoleRouter(routes map[roles.Role]string, log zerolog.Logger) *RoleRouter {
	if routes == nil {
		routes = DefaultRoutes()
	}
	table := make(map[roles.Role]string, len(routes))
	for r, p := range routes {
		table[roles.Role(strings.ToUpper(string(r)))] = p
	}
	return &RoleRouter{routes: table, log: log}
}

// Route returns the landing path for role. Unknown or empty roles get
// HomePath, and the fallback is logged because it means the role lists of
// the service and this client disagree.
func (r *RoleRouter) Route(role roles.Role, userID string) string {
	tmpl, ok := r.lookup(role)
	if !ok {
		r.log.Warn().
			Str("role", string(role)).
			Int("roles_version", roles.Version).
			Msg("no landing route for role, using home")
		return HomePath
	}
	return strings.ReplaceAll(tmpl, "{id}", url.PathEscape(userID))
}

func (r *RoleRouter) lookup(role roles.Role) (string, bool) {
	if strings.TrimSpace(string(role)) == "" {
		return "", false
	}
	parsed, err := roles.Parse(string(role))
	if err != nil {
		return "", false
	}
	tmpl, ok := r.routes[parsed]
	return tmpl, ok
}
