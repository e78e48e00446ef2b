package guard

import (
	"strings"

	"github.com/eduka/campus-auth/pkg/roles"
)

// Route declares who may open paths under Prefix.
type Route struct {
	Prefix string
	Roles  []roles.Role
	Public bool
}

// Table is a set of routes; the longest matching prefix wins.
type Table []Route

// Match returns the route whose prefix best matches path. A prefix matches
// the path itself and anything below it, so "/admin" covers "/admin/7" but
// not "/administrator".
func (t Table) Match(path string) (Route, bool) {
	var (
		best  Route
		found bool
	)
	for _, r := range t {
		if !prefixMatch(r.Prefix, path) {
			continue
		}
		if !found || len(r.Prefix) > len(best.Prefix) {
			best, found = r, true
		}
	}
	return best, found
}

func prefixMatch(prefix, path string) bool {
	if prefix == "/" {
		return path == "/"
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || path[len(prefix)] == '?'
}

// DefaultTable is the campus portal's route table.
func DefaultTable() Table {
	return Table{
		{Prefix: "/", Public: true},
		{Prefix: DefaultLoginPath, Public: true},
		{Prefix: "/register", Public: true},
		{Prefix: "/admin", Roles: []roles.Role{roles.Admin}},
		{Prefix: "/teacher", Roles: []roles.Role{roles.Teacher}},
		{Prefix: "/student", Roles: []roles.Role{roles.Student}},
		{Prefix: "/assistant", Roles: []roles.Role{roles.Assistant}},
		{Prefix: "/client", Roles: []roles.Role{roles.Client}},
		{Prefix: "/grades", Roles: []roles.Role{roles.Teacher, roles.Assistant}},
		{Prefix: "/library", Roles: []roles.Role{roles.Student, roles.Teacher, roles.Assistant}},
		{Prefix: "/restaurants", Roles: []roles.Role{roles.Client, roles.Admin}},
		{Prefix: "/users", Roles: []roles.Role{roles.Admin}},
	}
}
