// Package roles is the single role vocabulary shared by the user service and
// its clients.
//
// Fine-grained roles (ADMIN, TEACHER, STUDENT, ASSISTANT, CLIENT) drive
// navigation and route guards. The coarse privilege classes ("admin", "user")
// are what older backend records carry; Parse translates them and
// Role.Privilege maps back.
package roles

import (
	"fmt"
	"strings"
)

// Version is bumped whenever a role is added or removed.
const Version = 1

// Role is a user's fine-grained role tag.
type Role string

const (
	Admin     Role = "ADMIN"
	Teacher   Role = "TEACHER"
	Student   Role = "STUDENT"
	Assistant Role = "ASSISTANT"
	Client    Role = "CLIENT"
)

// Default is assigned when registration supplies no role.
const Default = Client

// Privilege is the coarse backend privilege class.
type Privilege string

const (
	PrivilegeAdmin Privilege = "admin"
	PrivilegeUser  Privilege = "user"
)

var all = []Role{Admin, Teacher, Student, Assistant, Client}

var privileges = map[Role]Privilege{
	Admin:     PrivilegeAdmin,
	Teacher:   PrivilegeUser,
	Student:   PrivilegeUser,
	Assistant: PrivilegeUser,
	Client:    PrivilegeUser,
}

// legacy maps backend privilege labels onto fine-grained roles.
var legacy = map[Privilege]Role{
	PrivilegeAdmin: Admin,
	PrivilegeUser:  Client,
}

// All returns every known role in declaration order.
func All() []Role {
	out := make([]Role, len(all))
	copy(out, all)
	return out
}

// Parse normalises a role label. Matching is case-insensitive, the legacy
// privilege labels are translated, and an empty label yields Default.
func Parse(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, nil
	}
	upper := Role(strings.ToUpper(s))
	if _, ok := privileges[upper]; ok {
		return upper, nil
	}
	if r, ok := legacy[Privilege(strings.ToLower(s))]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles (exact casing).
func (r Role) Valid() bool {
	_, ok := privileges[r]
	return ok
}

// Privilege returns the coarse class for r. Unknown roles get PrivilegeUser.
func (r Role) Privilege() Privilege {
	if p, ok := privileges[Role(strings.ToUpper(string(r)))]; ok {
		return p
	}
	return PrivilegeUser
}

// Normalize returns the canonical role for a stored or transmitted label, so
// legacy labels like "user" become CLIENT. Unknown labels are upper-cased and
// kept, which leaves them unmatched by any known role.
func Normalize(r Role) Role {
	if strings.TrimSpace(string(r)) == "" {
		return ""
	}
	if parsed, err := Parse(string(r)); err == nil {
		return parsed
	}
	return Role(strings.ToUpper(strings.TrimSpace(string(r))))
}

// Equal compares two role labels after Normalize.
func Equal(a, b Role) bool {
	return Normalize(a) == Normalize(b)
}

// In reports whether r matches any of set, ignoring case.
func In(r Role, set ...Role) bool {
	for _, s := range set {
		if Equal(r, s) {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }
