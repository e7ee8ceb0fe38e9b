// Package session carries the authenticated caller context a request is
// compiled under: the role and the session variables.
package session

import (
	"strings"

	"github.com/roach88/fieldir/internal/metadata"
)

// RoleVariable is the session variable that names the caller's role.
const RoleVariable = "x-hasura-role"

// Variables maps lower-cased session variable names to values.
type Variables map[string]string

// Session is the caller context. It is read-only during compilation.
type Session struct {
	Role      metadata.Role
	Variables Variables
}

// New returns a Session with variable names lower-cased. The role
// variable is set to role unless vars already carries one.
func New(role metadata.Role, vars map[string]string) *Session {
	normalized := make(Variables, len(vars)+1)
	for k, v := range vars {
		normalized[strings.ToLower(k)] = v
	}
	if _, ok := normalized[RoleVariable]; !ok {
		normalized[RoleVariable] = string(role)
	}
	return &Session{Role: role, Variables: normalized}
}

// Lookup returns the value of a session variable, matched case-insensitively.
func (s *Session) Lookup(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.Variables[strings.ToLower(name)]
	return v, ok
}
