package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/session"
)

// SessionFile is the YAML request context passed to compile with --session.
//
//	role: user
//	variables:
//	  x-hasura-tenant-id: acme
//	headers:
//	  X-Request-Id: req-1
type SessionFile struct {
	Role      string            `yaml:"role"`
	Variables map[string]string `yaml:"variables"`
	Headers   map[string]string `yaml:"headers"`
}

// RequestContext is the caller context a query is compiled under.
type RequestContext struct {
	Session *session.Session
	Headers http.Header
}

// LoadSessionFile reads a SessionFile. Unknown keys are rejected.
func LoadSessionFile(path string) (*SessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	var sf SessionFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	return &sf, nil
}

// NewRequestContext builds the request context. role overrides the role of
// sf; either may be empty but not both. sf may be nil.
func NewRequestContext(sf *SessionFile, role string) (*RequestContext, error) {
	if sf == nil {
		sf = &SessionFile{}
	}
	if role == "" {
		role = sf.Role
	}
	if role == "" {
		return nil, fmt.Errorf("no role: pass --role or set role in the session file")
	}

	headers := http.Header{}
	for k, v := range sf.Headers {
		headers.Set(k, v)
	}
	return &RequestContext{
		Session: session.New(metadata.Role(role), sf.Variables),
		Headers: headers,
	}, nil
}

// LoadVariables reads GraphQL variables from a JSON object file.
func LoadVariables(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading variables file: %w", err)
	}
	var vars map[string]any
	if err := json.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("parsing variables file %s: %w", path, err)
	}
	return vars, nil
}
