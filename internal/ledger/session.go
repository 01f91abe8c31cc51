package ledger

import (
	"strings"

	"github.com/google/uuid"
)

// TokenGenerator produces the per-process session token used to correlate
// log lines. The token carries no authority.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session tokens.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// session is the process-local declared identity. Never persisted.
type session struct {
	token    string
	identity string
}

// set trims raw and replaces the identity. No verification and no uniqueness
// check against existing owners.
func (s *session) set(raw string) error {
	v := strings.TrimSpace(raw)
	if v == "" {
		return newEmptyIdentity()
	}
	s.identity = v
	return nil
}

func (s *session) require() (string, error) {
	if s.identity == "" {
		return "", newNoActiveIdentity()
	}
	return s.identity, nil
}
