package testutil

// FixedSessionGenerator returns the same session token every time.
//
// Log lines and golden traces stay byte-identical across runs.
type FixedSessionGenerator struct {
	token string
}

// NewFixedSessionGenerator creates a generator for token.
// If token is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(token string) *FixedSessionGenerator {
	if token == "" {
		token = "test-session-default"
	}
	return &FixedSessionGenerator{token: token}
}

// Generate returns the fixed token.
//
// Implements ledger.TokenGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.token
}
