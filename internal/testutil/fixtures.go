package testutil

import (
	"testing"
	"time"

	"github.com/preston-bernstein/archery-score-client/internal/auth"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

// TestSecret signs tokens in tests.
const TestSecret = "test-secret"

// NewTokens returns a token issuer with the test secret.
func NewTokens() *auth.Tokens {
	return auth.NewTokens(TestSecret, time.Hour)
}

// ArcherToken issues a token for an archer identity.
func ArcherToken(t *testing.T, tokens *auth.Tokens, archerID int) string {
	t.Helper()
	return issue(t, tokens, rounds.Identity{ID: archerID, Role: rounds.RoleArcher, FirstName: "Test", LastName: "Archer"})
}

// RecorderToken issues a token for a recorder identity.
func RecorderToken(t *testing.T, tokens *auth.Tokens, recorderID int) string {
	t.Helper()
	return issue(t, tokens, rounds.Identity{ID: recorderID, Role: rounds.RoleRecorder, FirstName: "Test", LastName: "Recorder"})
}

func issue(t *testing.T, tokens *auth.Tokens, id rounds.Identity) string {
	t.Helper()
	tok, err := tokens.Issue(id)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return tok.Value
}
