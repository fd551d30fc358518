package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
	"github.com/preston-bernstein/archery-score-client/internal/logging"
)

// ErrMissingCredentials is returned before calling the backend when email or password is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// Session is what a successful login returns to the UI.
type Session struct {
	Token
	Identity rounds.Identity `json:"identity"`
}

// LoginService checks credentials with the backend and issues a token.
type LoginService struct {
	backend backend.Authenticator
	tokens  *Tokens
	logger  *slog.Logger
}

// NewLoginService constructs a LoginService.
func NewLoginService(a backend.Authenticator, tokens *Tokens, logger *slog.Logger) *LoginService {
	return &LoginService{backend: a, tokens: tokens, logger: logger}
}

// Login authenticates role credentials with the backend.
func (s *LoginService) Login(ctx context.Context, role rounds.Role, creds rounds.Credentials) (Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return Session{}, ErrMissingCredentials
	}
	if s.backend == nil {
		return Session{}, backend.ErrUnavailable
	}
	id, err := s.backend.Login(ctx, role, creds)
	if err != nil {
		return Session{}, fmt.Errorf("%s login: %w", role, err)
	}
	id.Role = role
	tok, err := s.tokens.Issue(id)
	if err != nil {
		return Session{}, err
	}
	logging.Info(ctx, s.logger, "login succeeded",
		slog.String(logging.FieldRole, string(role)),
		slog.Int(logging.FieldParticipantID, id.ID),
	)
	return Session{Token: tok, Identity: id}, nil
}
