package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/preston-bernstein/archery-score-client/internal/auth"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
	"github.com/preston-bernstein/archery-score-client/internal/http/requestutil"
	"github.com/preston-bernstein/archery-score-client/internal/logging"
)

// TokenValidator resolves a bearer token to a principal.
type TokenValidator interface {
	Validate(raw string) (auth.Principal, error)
}

// Authenticate requires a valid bearer token and stores the principal in the
// request context.
func Authenticate(tokens TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				requestutil.WriteError(w, r, http.StatusUnauthorized, "missing bearer token", logger)
				return
			}
			p, err := tokens.Validate(raw)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "token expired"
				}
				logging.Warn(r.Context(), logger, "token rejected", slog.Any("error", err))
				requestutil.WriteError(w, r, http.StatusUnauthorized, msg, logger)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), p)
			if l := logging.FromContext(ctx, logger); l != nil {
				ctx = logging.WithLogger(ctx, l.With(
					slog.String(logging.FieldRole, string(p.Role)),
					slog.Int("principal_id", p.ID),
				))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets through only principals holding one of roles.
func RequireRole(logger *slog.Logger, roles ...rounds.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				requestutil.WriteError(w, r, http.StatusUnauthorized, "authentication required", logger)
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			requestutil.WriteError(w, r, http.StatusForbidden, "role "+string(p.Role)+" may not access this resource", logger)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
