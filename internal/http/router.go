// Package http assembles the chi router for the score-entry API.
package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
	"github.com/preston-bernstein/archery-score-client/internal/http/handlers"
	"github.com/preston-bernstein/archery-score-client/internal/http/middleware"
	"github.com/preston-bernstein/archery-score-client/internal/http/requestutil"
	"github.com/preston-bernstein/archery-score-client/internal/metrics"
)

// RouterConfig holds what NewRouter wires together. Limiter may be nil.
type RouterConfig struct {
	Handler *handlers.Handler
	Tokens  middleware.TokenValidator
	Limiter *middleware.RateLimiter
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// NewRouter registers every route.
func NewRouter(cfg RouterConfig) nethttp.Handler {
	h := cfg.Handler
	logger := cfg.Logger

	r := chi.NewRouter()
	r.Use(middleware.Logging(logger, cfg.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(cfg.Limiter.Middleware)

	r.NotFound(func(w nethttp.ResponseWriter, req *nethttp.Request) {
		requestutil.WriteError(w, req, nethttp.StatusNotFound, "not found", logger)
	})
	r.MethodNotAllowed(func(w nethttp.ResponseWriter, req *nethttp.Request) {
		requestutil.WriteError(w, req, nethttp.StatusMethodNotAllowed, "method not allowed", logger)
	})

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Post("/auth/archer/login", h.ArcherLogin)
	r.Post("/auth/recorder/login", h.RecorderLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Tokens, logger))

		r.Get("/competitions", h.Competitions)
		r.Route("/competitions/{competitionID}/rounds", func(r chi.Router) {
			r.Get("/", h.CompetitionRounds)
			r.Get("/{roundID}/ranking", h.Ranking)
			r.Get("/{roundID}/ranking.xlsx", h.RankingWorkbook)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logger, rounds.RoleArcher))

			r.Get("/archer/competitions", h.ArcherCompetitions)
			r.Route("/rounds/{roundID}", func(r chi.Router) {
				r.Get("/eligibility", h.Eligibility)
				r.Route("/session", func(r chi.Router) {
					r.Post("/", h.LoadSession)
					r.Get("/", h.GetSession)
					r.Put("/arrow", h.SetArrow)
					r.Put("/cursor", h.SelectCell)
					r.Get("/details", h.Details)
					r.Get("/chart.png", h.Chart)
					r.Route("/ranges/{rangeIndex}/ends/{endNumber}", func(r chi.Router) {
						r.Post("/submit", h.SubmitEnd)
						r.Put("/photo", h.AttachPhoto)
						r.Delete("/photo", h.RemovePhoto)
						r.Post("/detect", h.Detect)
					})
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logger, rounds.RoleRecorder))

			r.Route("/recorder/rounds/{roundID}/pending", func(r chi.Router) {
				r.Get("/", h.PendingEnds)
				r.Post("/confirm", h.ConfirmEnd)
				r.Post("/reject", h.RejectEnds)
			})
		})
	})

	return r
}
