package server

import (
	"log/slog"
	"strings"

	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/backend/fixture"
	"github.com/preston-bernstein/archery-score-client/internal/backend/httpapi"
	"github.com/preston-bernstein/archery-score-client/internal/config"
	"github.com/preston-bernstein/archery-score-client/internal/detection"
	"github.com/preston-bernstein/archery-score-client/internal/metrics"
	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

// fixtureTokens is what the static detector reports for every photo.
var fixtureTokens = []string{"X", "10", "9", "9", "8", "7"}

// backendFactory assembles the backend with shared wrappers (rate limit + retry).
type backendFactory struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func newBackendFactory(logger *slog.Logger, metrics *metrics.Recorder) backendFactory {
	return backendFactory{logger: logger, metrics: metrics}
}

func (f backendFactory) build(cfg config.Config) backend.Backend {
	base := selectBackend(cfg.Backend, f.logger, f.metrics)
	limited := backend.NewRateLimited(base, cfg.Backend.ReadRate, cfg.Backend.ReadBurst, f.logger)
	return backend.NewRetrying(limited, f.logger, cfg.Backend.RetryAttempts, cfg.Backend.RetryBackoff)
}

func selectBackend(cfg config.BackendConfig, logger *slog.Logger, recorder *metrics.Recorder) backend.Backend {
	if cfg.UsesFixture() {
		if logger != nil {
			logger.Info("using fixture backend")
		}
		return fixture.New(fixture.DefaultSeed)
	}
	return httpapi.NewClient(httpapi.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Metrics: recorder,
		Logger:  logger,
	})
}

// buildDetector returns nil when detection is not configured so the scoring
// core reports ErrNoDetector.
func buildDetector(cfg config.DetectionConfig, logger *slog.Logger, recorder *metrics.Recorder) scoring.Detector {
	url := strings.TrimSpace(cfg.URL)
	switch {
	case url == "":
		return nil
	case strings.EqualFold(url, config.FixtureBackend):
		return detection.Static{Tokens: fixtureTokens}
	default:
		return detection.NewClient(detection.Config{
			URL:            url,
			Timeout:        cfg.Timeout,
			MaxUploadBytes: cfg.MaxUploadBytes,
			Metrics:        recorder,
			Logger:         logger,
		})
	}
}
