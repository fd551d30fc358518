package config

import "time"

const (
	envPort      = "PORT"
	envLogLevel  = "LOG_LEVEL"
	envLogFormat = "LOG_FORMAT"

	envBackendURL      = "BACKEND_BASE_URL"
	envBackendTimeout  = "BACKEND_TIMEOUT"
	envBackendAttempts = "BACKEND_RETRY_ATTEMPTS"
	envBackendBackoff  = "BACKEND_RETRY_BACKOFF"
	envBackendRate     = "BACKEND_READ_RATE"
	envBackendBurst    = "BACKEND_READ_BURST"

	envDetectionURL     = "DETECTION_URL"
	envDetectionTimeout = "DETECTION_TIMEOUT"
	envDetectionMax     = "DETECTION_MAX_UPLOAD_BYTES"

	envDraftsFolder    = "DRAFTS_FOLDER"
	envDraftsRetention = "DRAFTS_RETENTION_DAYS"
	envJanitorInterval = "DRAFTS_JANITOR_INTERVAL"
	envSessionIdleTTL  = "SESSION_IDLE_TTL"

	envJWTSecret = "JWT_SECRET"
	envJWTTTL    = "JWT_TTL"

	envRateLimitRPS   = "RATE_LIMIT_RPS"
	envRateLimitBurst = "RATE_LIMIT_BURST"

	envEventsBuffer = "EVENTS_BUFFER"

	envMetricsPort  = "METRICS_PORT"
	envMetricsOn    = "METRICS_ENABLED"
	envOtelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService  = "OTEL_SERVICE_NAME"
	envOtelInsecure = "OTEL_EXPORTER_OTLP_INSECURE"

	// FixtureBackend selects the in-memory backend instead of a remote URL.
	FixtureBackend = "fixture"

	defaultPort      = "4000"
	defaultLogLevel  = "info"
	defaultLogFormat = "text"

	defaultBackendURL      = FixtureBackend
	defaultBackendTimeout  = 10 * Duration(time.Second)
	defaultBackendAttempts = 3
	defaultBackendBackoff  = 200 * Duration(time.Millisecond)
	defaultBackendRate     = 10.0
	defaultBackendBurst    = 5

	defaultDetectionTimeout = 30 * Duration(time.Second)
	defaultDetectionMax     = 10 << 20

	defaultDraftsFolder    = "data/drafts"
	defaultDraftsRetention = 30
	defaultJanitorInterval = Duration(time.Hour)
	defaultSessionIdleTTL  = 2 * Duration(time.Hour)

	defaultJWTTTL = 12 * Duration(time.Hour)

	// Per client IP; login and photo uploads share the budget.
	defaultRateLimitRPS   = 20.0
	defaultRateLimitBurst = 40

	defaultEventsBuffer = 64

	defaultMetricsPort = "9090"
	defaultServiceName = "archery-score-client"
)
