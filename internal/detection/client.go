// Package detection uploads end photos to the score-detection service.
package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/preston-bernstein/archery-score-client/internal/logging"
	"github.com/preston-bernstein/archery-score-client/internal/metrics"
	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxUploadBytes = 10 << 20
	maxResponseBytes      = 64 << 10
	formField             = "file"
)

var (
	// ErrNotConfigured is returned when no detection URL is set.
	ErrNotConfigured = errors.New("detection service not configured")
	// ErrPhotoTooLarge is returned before upload when the image exceeds the limit.
	ErrPhotoTooLarge = errors.New("photo exceeds upload limit")
	// ErrMalformedResponse is returned when the body is not a JSON list of strings.
	ErrMalformedResponse = errors.New("detection response is not a list of arrow tokens")
)

// StatusError is a non-2xx answer from the detection service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("detection service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("detection service returned status %d: %s", e.StatusCode, e.Body)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls the detection client.
type Config struct {
	URL            string
	Timeout        time.Duration
	MaxUploadBytes int64
	HTTPClient     *http.Client
	Metrics        *metrics.Recorder
	Logger         *slog.Logger
}

// Client implements scoring.Detector over HTTP.
type Client struct {
	url        string
	maxUpload  int64
	httpClient httpDoer
	metrics    *metrics.Recorder
	logger     *slog.Logger
}

var _ scoring.Detector = (*Client)(nil)

// NewClient builds a detection client. Zero values fall back to defaults.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	var doer httpDoer = &http.Client{Timeout: timeout}
	if cfg.HTTPClient != nil {
		doer = cfg.HTTPClient
	}
	return &Client{
		url:        strings.TrimSpace(cfg.URL),
		maxUpload:  maxUpload,
		httpClient: doer,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Detect uploads the photo as multipart form field "file" and returns the
// detected tokens in order. Token validation is left to the caller.
func (c *Client) Detect(ctx context.Context, photo scoring.Photo) ([]string, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	start := time.Now()
	tokens, err := c.detect(ctx, photo)
	elapsed := time.Since(start)
	c.metrics.RecordDetection(elapsed, err)

	if logger := logging.FromContext(ctx, c.logger); logger != nil {
		if err != nil {
			logger.WarnContext(ctx, "score detection failed",
				slog.Int64(logging.FieldDurationMS, elapsed.Milliseconds()),
				slog.Any("error", err),
			)
		} else {
			logger.DebugContext(ctx, "score detection complete",
				slog.Int(logging.FieldCount, len(tokens)),
				slog.Int64(logging.FieldDurationMS, elapsed.Milliseconds()),
			)
		}
	}
	return tokens, err
}

func (c *Client) detect(ctx context.Context, photo scoring.Photo) ([]string, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}
	if int64(len(photo.Data)) > c.maxUpload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPhotoTooLarge, len(photo.Data))
	}

	body, contentType, err := encodePhoto(photo)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return decodeTokens(raw)
}

func encodePhoto(photo scoring.Photo) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := photo.Name
	if name == "" {
		name = "end.jpg"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, name))
	header.Set("Content-Type", photo.ContentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(photo.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// decodeTokens accepts only a bare JSON array of strings.
func decodeTokens(raw []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMalformedResponse
	}
	var tokens []string
	if err := json.Unmarshal(trimmed, &tokens); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return tokens, nil
}
