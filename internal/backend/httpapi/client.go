// Package httpapi is the HTTP client for the remote archery backend.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
	"github.com/preston-bernstein/archery-score-client/internal/logging"
	"github.com/preston-bernstein/archery-score-client/internal/metrics"
)

// Config controls how the client reaches the backend.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
}

// Client calls the backend's JSON API and maps responses to domain models.
type Client struct {
	baseURL    string
	httpClient httpDoer
	metrics    *metrics.Recorder
	logger     *slog.Logger
	now        func() time.Time
}

var _ backend.Backend = (*Client)(nil)

// NewClient constructs a backend client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		httpClient: resolveHTTPClient(cfg.HTTPClient, cfg.Timeout),
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

func (c *Client) Ranges(ctx context.Context, roundID int) ([]rounds.Range, error) {
	var payload rangesResponse
	if err := c.do(ctx, backend.OpRanges, http.MethodGet, fmt.Sprintf(pathFmtRoundRanges, roundID), nil, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Ranges == nil {
		payload.Ranges = []rounds.Range{}
	}
	return payload.Ranges, nil
}

func (c *Client) Eligibility(ctx context.Context, participantID, roundID int) (rounds.Eligibility, error) {
	var out rounds.Eligibility
	err := c.do(ctx, backend.OpEligibility, http.MethodGet, pathEligibility, participationQuery(participantID, roundID), nil, &out)
	return out, err
}

func (c *Client) SubmittedEnds(ctx context.Context, participantID, roundID int) ([]rounds.SubmittedEnd, error) {
	var payload []stagedEndResponse
	if err := c.do(ctx, backend.OpSubmittedEnds, http.MethodGet, pathArrowStaging, participationQuery(participantID, roundID), nil, &payload); err != nil {
		return nil, err
	}
	return mapStagedEnds(payload), nil
}

func (c *Client) SubmitEnd(ctx context.Context, sub rounds.EndSubmission) (bool, error) {
	var out submitResponse
	if err := c.do(ctx, backend.OpSubmitEnd, http.MethodPost, pathEndScoreStaging, nil, sub, &out); err != nil {
		return false, err
	}
	return out.Recorded, nil
}

func (c *Client) Ranking(ctx context.Context, competitionID, roundID int) ([]rounds.RankingRow, error) {
	var raw json.RawMessage
	if err := c.do(ctx, backend.OpRanking, http.MethodGet, fmt.Sprintf(pathFmtRanking, competitionID, roundID), nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeRanking(raw)
}

func (c *Client) Competitions(ctx context.Context) ([]rounds.Competition, error) {
	var out []rounds.Competition
	if err := c.do(ctx, backend.OpCompetitions, http.MethodGet, pathCompetitions, nil, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) ArcherCompetitions(ctx context.Context, archerID int) ([]rounds.Competition, error) {
	var out []rounds.Competition
	if err := c.do(ctx, backend.OpArcherCompetitions, http.MethodGet, fmt.Sprintf(pathFmtArcherComps, archerID), nil, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) CompetitionRounds(ctx context.Context, competitionID int) ([]rounds.Round, error) {
	var out []rounds.Round
	if err := c.do(ctx, backend.OpCompetitionRounds, http.MethodGet, fmt.Sprintf(pathFmtCompRounds, competitionID), nil, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) PendingEnds(ctx context.Context, roundID int) ([]rounds.PendingEnd, error) {
	q := url.Values{}
	q.Set("roundID", strconv.Itoa(roundID))
	var out []rounds.PendingEnd
	if err := c.do(ctx, backend.OpPendingEnds, http.MethodGet, pathPendingEnds, q, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) ConfirmEnd(ctx context.Context, conf rounds.EndConfirmation) error {
	return c.do(ctx, backend.OpConfirmEnd, http.MethodPut, pathRecorderUpdate, nil, conf, nil)
}

func (c *Client) RejectEnds(ctx context.Context, rej rounds.Rejection) error {
	return c.do(ctx, backend.OpRejectEnds, http.MethodDelete, pathRejectStaging, nil, rej, nil)
}

func (c *Client) Login(ctx context.Context, role rounds.Role, creds rounds.Credentials) (rounds.Identity, error) {
	path := pathArcherLogin
	if role == rounds.RoleRecorder {
		path = pathRecorderLogin
	}
	var out loginResponse
	if err := c.do(ctx, backend.OpLogin, http.MethodPost, path, nil, creds, &out); err != nil {
		return rounds.Identity{}, err
	}
	return mapIdentity(role, out), nil
}

// do performs one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, op, method, path, query, body, out)
	elapsed := time.Since(start)
	c.metrics.RecordBackendAttempt(op, elapsed, err)

	logger := logging.FromContext(ctx, c.logger)
	if logger != nil {
		level := slog.LevelDebug
		args := []any{
			slog.String(logging.FieldOperation, op),
			slog.String(logging.FieldMethod, method),
			slog.String(logging.FieldPath, path),
			slog.Int64(logging.FieldDurationMS, elapsed.Milliseconds()),
		}
		if err != nil {
			level = slog.LevelWarn
			args = append(args, slog.Any("error", err))
		}
		logger.Log(ctx, level, "backend call", args...)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), c.now())
			c.metrics.RecordRateLimit(op, retryAfter)
			return &backend.RateLimitError{
				Operation:  op,
				StatusCode: resp.StatusCode,
				RetryAfter: retryAfter,
				Message:    errorMessage(msg),
			}
		}
		return &backend.StatusError{Operation: op, StatusCode: resp.StatusCode, Message: errorMessage(msg)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func participationQuery(participantID, roundID int) url.Values {
	q := url.Values{}
	q.Set("participationID", strconv.Itoa(participantID))
	q.Set("roundID", strconv.Itoa(roundID))
	return q
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
