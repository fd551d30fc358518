package metrics

import (
	"sync"
	"time"
)

type backendStats struct {
	calls           int
	errors          int
	rateLimitHits   int
	lastRetryAfter  time.Duration
	lastCallLatency time.Duration
}

type outcomeStats struct {
	ok     int
	failed int
}

func (o *outcomeStats) add(err error) {
	if err != nil {
		o.failed++
		return
	}
	o.ok++
}

// Recorder keeps in-memory counters for backend calls and scoring outcomes and
// forwards them to OpenTelemetry instruments when configured.
type Recorder struct {
	mu          sync.Mutex
	stats       map[string]*backendStats
	submissions outcomeStats
	detections  outcomeStats
	janitor     outcomeStats
	pruned      int
	otel        *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*backendStats),
		otel:  otel,
	}
}

// RecordBackendAttempt counts one backend call for an operation and stores its latency.
func (r *Recorder) RecordBackendAttempt(operation string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureStats(operation)
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordBackendAttempt(operation, duration, err)
	}
}

// RecordRateLimit tracks a 429 from the backend and the last Retry-After.
func (r *Recorder) RecordRateLimit(operation string, retryAfter time.Duration) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureStats(operation)
	stats.rateLimitHits++
	if retryAfter > 0 {
		stats.lastRetryAfter = retryAfter
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordRateLimit(operation, retryAfter)
	}
}

// RecordSubmission counts an end submission outcome.
func (r *Recorder) RecordSubmission(err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.submissions.add(err)
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordSubmission(err)
	}
}

// RecordDetection counts a photo detection outcome and its latency.
func (r *Recorder) RecordDetection(duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.detections.add(err)
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordDetection(duration, err)
	}
}

// RecordJanitorCycle tracks a draft prune pass.
func (r *Recorder) RecordJanitorCycle(duration time.Duration, removed int, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.janitor.add(err)
	r.pruned += removed
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordJanitor(duration, removed, err)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// BackendCalls returns the total attempts recorded for an operation.
func (r *Recorder) BackendCalls(operation string) int {
	return r.Snapshot(operation).Calls
}

// BackendErrors returns the total failed attempts recorded for an operation.
func (r *Recorder) BackendErrors(operation string) int {
	return r.Snapshot(operation).Errors
}

// RateLimitHits returns the number of rate limit events seen for an operation.
func (r *Recorder) RateLimitHits(operation string) int {
	return r.Snapshot(operation).RateLimitHits
}

// LastRetryAfter returns the most recent Retry-After recorded for an operation.
func (r *Recorder) LastRetryAfter(operation string) time.Duration {
	return r.Snapshot(operation).LastRetryAfter
}

// Snapshot is a copy of the counters for one backend operation.
type Snapshot struct {
	Calls           int
	Errors          int
	RateLimitHits   int
	LastRetryAfter  time.Duration
	LastCallLatency time.Duration
}

func (r *Recorder) Snapshot(operation string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[operation]
	if !ok || stats == nil {
		return Snapshot{}
	}
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		RateLimitHits:   stats.rateLimitHits,
		LastRetryAfter:  stats.lastRetryAfter,
		LastCallLatency: stats.lastCallLatency,
	}
}

// Outcomes summarises scoring activity since start-up.
type Outcomes struct {
	SubmissionsOK     int
	SubmissionsFailed int
	DetectionsOK      int
	DetectionsFailed  int
	JanitorCycles     int
	JanitorFailures   int
	DraftsPruned      int
}

func (r *Recorder) Outcomes() Outcomes {
	if r == nil {
		return Outcomes{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return Outcomes{
		SubmissionsOK:     r.submissions.ok,
		SubmissionsFailed: r.submissions.failed,
		DetectionsOK:      r.detections.ok,
		DetectionsFailed:  r.detections.failed,
		JanitorCycles:     r.janitor.ok + r.janitor.failed,
		JanitorFailures:   r.janitor.failed,
		DraftsPruned:      r.pruned,
	}
}

// ensureStats must be called with mu held.
func (r *Recorder) ensureStats(operation string) *backendStats {
	stats, ok := r.stats[operation]
	if !ok {
		stats = &backendStats{}
		r.stats[operation] = stats
	}
	return stats
}
