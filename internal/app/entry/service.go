// Package entry serves scoring sessions to HTTP handlers. It keeps one
// controller per (round, participant) and serialises access to each.
package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/drafts"
	"github.com/preston-bernstein/archery-score-client/internal/logging"
	"github.com/preston-bernstein/archery-score-client/internal/metrics"
	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

var (
	// ErrIneligible is returned when the backend says the participant may not score the round.
	ErrIneligible = errors.New("participant is not eligible for this round")
	// ErrNoSession is returned when a session is used before it was loaded.
	ErrNoSession = errors.New("no scoring session loaded for this round")
)

// Backend is the part of the remote backend a scoring session needs.
type Backend interface {
	backend.RoundReader
	backend.EndSubmitter
}

const defaultIdleTTL = 2 * time.Hour

// Config wires the collaborators of a Service. Drafts, Detector and Notifier
// are optional. Sessions unused for IdleTTL are evicted by SweepIdle.
type Config struct {
	Backend  Backend
	Drafts   drafts.Store
	Detector scoring.Detector
	Notifier scoring.Notifier
	IdleTTL  time.Duration
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
}

type sessionKey struct {
	roundID       int
	participantID int
}

type slot struct {
	mu       sync.Mutex
	ctrl     *scoring.Controller
	lastUsed atomic.Int64
}

// Service coordinates scoring sessions using the backend and the draft store.
type Service struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]*slot
}

// NewService constructs a Service with the provided collaborators.
func NewService(cfg Config) *Service {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	return &Service{cfg: cfg, now: time.Now, sessions: make(map[sessionKey]*slot)}
}

func (s *Service) slotFor(roundID, participantID int, create bool) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := sessionKey{roundID: roundID, participantID: participantID}
	sl, ok := s.sessions[k]
	if !ok && create {
		sl = &slot{}
		s.sessions[k] = sl
	}
	if sl != nil {
		sl.lastUsed.Store(s.now().UnixNano())
	}
	return sl
}

// withSession runs fn under the session's lock.
func (s *Service) withSession(roundID, participantID int, fn func(*scoring.Controller) error) error {
	sl := s.slotFor(roundID, participantID, false)
	if sl == nil {
		return ErrNoSession
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.ctrl == nil {
		return ErrNoSession
	}
	return fn(sl.ctrl)
}

// Eligibility asks the backend whether the participant may score the round.
func (s *Service) Eligibility(ctx context.Context, participantID, roundID int) (bool, error) {
	if s.cfg.Backend == nil {
		return false, backend.ErrUnavailable
	}
	el, err := s.cfg.Backend.Eligibility(ctx, participantID, roundID)
	if err != nil {
		return false, fmt.Errorf("check eligibility: %w", err)
	}
	return el.Eligible, nil
}

// Load builds or rebuilds the session for a round from the backend and the
// participant's draft. An existing in-memory session is replaced.
func (s *Service) Load(ctx context.Context, roundID, participantID int) (View, error) {
	eligible, err := s.Eligibility(ctx, participantID, roundID)
	if err != nil {
		return View{}, err
	}
	if !eligible {
		return View{}, ErrIneligible
	}

	sl := s.slotFor(roundID, participantID, true)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	ranges, err := s.cfg.Backend.Ranges(ctx, roundID)
	if err != nil {
		return View{}, fmt.Errorf("load ranges: %w", err)
	}
	submitted, err := s.cfg.Backend.SubmittedEnds(ctx, participantID, roundID)
	if err != nil {
		return View{}, fmt.Errorf("load submitted ends: %w", err)
	}

	ctrl, err := scoring.Resume(roundID, participantID, ranges, submitted, s.options(ctx, participantID))
	if err != nil {
		return View{}, err
	}
	sl.ctrl = ctrl

	logging.Info(ctx, s.cfg.Logger, "scoring session loaded",
		slog.Int(logging.FieldRoundID, roundID),
		slog.Int(logging.FieldParticipantID, participantID),
		slog.Int(logging.FieldCount, len(submitted)),
	)
	return viewOf(ctrl), nil
}

func (s *Service) options(ctx context.Context, participantID int) scoring.Options {
	opts := scoring.Options{
		Submitter: recordingSubmitter{next: s.cfg.Backend, metrics: s.cfg.Metrics},
		Detector:  s.cfg.Detector,
		Notifier:  s.cfg.Notifier,
		Logger:    logging.FromContext(ctx, s.cfg.Logger),
	}
	if s.cfg.Drafts != nil {
		opts.Drafts = drafts.ForParticipant(s.cfg.Drafts, participantID)
	}
	return opts
}

// Session returns the current view of a loaded session.
func (s *Service) Session(roundID, participantID int) (View, error) {
	var v View
	err := s.withSession(roundID, participantID, func(c *scoring.Controller) error {
		v = viewOf(c)
		return nil
	})
	return v, err
}

// SetArrow writes token at the given cursor, or at the current cursor when at is nil.
func (s *Service) SetArrow(ctx context.Context, roundID, participantID int, at *scoring.Cursor, token string) (View, error) {
	var v View
	err := s.withSession(roundID, participantID, func(c *scoring.Controller) error {
		var err error
		if at == nil {
			err = c.Enter(ctx, token)
		} else {
			err = c.SetArrow(ctx, *at, token)
		}
		v = viewOf(c)
		return err
	})
	return v, err
}

// SelectCell moves the cursor. moved is false when the target was not enterable.
func (s *Service) SelectCell(roundID, participantID, rangeIndex, endNumber, arrowIndex int) (View, bool, error) {
	var (
		v     View
		moved bool
	)
	err := s.withSession(roundID, participantID, func(c *scoring.Controller) error {
		moved = c.SelectCell(rangeIndex, endNumber, arrowIndex)
		v = viewOf(c)
		return nil
	})
	return v, moved, err
}

// SubmitResult is the outcome of a successful end submission.
type SubmitResult struct {
	View          View                   `json:"session"`
	Notifications []scoring.Notification `json:"notifications"`
}

// Submit sends one end to the backend while holding the session lock, so the
// same end cannot be submitted twice concurrently.
func (s *Service) Submit(ctx context.Context, roundID, participantID, rangeIndex, endNumber int) (SubmitResult, error) {
	var res SubmitResult
	err := s.withSession(roundID, participantID, func(c *scoring.Controller) error {
		notes, err := c.SubmitEnd(ctx, rangeIndex, endNumber)
		if err != nil {
			return err
		}
		if notes == nil {
			notes = []scoring.Notification{}
		}
		res = SubmitResult{View: viewOf(c), Notifications: notes}
		logging.Info(ctx, s.cfg.Logger, "end submitted",
			slog.Int(logging.FieldRoundID, roundID),
			slog.Int(logging.FieldParticipantID, participantID),
			slog.Int(logging.FieldRangeIndex, rangeIndex),
			slog.Int(logging.FieldEndOrder, endNumber),
		)
		return nil
	})
	return res, err
}

// AttachPhoto stores an image on an end.
func (s *Service) AttachPhoto(ctx context.Context, roundID, participantID, rangeIndex, endNumber int, photo scoring.Photo) (View, error) {
	var v View
	err := s.withSession(roundID, participantID, func(c *scoring.Controller) error {
		if err := c.AttachPhoto(ctx, rangeIndex, endNumber, photo); err != nil {
			return err
		}
		v = viewOf(c)
		return nil
	})
	return v, err
}

// RemovePhoto drops an end's image and keeps its arrows.
func (s *Service) RemovePhoto(ctx context.Context, roundID, participantID, rangeIndex, endNumber int) (View, error) {
	var v View
	err := s.withSession(roundID, participantID, func(c *scoring.Controller) error {
		if err := c.RemovePhoto(ctx, rangeIndex, endNumber); err != nil {
			return err
		}
		v = viewOf(c)
		return nil
	})
	return v, err
}

// Detect runs photo detection on an end and then focuses its first arrow.
func (s *Service) Detect(ctx context.Context, roundID, participantID, rangeIndex, endNumber int) (View, error) {
	var v View
	err := s.withSession(roundID, participantID, func(c *scoring.Controller) error {
		if _, err := c.DetectScores(ctx, rangeIndex, endNumber); err != nil {
			return err
		}
		c.SelectCell(rangeIndex, endNumber, 0)
		v = viewOf(c)
		return nil
	})
	return v, err
}

// Details summarises a loaded session for the details screen.
func (s *Service) Details(roundID, participantID int) (Details, error) {
	var d Details
	err := s.withSession(roundID, participantID, func(c *scoring.Controller) error {
		d = detailsOf(c.Session())
		return nil
	})
	return d, err
}

// Forget drops the in-memory session. The draft stays on disk.
func (s *Service) Forget(roundID, participantID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey{roundID: roundID, participantID: participantID})
}

// SweepIdle evicts sessions not used for the idle TTL and returns how many were
// dropped. Sessions busy with a request are skipped. Drafts stay on disk, so an
// evicted session is rebuilt by the next load.
func (s *Service) SweepIdle(ctx context.Context) int {
	cutoff := s.now().Add(-s.cfg.IdleTTL).UnixNano()
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for k, sl := range s.sessions {
		if sl.lastUsed.Load() > cutoff {
			continue
		}
		if !sl.mu.TryLock() {
			continue
		}
		delete(s.sessions, k)
		sl.ctrl = nil
		sl.mu.Unlock()
		evicted++
	}
	if evicted > 0 {
		logging.Info(ctx, s.cfg.Logger, "evicted idle scoring sessions",
			slog.Int(logging.FieldCount, evicted),
		)
	}
	return evicted
}

// Active reports how many sessions are held in memory.
func (s *Service) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
