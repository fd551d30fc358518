package http

import (
	"bytes"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/archery-score-client/internal/app/competitions"
	"github.com/preston-bernstein/archery-score-client/internal/app/entry"
	"github.com/preston-bernstein/archery-score-client/internal/app/ranking"
	"github.com/preston-bernstein/archery-score-client/internal/app/verify"
	"github.com/preston-bernstein/archery-score-client/internal/auth"
	"github.com/preston-bernstein/archery-score-client/internal/backend/fixture"
	"github.com/preston-bernstein/archery-score-client/internal/detection"
	"github.com/preston-bernstein/archery-score-client/internal/drafts"
	"github.com/preston-bernstein/archery-score-client/internal/export"
	"github.com/preston-bernstein/archery-score-client/internal/http/handlers"
	"github.com/preston-bernstein/archery-score-client/internal/janitor"
	"github.com/preston-bernstein/archery-score-client/internal/testutil"
)

const (
	archerID      = 1
	maxPhotoBytes = 1 << 10
)

type harness struct {
	t      *testing.T
	router nethttp.Handler
	tokens *auth.Tokens
	status janitor.Status
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fx := fixture.New(fixture.DefaultSeed)
	logger, _ := testutil.NewBufferLogger()
	tokens := testutil.NewTokens()
	h := &harness{t: t, tokens: tokens}

	entrySvc := entry.NewService(entry.Config{
		Backend:  fx,
		Drafts:   drafts.NewMemoryStore(),
		Detector: detection.Static{Tokens: []string{"X", "10", "9"}},
		Logger:   logger,
	})
	handler := handlers.NewHandler(handlers.Deps{
		Entry:         entrySvc,
		Ranking:       ranking.NewService(fx),
		Verify:        verify.NewService(fx, logger),
		Competitions:  competitions.NewDefaultService(fx),
		Login:         auth.NewLoginService(fx, tokens, logger),
		StatusFn:      func() janitor.Status { return h.status },
		MaxPhotoBytes: maxPhotoBytes,
		Logger:        logger,
	})
	h.router = NewRouter(RouterConfig{Handler: handler, Tokens: tokens, Logger: logger})
	return h
}

func (h *harness) do(method, path, token string, payload any) *httptest.ResponseRecorder {
	h.t.Helper()
	req := testutil.JSONRequest(h.t, method, path, payload)
	if token != "" {
		testutil.WithBearer(req, token)
	}
	return testutil.ServeRequest(h.router, req)
}

func (h *harness) archer() string   { return testutil.ArcherToken(h.t, h.tokens, archerID) }
func (h *harness) recorder() string { return testutil.RecorderToken(h.t, h.tokens, 1) }

func sessionPath(roundID int, suffix string) string {
	return fmt.Sprintf("/rounds/%d/session%s?participationID=%d", roundID, suffix, fixture.ParticipationID(archerID))
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t)
	testutil.AssertStatus(t, h.do(nethttp.MethodGet, "/health", "", nil), nethttp.StatusOK)

	rr := h.do(nethttp.MethodGet, "/ready", "", nil)
	testutil.AssertStatus(t, rr, nethttp.StatusServiceUnavailable)
	var body map[string]string
	testutil.DecodeJSON(t, rr, &body)
	assert.Equal(t, "not ready", body["error"])
	assert.NotEmpty(t, body["requestId"])

	h.status = janitor.Status{LastSuccess: testutil.MustParseRFC3339("2024-05-04T10:00:00Z")}
	testutil.AssertStatus(t, h.do(nethttp.MethodGet, "/ready", "", nil), nethttp.StatusOK)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	rr := h.do(nethttp.MethodPost, "/auth/archer/login", "", map[string]string{"email": fixture.ArcherEmail(archerID), "password": "pw"})
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	var session auth.Session
	testutil.DecodeJSON(t, rr, &session)
	require.NotEmpty(t, session.Value)
	p, err := h.tokens.Validate(session.Value)
	require.NoError(t, err)
	assert.Equal(t, archerID, p.ID)

	rr = h.do(nethttp.MethodPost, "/auth/recorder/login", "", map[string]string{"email": fixture.ArcherEmail(archerID), "password": "pw"})
	testutil.AssertStatus(t, rr, nethttp.StatusUnauthorized)

	rr = h.do(nethttp.MethodPost, "/auth/archer/login", "", map[string]string{"email": "", "password": ""})
	testutil.AssertStatus(t, rr, nethttp.StatusBadRequest)

	rr = h.do(nethttp.MethodPost, "/auth/archer/login", "", map[string]string{"user": "x"})
	testutil.AssertStatus(t, rr, nethttp.StatusBadRequest)
}

func TestAuthAndRoleGates(t *testing.T) {
	h := newHarness(t)

	testutil.AssertStatus(t, h.do(nethttp.MethodGet, "/competitions", "", nil), nethttp.StatusUnauthorized)
	testutil.AssertStatus(t, h.do(nethttp.MethodGet, "/competitions", h.recorder(), nil), nethttp.StatusOK)
	testutil.AssertStatus(t, h.do(nethttp.MethodGet, sessionPath(2, ""), h.recorder(), nil), nethttp.StatusForbidden)
	testutil.AssertStatus(t, h.do(nethttp.MethodGet, "/recorder/rounds/2/pending", h.archer(), nil), nethttp.StatusForbidden)
	testutil.AssertStatus(t, h.do(nethttp.MethodGet, "/nope", "", nil), nethttp.StatusNotFound)
	testutil.AssertStatus(t, h.do(nethttp.MethodDelete, "/health", "", nil), nethttp.StatusMethodNotAllowed)
}

func TestCompetitionBrowsing(t *testing.T) {
	h := newHarness(t)

	rr := h.do(nethttp.MethodGet, "/archer/competitions", h.archer(), nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	var mine struct {
		Competitions []struct {
			ID              int `json:"competitionID"`
			ParticipationID int `json:"participationID"`
		} `json:"competitions"`
	}
	testutil.DecodeJSON(t, rr, &mine)
	require.Len(t, mine.Competitions, 1)
	assert.Equal(t, fixture.ParticipationID(archerID), mine.Competitions[0].ParticipationID)

	rr = h.do(nethttp.MethodGet, "/competitions/1/rounds", h.archer(), nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	var rounds struct {
		Rounds []struct {
			ID int `json:"roundID"`
		} `json:"rounds"`
	}
	testutil.DecodeJSON(t, rr, &rounds)
	assert.Len(t, rounds.Rounds, 2)

	testutil.AssertStatus(t, h.do(nethttp.MethodGet, "/competitions/9/rounds", h.archer(), nil), nethttp.StatusNotFound)
	testutil.AssertStatus(t, h.do(nethttp.MethodGet, "/competitions/abc/rounds", h.archer(), nil), nethttp.StatusBadRequest)
}

func TestScoringFlow(t *testing.T) {
	h := newHarness(t)
	tok := h.archer()

	rr := h.do(nethttp.MethodGet, fmt.Sprintf("/rounds/2/eligibility?participationID=%d", fixture.ParticipationID(archerID)), tok, nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	var el map[string]bool
	testutil.DecodeJSON(t, rr, &el)
	assert.True(t, el["eligible"])

	testutil.AssertStatus(t, h.do(nethttp.MethodGet, sessionPath(2, ""), tok, nil), nethttp.StatusNotFound)

	rr = h.do(nethttp.MethodPost, sessionPath(2, ""), tok, nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	var view entry.View
	testutil.DecodeJSON(t, rr, &view)
	require.Len(t, view.Ranges, 2)
	assert.True(t, view.Ranges[0].Unlocked)
	assert.False(t, view.Ranges[1].Unlocked)

	for i := 0; i < 3; i++ {
		rr = h.do(nethttp.MethodPut, sessionPath(2, "/arrow"), tok, map[string]string{"value": "X"})
		testutil.AssertStatus(t, rr, nethttp.StatusOK)
	}
	view = entry.View{}
	testutil.DecodeJSON(t, rr, &view)
	assert.Equal(t, []string{"X", "X", "X"}, view.Ranges[0].Ends[0].Arrows)
	assert.Equal(t, 3, view.Cursor.ArrowNumber)

	rr = h.do(nethttp.MethodPut, sessionPath(2, "/arrow"), tok, map[string]string{"value": "11"})
	testutil.AssertStatus(t, rr, nethttp.StatusBadRequest)

	rr = h.do(nethttp.MethodPost, sessionPath(2, "/ranges/0/ends/1/submit"), tok, nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	var submitted entry.SubmitResult
	testutil.DecodeJSON(t, rr, &submitted)
	assert.True(t, submitted.View.Ranges[0].Ends[1].Unlocked)
	assert.Empty(t, submitted.Notifications)

	rr = h.do(nethttp.MethodPost, sessionPath(2, "/ranges/0/ends/1/submit"), tok, nil)
	testutil.AssertStatus(t, rr, nethttp.StatusConflict)

	rr = h.do(nethttp.MethodPut, sessionPath(2, "/arrow"), tok, map[string]any{
		"value":  "9",
		"cursor": map[string]int{"rangeIndex": 0, "endNumber": 3, "arrowNumber": 1},
	})
	testutil.AssertStatus(t, rr, nethttp.StatusConflict)

	rr = h.do(nethttp.MethodPut, sessionPath(2, "/cursor"), tok, map[string]int{"rangeIndex": 1, "endNumber": 1, "arrowIndex": 0})
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	var sel struct {
		Moved bool `json:"moved"`
	}
	testutil.DecodeJSON(t, rr, &sel)
	assert.False(t, sel.Moved, "next range is still locked")

	photo := httptest.NewRequest(nethttp.MethodPut, sessionPath(2, "/ranges/0/ends/2/photo")+"&name=end2.png", bytes.NewReader([]byte("\x89PNGdata")))
	photo.Header.Set("Content-Type", "image/png")
	rr = testutil.ServeRequest(h.router, testutil.WithBearer(photo, tok))
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	view = entry.View{}
	testutil.DecodeJSON(t, rr, &view)
	require.NotNil(t, view.Ranges[0].Ends[1].Photo)
	assert.Equal(t, "end2.png", view.Ranges[0].Ends[1].Photo.Name)

	rr = h.do(nethttp.MethodPost, sessionPath(2, "/ranges/0/ends/2/detect"), tok, nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	view = entry.View{}
	testutil.DecodeJSON(t, rr, &view)
	assert.Equal(t, []string{"X", "10", "9"}, view.Ranges[0].Ends[1].Arrows)
	assert.True(t, view.Ranges[0].Ends[1].ScoresDetected)

	rr = h.do(nethttp.MethodGet, sessionPath(2, "/details"), tok, nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	var details entry.Details
	testutil.DecodeJSON(t, rr, &details)
	assert.Equal(t, 59, details.Totals.TotalScore)

	rr = h.do(nethttp.MethodGet, sessionPath(2, "/chart.png"), tok, nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	assert.Equal(t, export.ContentTypePNG, rr.Header().Get("Content-Type"))

	rr = h.do(nethttp.MethodDelete, sessionPath(2, "/ranges/0/ends/2/photo"), tok, nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	view = entry.View{}
	testutil.DecodeJSON(t, rr, &view)
	assert.Nil(t, view.Ranges[0].Ends[1].Photo)
	assert.Equal(t, []string{"X", "10", "9"}, view.Ranges[0].Ends[1].Arrows)
}

func TestPhotoUploadValidation(t *testing.T) {
	h := newHarness(t)
	tok := h.archer()
	testutil.AssertStatus(t, h.do(nethttp.MethodPost, sessionPath(2, ""), tok, nil), nethttp.StatusOK)

	req := httptest.NewRequest(nethttp.MethodPut, sessionPath(2, "/ranges/0/ends/1/photo"), bytes.NewReader([]byte("%PDF")))
	req.Header.Set("Content-Type", "application/pdf")
	testutil.AssertStatus(t, testutil.ServeRequest(h.router, testutil.WithBearer(req, tok)), nethttp.StatusUnsupportedMediaType)

	req = httptest.NewRequest(nethttp.MethodPut, sessionPath(2, "/ranges/0/ends/2/photo"), bytes.NewReader([]byte("img")))
	req.Header.Set("Content-Type", "image/jpeg")
	testutil.AssertStatus(t, testutil.ServeRequest(h.router, testutil.WithBearer(req, tok)), nethttp.StatusConflict)

	req = httptest.NewRequest(nethttp.MethodPut, sessionPath(2, "/ranges/0/ends/1/photo"), bytes.NewReader(make([]byte, maxPhotoBytes+1)))
	req.Header.Set("Content-Type", "image/jpeg")
	testutil.AssertStatus(t, testutil.ServeRequest(h.router, testutil.WithBearer(req, tok)), nethttp.StatusRequestEntityTooLarge)

	req = httptest.NewRequest(nethttp.MethodPut, sessionPath(2, "/ranges/0/ends/1/photo"), bytes.NewReader(make([]byte, maxPhotoBytes)))
	req.Header.Set("Content-Type", "image/jpeg")
	testutil.AssertStatus(t, testutil.ServeRequest(h.router, testutil.WithBearer(req, tok)), nethttp.StatusOK)

	rr := h.do(nethttp.MethodDelete, sessionPath(2, "/ranges/0/ends/1/photo"), tok, nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	rr = h.do(nethttp.MethodPost, sessionPath(2, "/ranges/0/ends/1/detect"), tok, nil)
	testutil.AssertStatus(t, rr, nethttp.StatusBadRequest)
}

func TestSessionRoutesRejectForeignParticipation(t *testing.T) {
	h := newHarness(t)
	tok := h.archer()
	other := fmt.Sprintf("?participationID=%d", fixture.ParticipationID(2))

	for _, tc := range []struct {
		method string
		path   string
		body   any
	}{
		{nethttp.MethodGet, "/rounds/2/eligibility" + other, nil},
		{nethttp.MethodPost, "/rounds/2/session" + other, nil},
		{nethttp.MethodGet, "/rounds/2/session" + other, nil},
		{nethttp.MethodPut, "/rounds/2/session/arrow" + other, map[string]string{"value": "X"}},
		{nethttp.MethodPost, "/rounds/2/session/ranges/0/ends/1/submit" + other, nil},
		{nethttp.MethodGet, "/rounds/2/session/details" + other, nil},
	} {
		rr := h.do(tc.method, tc.path, tok, tc.body)
		testutil.AssertStatus(t, rr, nethttp.StatusForbidden)
	}

	owner := testutil.ArcherToken(t, h.tokens, 2)
	testutil.AssertStatus(t, h.do(nethttp.MethodPost, "/rounds/2/session"+other, owner, nil), nethttp.StatusOK)
	testutil.AssertStatus(t, h.do(nethttp.MethodGet, "/rounds/2/session"+other, tok, nil), nethttp.StatusForbidden)
}

func TestSessionRequestErrors(t *testing.T) {
	h := newHarness(t)
	tok := h.archer()

	testutil.AssertStatus(t, h.do(nethttp.MethodPost, "/rounds/2/session", tok, nil), nethttp.StatusBadRequest)
	testutil.AssertStatus(t, h.do(nethttp.MethodPost, "/rounds/2/session?participationID=999", tok, nil), nethttp.StatusForbidden)
	testutil.AssertStatus(t, h.do(nethttp.MethodGet, sessionPath(2, "/details"), tok, nil), nethttp.StatusNotFound)
	testutil.AssertStatus(t, h.do(nethttp.MethodPost, sessionPath(2, "/ranges/x/ends/1/submit"), tok, nil), nethttp.StatusBadRequest)
}

func TestRankingRoutes(t *testing.T) {
	h := newHarness(t)

	rr := h.do(nethttp.MethodGet, "/competitions/1/rounds/1/ranking", h.archer(), nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	var view ranking.View
	testutil.DecodeJSON(t, rr, &view)
	require.Len(t, view.Groups, 3)
	assert.Equal(t, ranking.Male, view.Groups[0].Partition)
	for _, g := range view.Groups {
		for i, row := range g.Rows {
			assert.Equal(t, i+1, row.Rank)
		}
	}

	rr = h.do(nethttp.MethodGet, "/competitions/1/rounds/1/ranking.xlsx", h.recorder(), nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	assert.Equal(t, export.ContentTypeXLSX, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "ranking-c1-r1.xlsx")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))
}

func TestRecorderVerification(t *testing.T) {
	h := newHarness(t)
	archer := h.archer()
	rec := h.recorder()

	testutil.AssertStatus(t, h.do(nethttp.MethodPost, sessionPath(2, ""), archer, nil), nethttp.StatusOK)
	for _, v := range []string{"9", "9", "8"} {
		testutil.AssertStatus(t, h.do(nethttp.MethodPut, sessionPath(2, "/arrow"), archer, map[string]string{"value": v}), nethttp.StatusOK)
	}
	testutil.AssertStatus(t, h.do(nethttp.MethodPost, sessionPath(2, "/ranges/0/ends/1/submit"), archer, nil), nethttp.StatusOK)

	rr := h.do(nethttp.MethodGet, "/recorder/rounds/2/pending", rec, nil)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	var pending struct {
		Participants []verify.Participant `json:"participants"`
	}
	testutil.DecodeJSON(t, rr, &pending)
	require.Len(t, pending.Participants, 1)
	assert.Equal(t, 26, pending.Participants[0].Total)

	pid := fixture.ParticipationID(archerID)
	rr = h.do(nethttp.MethodPost, "/recorder/rounds/2/pending/confirm", rec, verify.Confirmation{
		ParticipationID: pid, Distance: 50, EndOrder: 1, Arrows: []string{"9", "Z", "8"},
	})
	testutil.AssertStatus(t, rr, nethttp.StatusBadRequest)

	rr = h.do(nethttp.MethodPost, "/recorder/rounds/2/pending/confirm", rec, verify.Confirmation{
		ParticipationID: pid, Distance: 50, EndOrder: 1, Arrows: []string{"9", "9", "9"},
	})
	testutil.AssertStatus(t, rr, nethttp.StatusNoContent)

	rr = h.do(nethttp.MethodPost, "/recorder/rounds/2/pending/confirm", rec, verify.Confirmation{
		ParticipationID: pid, Distance: 50, EndOrder: 1, Arrows: []string{"9", "9", "9"},
	})
	testutil.AssertStatus(t, rr, nethttp.StatusConflict)

	rr = h.do(nethttp.MethodPost, "/recorder/rounds/2/pending/reject", rec, map[string]int{"participationID": pid})
	testutil.AssertStatus(t, rr, nethttp.StatusNoContent)

	rr = h.do(nethttp.MethodPost, "/recorder/rounds/2/pending/reject", rec, map[string]int{})
	testutil.AssertStatus(t, rr, nethttp.StatusBadRequest)
}
