package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/preston-bernstein/archery-score-client/internal/app/competitions"
	"github.com/preston-bernstein/archery-score-client/internal/export"
	"github.com/preston-bernstein/archery-score-client/internal/http/requestutil"
	"github.com/preston-bernstein/archery-score-client/internal/logging"
	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

const defaultMaxPhotoBytes = 10 << 20

// sessionRef identifies the session a request targets.
type sessionRef struct {
	roundID         int
	participationID int
}

// sessionRef parses the round and participation and checks that the
// participation belongs to the calling archer.
func (h *Handler) sessionRef(r *http.Request) (sessionRef, error) {
	roundID, err := requestutil.IntParam(r, "roundID")
	if err != nil {
		return sessionRef{}, err
	}
	pid, err := requestutil.QueryInt(r, "participationID")
	if err != nil {
		return sessionRef{}, err
	}
	if h.competitions == nil {
		return sessionRef{}, competitions.ErrNotParticipant
	}
	if err := h.competitions.CheckParticipation(r.Context(), principal(r).ID, pid); err != nil {
		return sessionRef{}, err
	}
	return sessionRef{roundID: roundID, participationID: pid}, nil
}

type endRef struct {
	sessionRef
	rangeIndex int
	endNumber  int
}

func (h *Handler) endRef(r *http.Request) (endRef, error) {
	ref, err := h.sessionRef(r)
	if err != nil {
		return endRef{}, err
	}
	ri, err := requestutil.IndexParam(r, "rangeIndex")
	if err != nil {
		return endRef{}, err
	}
	en, err := requestutil.IntParam(r, "endNumber")
	if err != nil {
		return endRef{}, err
	}
	return endRef{sessionRef: ref, rangeIndex: ri, endNumber: en}, nil
}

// Eligibility reports whether the participation may score the round.
func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	ref, err := h.sessionRef(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	eligible, err := h.entry.Eligibility(r.Context(), ref.participationID, ref.roundID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"eligible": eligible}, h.logger)
}

// LoadSession builds the session from the backend and any stored draft.
func (h *Handler) LoadSession(w http.ResponseWriter, r *http.Request) {
	ref, err := h.sessionRef(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	ctx := logging.WithLogger(r.Context(), loggerFromContext(r, h.logger).With(
		slog.Int(logging.FieldRoundID, ref.roundID),
		slog.Int(logging.FieldParticipantID, ref.participationID),
	))
	view, err := h.entry.Load(ctx, ref.roundID, ref.participationID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

// GetSession returns the loaded session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ref, err := h.sessionRef(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	view, err := h.entry.Session(ref.roundID, ref.participationID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

type setArrowRequest struct {
	Value  string          `json:"value"`
	Cursor *scoring.Cursor `json:"cursor,omitempty"`
}

// SetArrow writes one arrow at the cursor, or at the given cell.
func (h *Handler) SetArrow(w http.ResponseWriter, r *http.Request) {
	ref, err := h.sessionRef(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var req setArrowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	view, err := h.entry.SetArrow(r.Context(), ref.roundID, ref.participationID, req.Cursor, req.Value)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

type selectCellRequest struct {
	RangeIndex int `json:"rangeIndex"`
	EndNumber  int `json:"endNumber"`
	ArrowIndex int `json:"arrowIndex"`
}

// SelectCell moves the cursor. Locked or out-of-range targets are ignored and
// reported with moved=false.
func (h *Handler) SelectCell(w http.ResponseWriter, r *http.Request) {
	ref, err := h.sessionRef(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var req selectCellRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	view, moved, err := h.entry.SelectCell(ref.roundID, ref.participationID, req.RangeIndex, req.EndNumber, req.ArrowIndex)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": view, "moved": moved}, h.logger)
}

// SubmitEnd sends a complete end to the backend.
func (h *Handler) SubmitEnd(w http.ResponseWriter, r *http.Request) {
	ref, err := h.endRef(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	res, err := h.entry.Submit(r.Context(), ref.roundID, ref.participationID, ref.rangeIndex, ref.endNumber)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res, h.logger)
}

// AttachPhoto stores the raw request body as the end's photo.
func (h *Handler) AttachPhoto(w http.ResponseWriter, r *http.Request) {
	ref, err := h.endRef(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	contentType, err := photoContentType(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, r, http.StatusUnsupportedMediaType, err.Error(), h.logger)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, h.maxPhotoBytes+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read photo", h.logger)
		return
	}
	if int64(len(data)) > h.maxPhotoBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, "photo too large", h.logger)
		return
	}
	photo := scoring.Photo{
		Name:        strings.TrimSpace(r.URL.Query().Get("name")),
		ContentType: contentType,
		Data:        data,
	}
	view, err := h.entry.AttachPhoto(r.Context(), ref.roundID, ref.participationID, ref.rangeIndex, ref.endNumber, photo)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

// RemovePhoto drops the end's photo and keeps its arrows.
func (h *Handler) RemovePhoto(w http.ResponseWriter, r *http.Request) {
	ref, err := h.endRef(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	view, err := h.entry.RemovePhoto(r.Context(), ref.roundID, ref.participationID, ref.rangeIndex, ref.endNumber)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

// Detect fills the end's arrows from its photo.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	ref, err := h.endRef(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	view, err := h.entry.Detect(r.Context(), ref.roundID, ref.participationID, ref.rangeIndex, ref.endNumber)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

// Details returns per-range stats and end scores.
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	ref, err := h.sessionRef(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	d, err := h.entry.Details(ref.roundID, ref.participationID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d, h.logger)
}

// Chart renders the cumulative score after each end as a PNG.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	ref, err := h.sessionRef(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	d, err := h.entry.Details(ref.roundID, ref.participationID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	png, err := export.CumulativeChart(d.Cumulative(), h.palette)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeBytes(w, export.ContentTypePNG, "", png)
}

func photoContentType(header string) (string, error) {
	if header == "" {
		return "", errors.New("content type header is required")
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", fmt.Errorf("invalid content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("photo must be an image, got %s", mediaType)
	}
	return mediaType, nil
}
