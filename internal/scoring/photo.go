package scoring

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/preston-bernstein/archery-score-client/internal/domain/arrows"
)

// ErrNoPhoto is wrapped when detection is requested without an image attached.
var ErrNoPhoto = errors.New("no photo attached")

// AttachPhoto stores an image on an open end. Changing the photo invalidates
// earlier detection: detected arrows are cleared and ScoresDetected is reset,
// even when the photo they came from was already removed.
func (c *Controller) AttachPhoto(ctx context.Context, rangeIndex, endNumber int, photo Photo) error {
	e, err := c.endAt(rangeIndex, endNumber)
	if err != nil {
		return err
	}
	if err := c.checkOpen(rangeIndex, endNumber, e); err != nil {
		return err
	}
	if !strings.HasPrefix(strings.ToLower(photo.ContentType), "image/") {
		return validation("photo content type", photo.ContentType, "must be an image")
	}
	if len(photo.Data) == 0 {
		return validation("photo", photo.Name, "image is empty")
	}

	if photo.Ref == "" {
		photo.Ref = uuid.NewString()
	}
	photo.Preview = "data:" + photo.ContentType + ";base64," + base64.StdEncoding.EncodeToString(photo.Data)

	if e.ScoresDetected || e.DetectedArrows {
		clear(e.Arrows)
	}
	e.ScoresDetected = false
	e.DetectedArrows = false
	e.Photo = &photo
	c.persist(ctx)
	return nil
}

// RemovePhoto drops the photo, its preview and the detection flag. Arrows
// already written by detection stay in place.
func (c *Controller) RemovePhoto(ctx context.Context, rangeIndex, endNumber int) error {
	e, err := c.endAt(rangeIndex, endNumber)
	if err != nil {
		return err
	}
	if err := c.checkOpen(rangeIndex, endNumber, e); err != nil {
		return err
	}
	e.Photo = nil
	e.ScoresDetected = false
	c.persist(ctx)
	return nil
}

// DetectScores sends the end's photo to the detector and writes the result as
// a draft. The end's arrows are untouched unless the whole result is usable.
// Refocusing the cursor on the end is left to the caller.
func (c *Controller) DetectScores(ctx context.Context, rangeIndex, endNumber int) ([]arrows.Value, error) {
	e, err := c.endAt(rangeIndex, endNumber)
	if err != nil {
		return nil, err
	}
	if err := c.checkOpen(rangeIndex, endNumber, e); err != nil {
		return nil, err
	}
	if e.Photo == nil {
		return nil, &ValidationError{Field: "photo", Reason: ErrNoPhoto.Error()}
	}
	if !e.Photo.HasData() {
		return nil, &ValidationError{Field: "photo", Value: e.Photo.Name, Reason: "image no longer available, attach it again"}
	}
	if c.opts.Detector == nil {
		return nil, &DetectionError{RangeIndex: rangeIndex, EndNumber: endNumber, Err: ErrNoDetector}
	}

	tokens, err := c.opts.Detector.Detect(ctx, *e.Photo)
	if err != nil {
		return nil, &DetectionError{RangeIndex: rangeIndex, EndNumber: endNumber, Err: err}
	}
	detected, err := fitDetected(tokens, len(e.Arrows))
	if err != nil {
		return nil, &DetectionError{RangeIndex: rangeIndex, EndNumber: endNumber, Err: err}
	}

	copy(e.Arrows, detected)
	e.ScoresDetected = true
	e.DetectedArrows = true
	c.persist(ctx)
	return append([]arrows.Value(nil), detected...), nil
}

// fitDetected parses tokens and pads or truncates them to the slot count.
func fitDetected(tokens []string, slots int) ([]arrows.Value, error) {
	if len(tokens) > slots {
		tokens = tokens[:slots]
	}
	parsed, err := arrows.ParseAll(tokens)
	if err != nil {
		return nil, err
	}
	out := make([]arrows.Value, slots)
	copy(out, parsed)
	return out, nil
}
