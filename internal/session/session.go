// Package session owns the surface being edited for one user session.
//
// A session moves Empty -> Loaded on Load, Loaded/Masked -> Masked on Mask and
// back to Empty on Clear. Load replaces the surface wholesale from any state.
package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync"

	"github.com/andresmejia3/facemask/internal/client"
	"github.com/andresmejia3/facemask/internal/faceerr"
	"github.com/andresmejia3/facemask/internal/geometry"
	"github.com/andresmejia3/facemask/internal/messages"
	"github.com/andresmejia3/facemask/internal/render"
	"github.com/andresmejia3/facemask/internal/types"
)

// State is where the session is in its lifecycle.
type State int

const (
	Empty State = iota
	Loaded
	Masked
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Masked:
		return "masked"
	default:
		return "empty"
	}
}

// ErrSessionReset is returned by Mask when the session was cleared or
// reloaded while detection was in flight. The result is discarded.
var ErrSessionReset = errors.New("session was reset during detection")

// Detector is the remote detection call, normally a *client.Client.
type Detector interface {
	DetectFaces(ctx context.Context, u client.Upload) (*types.DetectResponse, error)
}

// MaskOptions tunes a single Mask call.
type MaskOptions struct {
	// MinConfidence skips boxes whose reported score is below it.
	// Boxes without a score are always kept.
	MinConfidence float64
	// OnRegion is called after each region is blurred.
	OnRegion func(done, total int)
}

// MaskResult describes what Mask did.
type MaskResult struct {
	Rects  []types.Rectangle
	Radius int
}

// Session holds the current surface and the upload it came from.
type Session struct {
	mu         sync.Mutex
	state      State
	surface    *image.RGBA
	format     string
	last       *client.Upload
	generation uint64
}

// New returns an empty session.
func New() *Session {
	return &Session{}
}

// State reports the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load validates and decodes u onto a fresh surface.
func (s *Session) Load(u client.Upload) error {
	if err := client.ValidateUpload(u); err != nil {
		return err
	}
	surface, format, err := render.Decode(bytes.NewReader(u.Data))
	if err != nil {
		return &faceerr.ValidationError{Message: messages.InvalidImageFormat}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.surface = surface
	s.format = format
	s.last = &u
	s.state = Loaded
	return nil
}

// Clear drops the surface and the remembered upload.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.surface = nil
	s.format = ""
	s.last = nil
	s.state = Empty
}

// Mask detects faces in the loaded upload and blurs each region in detector
// order. Overlapping regions are blurred once per box.
func (s *Session) Mask(ctx context.Context, d Detector, opts MaskOptions) (*MaskResult, error) {
	s.mu.Lock()
	if s.last == nil {
		s.mu.Unlock()
		return nil, &faceerr.ValidationError{Message: messages.NoImageLoaded}
	}
	upload := *s.last
	gen := s.generation
	s.mu.Unlock()

	res, err := d.DetectFaces(ctx, upload)
	if err != nil {
		return nil, err
	}
	boxes := filterBoxes(res.Boxes(), opts.MinConfidence)
	if len(boxes) == 0 {
		return nil, &faceerr.DetectionError{Message: messages.NoFacesFound}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.surface == nil {
		return nil, ErrSessionReset
	}

	b := s.surface.Bounds()
	radius := render.RadiusFor(b.Dx(), b.Dy())
	rects := geometry.PixelRects(boxes, b.Dx(), b.Dy())
	for i, r := range rects {
		render.BlurRegion(s.surface, r, radius)
		if opts.OnRegion != nil {
			opts.OnRegion(i+1, len(rects))
		}
	}
	s.state = Masked

	return &MaskResult{Rects: rects, Radius: radius}, nil
}

// Snapshot returns the live surface, or nil when nothing is loaded. Callers
// must not mutate it while a Mask may be running.
func (s *Session) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

// Format is the decoder name of the loaded image, e.g. "jpeg".
func (s *Session) Format() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

func filterBoxes(boxes []types.FaceBox, minConfidence float64) []types.FaceBox {
	if minConfidence <= 0 {
		return boxes
	}
	out := boxes[:0:0]
	for _, b := range boxes {
		if score, ok := b.Score(); ok && score < minConfidence {
			continue
		}
		out = append(out, b)
	}
	return out
}
