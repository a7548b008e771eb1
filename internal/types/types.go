package types

import (
	"encoding/json"
	"time"
)

// FaceBox is a single face region as reported by the upstream detector.
// The coordinate space is not declared by the detector: values may be
// fractions of the image size or absolute pixels (see geometry.ToPixelRect).
type FaceBox struct {
	XMin        float64  `json:"x_min"`
	YMin        float64  `json:"y_min"`
	XMax        float64  `json:"x_max"`
	YMax        float64  `json:"y_max"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Probability *float64 `json:"probability,omitempty"` // CompreFace naming
}

// Score returns the detector confidence, if the detector reported one.
func (b FaceBox) Score() (float64, bool) {
	if b.Confidence != nil {
		return *b.Confidence, true
	}
	if b.Probability != nil {
		return *b.Probability, true
	}
	return 0, false
}

// FaceResult wraps a box the way the detector nests it.
type FaceResult struct {
	Box FaceBox `json:"box"`
}

// DetectResponse matches the JSON body returned by the detector and passed
// through the proxy unchanged: {"result": [{"box": {...}}, ...]}
type DetectResponse struct {
	Result []FaceResult `json:"result"`
}

// Boxes returns the boxes in detector order.
func (r *DetectResponse) Boxes() []FaceBox {
	if r == nil {
		return nil
	}
	out := make([]FaceBox, 0, len(r.Result))
	for _, res := range r.Result {
		out = append(out, res.Box)
	}
	return out
}

// Rectangle is an axis-aligned region in pixel space with a top-left origin.
// Width or Height may be zero or negative before clamping.
type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle covers no pixels.
func (r Rectangle) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// ErrorResult is the body used for every failure response: {"message": "..."}
type ErrorResult struct {
	Message string `json:"message"`
}

// MessageField extracts a non-empty string "message" from a JSON object body.
// Bodies that are not JSON objects, regardless of their declared content
// type, report false.
func MessageField(body []byte) (string, bool) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil || m == nil {
		return "", false
	}
	s, ok := m["message"].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// MessageText returns the "message" field of a JSON object body whenever the
// field is present, even if empty. Non-string values are returned as their
// JSON text.
func MessageText(body []byte) (string, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil || m == nil {
		return "", false
	}
	raw, ok := m["message"]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw), true
	}
	return s, true
}

// RequestRecord is one audited proxy request. It never holds image data,
// boxes or messages.
type RequestRecord struct {
	ReceivedAt time.Time
	Status     int
	Outcome    string
	UpstreamMS int64
	Faces      int
}
