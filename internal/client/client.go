// Package client talks to the detection proxy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/andresmejia3/facemask/internal/faceerr"
	"github.com/andresmejia3/facemask/internal/messages"
	"github.com/andresmejia3/facemask/internal/types"
	"github.com/andresmejia3/facemask/internal/utils"
)

const (
	// Endpoint is the only path the client ever calls.
	Endpoint = "/detection-proxy"
	// FieldName is the multipart field carrying the image.
	FieldName = "file"
	// MaxBytes is the largest upload accepted.
	MaxBytes = 5 * 1024 * 1024
)

// AllowedTypes lists the image MIME types accepted for upload.
var AllowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Upload is an image file chosen by the user.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// ValidateUpload enforces the type allow-list and size limit.
func ValidateUpload(u Upload) error {
	if !AllowedTypes[u.ContentType] {
		return &faceerr.ValidationError{Message: messages.UnsupportedType}
	}
	if len(u.Data) > MaxBytes {
		return &faceerr.ValidationError{Message: messages.FileTooLarge}
	}
	return nil
}

// Client sends uploads to the detection proxy. It makes exactly one attempt
// per call; retrying is up to the caller.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the proxy served at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			// The proxy never redirects; a redirect is reported, not followed.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// DetectFaces validates u, posts it to the proxy and returns the detector's
// result. Failures are faceerr types carrying the user-facing message.
func (c *Client) DetectFaces(ctx context.Context, u Upload) (*types.DetectResponse, error) {
	if err := ValidateUpload(u); err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := utils.WriteFilePart(mw, FieldName, u.Name, u.ContentType, bytes.NewReader(u.Data)); err != nil {
		return nil, fmt.Errorf("build request body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &faceerr.NetworkError{Message: messages.ClientNetwork, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &faceerr.NetworkError{Message: messages.ClientNetwork, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &faceerr.DetectionError{Status: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}

	var out *types.DetectResponse
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return nil, &faceerr.MalformedResponseError{Message: messages.MalformedReply, Cause: err}
	}
	return out, nil
}

// errorMessage picks the message of a failed response: the JSON "message"
// field, else the trimmed body text, else a generic status line.
func errorMessage(raw []byte, status int) string {
	if msg, ok := types.MessageField(raw); ok {
		return msg
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return messages.StatusError(status)
}
