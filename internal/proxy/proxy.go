// Package proxy relays uploads to the upstream face detector. The API key
// stays on the server; clients only ever see localized messages.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/andresmejia3/facemask/internal/config"
	"github.com/andresmejia3/facemask/internal/faceerr"
	"github.com/andresmejia3/facemask/internal/messages"
	"github.com/andresmejia3/facemask/internal/types"
	"github.com/andresmejia3/facemask/internal/utils"
)

const (
	// FieldName is the multipart field read from clients and sent upstream.
	FieldName = "file"
	// APIKeyHeader carries the upstream credential.
	APIKeyHeader = "x-api-key"

	maxMemory = 10 << 20
)

// Outcomes recorded for requests that never reach classification.
const (
	OutcomeOK      = "ok"
	OutcomeMethod  = "method"
	OutcomeConfig  = "config"
	OutcomeNoFile  = "no_file"
	OutcomeTimeout = "timeout"
	OutcomeNetwork = "network"
)

// Recorder receives one record per handled request.
type Recorder interface {
	RecordRequest(ctx context.Context, rec types.RequestRecord) error
}

// Handler serves POST /detection-proxy.
type Handler struct {
	cfg      config.Proxy
	http     *http.Client
	recorder Recorder
}

// New builds a handler around configuration read at startup. rec may be nil.
// A non-positive timeout falls back to config.DefaultTimeout.
func New(cfg config.Proxy, rec Recorder) *Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultTimeout
	}
	return &Handler{
		cfg:      cfg,
		http:     &http.Client{},
		recorder: rec,
	}
}

// reply is what the handler decided to send back.
type reply struct {
	status   int
	body     []byte
	outcome  string
	upstream time.Duration
	faces    int
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	received := time.Now()
	rep := h.handle(r)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(rep.body)))
	w.WriteHeader(rep.status)
	_, _ = w.Write(rep.body)

	// The client must have its answer before the audit write starts.
	if err := http.NewResponseController(w).Flush(); err != nil {
		log.Printf("[proxy] flush failed: %v", err)
	}

	h.record(r.Context(), types.RequestRecord{
		ReceivedAt: received,
		Status:     rep.status,
		Outcome:    rep.outcome,
		UpstreamMS: rep.upstream.Milliseconds(),
		Faces:      rep.faces,
	})
}

func (h *Handler) handle(r *http.Request) reply {
	if r.Method != http.MethodPost {
		return errorReply(http.StatusMethodNotAllowed, messages.MethodNotAllowed, OutcomeMethod)
	}

	if !h.cfg.Complete() {
		err := &faceerr.ConfigurationError{Message: messages.MissingConfig}
		log.Printf("[proxy] refusing to forward: %v", err)
		return errorReply(http.StatusInternalServerError, err.Message, OutcomeConfig)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return errorReply(http.StatusBadRequest, messages.MissingFile, OutcomeNoFile)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(FieldName)
	if err != nil {
		return errorReply(http.StatusBadRequest, messages.MissingFile, OutcomeNoFile)
	}
	defer file.Close()

	start := time.Now()
	status, raw, err := h.forward(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	elapsed := time.Since(start)
	if err != nil {
		var to *faceerr.TimeoutError
		if errors.As(err, &to) {
			log.Printf("[upstream] timeout after %v: %v", elapsed, to.Cause)
			rep := errorReply(http.StatusBadGateway, to.Message, OutcomeTimeout)
			rep.upstream = elapsed
			return rep
		}
		log.Printf("[upstream] request failed: %v", errors.Unwrap(err))
		rep := errorReply(http.StatusBadGateway, faceerr.Message(err), OutcomeNetwork)
		rep.upstream = elapsed
		return rep
	}

	if status < 200 || status > 299 {
		rawMsg, ok := types.MessageText(raw)
		if !ok {
			rawMsg = string(raw)
		}
		category := messages.Classify(rawMsg)
		log.Printf("[upstream] error status=%d message=%q", status, rawMsg)
		rep := errorReply(status, category.Text(), string(category))
		rep.upstream = elapsed
		return rep
	}

	rep := reply{status: http.StatusOK, outcome: OutcomeOK, upstream: elapsed}
	if json.Valid(raw) {
		rep.body = raw
		var parsed types.DetectResponse
		if json.Unmarshal(raw, &parsed) == nil {
			rep.faces = len(parsed.Result)
		}
	} else {
		// Unparsable success bodies are passed on as a JSON string
		rep.body, _ = json.Marshal(string(raw))
	}
	return rep
}

// forward re-wraps the upload and posts it upstream under the configured
// timeout. The returned error is a TimeoutError or NetworkError.
func (h *Handler) forward(ctx context.Context, filename, contentType string, file io.Reader) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := utils.WriteFilePart(mw, FieldName, filename, contentType, file); err != nil {
		return 0, nil, &faceerr.NetworkError{Message: messages.ProxyNetwork, Cause: err}
	}
	if err := mw.Close(); err != nil {
		return 0, nil, &faceerr.NetworkError{Message: messages.ProxyNetwork, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.UpstreamURL, body)
	if err != nil {
		return 0, nil, &faceerr.NetworkError{Message: messages.ProxyNetwork, Cause: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(APIKeyHeader, h.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := h.http.Do(req)
	if err != nil {
		return 0, nil, h.transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, h.transportError(ctx, err)
	}
	return resp.StatusCode, raw, nil
}

func (h *Handler) transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &faceerr.TimeoutError{Message: messages.ProxyTimeout(h.cfg.Timeout.Milliseconds()), Cause: err}
	}
	return &faceerr.NetworkError{Message: messages.ProxyNetwork, Cause: err}
}

func (h *Handler) record(ctx context.Context, rec types.RequestRecord) {
	if h.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := h.recorder.RecordRequest(ctx, rec); err != nil {
		log.Printf("[audit] failed to record request: %v", err)
	}
}

func errorReply(status int, message, outcome string) reply {
	body, _ := json.Marshal(types.ErrorResult{Message: message})
	return reply{status: status, body: body, outcome: outcome}
}
