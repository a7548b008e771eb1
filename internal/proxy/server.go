package proxy

import (
	"net/http"
	"time"
)

// Path is where the detection proxy is mounted.
const Path = "/detection-proxy"

// Routes mounts the proxy and a liveness probe.
func Routes(h http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(Path, h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// NewServer wraps the routes in an http.Server. The write timeout leaves room
// for the upstream budget plus the upload itself.
func NewServer(addr string, h http.Handler, upstreamTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           Routes(h),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      upstreamTimeout + 30*time.Second,
	}
}
