// Package ops exposes the process's ambient operational surface: a liveness
// endpoint for whatever supervises the process (systemd, an orchestrator's
// health probe, ...). Grounded on the teacher's app.NewSSEServer/
// StartSSEServer shape (a mux wrapped in an *http.Server), stripped of the
// auth middleware and the /sse handler that server carried — this service
// has no administrative REST surface, only liveness.
package ops

import (
	"fmt"
	"log/slog"
	"net/http"
)

// NewServer builds the ops HTTP server bound to addr. The only route is
// GET /healthz, which reports process liveness unconditionally: it does not
// probe the search backend or upstream, since a slow dependency should not
// make a supervisor consider the process itself dead.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}

// Start builds and runs the ops server, blocking until it stops. Callers
// typically run this in its own goroutine and shut it down via the
// *http.Server's Shutdown once the parent context is cancelled.
func Start(addr string) error {
	srv := NewServer(addr)
	slog.Info("ops server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ops server: %w", err)
	}
	return nil
}
