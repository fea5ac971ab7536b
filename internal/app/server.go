package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/mcp-reflookup-server/internal/auth"
	"github.com/sha1n/mcp-reflookup-server/internal/config"
	"github.com/sha1n/mcp-reflookup-server/internal/refdata"
)

// StatusProvider reports the reference loader state for the readiness probe.
type StatusProvider interface {
	Status() refdata.Status
}

// readyResponse is the /ready payload.
type readyResponse struct {
	Ready      bool       `json:"ready"`
	Loading    bool       `json:"loading"`
	Generation uint64     `json:"generation"`
	Records    int        `json:"records"`
	Source     string     `json:"source,omitempty"`
	LoadedAt   *time.Time `json:"loaded_at,omitempty"`
}

// StartSSEServer starts the SSE server with authentication
func StartSSEServer(s *mcp.Server, settings *config.Settings, status StatusProvider) error {
	srv, err := NewSSEServer(s, settings, status)
	if err != nil {
		return err
	}

	slog.Info("Server listening (HTTP)", "addr", srv.Addr, "auth_type", settings.Auth.Type)
	return srv.ListenAndServe()
}

// NewSSEServer creates a new SSE server with authentication middleware.
// A nil status provider makes /ready always report ready.
func NewSSEServer(s *mcp.Server, settings *config.Settings, status StatusProvider) (*http.Server, error) {
	// Factory function returns the server instance for each request
	sseHandler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return s
	}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ready", readyHandler(status))
	mux.Handle("/sse", sseHandler)

	authMiddleware, err := auth.NewMiddleware(settings.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}

	handler := authMiddleware(mux)
	addr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)

	return &http.Server{
		Addr:    addr,
		Handler: handler,
	}, nil
}

// readyHandler answers 200 once a dataset has been installed and 503 before.
// During a reload the previous dataset is still served, so it stays ready.
func readyHandler(status StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyResponse{Ready: true}
		if status != nil {
			st := status.Status()
			resp = readyResponse{
				Ready:      st.Ready,
				Loading:    st.Loading,
				Generation: st.Generation,
				Records:    st.Records,
				Source:     st.Source,
			}
			if resp.Ready {
				loadedAt := st.LoadedAt
				resp.LoadedAt = &loadedAt
			}
		}

		code := http.StatusOK
		if !resp.Ready {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
