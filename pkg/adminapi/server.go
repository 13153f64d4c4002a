// Package adminapi exposes a Detector's statssink counters over a
// read-only HTTP surface. It never touches a Detect call: a deployment
// can run without ever starting this server, and nothing in pkg/engine
// imports it.
package adminapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/protosentry/detector/pkg/statssink"
)

// APIResponse is the response envelope every handler writes.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Config controls the admin server's listen address and auth.
type Config struct {
	ListenAddr string
	// JWTSecret signs and verifies bearer tokens. Empty disables auth,
	// for local development only.
	JWTSecret []byte
}

// Server serves read-only statssink data over HTTP.
type Server struct {
	config    Config
	sink      *statssink.Sink
	startTime time.Time
	http      *http.Server
}

// NewServer builds a Server over sink. sink must outlive the Server.
func NewServer(config Config, sink *statssink.Sink) *Server {
	return &Server{config: config, sink: sink, startTime: time.Now()}
}

// Start begins serving in a background goroutine and returns
// immediately. Errors after startup are not returned; call Stop to shut
// down cleanly.
func (s *Server) Start() error {
	router := mux.NewRouter()
	router.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/api/stats/protocol/{name}", s.handleProtocolStats).Methods(http.MethodGet)
	router.HandleFunc("/api/stats/method/{name}", s.handleMethodStats).Methods(http.MethodGet)
	router.HandleFunc("/api/healthz", s.handleHealth).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.authMiddleware(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("adminapi server error: %v\n", err)
		}
	}()
	return nil
}

// Stop shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.http == nil {
		return nil
	}
	return s.http.Close()
}

// authMiddleware rejects any request lacking a valid bearer token, when
// a JWT secret is configured. With no secret set, every request passes -
// a deliberate local-dev escape hatch, never the production default.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.config.JWTSecret) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		if r.URL.Path == "/api/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			s.sendError(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		_, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.config.JWTSecret, nil
		})
		if err != nil {
			s.sendError(w, "invalid bearer token: "+err.Error(), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleStats returns the full snapshot.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, APIResponse{Success: true, Data: s.sink.Snapshot()})
}

// handleProtocolStats returns the count for one protocol name.
func (s *Server) handleProtocolStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	snap := s.sink.Snapshot()
	for t, count := range snap.ByProtocol {
		if strings.EqualFold(t.String(), name) {
			s.sendJSON(w, APIResponse{Success: true, Data: count})
			return
		}
	}
	s.sendError(w, "unknown protocol: "+name, http.StatusNotFound)
}

// handleMethodStats returns the count for one detection method name.
func (s *Server) handleMethodStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	snap := s.sink.Snapshot()
	for m, count := range snap.ByMethod {
		if strings.EqualFold(m.String(), name) {
			s.sendJSON(w, APIResponse{Success: true, Data: count})
			return
		}
	}
	s.sendError(w, "unknown method: "+name, http.StatusNotFound)
}

// handleHealth reports liveness, never gated by auth.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, APIResponse{Success: true, Data: map[string]interface{}{
		"uptime_seconds": time.Since(s.startTime).Seconds(),
		"goroutines":     runtime.NumGoroutine(),
	}})
}

func (s *Server) sendJSON(w http.ResponseWriter, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(APIResponse{Success: false, Error: message})
}
