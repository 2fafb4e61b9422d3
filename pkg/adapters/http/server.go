package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/statechart/internal/presentation/graph"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/ports"
	"github.com/aretw0/statechart/pkg/runner"
	"github.com/go-chi/chi/v5"
)

// Resetter is implemented by engines that can start a fresh run (runner.Loop).
type Resetter interface {
	Reset(ctx context.Context) error
}

// Server exposes a running chart over HTTP.
type Server struct {
	Engine  ports.Engine
	Streams *StreamManager
	Version string

	logger *slog.Logger
	extra  map[string]http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// WithHandler mounts an additional handler, e.g. promhttp on "/metrics".
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.extra[pattern] = h
	}
}

// NewServer creates a server for engine.
func NewServer(engine ports.Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		Version: "dev",
		logger:  slog.Default(),
		extra:   make(map[string]http.Handler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/snapshot", s.GetSnapshot)
	r.Get("/graph", s.GetGraph)
	r.Get("/graph.mmd", s.GetMermaid)
	r.Get("/events", s.SubscribeEvents)
	r.Post("/events/{event}", s.TriggerEvent)
	r.Post("/reset", s.PostReset)
	for pattern, h := range s.extra {
		r.Handle(pattern, h)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Publish broadcasts a configuration change to SSE subscribers.
// Its signature matches runner.ChangeFunc.
func (s *Server) Publish(snap *domain.Snapshot, diff *domain.SnapshotDiff) {
	if diff == nil {
		return
	}
	bytes, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("Publish: diff encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(snap.RunID, string(bytes))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"app":     "statechart-http",
		"version": strings.TrimSpace(s.Version),
	}
	if snap := s.Engine.Snapshot(); snap != nil {
		resp["chart"] = snap.Chart
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetSnapshot handles the GET /snapshot request.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.Engine.Snapshot()
	if snap == nil {
		http.Error(w, "Engine unavailable", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// GetGraph handles the GET /graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Inspect())
}

// GetMermaid handles the GET /graph.mmd request. The active configuration is
// highlighted unless ?overlay=false is passed.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.GraphOverlay
	if r.URL.Query().Get("overlay") != "false" {
		overlay = graph.OverlayFromSnapshot(s.Engine.Snapshot())
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.Engine.Inspect(), overlay))
}

// TriggerEvent handles the POST /events/{event} request.
func (s *Server) TriggerEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := runner.SanitizeEvent(chi.URLParam(r, "event"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid event: %v", err), http.StatusBadRequest)
		s.logger.Warn("TriggerEvent: event rejected", "err", err)
		return
	}

	if err := s.Engine.Trigger(r.Context(), ev); err != nil {
		status := statusFor(err)
		http.Error(w, fmt.Sprintf("Trigger error: %v", err), status)
		if status >= http.StatusInternalServerError {
			s.logger.Error("Trigger failed", "event", ev, "err", err)
		}
		return
	}
	s.GetSnapshot(w, r)
}

// PostReset handles the POST /reset request.
func (s *Server) PostReset(w http.ResponseWriter, r *http.Request) {
	resetter, ok := s.Engine.(Resetter)
	if !ok {
		http.Error(w, "Reset not supported", http.StatusNotImplemented)
		return
	}
	if err := resetter.Reset(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("Reset error: %v", err), statusFor(err))
		s.logger.Error("Reset failed", "err", err)
		return
	}
	s.GetSnapshot(w, r)
}

func statusFor(err error) int {
	var hookErr *domain.HookError
	switch {
	case errors.Is(err, domain.ErrNotRunning), errors.Is(err, domain.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.As(err, &hookErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, runner.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // RunID ("" for every run) -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      slog.Default(),
	}
}

// Subscribe registers a listener for runID, or for every run when runID is empty.
func (sm *StreamManager) Subscribe(runID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(runID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "run_id", runID, "payload_size", len(msg))

	topics := []string{""}
	if runID != "" {
		topics = append(topics, runID)
	}
	for _, topic := range topics {
		for ch := range sm.subscribers[topic] {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "run_id", runID)
			}
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE).
// Query parameters: run_id limits the stream to one run; watch is a comma
// separated subset of "status", "entered" and "exited".
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	runID := r.URL.Query().Get("run_id")
	s.logger.Info("SSE: Subscribing to configuration changes", "run_id", runID)

	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func watched(msg string, fields []string) bool {
	var diff domain.SnapshotDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "status":
			if diff.Status != nil {
				return true
			}
		case "entered":
			if len(diff.Entered) > 0 {
				return true
			}
		case "exited":
			if len(diff.Exited) > 0 {
				return true
			}
		}
	}
	return false
}
