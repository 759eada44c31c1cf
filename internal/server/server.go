package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"geotab/internal/pipeline"
	"geotab/internal/storage"

	"github.com/gorilla/mux"
)

// resultSource is the part of the pipeline the server reads from.
type resultSource interface {
	Subscribe() (<-chan pipeline.Result, func())
}

// Server exposes run status over HTTP.
type Server struct {
	addr     string
	store    *storage.Store
	pipeline resultSource
	hub      *hub
	log      *slog.Logger
	server   *http.Server
}

// RunEvent is the wire form of a finished job.
type RunEvent struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Input  string         `json:"input"`
	Output string         `json:"output"`
	Status string         `json:"status"`
	Error  string         `json:"error,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

func newRunEvent(res pipeline.Result) RunEvent {
	ev := RunEvent{
		ID:     res.Job.ID,
		Type:   string(res.Job.Type),
		Input:  res.Job.InputPath,
		Output: res.Job.Output,
		Status: "completed",
		Meta:   res.Meta,
	}
	if res.Error != nil {
		ev.Status = "failed"
		ev.Error = res.Error.Error()
	}
	return ev
}

// RunDetail is a run with everything recorded about it.
type RunDetail struct {
	ID       string                       `json:"id"`
	Meta     map[string]any               `json:"meta"`
	Volumes  []storage.VolumeResult       `json:"volumes"`
	Failures []storage.ObservationFailure `json:"failures"`
}

// NewServer creates a server reporting on store and pipe.
func NewServer(addr string, store *storage.Store, pipe resultSource, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		addr:     addr,
		store:    store,
		pipeline: pipe,
		hub:      newHub(log),
		log:      log,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.setupRoutes(r)
	return r
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	feed, unsubscribe := s.pipeline.Subscribe()
	defer unsubscribe()
	go s.hub.run(ctx, feed)

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		s.log.Info("shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctxShutdown)
	}()

	s.log.Info("server starting", "addr", s.addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) setupRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/runs", s.handleRuns).Methods("GET")
	r.HandleFunc("/runs/{id}", s.handleRun).Methods("GET")
	r.HandleFunc("/stream", s.handleRunStream).Methods("GET")
	r.HandleFunc("/ws", s.hub.handleWebSocket).Methods("GET")
}

// Serve runs a server until ctx is done.
func Serve(ctx context.Context, addr string, store *storage.Store, pipe resultSource, log *slog.Logger) error {
	return NewServer(addr, store, pipe, log).Start(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.RecentRuns(100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, recs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	meta, err := s.store.RunMeta(id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	vols, err := s.store.VolumeResults(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	failures, err := s.store.ObservationFailures(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, RunDetail{ID: id, Meta: meta, Volumes: vols, Failures: failures})
}

func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	resCh, unsubscribe := s.pipeline.Subscribe()
	defer unsubscribe()
	flusher.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case res, ok := <-resCh:
			if !ok {
				return
			}
			payload, _ := json.Marshal(newRunEvent(res))
			_, _ = w.Write([]byte("data: " + string(payload) + "\n\n"))
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
