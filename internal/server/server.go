package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/utakatalp/league-tally/internal/league"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeJSON = "application/json"

	formatJSON = "json"

	defaultMaxBodyBytes = 1 << 20
)

var errNoStore = errors.New("results store not configured")

// ResultStore is the part of the store the API needs.
type ResultStore interface {
	SaveResults(ctx context.Context, results []league.Result) error
	GetTable(ctx context.Context) (map[string]*league.Record, error)
	DeleteAllResults(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Options tune the HTTP server.
type Options struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// Server serves the tally API. Store may be nil, in which case only
// the stateless routes work.
type Server struct {
	store  ResultStore
	opts   Options
	logger *slog.Logger
}

func New(store ResultStore, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{store: store, opts: opts, logger: logger}
}

// Router returns the routes of the API.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/tally", s.tallyHandler).Methods(http.MethodPost)
	r.HandleFunc("/results", s.importHandler).Methods(http.MethodPost)
	r.HandleFunc("/results", s.resetHandler).Methods(http.MethodDelete)
	r.HandleFunc("/standings", s.standingsHandler).Methods(http.MethodGet)

	return r
}

// Run listens until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Address,
		Handler:      s.Router(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("server started", "address", s.opts.Address)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Error("store ping failed", "error", err)
			writeText(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) tallyHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	table, err := league.Tally(body)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	writeText(w, http.StatusOK, table)
}

func (s *Server) importHandler(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeText(w, http.StatusServiceUnavailable, errNoStore.Error())
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	results, err := league.ParseResults(body)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SaveResults(r.Context(), results); err != nil {
		s.logger.Error("saving results failed", "error", err)
		writeText(w, http.StatusInternalServerError, "error saving results")
		return
	}
	s.logger.Debug("results imported", "count", len(results))
	s.writeJSON(w, http.StatusCreated, map[string]int{"imported": len(results)})
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeText(w, http.StatusServiceUnavailable, errNoStore.Error())
		return
	}
	if err := s.store.DeleteAllResults(r.Context()); err != nil {
		s.logger.Error("deleting results failed", "error", err)
		writeText(w, http.StatusInternalServerError, "error deleting results")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) standingsHandler(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeText(w, http.StatusServiceUnavailable, errNoStore.Error())
		return
	}
	teams, err := s.store.GetTable(r.Context())
	if err != nil {
		s.logger.Error("loading standings failed", "error", err)
		writeText(w, http.StatusInternalServerError, "error loading standings")
		return
	}
	if r.URL.Query().Get("format") == formatJSON {
		s.writeJSON(w, http.StatusOK, league.Standings(teams))
		return
	}
	writeText(w, http.StatusOK, league.TallyTable(teams))
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, "request body too large")
			return "", false
		}
		writeText(w, http.StatusBadRequest, "error reading request body")
		return "", false
	}
	return string(b), true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("error encoding response", "error", err)
	}
}
