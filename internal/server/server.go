// Package server exposes optimization jobs over REST and JSON-RPC 2.0.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/copyleftdev/discopt/internal/config"
	apperrors "github.com/copyleftdev/discopt/internal/errors"
	"github.com/copyleftdev/discopt/internal/logging"
	"github.com/copyleftdev/discopt/internal/metrics"
	"github.com/copyleftdev/discopt/internal/optimization"
	"github.com/copyleftdev/discopt/internal/optimization/strategy"
	"github.com/copyleftdev/discopt/internal/problems"
)

// Server runs optimization jobs and serves their state.
// Jobs are kept in memory and bounded by the configured worker count.
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	zap     *zap.Logger
	catalog problems.Catalog
	metrics *metrics.Metrics

	// slots holds one token per running job
	slots chan struct{}
	ctx   context.Context
	stop  context.CancelFunc
	wg    sync.WaitGroup

	mu    sync.RWMutex // protects jobs and order
	jobs  map[string]*job
	order []string
}

// NewServer creates a server instance with the given config, logger and
// metrics.
func NewServer(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) *Server {
	ctx, stop := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger,
		zap:    logging.NewZapLogger(logger),
		catalog: problems.Catalog{
			SchedulePath: cfg.Problems.SchedulePath,
			TripPath:     cfg.Problems.TripPath,
			DormsPath:    cfg.Problems.DormsPath,
		},
		metrics: m,
		slots:   make(chan struct{}, cfg.Optimization.WorkerCount),
		ctx:     ctx,
		stop:    stop,
		jobs:    make(map[string]*job),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
		r.Get("/strategies", s.handleStrategies)
		r.Get("/problems", s.handleProblems)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// Entry is a named item in a listing.
type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StrategyList is returned by the strategies endpoint.
type StrategyList struct {
	Default    string  `json:"default"`
	Strategies []Entry `json:"strategies"`
}

func (s *Server) strategyList() StrategyList {
	desc := strategy.Describe()
	out := StrategyList{Default: s.cfg.Optimization.DefaultStrategy}
	for _, name := range strategy.Names() {
		out.Strategies = append(out.Strategies, Entry{Name: name, Description: desc[name]})
	}
	return out
}

func (s *Server) problemList() []Entry {
	desc := s.catalog.Describe()
	names := make([]string, 0, len(desc))
	for n := range desc {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]Entry, 0, len(names))
	for _, n := range names {
		out = append(out, Entry{Name: n, Description: desc[n]})
	}
	return out
}

// httpStatus maps an error to the response code of the REST API.
func httpStatus(err error) int {
	switch {
	case optimization.IsValidationError(err), apperrors.Is(err, problems.ErrUnknownProblem):
		return http.StatusBadRequest
	case apperrors.Is(err, ErrJobNotFound):
		return http.StatusNotFound
	case apperrors.Is(err, ErrJobFinished):
		return http.StatusConflict
	case apperrors.Is(err, ErrTooManyJobs):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("Failed to write response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.respondJSON(w, httpStatus(err), map[string]string{"error": err.Error()})
}

// handleOptimize handles POST /api/v1/optimize
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, err := s.Start(req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusAccepted, resp)
}

// handleStatus handles GET /api/v1/status/{id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Status(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

// handleCancel handles DELETE /api/v1/optimization/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.Cancel(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.strategyList())
}

func (s *Server) handleProblems(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string][]Entry{"problems": s.problemList()})
}
