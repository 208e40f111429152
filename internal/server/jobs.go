package server

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/copyleftdev/discopt/internal/errors"
	"github.com/copyleftdev/discopt/internal/metrics"
	"github.com/copyleftdev/discopt/internal/optimization"
	"github.com/copyleftdev/discopt/internal/optimization/genetic"
	"github.com/copyleftdev/discopt/internal/optimization/strategy"
	"github.com/copyleftdev/discopt/internal/problems"
)

// Status is the lifecycle stage of an optimization job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the job can no longer change state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

var (
	// ErrJobNotFound is returned for an unknown optimization id.
	ErrJobNotFound = apperrors.New("optimization not found")
	// ErrJobFinished is returned when cancelling a job that already ended.
	ErrJobFinished = apperrors.New("optimization already finished")
	// ErrTooManyJobs is returned when every retained job is still active.
	ErrTooManyJobs = apperrors.New("too many active optimizations")
)

// StartRequest describes one optimization job.
type StartRequest struct {
	// Strategy defaults to the server's configured strategy.
	Strategy string          `json:"strategy,omitempty"`
	Problem  problems.Spec   `json:"problem"`
	Params   strategy.Params `json:"params,omitempty"`
	// Seed makes the run reproducible. Zero seeds from the clock.
	Seed int64 `json:"seed,omitempty"`
}

// StartResponse acknowledges an accepted job.
type StartResponse struct {
	ID     string `json:"optimization_id"`
	Status Status `json:"status"`
}

// JobStatus is a point-in-time copy of a job.
type JobStatus struct {
	ID          string                     `json:"optimization_id"`
	Strategy    string                     `json:"strategy"`
	Problem     string                     `json:"problem"`
	Status      Status                     `json:"status"`
	CreatedAt   time.Time                  `json:"created_at"`
	StartedAt   *time.Time                 `json:"started_at,omitempty"`
	EndedAt     *time.Time                 `json:"ended_at,omitempty"`
	LastUpdated time.Time                  `json:"last_update"`
	Iteration   int                        `json:"iteration"`
	Evaluations int                        `json:"evaluations"`
	BestCost    *float64                   `json:"best_cost,omitempty"`
	Best        optimization.Candidate     `json:"best,omitempty"`
	Result      *optimization.SearchResult `json:"result,omitempty"`
	Description []string                   `json:"description,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

type job struct {
	state  JobStatus
	cancel context.CancelFunc

	// cost calls so far, whatever way the run ends
	evaluations atomic.Int64
}

// counted wraps cost so every call is added to the job's evaluation count.
func (j *job) counted(cost optimization.CostFunction) optimization.CostFunction {
	return func(c optimization.Candidate) (float64, error) {
		j.evaluations.Add(1)
		return cost(c)
	}
}

func (j *job) snapshot() JobStatus {
	out := j.state
	out.Evaluations = int(j.evaluations.Load())
	out.Best = j.state.Best.Clone()
	if j.state.BestCost != nil {
		c := *j.state.BestCost
		out.BestCost = &c
	}
	if j.state.Result != nil {
		r := *j.state.Result
		r.Candidate = r.Candidate.Clone()
		out.Result = &r
	}
	out.Description = append([]string(nil), j.state.Description...)
	return out
}

// Start validates req, registers a pending job and runs it in the
// background once a worker slot is free.
func (s *Server) Start(req StartRequest) (StartResponse, error) {
	if req.Strategy == "" {
		req.Strategy = s.cfg.Optimization.DefaultStrategy
	}
	if req.Strategy == genetic.Name && req.Params.Workers == 0 {
		req.Params.Workers = s.cfg.Optimization.EvalWorkers
	}

	p, err := s.catalog.Build(req.Problem)
	if err != nil {
		return StartResponse{}, err
	}
	if err := problems.Optimization(p).Validate("server"); err != nil {
		return StartResponse{}, err
	}

	id := "opt_" + uuid.NewString()
	j := &job{}
	opt, err := strategy.New(req.Strategy, req.Params, optimization.Options{
		RandomSeed: req.Seed,
		Logger:     s.zap.With(zap.String("optimization_id", id)),
		Progress:   s.progress(j),
	})
	if err != nil {
		return StartResponse{}, err
	}

	ctx, cancel := context.WithCancel(s.ctx)
	now := time.Now()
	j.state = JobStatus{
		ID:          id,
		Strategy:    opt.Name(),
		Problem:     p.Name(),
		Status:      StatusPending,
		CreatedAt:   now,
		LastUpdated: now,
	}
	j.cancel = cancel

	s.mu.Lock()
	if err := s.makeRoomLocked(); err != nil {
		s.mu.Unlock()
		cancel()
		return StartResponse{}, err
	}
	s.jobs[id] = j
	s.order = append(s.order, id)
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Optimization accepted", map[string]interface{}{
		"optimization_id": id,
		"strategy":        opt.Name(),
		"problem":         p.Name(),
	})

	go s.run(ctx, j, opt, p)
	return StartResponse{ID: id, Status: StatusPending}, nil
}

// makeRoomLocked evicts the oldest finished job once MaxJobs is reached.
func (s *Server) makeRoomLocked() error {
	if len(s.jobs) < s.cfg.Optimization.MaxJobs {
		return nil
	}
	for i, id := range s.order {
		if s.jobs[id].state.Status.Terminal() {
			delete(s.jobs, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			return nil
		}
	}
	return ErrTooManyJobs
}

// Status returns a snapshot of job id.
func (s *Server) Status(id string) (JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return JobStatus{}, ErrJobNotFound
	}
	return j.snapshot(), nil
}

// Cancel stops a pending or running job.
func (s *Server) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if j.state.Status.Terminal() {
		return apperrors.Wrapf(ErrJobFinished, "status %s", j.state.Status)
	}

	j.cancel()
	now := time.Now()
	j.state.Status = StatusCancelled
	j.state.EndedAt = &now
	j.state.LastUpdated = now

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})
	return nil
}

func (s *Server) run(ctx context.Context, j *job, opt optimization.Optimizer, p problems.Problem) {
	defer s.wg.Done()
	defer j.cancel()

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		s.finish(j, nil, nil, ctx.Err())
		return
	}
	if !s.markRunning(j) {
		return
	}

	done := s.metrics.Started(opt.Name())
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Optimization.JobTimeout)
	defer cancel()

	prob := problems.Optimization(p)
	prob.Cost = j.counted(prob.Cost)
	var res *optimization.SearchResult
	err := apperrors.Recover(func() error {
		var err error
		res, err = opt.Optimize(runCtx, prob)
		return err
	})

	var lines []string
	if err == nil {
		var derr error
		if lines, derr = p.Describe(res.Candidate); derr != nil {
			s.logger.WithError(derr).Warn("Cannot describe result", map[string]interface{}{
				"optimization_id": j.state.ID,
			})
		}
	}

	status := s.finish(j, res, lines, err)
	done(metricStatus(status), int(j.evaluations.Load()))
}

func metricStatus(s Status) string {
	switch s {
	case StatusCompleted:
		return metrics.StatusCompleted
	case StatusCancelled:
		return metrics.StatusCancelled
	default:
		return metrics.StatusFailed
	}
}

// markRunning moves a pending job to running. It reports false when the job
// was cancelled while waiting for a slot.
func (s *Server) markRunning(j *job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.state.Status != StatusPending {
		return false
	}
	now := time.Now()
	j.state.Status = StatusRunning
	j.state.StartedAt = &now
	j.state.LastUpdated = now

	s.logger.Info("Optimization started", map[string]interface{}{
		"optimization_id": j.state.ID,
	})
	return true
}

func (s *Server) progress(j *job) optimization.ProgressFunc {
	return func(p optimization.Progress) {
		s.mu.Lock()
		defer s.mu.Unlock()

		j.state.Iteration = p.Iteration
		j.state.LastUpdated = time.Now()
		if j.state.BestCost == nil || p.BestCost < *j.state.BestCost {
			c := p.BestCost
			j.state.BestCost = &c
			j.state.Best = p.Best.Clone()
		}
	}
}

func (s *Server) finish(j *job, res *optimization.SearchResult, lines []string, err error) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	j.state.LastUpdated = now
	if j.state.Status.Terminal() {
		return j.state.Status
	}
	j.state.EndedAt = &now

	fields := map[string]interface{}{
		"optimization_id": j.state.ID,
		"evaluations":     j.evaluations.Load(),
	}
	switch {
	case err == nil:
		j.state.Status = StatusCompleted
		j.state.Result = res
		j.state.Description = lines
		j.state.Best = res.Candidate.Clone()
		cost := res.Cost
		j.state.BestCost = &cost
		fields["cost"] = res.Cost
		s.logger.Info("Optimization completed", fields)
	case apperrors.Is(err, context.Canceled):
		j.state.Status = StatusCancelled
		s.logger.Info("Optimization cancelled", fields)
	case apperrors.Is(err, context.DeadlineExceeded):
		j.state.Status = StatusFailed
		j.state.Error = "timed out after " + s.cfg.Optimization.JobTimeout.String()
		s.logger.Warn("Optimization timed out", fields)
	default:
		j.state.Status = StatusFailed
		j.state.Error = err.Error()
		s.logger.WithError(err).Error("Optimization failed", fields)
	}
	return j.state.Status
}

// Close cancels every job and waits for their goroutines to return.
func (s *Server) Close() error {
	s.stop()
	s.wg.Wait()
	return nil
}
