package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 2 * time.Second

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component (cache, embedding) is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the search engine is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentDatabase  = "database"
	ComponentCache     = "cache"
	ComponentEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        Pinger
	cache     Pinger
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. cache and embedding can be nil.
func New(db Pinger, cache Pinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, cache: cache, embedding: embedding, timeout: DefaultCheckTimeout}
}

// WithTimeout overrides the per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// Check runs health checks against all components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)
	var mu sync.Mutex
	record := func(name string, err error) {
		res := CheckOK
		if err != nil {
			res = CheckError
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	// check errors are recorded, never returned, so one failure does not cancel the others
	var g errgroup.Group
	run := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			record(name, fn(cctx))
			return nil
		})
	}

	run(ComponentDatabase, s.db.Ping)
	if s.cache != nil {
		run(ComponentCache, s.cache.Ping)
	}
	if s.embedding != nil {
		run(ComponentEmbedding, s.embedding.HealthCheck)
	}
	_ = g.Wait()

	status := Healthy
	for name, v := range checks {
		if v != CheckError {
			continue
		}
		if name == ComponentDatabase {
			status = Unhealthy
			break
		}
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
