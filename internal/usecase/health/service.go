package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates a required component is failing.
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

const defaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type probe struct {
	name     string
	checker  Checker
	required bool
}

// Service coordinates health checks.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service with no probes.
func New() *Service {
	return &Service{timeout: defaultCheckTimeout}
}

// Require adds a probe whose failure makes the service unhealthy.
func (s *Service) Require(name string, c Checker) *Service {
	if c != nil {
		s.probes = append(s.probes, probe{name: name, checker: c, required: true})
	}
	return s
}

// Optional adds a probe whose failure only degrades the service. A nil checker is skipped.
func (s *Service) Optional(name string, c Checker) *Service {
	if c != nil {
		s.probes = append(s.probes, probe{name: name, checker: c})
	}
	return s
}

// WithTimeout sets the per-probe deadline.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs all probes concurrently.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.probes))
	var mu sync.Mutex
	var g errgroup.Group
	status := Healthy

	for _, p := range s.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			res := CheckOK
			if err := p.checker.HealthCheck(pctx); err != nil {
				res = CheckError
			}

			mu.Lock()
			defer mu.Unlock()
			checks[p.name] = res
			switch {
			case res == CheckOK:
			case p.required:
				status = Unhealthy
			case status == Healthy:
				status = Degraded
			}
			return nil
		})
	}
	_ = g.Wait()

	return Report{Status: status, Checks: checks}
}
