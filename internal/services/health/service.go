package health

import (
	"context"
	"sort"
	"time"
)

const checkTimeout = 2 * time.Second

// Check verifies one dependency.
type Check func(ctx context.Context) error

// Service runs the registered dependency checks.
type Service struct {
	checks map[string]Check
}

// NewService constructs a health service with no checks.
func NewService() *Service {
	return &Service{checks: map[string]Check{}}
}

// Register adds a named check. Registering a name twice replaces it.
func (s *Service) Register(name string, check Check) {
	s.checks[name] = check
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Status is the health payload.
type Status struct {
	OK     bool          `json:"ok"`
	Checks []CheckResult `json:"checks,omitempty"`
}

// Status runs every check with a short timeout.
func (s *Service) Status(ctx context.Context) Status {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := Status{OK: true}
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := s.checks[name](checkCtx)
		cancel()
		res := CheckResult{Name: name, OK: err == nil}
		if err != nil {
			res.Error = err.Error()
			out.OK = false
		}
		out.Checks = append(out.Checks, res)
	}
	return out
}
