package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthStatus is the state of one component or of the whole process
type HealthStatus string

const (
	HealthStatusUp   HealthStatus = "UP"
	HealthStatusDown HealthStatus = "DOWN"
)

// HealthCheck reports the state of one dependency
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) HealthResult
}

// HealthResult is the outcome of one check
type HealthResult struct {
	Status     HealthStatus           `json:"status"`
	Message    string                 `json:"message,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	DurationMS int64                  `json:"duration_ms"`
}

// HealthReport aggregates every registered check. The process is DOWN when
// any component is DOWN.
type HealthReport struct {
	Status     HealthStatus            `json:"status"`
	CheckedAt  time.Time               `json:"checked_at"`
	Components map[string]HealthResult `json:"components"`
}

// HealthManager runs the registered checks on demand
type HealthManager struct {
	mu      sync.RWMutex
	checks  map[string]HealthCheck
	timeout time.Duration
	logger  *Logger
}

// NewHealthManager creates a manager bounding each report by timeout
func NewHealthManager(timeout time.Duration, logger *Logger) *HealthManager {
	return &HealthManager{
		checks:  make(map[string]HealthCheck),
		timeout: timeout,
		logger:  logger,
	}
}

// RegisterCheck adds check, replacing one with the same name
func (hm *HealthManager) RegisterCheck(check HealthCheck) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checks[check.Name()] = check
}

func (hm *HealthManager) snapshot() []HealthCheck {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	checks := make([]HealthCheck, 0, len(hm.checks))
	for _, check := range hm.checks {
		checks = append(checks, check)
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name() < checks[j].Name() })
	return checks
}

// CheckHealth runs every check concurrently
func (hm *HealthManager) CheckHealth(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, hm.timeout)
	defer cancel()

	checks := hm.snapshot()
	results := make([]HealthResult, len(checks))

	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(i int, check HealthCheck) {
			defer wg.Done()
			start := time.Now()
			results[i] = check.Check(ctx)
			results[i].DurationMS = time.Since(start).Milliseconds()
		}(i, check)
	}
	wg.Wait()

	report := HealthReport{
		Status:     HealthStatusUp,
		CheckedAt:  time.Now(),
		Components: make(map[string]HealthResult, len(checks)),
	}
	for i, check := range checks {
		report.Components[check.Name()] = results[i]
		if results[i].Status != HealthStatusUp {
			report.Status = HealthStatusDown
		}
	}

	if hm.logger != nil && report.Status != HealthStatusUp {
		hm.logger.WarnWithFields("Health check failed", map[string]interface{}{
			"components": len(checks),
		})
	}
	return report
}

// HealthHandler serves the report as JSON, 503 when DOWN
func (hm *HealthManager) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := hm.CheckHealth(r.Context())

		code := http.StatusOK
		if report.Status != HealthStatusUp {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(report)
	}
}

// WarehouseCheck runs the session probe and reports the warehouse version
type WarehouseCheck struct {
	name    string
	timeout time.Duration
	probe   func(ctx context.Context) (string, error)
}

// NewWarehouseCheck creates a check calling probe, which returns the
// warehouse version
func NewWarehouseCheck(name string, timeout time.Duration, probe func(ctx context.Context) (string, error)) *WarehouseCheck {
	return &WarehouseCheck{name: name, timeout: timeout, probe: probe}
}

// Name returns the component name used in the report
func (c *WarehouseCheck) Name() string {
	return c.name
}

// Check runs the probe under the check timeout
func (c *WarehouseCheck) Check(ctx context.Context) HealthResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	version, err := c.probe(ctx)
	if err != nil {
		return HealthResult{
			Status:  HealthStatusDown,
			Message: "Warehouse probe failed",
			Details: map[string]interface{}{"error": err.Error()},
		}
	}
	return HealthResult{
		Status:  HealthStatusUp,
		Message: "Warehouse session usable",
		Details: map[string]interface{}{"version": version},
	}
}
