package health

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	// CacheKey holds the last report for other instances and ops tooling.
	CacheKey      = "health:status"
	cacheTTL      = 2 * time.Minute
	checkTimeout  = 3 * time.Second
	DefaultPeriod = 60 * time.Second
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Component is the outcome of one check.
type Component struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Report is the outcome of one run over all checks.
type Report struct {
	Healthy    bool        `json:"healthy"`
	Components []Component `json:"components"`
	CheckedAt  time.Time   `json:"checked_at"`
}

// Monitor runs the registered checks periodically and keeps the last report.
type Monitor struct {
	mu     sync.RWMutex
	checks map[string]Check
	last   *Report
	client *redis.Client
	stopCh chan struct{}
}

// NewMonitor creates a monitor. With a client the reports are also cached in
// Redis under CacheKey.
func NewMonitor(client *redis.Client) *Monitor {
	return &Monitor{checks: map[string]Check{}, client: client}
}

// Add registers a check under name.
func (m *Monitor) Add(name string, check Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
}

// RunOnce runs every check with its own timeout and stores the report.
func (m *Monitor) RunOnce(ctx context.Context) Report {
	m.mu.RLock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(m.checks))
	for k, v := range m.checks {
		checks[k] = v
	}
	m.mu.RUnlock()
	sort.Strings(names)

	report := Report{Healthy: true, Components: make([]Component, len(names)), CheckedAt: time.Now()}
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			comp := Component{Name: name, Healthy: true}
			if err := checks[name](cctx); err != nil {
				comp.Healthy = false
				comp.Error = err.Error()
			}
			report.Components[i] = comp
		}(i, name)
	}
	wg.Wait()

	for _, comp := range report.Components {
		if !comp.Healthy {
			report.Healthy = false
			log.Warnf("[Health] %s unhealthy: %s", comp.Name, comp.Error)
		}
	}

	m.mu.Lock()
	m.last = &report
	m.mu.Unlock()

	if m.client != nil {
		if b, err := json.Marshal(report); err == nil {
			if err := m.client.Set(ctx, CacheKey, b, cacheTTL).Err(); err != nil {
				log.Debugf("[Health] Caching report failed: %v", err)
			}
		}
	}
	return report
}

// Last returns the latest report, running the checks when none exists yet.
func (m *Monitor) Last(ctx context.Context) Report {
	m.mu.RLock()
	last := m.last
	m.mu.RUnlock()
	if last != nil {
		return *last
	}
	return m.RunOnce(ctx)
}

// Start runs the checks now and then every interval until Stop.
func (m *Monitor) Start(interval time.Duration) {
	m.mu.Lock()
	if m.stopCh != nil {
		m.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	m.stopCh = stopCh
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log.Infof("[Health] Monitor started (interval: %s)", interval)

		m.RunOnce(context.Background())
		for {
			select {
			case <-stopCh:
				log.Info("[Health] Monitor stopped")
				return
			case <-ticker.C:
				m.RunOnce(context.Background())
			}
		}
	}()
}

// Stop ends the background checks.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}
}

var defaultMonitor *Monitor

// SetDefault installs the monitor Handler reports from.
func SetDefault(m *Monitor) {
	defaultMonitor = m
}

// Handler answers with the last report, 503 when a component is down.
// Without a monitor it only confirms the process is up.
func Handler(c *fiber.Ctx) error {
	if defaultMonitor == nil {
		return c.SendString("ok")
	}
	report := defaultMonitor.Last(c.UserContext())
	status := fiber.StatusOK
	if !report.Healthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}
