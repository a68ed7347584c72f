package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Статусы проверки
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthChecker интерфейс для проверки здоровья консоли
type HealthChecker interface {
	Check(ctx context.Context) *HealthStatus
}

// HealthStatus представляет итог проверки
type HealthStatus struct {
	Status    string            `json:"status" yaml:"status"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Services  map[string]Status `json:"services,omitempty" yaml:"services,omitempty"`
	Version   string            `json:"version,omitempty" yaml:"version,omitempty"`
}

// Status представляет статус одной зависимости
type Status struct {
	Status  string        `json:"status" yaml:"status"`
	Details string        `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration `json:"latency" yaml:"latency"`
}

// Probe проверяет одну зависимость
type Probe func(ctx context.Context) error

// Checker опрашивает зарегистрированные зависимости параллельно
type Checker struct {
	version string
	timeout time.Duration

	mu     sync.RWMutex
	probes map[string]Probe
}

// NewChecker создает Checker
func NewChecker(version string, timeout time.Duration) *Checker {
	return &Checker{
		version: version,
		timeout: timeout,
		probes:  make(map[string]Probe),
	}
}

// Register добавляет зависимость
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	c.probes[name] = probe
	c.mu.Unlock()
}

// Names возвращает имена зависимостей в порядке сортировки
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check опрашивает все зависимости. Итог healthy, только если здоровы все.
func (c *Checker) Check(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	probes := make(map[string]Probe, len(c.probes))
	for name, probe := range c.probes {
		probes[name] = probe
	}
	c.mu.RUnlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result := &HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Services:  make(map[string]Status, len(probes)),
		Version:   c.version,
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, probe := range probes {
		wg.Add(1)
		go func(name string, probe Probe) {
			defer wg.Done()

			start := time.Now()
			err := probe(ctx)
			status := Status{Status: StatusHealthy, Latency: time.Since(start)}
			if err != nil {
				status.Status = StatusUnhealthy
				status.Details = err.Error()
			}

			mu.Lock()
			result.Services[name] = status
			if err != nil {
				result.Status = StatusUnhealthy
			}
			mu.Unlock()
		}(name, probe)
	}
	wg.Wait()

	return result
}

// Handler создает HTTP обработчик для health check эндпоинта.
// Возвращает 503, если хотя бы одна зависимость нездорова.
func Handler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := checker.Check(r.Context())

		code := http.StatusOK
		if status.Status != StatusHealthy {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	}
}

// LiveHandler создает HTTP обработчик для live check эндпоинта
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}
