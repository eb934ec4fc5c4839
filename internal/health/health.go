// Package health reports whether the server's dependencies are reachable.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Pinger is a dependency that can report its availability.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// StatusOK is reported for a reachable component.
const StatusOK = "OK"

// Checker pings every registered component concurrently.
type Checker struct {
	timeout time.Duration
	pingers []Pinger
}

func NewChecker(timeout time.Duration, pingers ...Pinger) *Checker {
	return &Checker{timeout: timeout, pingers: pingers}
}

// Check returns a status per component name and whether all of them are OK.
func (c *Checker) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		healthy = true
		status  = make(map[string]string, len(c.pingers))
	)
	for _, p := range c.pingers {
		wg.Add(1)
		go func(p Pinger) {
			defer wg.Done()
			result := StatusOK
			if err := p.Ping(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			status[p.Name()] = result
			if result != StatusOK {
				healthy = false
			}
		}(p)
	}
	wg.Wait()
	return status, healthy
}

// Handler serves the component statuses as JSON, with 503 when any fails.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, healthy := c.Check(r.Context())
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
			failed := make([]string, 0, len(status))
			for name, s := range status {
				if s != StatusOK {
					failed = append(failed, name)
				}
			}
			sort.Strings(failed)
			slog.Warn("Health check failed", "components", failed)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			slog.Error("Failed to write health response", "error", err)
		}
	})
}
