// Package health provides Kubernetes-style liveness and readiness probes.
// Registered checks run periodically in the background; the HTTP endpoints
// only read the last recorded state, so probes stay cheap even when a check
// is slow.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc is a health check. It returns nil when the checked component is
// healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]
}

func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(checkCtx)
	c.lastErr.Store(&err)
	c.healthy.Store(err == nil)
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
}

// New creates a Health instance. The service starts not ready; call
// SetReady(true) once initialization has finished.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check under the given name.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newCheck(name, timeout, fn))
}

// AddReadinessCheck registers a readiness check under the given name.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newCheck(name, timeout, fn))
}

func newCheck(name string, timeout time.Duration, fn CheckFunc) *check {
	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true) // assume healthy until proven otherwise
	return c
}

// Start launches one background goroutine per registered check, each running
// at the given interval until Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx, h.cancel = context.WithCancel(ctx)
	for _, c := range append(h.liveness[:len(h.liveness):len(h.liveness)], h.readiness...) {
		go func(c *check) {
			c.run(ctx)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}(c)
	}
}

// Stop cancels all background check goroutines.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the top-level readiness gate. The readiness endpoint fails
// while the gate is down regardless of check results.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LiveEndpoint is the HTTP handler for liveness probes.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := h.liveness
	h.mu.RUnlock()

	respond(w, true, checks)
}

// ReadyEndpoint is the HTTP handler for readiness probes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := h.readiness
	h.mu.RUnlock()

	respond(w, h.ready.Load(), checks)
}

func respond(w http.ResponseWriter, gate bool, checks []*check) {
	status := make(map[string]string, len(checks))
	healthy := gate
	for _, c := range checks {
		if c.healthy.Load() {
			status[c.name] = "ok"
			continue
		}
		healthy = false
		if p := c.lastErr.Load(); p != nil && *p != nil {
			status[c.name] = (*p).Error()
		} else {
			status[c.name] = "unhealthy"
		}
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// GoroutineCountCheck returns a liveness check failing when the goroutine
// count exceeds the threshold, an indicator of a leak.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return &GoroutineLeakError{Count: count, Threshold: threshold}
		}
		return nil
	}
}

// GoroutineLeakError reports a goroutine count above the allowed threshold.
type GoroutineLeakError struct {
	Count     int
	Threshold int
}

func (e *GoroutineLeakError) Error() string {
	return fmt.Sprintf("%d goroutines running, threshold %d", e.Count, e.Threshold)
}
