package handlers

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything the readiness endpoint can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe is one named dependency check. Required probes fail readiness; the
// others only show up as degraded.
type Probe struct {
	Name     string
	Ping     func(ctx context.Context) error
	Required bool
}

// StoreProbe wraps the board store as a required probe.
func StoreProbe(p Pinger) Probe {
	return Probe{Name: "store", Ping: p.Ping, Required: true}
}

type HealthHandler struct {
	driver  string
	version string
	started time.Time
	probes  []Probe
}

func NewHealthHandler(driver, version string, probes ...Probe) *HealthHandler {
	return &HealthHandler{driver: driver, version: version, started: time.Now(), probes: probes}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Liveness only says the process serves HTTP.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness runs every probe concurrently and reports each result.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks, failed, degraded := h.run(ctx)
	checks["store_driver"] = h.driver

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	checks["memory_alloc_mb"] = strconv.FormatFloat(float64(m.Alloc)/(1<<20), 'f', 2, 64)

	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	code := http.StatusOK
	switch {
	case failed:
		resp.Status, code = "unhealthy", http.StatusServiceUnavailable
	case degraded:
		resp.Status = "degraded"
	}
	c.JSON(code, resp)
}

// Health is the short form of Readiness: required probes only, no details.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	for _, p := range h.probes {
		if !p.Required {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": p.Name + " unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

func (h *HealthHandler) run(ctx context.Context) (checks map[string]string, failed, degraded bool) {
	checks = make(map[string]string, len(h.probes)+2)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, p := range h.probes {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Ping(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				checks[p.Name] = "healthy"
				return
			}
			checks[p.Name] = "unhealthy: " + err.Error()
			if p.Required {
				failed = true
			} else {
				degraded = true
			}
		}()
	}
	wg.Wait()
	return checks, failed, degraded
}
