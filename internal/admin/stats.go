// AngelaMos | 2026
// stats.go

package admin

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

const pingTimeout = 2 * time.Second

// Pool is a connection pool whose health and counters are reported under
// Name.
type Pool struct {
	Name  string
	Ping  func(ctx context.Context) error
	Stats func() any
}

func DatabasePool(db *core.Database) Pool {
	return Pool{
		Name: "database",
		Ping: db.Ping,
		Stats: func() any {
			s := db.Stats()
			return DBPoolStats{
				MaxOpenConnections: s.MaxOpenConnections,
				OpenConnections:    s.OpenConnections,
				InUse:              s.InUse,
				Idle:               s.Idle,
				WaitCount:          s.WaitCount,
				WaitDuration:       s.WaitDuration.String(),
				MaxIdleClosed:      s.MaxIdleClosed,
				MaxIdleTimeClosed:  s.MaxIdleTimeClosed,
				MaxLifetimeClosed:  s.MaxLifetimeClosed,
			}
		},
	}
}

func RedisPool(r *core.Redis) Pool {
	return Pool{
		Name: "redis",
		Ping: r.Ping,
		Stats: func() any {
			s := r.PoolStats()
			return RedisPoolStats{
				Hits:       s.Hits,
				Misses:     s.Misses,
				Timeouts:   s.Timeouts,
				TotalConns: s.TotalConns,
				IdleConns:  s.IdleConns,
				StaleConns: s.StaleConns,
			}
		},
	}
}

type PoolStatus struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
	Stats   any    `json:"stats,omitempty"`
}

type SystemStats struct {
	Pools   map[string]PoolStatus `json:"pools"`
	Runtime RuntimeStats          `json:"runtime"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion     string `json:"go_version"`
	Goroutines    int    `json:"goroutines"`
	CPUs          int    `json:"cpus"`
	HeapAlloc     uint64 `json:"heap_alloc_bytes"`
	Sys           uint64 `json:"sys_bytes"`
	GCCycles      uint32 `json:"gc_cycles"`
	NotifyClients int    `json:"notify_clients"`
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	out := SystemStats{
		Pools:   make(map[string]PoolStatus, len(h.pools)),
		Runtime: h.runtimeStats(),
	}
	for _, p := range h.pools {
		out.Pools[p.Name] = inspect(r.Context(), p)
	}
	core.OK(w, out)
}

// GetPoolStats reports a single pool without pinging it.
func (h *Handler) GetPoolStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "pool")
	for _, p := range h.pools {
		if p.Name == name && p.Stats != nil {
			core.OK(w, p.Stats())
			return
		}
	}
	core.NotFound(w, "pool")
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.runtimeStats())
}

func inspect(ctx context.Context, p Pool) PoolStatus {
	status := PoolStatus{Healthy: true}
	if p.Ping != nil {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			status.Healthy = false
			status.Error = err.Error()
		}
	}
	if p.Stats != nil {
		status.Stats = p.Stats()
	}
	return status
}

func (h *Handler) runtimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := RuntimeStats{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		CPUs:       runtime.NumCPU(),
		HeapAlloc:  m.HeapAlloc,
		Sys:        m.Sys,
		GCCycles:   m.NumGC,
	}
	if h.clients != nil {
		stats.NotifyClients = h.clients()
	}
	return stats
}
