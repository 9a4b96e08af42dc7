package api

import (
	"context"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/internal/serverstate"
)

// HostStats summarizes the machine the relay runs on.
type HostStats struct {
	CPUs       int     `json:"cpus"`
	MemTotal   uint64  `json:"mem_total_bytes"`
	MemUsed    uint64  `json:"mem_used_bytes"`
	MemUsedPct float64 `json:"mem_used_percent"`
}

// StateResponse is returned by GET /api/state.
type StateResponse struct {
	Status   string     `json:"status"`
	Draining bool       `json:"draining"`
	Inflight int64      `json:"inflight"`
	Version  string     `json:"version,omitempty"`
	Host     *HostStats `json:"host,omitempty"`
}

func hostStats(ctx context.Context) *HostStats {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		logx.Log.Debug().Err(err).Msg("read memory stats")
		return nil
	}
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		logx.Log.Debug().Err(err).Msg("read cpu count")
	}
	return &HostStats{CPUs: n, MemTotal: vm.Total, MemUsed: vm.Used, MemUsedPct: vm.UsedPercent}
}

// StateHandler reports drain status, open prediction streams and host stats.
func StateHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := serverstate.Snapshot()
		writeJSON(w, http.StatusOK, StateResponse{
			Status:   st.Status,
			Draining: st.Draining,
			Inflight: serverstate.Inflight(),
			Version:  version,
			Host:     hostStats(r.Context()),
		})
	}
}

// HealthzHandler answers 200 while serving and 503 once draining.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if serverstate.IsDraining() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": serverstate.StatusDraining})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
