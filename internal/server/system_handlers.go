package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/riskdesk/internal/database"
	"github.com/aristath/riskdesk/internal/scheduler"
)

// SystemHandlers serves health, status and job trigger endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases []*database.DB
	scheduler *scheduler.Scheduler
	jobs      map[string]scheduler.Job
	started   time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases []*database.DB,
	sched *scheduler.Scheduler,
	jobs []scheduler.Job,
) *SystemHandlers {
	byName := make(map[string]scheduler.Job, len(jobs))
	for _, job := range jobs {
		byName[job.Name()] = job
	}
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		dataDir:   dataDir,
		databases: databases,
		scheduler: sched,
		jobs:      byName,
		started:   time.Now(),
	}
}

// HostInfo describes the machine the service runs on
type HostInfo struct {
	Hostname      string  `json:"hostname"`
	Platform      string  `json:"platform"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	MemoryUsedPct float64 `json:"memory_used_pct"`
	DiskFreeMB    float64 `json:"disk_free_mb"`
	DiskUsedPct   float64 `json:"disk_used_pct"`
}

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	GoVersion     string            `json:"go_version"`
	Goroutines    int               `json:"goroutines"`
	Host          HostInfo          `json:"host"`
	Databases     []*database.Stats `json:"databases"`
	Jobs          []string          `json:"jobs"`
}

// HandleHealth reports whether every database answers
// GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	for _, db := range h.databases {
		if err := db.HealthCheck(ctx); err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Health check failed")
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"database": db.Name(),
			})
			return
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleSystemStatus returns process, host and database statistics
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	resp := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		Host:          h.hostInfo(),
		Databases:     make([]*database.Stats, 0, len(h.databases)),
		Jobs:          h.jobNames(),
	}

	for _, db := range h.databases {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			resp.Status = "degraded"
			continue
		}
		resp.Databases = append(resp.Databases, stats)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": resp,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListJobs lists the jobs that can be triggered manually
// GET /api/system/jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": h.jobNames()})
}

// HandleTriggerJob runs a registered job in the background
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok || h.scheduler == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job: " + name})
		return
	}

	go func() {
		if err := h.scheduler.RunNow(job); err != nil {
			h.log.Error().Err(err).Str("job", name).Msg("Triggered job failed")
		}
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": name + " triggered",
	})
}

// hostInfo collects host statistics, leaving zero values for anything unavailable
func (h *SystemHandlers) hostInfo() HostInfo {
	var info HostInfo

	if hi, err := host.Info(); err == nil {
		info.Hostname = hi.Hostname
		info.Platform = hi.Platform
		info.UptimeSeconds = hi.Uptime
	} else {
		h.log.Warn().Err(err).Msg("Failed to get host info")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemoryUsedPct = vm.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	if h.dataDir != "" {
		if du, err := disk.Usage(h.dataDir); err == nil {
			info.DiskFreeMB = float64(du.Free) / 1024 / 1024
			info.DiskUsedPct = du.UsedPercent
		} else {
			h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to get disk usage")
		}
	}

	return info
}

func (h *SystemHandlers) jobNames() []string {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
