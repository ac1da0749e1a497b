package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/fundwatch/internal/database"
	"github.com/aristath/fundwatch/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system monitoring and job trigger endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	databases   []*database.DB
	scheduler   *scheduler.Scheduler
	jobs        map[string]scheduler.Job
}

// NewSystemHandlers creates the system handlers. sched may be nil.
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
		log:         log.With().Str("handler", "system").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		databases:   databases,
		scheduler:   sched,
		jobs:        byName,
	}
}

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Status        string                     `json:"status"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	GoVersion     string                     `json:"go_version"`
	Goroutines    int                        `json:"goroutines"`
	CPUPercent    float64                    `json:"cpu_percent"`
	MemoryPercent float64                    `json:"memory_percent"`
	DiskFreeBytes uint64                     `json:"disk_free_bytes"`
	Databases     map[string]*database.Stats `json:"databases"`
	Jobs          []scheduler.JobInfo        `json:"jobs"`
}

// HandleSystemStatus returns process, host, database and scheduler status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Databases:     make(map[string]*database.Stats, len(h.databases)),
		Jobs:          h.jobInfos(),
	}

	if h.dataDir != "" {
		if usage, err := disk.Usage(h.dataDir); err == nil {
			response.DiskFreeBytes = usage.Free
		} else {
			h.log.Warn().Err(err).Msg("Failed to read disk usage")
		}
	}

	for _, db := range h.databases {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			response.Status = "degraded"
			continue
		}
		response.Databases[db.Name()] = stats
	}

	writeJSON(w, http.StatusOK, response, h.log)
}

// HandleJobsStatus lists scheduled jobs and which jobs can be triggered
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scheduled": h.jobInfos(),
		"available": names,
	}, h.log)
}

// HandleRunJob starts a job in the background
// POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown job: "+name, h.log)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job run triggered")

	go func() {
		var err error
		if h.scheduler != nil {
			err = h.scheduler.RunNow(job)
		} else {
			err = job.Run()
		}
		if err != nil {
			h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "success",
		"message": name + " started",
	}, h.log)
}

func (h *SystemHandlers) jobInfos() []scheduler.JobInfo {
	if h.scheduler == nil {
		return []scheduler.JobInfo{}
	}
	return h.scheduler.Jobs()
}

// getSystemStats returns CPU and RAM usage percentages, sampling CPU for 100ms
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
