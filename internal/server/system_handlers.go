package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/folioworks/folio/internal/database"
	"github.com/folioworks/folio/internal/reliability"
	"github.com/folioworks/folio/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system monitoring and operations endpoints
type SystemHandlers struct {
	db        *database.DB
	events    EventSource
	backups   *reliability.BackupService
	jobs      map[string]scheduler.Job
	runner    *scheduler.Scheduler
	startedAt time.Time
	now       func() time.Time
	resources func() (cpuPct, ramPct float64)
	log       zerolog.Logger
}

// NewSystemHandlers creates a new system handlers instance. backups may be nil.
func NewSystemHandlers(
	db *database.DB,
	source EventSource,
	backups *reliability.BackupService,
	log zerolog.Logger,
) *SystemHandlers {
	h := &SystemHandlers{
		db:        db,
		events:    source,
		backups:   backups,
		jobs:      make(map[string]scheduler.Job),
		startedAt: time.Now(),
		now:       time.Now,
		log:       log.With().Str("handler", "system").Logger(),
	}
	h.resources = h.systemResources
	return h
}

// SetJobs registers jobs for manual triggering via API
func (h *SystemHandlers) SetJobs(runner *scheduler.Scheduler, jobs map[string]scheduler.Job) {
	h.runner = runner
	h.jobs = jobs
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string          `json:"status"` // "healthy" or "unhealthy"
	UptimeSeconds int64           `json:"uptimeSeconds"`
	CPUPercent    float64         `json:"cpuPercent"`
	RAMPercent    float64         `json:"ramPercent"`
	Subscribers   int             `json:"subscribers"`
	Jobs          []string        `json:"jobs"`
	Database      *database.Stats `json:"database,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(h.now().Sub(h.startedAt).Seconds()),
		Jobs:          h.jobNames(),
	}
	response.CPUPercent, response.RAMPercent = h.resources()
	if h.events != nil {
		response.Subscribers = h.events.SubscriberCount()
	}

	if err := h.db.QuickCheck(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Database ping failed")
		response.Status = "unhealthy"
		response.Error = err.Error()
	} else if stats, err := h.db.GetStats(); err == nil {
		response.Database = stats
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, response)
}

// HandleListJobs handles GET /api/system/jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": h.jobNames()})
}

// HandleTriggerJob handles POST /api/system/jobs/{name}. The job runs
// synchronously and its error, if any, is reported in the body.
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok || h.runner == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "message": "Job not registered"})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")
	if err := h.runner.RunNow(job); err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": name + " completed"})
}

// HandleListBackups handles GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "message": "Backups not configured"})
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, "Failed to list backups", http.StatusBadGateway)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"backups": backups})
}

func (h *SystemHandlers) jobNames() []string {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// systemResources samples CPU over 100ms and reads memory usage
func (h *SystemHandlers) systemResources() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}
	return cpuPercent[0], memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
