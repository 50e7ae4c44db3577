package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ReportEntry describes one finished report file.
type ReportEntry struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
}

// ReportsHandler serves finished CSV reports from the output directory.
type ReportsHandler struct {
	dir    string
	logger zerolog.Logger
}

// NewReportsHandler creates a new ReportsHandler
func NewReportsHandler(dir string, logger zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		dir:    dir,
		logger: logger.With().Str("component", "reports").Logger(),
	}
}

// HandleList handles GET /reports
func (h *ReportsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		h.logger.Error().Err(err).Str("dir", h.dir).Msg("failed to read report directory")
		http.Error(w, "failed to list reports", http.StatusInternalServerError)
		return
	}

	reports := make([]ReportEntry, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		reports = append(reports, ReportEntry{Name: entry.Name(), Bytes: info.Size()})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Name < reports[j].Name })

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reports)
}

// HandleDownload handles GET /reports/{name}
func (h *ReportsHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	// Reject anything that could escape the report directory.
	if err != nil || name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, ".csv") {
		http.Error(w, "invalid report name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.dir, name)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	http.ServeFile(w, r, path)
}

// RunsHandler serves stored export run summaries.
type RunsHandler struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewRunsHandler creates a new RunsHandler
func NewRunsHandler(store storage.Store, logger zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		store:  store,
		logger: logger.With().Str("component", "runs").Logger(),
	}
}

// HandleList handles GET /runs
func (h *RunsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list runs")
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []storage.RunSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// HandleHealth handles GET /healthz
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
