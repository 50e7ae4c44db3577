package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func testRouter(t *testing.T, dir string, store storage.Store) http.Handler {
	t.Helper()
	logger := zerolog.New(&bytes.Buffer{})
	reports := NewReportsHandler(dir, logger)
	runs := NewRunsHandler(store, logger)

	r := chi.NewRouter()
	r.Get("/healthz", HandleHealth)
	r.Get("/reports", reports.HandleList)
	r.Get("/reports/{name}", reports.HandleDownload)
	r.Get("/runs", runs.HandleList)
	return r
}

func TestHandleHealth(t *testing.T) {
	router := testRouter(t, t.TempDir(), storage.NewNoopStore())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandleListReports(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	router := testRouter(t, dir, storage.NewNoopStore())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entries []ReportEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 CSV reports, got %d", len(entries))
	}
	if entries[0].Name != "a.csv" || entries[1].Name != "b.csv" {
		t.Errorf("expected sorted CSV names, got %v", entries)
	}
}

func TestHandleDownload(t *testing.T) {
	dir := t.TempDir()
	content := "Agent/Team,Type\nAnna,Agent\n"
	if err := os.WriteFile(filepath.Join(dir, "report.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	router := testRouter(t, dir, storage.NewNoopStore())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/report.csv", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != content {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Errorf("expected text/csv, got %q", got)
	}
}

func TestHandleDownloadRejectsBadNames(t *testing.T) {
	router := testRouter(t, t.TempDir(), storage.NewNoopStore())

	tests := []struct {
		name string
		path string
		want int
	}{
		{"traversal", "/reports/..%2Fsecrets.csv", http.StatusBadRequest},
		{"wrong extension", "/reports/report.txt", http.StatusBadRequest},
		{"missing file", "/reports/missing.csv", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

type fakeStore struct {
	runs []storage.RunSummary
}

func (s *fakeStore) SaveRun(_ context.Context, run storage.RunSummary) error {
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeStore) ListRuns(_ context.Context, limit int) ([]storage.RunSummary, error) {
	if limit > 0 && limit < len(s.runs) {
		return s.runs[:limit], nil
	}
	return s.runs, nil
}

func TestHandleListRuns(t *testing.T) {
	store := &fakeStore{runs: []storage.RunSummary{
		{RunID: "r1", StartDate: "2025-06-01", EndDate: "2025-06-03", RowCount: 12},
	}}

	router := testRouter(t, t.TempDir(), store)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var runs []storage.RunSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("failed to decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "r1" {
		t.Errorf("unexpected runs payload: %v", runs)
	}
}

func TestHandleListRunsInvalidLimit(t *testing.T) {
	router := testRouter(t, t.TempDir(), storage.NewNoopStore())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?limit=zero", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
