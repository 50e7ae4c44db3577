package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Metrics holds counters for a single export run. Fold workers for the
// different event streams may update it concurrently.
type Metrics struct {
	mu sync.RWMutex

	// Event metrics
	EventsProcessedTotal int64
	EventsDroppedTotal   int64 // no resolvable owner
	UnknownEntityTotal   int64 // owner id not in the directory
	KindConflictsTotal   int64
	MalformedSamples     int64

	// Fetch metrics
	PagesFetchedTotal   int64
	RequestRetriesTotal int64

	// Report metrics
	RowsWrittenTotal int64

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{startTime: time.Now()}
	})
	return instance
}

// RecordEventProcessed increments the processed event counter.
func (m *Metrics) RecordEventProcessed() {
	m.mu.Lock()
	m.EventsProcessedTotal++
	m.mu.Unlock()
}

// RecordEventDropped increments the counter for events with no owner.
func (m *Metrics) RecordEventDropped() {
	m.mu.Lock()
	m.EventsDroppedTotal++
	m.mu.Unlock()
}

// RecordUnknownEntity increments the counter for owners absent from the
// entity directory.
func (m *Metrics) RecordUnknownEntity() {
	m.mu.Lock()
	m.UnknownEntityTotal++
	m.mu.Unlock()
}

// RecordKindConflict increments the agent/team kind conflict counter.
func (m *Metrics) RecordKindConflict() {
	m.mu.Lock()
	m.KindConflictsTotal++
	m.mu.Unlock()
}

// RecordMalformedSample increments the skipped numeric sample counter.
func (m *Metrics) RecordMalformedSample() {
	m.mu.Lock()
	m.MalformedSamples++
	m.mu.Unlock()
}

// RecordPageFetched increments the fetched page counter.
func (m *Metrics) RecordPageFetched() {
	m.mu.Lock()
	m.PagesFetchedTotal++
	m.mu.Unlock()
}

// RecordRequestRetry increments the HTTP retry counter.
func (m *Metrics) RecordRequestRetry() {
	m.mu.Lock()
	m.RequestRetriesTotal++
	m.mu.Unlock()
}

// RecordRowsWritten adds to the report row counter.
func (m *Metrics) RecordRowsWritten(n int) {
	m.mu.Lock()
	m.RowsWrittenTotal += int64(n)
	m.mu.Unlock()
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	EventsProcessed  int64
	EventsDropped    int64
	UnknownEntities  int64
	KindConflicts    int64
	MalformedSamples int64
	PagesFetched     int64
	RequestRetries   int64
	RowsWritten      int64
	Uptime           time.Duration
}

// GetSnapshot returns a consistent copy of the current counters.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		EventsProcessed:  m.EventsProcessedTotal,
		EventsDropped:    m.EventsDroppedTotal,
		UnknownEntities:  m.UnknownEntityTotal,
		KindConflicts:    m.KindConflictsTotal,
		MalformedSamples: m.MalformedSamples,
		PagesFetched:     m.PagesFetchedTotal,
		RequestRetries:   m.RequestRetriesTotal,
		RowsWritten:      m.RowsWrittenTotal,
		Uptime:           time.Since(m.startTime),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := m.GetSnapshot()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		write := func(name string, value int64) {
			w.Write([]byte(name + " " + strconv.FormatInt(value, 10) + "\n"))
		}

		write("export_events_processed_total", s.EventsProcessed)
		write("export_events_dropped_total", s.EventsDropped)
		write("export_unknown_entities_total", s.UnknownEntities)
		write("export_kind_conflicts_total", s.KindConflicts)
		write("export_malformed_samples_total", s.MalformedSamples)
		write("export_pages_fetched_total", s.PagesFetched)
		write("export_request_retries_total", s.RequestRetries)
		write("export_rows_written_total", s.RowsWritten)
		write("export_uptime_seconds", int64(s.Uptime.Seconds()))
	}
}
