package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/aggregate"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/directory"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/record"
	"github.com/rs/zerolog"
)

func testDirectory(t *testing.T) *directory.Directory {
	t.Helper()
	return directory.Build(
		[]record.Record{{"id": "A1", "attributes": map[string]any{"name": "Anna", "userType": "user"}}},
		[]record.Record{{"id": "T1", "attributes": map[string]any{"name": "Support NL"}}},
		zerolog.New(&bytes.Buffer{}),
	)
}

func TestHeaderOrder(t *testing.T) {
	if len(Header) != 18 {
		t.Fatalf("expected 18 columns, got %d", len(Header))
	}
	if Header[0] != "Agent/Team" || Header[1] != "Type" {
		t.Errorf("unexpected leading columns: %v", Header[:2])
	}
	if Header[17] != "Percent of messages sent with shortcuts (%)" {
		t.Errorf("unexpected last column: %s", Header[17])
	}
}

func TestBuildRows(t *testing.T) {
	dir := testDirectory(t)
	logger := zerolog.New(&bytes.Buffer{})
	a := aggregate.New(dir, logger)

	a.FoldMessage(record.Record{
		"direction": "out", "auto": false,
		"conversationId": "C1",
		"customerId":     "U1",
		"relationships": map[string]any{
			"createdBy": map[string]any{"data": map[string]any{"id": "A1"}},
		},
	})
	a.FoldConversationDone(record.Record{
		"messageCount": float64(3),
		"lastDoneById": "A1",
		"handleTime":   float64(90),
	})

	rows := BuildRows(a.Entities(), dir)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.Name != "Anna" {
		t.Errorf("expected display name Anna, got %q", row.Name)
	}
	if row.Kind != directory.KindAgent {
		t.Errorf("expected agent kind, got %s", row.Kind)
	}

	cols := row.Columns()
	if len(cols) != len(Header) {
		t.Fatalf("expected %d columns, got %d", len(Header), len(cols))
	}
	if cols[1] != "Agent" {
		t.Errorf("expected Type Agent, got %q", cols[1])
	}
	if cols[2] != "1" {
		t.Errorf("expected 1 message sent, got %q", cols[2])
	}
	if cols[6] != "90" {
		t.Errorf("expected avg handle time 90, got %q", cols[6])
	}
}

func TestEncodeCSVRoundTrips(t *testing.T) {
	dir := testDirectory(t)
	a := aggregate.New(dir, zerolog.New(&bytes.Buffer{}))
	a.FoldMessage(record.Record{
		"direction": "out", "auto": false,
		"relationships": map[string]any{
			"createdByTeams": map[string]any{"data": []any{map[string]any{"id": "T1"}}},
		},
	})

	data, err := EncodeCSV(BuildRows(a.Entities(), dir))
	if err != nil {
		t.Fatalf("EncodeCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("failed to re-read CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 row, got %d records", len(records))
	}
	if records[1][0] != "Support NL" || records[1][1] != "Team" {
		t.Errorf("unexpected team row: %v", records[1][:2])
	}
}

func TestEncodeCSVEmptyRowsStillWritesHeader(t *testing.T) {
	data, err := EncodeCSV(nil)
	if err != nil {
		t.Fatalf("EncodeCSV failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "Agent/Team,Type,") {
		t.Errorf("expected header line, got %q", string(data))
	}
}
