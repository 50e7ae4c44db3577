// Package report turns aggregated entities into the fixed-schema CSV
// performance report.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/aggregate"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/directory"
)

// Header is the fixed column order of the report. Consumers key on these
// names; do not reorder.
var Header = []string{
	"Agent/Team",
	"Type",
	"Messages sent",
	"Unique conversations messaged",
	"Conversations marked done",
	"Unique customers messaged",
	"Average conversation handle time (s)",
	"Average sent messages per conversation",
	"Average sent messages per customer",
	"First contact resolution rate (%)",
	"Average response time (s)",
	"Average first response time (s)",
	"Median first response time (s)",
	"Average time to first resolution (s)",
	"Median time to first resolution (s)",
	"Total time logged in (s)",
	"Messages sent with shortcuts",
	"Percent of messages sent with shortcuts (%)",
}

// Row is one report line for a single agent or team.
type Row struct {
	Name string
	Kind directory.Kind

	MessagesSent        int
	UniqueConversations int
	ConversationsDone   int
	UniqueCustomers     int
	ShortcutMessages    int
	LoggedInSeconds     float64

	Derived aggregate.Derived
}

// BuildRow joins an aggregated entity with its directory entry.
func BuildRow(e aggregate.Entity, dir *directory.Directory) Row {
	return Row{
		Name:                dir.NameOf(e.ID, e.Kind),
		Kind:                e.Kind,
		MessagesSent:        e.Acc.MessagesSent,
		UniqueConversations: len(e.Acc.ConversationsMessaged),
		ConversationsDone:   e.Acc.ConversationsDone,
		UniqueCustomers:     len(e.Acc.CustomersMessaged),
		ShortcutMessages:    e.Acc.ShortcutMessages,
		LoggedInSeconds:     e.Acc.LoggedInSeconds,
		Derived:             e.Acc.Derive(),
	}
}

// BuildRows builds one row per entity, preserving aggregation order.
func BuildRows(entities []aggregate.Entity, dir *directory.Directory) []Row {
	rows := make([]Row, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, BuildRow(e, dir))
	}
	return rows
}

// Columns renders the row in the Header column order.
func (r Row) Columns() []string {
	d := r.Derived
	return []string{
		r.Name,
		r.Kind.Title(),
		strconv.Itoa(r.MessagesSent),
		strconv.Itoa(r.UniqueConversations),
		strconv.Itoa(r.ConversationsDone),
		strconv.Itoa(r.UniqueCustomers),
		formatFloat(d.AvgHandleTime),
		formatFloat(d.AvgMsgsPerConversation),
		formatFloat(d.AvgMsgsPerCustomer),
		formatFloat(d.FCRRatePct),
		formatFloat(d.AvgResponseTime),
		formatFloat(d.AvgFirstResponseTime),
		formatFloat(d.MedianFirstResponseTime),
		formatFloat(d.AvgFirstResolutionTime),
		formatFloat(d.MedianFirstResolutionTime),
		formatFloat(r.LoggedInSeconds),
		strconv.Itoa(r.ShortcutMessages),
		formatFloat(d.ShortcutPct),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EncodeCSV renders header plus rows as CSV bytes.
func EncodeCSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.Columns()); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
