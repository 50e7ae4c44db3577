package aggregate

import (
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/directory"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/record"
)

// ownerOf resolves the attributed owner of an event. An explicit creating
// agent always wins; failing that the first listed creating team is taken.
// Ownership never credits more than one team.
func ownerOf(ev record.Record) (string, directory.Kind, bool) {
	if id := ev.String("createdBy"); id != "" {
		return id, directory.KindAgent, true
	}
	if teams := ev.StringList("createdByTeams"); len(teams) > 0 {
		return teams[0], directory.KindTeam, true
	}
	return "", "", false
}

// wrappedOwner resolves the owner from a nested wrapper object such as
// lastDone, firstDone or firstResponse, with an optional flat fallback
// field for payloads that carry only the bare id.
func wrappedOwner(ev record.Record, wrapper, fallback string) (string, directory.Kind, bool) {
	if w := ev.Object(wrapper); w != nil {
		if id := w.String("createdBy"); id != "" {
			return id, directory.KindAgent, true
		}
		if teams := w.StringList("createdByTeams"); len(teams) > 0 {
			return teams[0], directory.KindTeam, true
		}
	}
	if fallback != "" {
		if id := ev.String(fallback); id != "" {
			return id, directory.KindAgent, true
		}
	}
	return "", "", false
}
