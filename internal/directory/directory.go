package directory

import (
	"strings"

	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/record"
	"github.com/rs/zerolog"
)

// Kind distinguishes the two attributable owner types.
type Kind string

const (
	KindAgent Kind = "agent"
	KindTeam  Kind = "team"
)

// Title returns the kind formatted for report output.
func (k Kind) Title() string {
	switch k {
	case KindAgent:
		return "Agent"
	case KindTeam:
		return "Team"
	}
	return string(k)
}

// Directory maps agent and team ids to display names. It is built once
// before aggregation and read-only afterward, so it can be shared across
// concurrent fold workers without locking.
type Directory struct {
	agents map[string]string
	teams  map[string]string
}

// Build constructs a directory from raw user and team records. Soft-deleted
// entries are excluded, as are users whose declared type is not a human
// agent (bots and system accounts).
func Build(users, teams []record.Record, logger zerolog.Logger) *Directory {
	d := &Directory{
		agents: make(map[string]string, len(users)),
		teams:  make(map[string]string, len(teams)),
	}

	skipped := 0
	for _, u := range users {
		id := u.ID()
		if id == "" {
			continue
		}
		if u.String("deletedAt") != "" || u.String("userType") != "user" {
			skipped++
			continue
		}
		d.agents[id] = displayName(u, id)
	}

	for _, t := range teams {
		id := t.ID()
		if id == "" {
			continue
		}
		if t.String("deletedAt") != "" {
			continue
		}
		name := t.String("name")
		if name == "" {
			name = id
		}
		d.teams[id] = name
	}

	logger.Info().
		Int("agents", len(d.agents)).
		Int("teams", len(d.teams)).
		Int("users_skipped", skipped).
		Msg("entity directory built")

	return d
}

// displayName resolves a user's display name: explicit name, then first and
// last name, then email, then the raw id. First non-empty value wins.
func displayName(u record.Record, id string) string {
	if name := u.String("name"); name != "" {
		return name
	}
	full := strings.TrimSpace(u.String("firstName") + " " + u.String("lastName"))
	if full != "" {
		return full
	}
	if email := u.String("email"); email != "" {
		return email
	}
	return id
}

// Contains reports whether an id is a known entity of the given kind.
func (d *Directory) Contains(id string, kind Kind) bool {
	switch kind {
	case KindAgent:
		_, ok := d.agents[id]
		return ok
	case KindTeam:
		_, ok := d.teams[id]
		return ok
	}
	return false
}

// NameOf returns the display name for an id, falling back to the raw id
// when the entity is unknown.
func (d *Directory) NameOf(id string, kind Kind) string {
	var name string
	switch kind {
	case KindAgent:
		name = d.agents[id]
	case KindTeam:
		name = d.teams[id]
	}
	if name == "" {
		return id
	}
	return name
}

// AgentCount returns the number of known human agents.
func (d *Directory) AgentCount() int { return len(d.agents) }

// TeamCount returns the number of known teams.
func (d *Directory) TeamCount() int { return len(d.teams) }
