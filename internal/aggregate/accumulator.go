package aggregate

import "github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/directory"

// Accumulator holds the raw per-entity counts and samples collected across
// all event streams. One accumulator exists per entity id, created lazily
// on the entity's first contribution.
type Accumulator struct {
	Kind directory.Kind

	MessagesSent          int
	ConversationsMessaged map[string]struct{}
	CustomersMessaged     map[string]struct{}
	ConversationsDone     int

	HandleTimes          []float64
	ResponseTimes        []float64
	FirstResponseTimes   []float64
	FirstResolutionTimes []float64

	ShortcutMessages int
	FCRHits          int
	FCREligible      int
	LoggedInSeconds  float64
}

func newAccumulator(kind directory.Kind) *Accumulator {
	return &Accumulator{
		Kind:                  kind,
		ConversationsMessaged: make(map[string]struct{}),
		CustomersMessaged:     make(map[string]struct{}),
	}
}
