// Package aggregate folds the raw event streams into per-entity metric
// accumulators and computes the derived report metrics.
package aggregate

import (
	"sync"

	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/directory"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/metrics"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/record"
	"github.com/rs/zerolog"
)

// Entity pairs an entity id with its accumulated metrics.
type Entity struct {
	ID   string
	Kind directory.Kind
	Acc  *Accumulator
}

// Aggregator owns the accumulator map for one export run. Fold methods for
// the individual streams may be called from concurrent workers; all slot
// mutation happens under one mutex. Events are never mutated.
type Aggregator struct {
	mu            sync.Mutex
	dir           *directory.Directory
	stats         map[string]*Accumulator
	order         []string
	conversations map[string]record.Record
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// New creates an empty aggregator over the given entity directory.
func New(dir *directory.Directory, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		dir:           dir,
		stats:         make(map[string]*Accumulator),
		conversations: make(map[string]record.Record),
		metrics:       metrics.Get(),
		logger:        logger.With().Str("component", "aggregate").Logger(),
	}
}

// RegisterConversations indexes conversation records by id so message folds
// can resolve a customer from the parent conversation when the message
// itself carries none. A conversation that was never fetched simply stays
// absent from the index.
func (a *Aggregator) RegisterConversations(convs []record.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range convs {
		if id := c.ID(); id != "" {
			a.conversations[id] = c
		}
	}
}

// slot returns the accumulator for an owner, creating it on first
// contribution. When an id was previously seen under the other kind the
// first-seen kind wins and the conflict is surfaced as a warning.
func (a *Aggregator) slot(id string, kind directory.Kind) *Accumulator {
	acc, ok := a.stats[id]
	if !ok {
		acc = newAccumulator(kind)
		a.stats[id] = acc
		a.order = append(a.order, id)
		return acc
	}
	if acc.Kind != kind {
		a.metrics.RecordKindConflict()
		a.logger.Warn().
			Str("entity_id", id).
			Str("kind", string(acc.Kind)).
			Str("conflicting_kind", string(kind)).
			Msg("entity attributed with conflicting kinds, keeping first-seen kind")
	}
	return acc
}

// owner resolves the attributed entity for an event and verifies it against
// the directory. An event with no resolvable owner, or an owner unknown to
// the directory, contributes nothing.
func (a *Aggregator) owner(id string, kind directory.Kind, ok bool) (*Accumulator, bool) {
	if !ok {
		a.metrics.RecordEventDropped()
		return nil, false
	}
	if !a.dir.Contains(id, kind) {
		a.metrics.RecordUnknownEntity()
		return nil, false
	}
	return a.slot(id, kind), true
}

// FoldMessage folds one message event. Only outbound, non-automated
// messages qualify.
func (a *Aggregator) FoldMessage(ev record.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics.RecordEventProcessed()

	if ev.String("direction") != "out" || ev.Bool("auto") {
		return
	}

	acc, ok := a.owner(ownerOf(ev))
	if !ok {
		return
	}

	acc.MessagesSent++

	convID := ev.String("conversationId")
	if convID != "" {
		acc.ConversationsMessaged[convID] = struct{}{}
	}

	custID := ev.String("customerId")
	if custID == "" && convID != "" {
		if conv, found := a.conversations[convID]; found {
			custID = conv.String("customerId")
		}
	}
	if custID != "" {
		acc.CustomersMessaged[custID] = struct{}{}
	}

	if v, ok := a.sample(ev, "responseBusinessTime"); ok {
		acc.ResponseTimes = append(acc.ResponseTimes, v)
	}

	if ev.Present("shortcuts") || ev.Present("shortcutIds") || ev.String("via") == "shortcut" {
		acc.ShortcutMessages++
	}
}

// FoldConversationDone folds one done-conversation event, owned by whoever
// last marked the conversation done.
func (a *Aggregator) FoldConversationDone(ev record.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics.RecordEventProcessed()

	if ev.Bool("deleted") || !hasMessages(ev) {
		return
	}

	acc, ok := a.owner(wrappedOwner(ev, "lastDone", "lastDoneBy"))
	if !ok {
		return
	}

	acc.ConversationsDone++

	if v, ok := a.sample(ev, "handleTime"); ok {
		acc.HandleTimes = append(acc.HandleTimes, v)
	}
}

// FoldConversationTime folds one conversation-time entry. The entry carries
// its own attribution; no parent conversation lookup is involved.
func (a *Aggregator) FoldConversationTime(ev record.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics.RecordEventProcessed()

	id, kind, ok := ownerOf(ev)
	if !ok {
		a.metrics.RecordEventDropped()
		return
	}
	if !a.dir.Contains(id, kind) {
		a.metrics.RecordUnknownEntity()
		return
	}

	v, ok := a.sample(ev, "handleTime")
	if !ok {
		return
	}
	acc := a.slot(id, kind)
	acc.HandleTimes = append(acc.HandleTimes, v)
}

// FoldFirstDone folds one first-done conversation event into the FCR and
// first-resolution metrics. Every attributed event counts as FCR-eligible;
// a hit additionally requires an inbound conversation resolved in one go.
func (a *Aggregator) FoldFirstDone(ev record.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics.RecordEventProcessed()

	acc, ok := a.owner(wrappedOwner(ev, "firstDone", "firstDoneBy"))
	if !ok {
		return
	}

	acc.FCREligible++

	if isFirstContactResolution(ev) {
		acc.FCRHits++
	}

	if fd := ev.Object("firstDone"); fd != nil {
		if v, ok := a.sample(fd, "businessTime"); ok {
			acc.FirstResolutionTimes = append(acc.FirstResolutionTimes, v)
		}
	}
}

// isFirstContactResolution checks the FCR hit criteria: resolved inbound
// conversation with messages, never reopened, never merged away.
func isFirstContactResolution(ev record.Record) bool {
	if ev.String("status") != "done" || ev.String("direction") != "in" {
		return false
	}
	if !hasMessages(ev) {
		return false
	}
	if reopen, ok := ev.Number("reopenCount"); ok && reopen > 0 {
		return false
	}
	return !ev.Present("mergedTarget")
}

// FoldFirstResponse folds one first-response conversation event.
func (a *Aggregator) FoldFirstResponse(ev record.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics.RecordEventProcessed()

	if ev.Bool("deleted") || !hasMessages(ev) {
		return
	}

	fr := ev.Object("firstResponse")
	if fr == nil {
		a.metrics.RecordEventDropped()
		return
	}

	acc, ok := a.owner(wrappedOwner(ev, "firstResponse", ""))
	if !ok {
		return
	}

	if v, ok := a.sample(fr, "businessTime"); ok {
		acc.FirstResponseTimes = append(acc.FirstResponseTimes, v)
	}
}

// FoldUserTime folds one logged-in time entry. The user gets agent credit;
// every listed team gets team credit. This is deliberately a different
// policy from ownership attribution, which takes the first team only.
func (a *Aggregator) FoldUserTime(ev record.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics.RecordEventProcessed()

	var logged float64
	if li := ev.Object("loggedIn"); li != nil {
		v, ok := li.Number("timeTotal")
		if !ok {
			a.metrics.RecordMalformedSample()
			return
		}
		logged = v
	} else {
		return
	}

	credited := false
	if userID := ev.String("userId"); userID != "" && a.dir.Contains(userID, directory.KindAgent) {
		a.slot(userID, directory.KindAgent).LoggedInSeconds += logged
		credited = true
	}
	for _, teamID := range ev.StringList("teams") {
		if a.dir.Contains(teamID, directory.KindTeam) {
			a.slot(teamID, directory.KindTeam).LoggedInSeconds += logged
			credited = true
		}
	}
	if !credited {
		a.metrics.RecordEventDropped()
	}
}

// sample resolves a numeric field, counting present-but-malformed values
// separately from absent ones. The rest of the event's contributions are
// unaffected either way.
func (a *Aggregator) sample(ev record.Record, name string) (float64, bool) {
	v, present := ev.Resolve(name)
	if !present {
		return 0, false
	}
	n, ok := record.NumberValue(v)
	if !ok {
		a.metrics.RecordMalformedSample()
		return 0, false
	}
	return n, true
}

func hasMessages(ev record.Record) bool {
	n, ok := ev.Number("messageCount")
	return ok && n > 0
}

// Entities returns every entity with at least one contribution, in
// first-contribution order. The order is stable within a run, so a re-run
// over unchanged input produces identical rows.
func (a *Aggregator) Entities() []Entity {
	a.mu.Lock()
	defer a.mu.Unlock()

	entities := make([]Entity, 0, len(a.order))
	for _, id := range a.order {
		acc := a.stats[id]
		entities = append(entities, Entity{ID: id, Kind: acc.Kind, Acc: acc})
	}
	return entities
}
