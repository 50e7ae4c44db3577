package kustomer

// Clause is one filter condition in a search body, e.g.
// {"direction": {"equals": "out"}}.
type Clause map[string]any

// Stream describes one searchable event stream: the timestamp field its
// date window applies to, the query context, and any fixed filters.
type Stream struct {
	Name         string
	WindowField  string
	QueryContext string
	Clauses      []Clause
}

// body builds the search request body for one time window.
func (s Stream) body(windowStart, windowEnd, timeZone string) map[string]any {
	and := []any{
		Clause{s.WindowField: map[string]any{"gte": windowStart}},
		Clause{s.WindowField: map[string]any{"lte": windowEnd}},
	}
	for _, clause := range s.Clauses {
		and = append(and, clause)
	}

	return map[string]any{
		"and":          and,
		"sort":         []any{map[string]any{s.WindowField: "asc"}},
		"queryContext": s.QueryContext,
		"timeZone":     timeZone,
	}
}

// Messages selects outbound, non-automated messages by creation time.
// The auto filter value is the string form the search API expects.
func Messages() Stream {
	return Stream{
		Name:         "messages",
		WindowField:  "message_created_at",
		QueryContext: "message",
		Clauses: []Clause{
			{"auto": map[string]any{"equals": "False"}},
			{"direction": map[string]any{"equals": "out"}},
		},
	}
}

// ConversationsDone selects conversations by their last done timestamp.
func ConversationsDone() Stream {
	return Stream{
		Name:         "conversations_done",
		WindowField:  "conversation_last_done_created_at",
		QueryContext: "conversation",
		Clauses:      conversationGuards(),
	}
}

// ConversationsFirstDone selects conversations by their first done
// timestamp, for the FCR and first-resolution metrics.
func ConversationsFirstDone() Stream {
	return Stream{
		Name:         "conversations_first_done",
		WindowField:  "conversation_first_done_created_at",
		QueryContext: "conversation",
		Clauses:      conversationGuards(),
	}
}

// ConversationsFirstResponse selects conversations by their first response
// timestamp.
func ConversationsFirstResponse() Stream {
	return Stream{
		Name:         "conversations_first_response",
		WindowField:  "conversation_first_response_created_at",
		QueryContext: "conversation",
		Clauses:      conversationGuards(),
	}
}

// ConversationTimes selects per-conversation handle time entries.
func ConversationTimes() Stream {
	return Stream{
		Name:         "conversation_times",
		WindowField:  "conversation_time_created_at",
		QueryContext: "conversation_time",
	}
}

// UserTimes selects logged-in time entries.
func UserTimes() Stream {
	return Stream{
		Name:         "user_times",
		WindowField:  "docAt",
		QueryContext: "userTime",
	}
}

func conversationGuards() []Clause {
	return []Clause{
		{"deleted": map[string]any{"equals": false}},
		{"conversation_message_count": map[string]any{"gt": 0}},
	}
}
