package kustomer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(Options{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		PageSize:          2,
		MaxRetries:        3,
		RequestsPerSecond: 1000,
	}, zerolog.New(&bytes.Buffer{}))
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestSearchPaginatesUntilTotalPages(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		page := r.URL.Query().Get("page")
		pages = append(pages, page)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": "ev-" + page}},
			"meta": map[string]any{"totalPages": 3},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	results, err := c.search(context.Background(), map[string]any{"queryContext": "message"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 events across pages, got %d", len(results))
	}
	if len(pages) != 3 || pages[0] != "1" || pages[2] != "3" {
		t.Errorf("expected pages 1..3, got %v", pages)
	}
}

func TestDoRequestRetriesOnTransientErrors(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.doRequest(context.Background(), http.MethodGet, srv.URL, nil); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoRequestGivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.doRequest(context.Background(), http.MethodGet, srv.URL, nil); err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
}

func TestDoRequestFailsFastOnClientError(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "bad query", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.doRequest(context.Background(), http.MethodGet, srv.URL, nil); err == nil {
		t.Fatal("expected a hard error on 400")
	}
	if attempts != 1 {
		t.Errorf("400 must not be retried, got %d attempts", attempts)
	}
}

func TestListFollowsNextLinks(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 0 {
			page = 1
		}
		resp := map[string]any{
			"data": []map[string]any{{"id": "user-" + strconv.Itoa(page)}},
		}
		if page < 3 {
			// Alternate relative and absolute next links.
			if page == 1 {
				resp["next"] = "/v1/users?page=2"
			} else {
				resp["next"] = srv.URL + "/v1/users?page=3"
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	users, err := c.Users(context.Background())
	if err != nil {
		t.Fatalf("Users failed: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	if users[2].ID() != "user-3" {
		t.Errorf("expected user-3 last, got %s", users[2].ID())
	}
}

func TestSearchRangeSplitsDaysIntoHalfDayWindows(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		w.Write([]byte(`{"data": [], "meta": {"totalPages": 1}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	if _, err := c.SearchRange(context.Background(), Messages(), start, end, "Europe/Amsterdam"); err != nil {
		t.Fatalf("SearchRange failed: %v", err)
	}

	// Two days, two windows each.
	if len(bodies) != 4 {
		t.Fatalf("expected 4 search windows, got %d", len(bodies))
	}
	if bodies[0]["queryContext"] != "message" {
		t.Errorf("expected message query context, got %v", bodies[0]["queryContext"])
	}
	if bodies[0]["timeZone"] != "Europe/Amsterdam" {
		t.Errorf("expected reporting time zone, got %v", bodies[0]["timeZone"])
	}

	and := bodies[1]["and"].([]any)
	first := and[0].(map[string]any)["message_created_at"].(map[string]any)
	if first["gte"] != "2025-06-01T12:00:00Z" {
		t.Errorf("expected second window to start at noon, got %v", first["gte"])
	}
}

func TestStreamBodies(t *testing.T) {
	tests := []struct {
		stream  Stream
		field   string
		context string
		clauses int
	}{
		{Messages(), "message_created_at", "message", 2},
		{ConversationsDone(), "conversation_last_done_created_at", "conversation", 2},
		{ConversationsFirstDone(), "conversation_first_done_created_at", "conversation", 2},
		{ConversationsFirstResponse(), "conversation_first_response_created_at", "conversation", 2},
		{ConversationTimes(), "conversation_time_created_at", "conversation_time", 0},
		{UserTimes(), "docAt", "userTime", 0},
	}

	for _, tt := range tests {
		t.Run(tt.stream.Name, func(t *testing.T) {
			if tt.stream.WindowField != tt.field {
				t.Errorf("window field = %s, want %s", tt.stream.WindowField, tt.field)
			}
			body := tt.stream.body("a", "b", "UTC")
			if body["queryContext"] != tt.context {
				t.Errorf("queryContext = %v, want %s", body["queryContext"], tt.context)
			}
			// Window bounds plus the stream's fixed clauses.
			if and := body["and"].([]any); len(and) != 2+tt.clauses {
				t.Errorf("expected %d clauses, got %d", 2+tt.clauses, len(and))
			}
		})
	}
}
