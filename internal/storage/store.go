package storage

import "context"

// RunSummary is the stored record of one completed export run. Scope is a
// fixed partition key; GeneratedAt is the range key, so queries come back
// in time order.
type RunSummary struct {
	Scope           string `dynamodbav:"Scope" json:"-"`
	GeneratedAt     string `dynamodbav:"GeneratedAt" json:"generatedAt"` // RFC 3339
	RunID           string `dynamodbav:"RunID" json:"runId"`
	StartDate       string `dynamodbav:"StartDate" json:"startDate"`
	EndDate         string `dynamodbav:"EndDate" json:"endDate"`
	RowCount        int    `dynamodbav:"RowCount" json:"rowCount"`
	EventsProcessed int64  `dynamodbav:"EventsProcessed" json:"eventsProcessed"`
	EventsDropped   int64  `dynamodbav:"EventsDropped" json:"eventsDropped"`
	KindConflicts   int64  `dynamodbav:"KindConflicts" json:"kindConflicts"`
	Output          string `dynamodbav:"Output" json:"output"` // local path or S3 key
}

// Store persists export run history.
type Store interface {
	SaveRun(ctx context.Context, run RunSummary) error
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// NoopStore is a no-op implementation when DynamoDB is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) SaveRun(_ context.Context, _ RunSummary) error { return nil }
func (s *NoopStore) ListRuns(_ context.Context, _ int) ([]RunSummary, error) {
	return nil, nil
}
