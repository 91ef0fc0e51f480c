package metrics

// FetchEvent describes one reconciliation pass against the reference store.
type FetchEvent struct {
	Records int
	Orphans int
	Failed  bool
}

// CompletionEvent describes one completion submit attempt.
type CompletionEvent struct {
	RecordID  string
	CollegeID string
	Recipient string
	Failed    bool
}

// IngestEvent describes one finished ingestion batch.
type IngestEvent struct {
	BatchID string
	Created int
	Skipped int
	Failed  int
}

// Sink records dispatch-tracking events for observability purposes.
type Sink interface {
	RecordFetch(FetchEvent) error
	RecordCompletion(CompletionEvent) error
	RecordIngest(IngestEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordFetch(FetchEvent) error           { return nil }
func (NopSink) RecordCompletion(CompletionEvent) error { return nil }
func (NopSink) RecordIngest(IngestEvent) error         { return nil }
