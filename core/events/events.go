// Package events defines the domain events published on the internal bus.
package events

import "time"

// DispatchCompleted is published after a successful completion write.
type DispatchCompleted struct {
	RecordID    string    `json:"record_id"`
	CollegeID   string    `json:"college_id"`
	Recipient   string    `json:"recipient"`
	CompletedAt time.Time `json:"completed_at"`
}

// BatchIngested is published when an ingestion batch finishes.
type BatchIngested struct {
	BatchID    string    `json:"batch_id"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	FinishedAt time.Time `json:"finished_at"`
}
