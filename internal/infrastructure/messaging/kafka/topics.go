// Package kafka publishes sync-run audit events to the practice's internal
// broker.  Only a producer is needed; nothing in this service consumes.
package kafka

// TopicSyncRunCompleted receives one event per finished sync run with the
// run's counters.  Downstream reporting jobs consume it.
const TopicSyncRunCompleted = "caselaw.sync.run.completed"

// SyncRunEvent is the payload published to TopicSyncRunCompleted.
type SyncRunEvent struct {
	Category         string `json:"category"`
	TaxSection       string `json:"taxSection,omitempty"`
	NewSummaries     int    `json:"newSummaries"`
	UpdatedSummaries int    `json:"updatedSummaries"`
	NewDetails       int    `json:"newDetails"`
	UpdatedDetails   int    `json:"updatedDetails"`
	Errors           int    `json:"errors"`
	TotalProcessed   int    `json:"totalProcessed"`
	DurationMS       int64  `json:"durationMs"`
	StartedAt        string `json:"startedAt"`
}
