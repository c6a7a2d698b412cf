// Package events defines the dispatch event type and the publishers that deliver it.
package events

// DispatchCompletedEvent is emitted after a functionality has been dispatched, whatever the outcome.
type DispatchCompletedEvent struct {
	Functionality string `json:"functionality"`
	Operation     string `json:"operation"`
	// Outcome is the presentation kind on success, or the error code on failure.
	Outcome     string `json:"outcome"`
	Ok          bool   `json:"ok"`
	RecordCount int    `json:"recordCount"`
	DurationMs  int64  `json:"durationMs"`
	Timestamp   string `json:"timestamp"`
}
