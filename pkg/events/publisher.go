package events

import "context"

// EventPublisher receives one DispatchCompletedEvent per finished dispatch, successful or not.
// The controller logs a publish error and keeps the dispatch outcome.
type EventPublisher interface {
	PublishDispatched(ctx context.Context, event *DispatchCompletedEvent) error
}

// NoOpPublisher drops dispatch events. The controller uses it when PUBLISH_EVENTS is off.
type NoOpPublisher struct{}

// PublishDispatched discards the event.
func (p *NoOpPublisher) PublishDispatched(_ context.Context, _ *DispatchCompletedEvent) error {
	return nil
}

// CallbackPublisher hands each dispatch event to a function, e.g. to count enrollments in process
// or to capture events in tests.
type CallbackPublisher struct {
	callback func(ctx context.Context, event *DispatchCompletedEvent) error
}

// NewCallbackPublisher creates a CallbackPublisher around cb.
func NewCallbackPublisher(cb func(ctx context.Context, event *DispatchCompletedEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishDispatched passes the event to the callback and returns its error.
func (p *CallbackPublisher) PublishDispatched(ctx context.Context, event *DispatchCompletedEvent) error {
	return p.callback(ctx, event)
}
