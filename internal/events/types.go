package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRunStarted   EventType = "run.started"
	EventTypeStepFinished EventType = "step.finished"
	EventTypeRunFinished  EventType = "run.finished"
)

// AllTypes lists every event type, for subscribers that want everything
var AllTypes = []EventType{
	EventTypeRunStarted,
	EventTypeStepFinished,
	EventTypeRunFinished,
}

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted the event
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish queues an event for all subscribers
	Publish(event Event)

	// Stop delivers the queued events and stops the bus
	Stop()
}

// RunStarted is published once per run, before the first step
type RunStarted struct {
	RunID  string
	Script string
}

// StepFinished is published after every routine step
type StepFinished struct {
	RunID   string
	Script  string
	Index   int
	Action  string
	Elapsed time.Duration
	Err     error
}

// RunFinished is published when a run ends, whatever the outcome
type RunFinished struct {
	RunID   string
	Script  string
	Elapsed time.Duration
	Err     error
}

// NewRunStartedEvent creates a run started event
func NewRunStartedEvent(runID, script string) Event {
	return Event{
		Type:      EventTypeRunStarted,
		Source:    "runner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run":    RunStarted{RunID: runID, Script: script},
			"script": script,
		},
	}
}

// NewStepFinishedEvent creates a step finished event
func NewStepFinishedEvent(step StepFinished) Event {
	return Event{
		Type:      EventTypeStepFinished,
		Source:    "runner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"step":   step,
			"script": step.Script,
			"index":  step.Index,
			"action": step.Action,
		},
	}
}

// NewRunFinishedEvent creates a run finished event
func NewRunFinishedEvent(run RunFinished) Event {
	return Event{
		Type:      EventTypeRunFinished,
		Source:    "runner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run":    run,
			"script": run.Script,
		},
	}
}

// StepOf extracts the payload of a step finished event
func StepOf(e Event) (StepFinished, bool) {
	step, ok := e.Data["step"].(StepFinished)
	return step, ok
}

// RunFinishedOf extracts the payload of a run finished event
func RunFinishedOf(e Event) (RunFinished, bool) {
	run, ok := e.Data["run"].(RunFinished)
	return run, ok
}
