package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jordanella.com/desktop-pilot/internal/events"
)

// EventLogger subscribes to the event bus and logs every run and step event
type EventLogger struct {
	logger        *Logger
	eventBus      events.EventBus
	subscriptions []events.SubscriptionID
	logFile       *os.File
}

// NewEventLogger logs events through logger. When logDir is set, events are
// also appended to a timestamped file in that directory.
func NewEventLogger(eventBus events.EventBus, logger *Logger, logDir string) (*EventLogger, error) {
	el := &EventLogger{
		logger:   logger.Named("events"),
		eventBus: eventBus,
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logPath := filepath.Join(logDir, fmt.Sprintf("events_%s.log", timestamp))
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		el.logFile = logFile
		if el.logger == nil {
			el.logger = NewLogger("events").SetOutput(logFile)
		} else {
			el.logger.AddOutput(logFile)
		}
	}

	for _, eventType := range events.AllTypes {
		el.subscriptions = append(el.subscriptions, eventBus.Subscribe(eventType, el.handleEvent))
	}
	return el, nil
}

func (el *EventLogger) handleEvent(event events.Event) {
	context := map[string]interface{}{
		"event_type": string(event.Type),
		"source":     event.Source,
	}

	switch event.Type {
	case events.EventTypeStepFinished:
		if step, ok := events.StepOf(event); ok {
			context["run"] = step.RunID
			context["index"] = step.Index
			context["action"] = step.Action
			context["elapsed"] = step.Elapsed.Round(time.Millisecond).String()
			if step.Err != nil {
				el.logger.ErrorWithContext("step failed", step.Err, context)
				return
			}
			el.logger.DebugWithContext("step finished", context)
			return
		}
	case events.EventTypeRunFinished:
		if run, ok := events.RunFinishedOf(event); ok {
			context["run"] = run.RunID
			context["script"] = run.Script
			context["elapsed"] = run.Elapsed.Round(time.Millisecond).String()
			if run.Err != nil {
				context["error"] = run.Err.Error()
			}
			el.logger.InfoWithContext("run finished", context)
			return
		}
	}

	for k, v := range event.Data {
		if _, taken := context[k]; !taken {
			context[k] = v
		}
	}
	el.logger.InfoWithContext(fmt.Sprintf("Event: %s", event.Type), context)
}

// Close unsubscribes and closes the log file
func (el *EventLogger) Close() error {
	for _, id := range el.subscriptions {
		el.eventBus.Unsubscribe(id)
	}
	el.subscriptions = nil

	if el.logFile != nil {
		err := el.logFile.Close()
		el.logFile = nil
		return err
	}
	return nil
}
