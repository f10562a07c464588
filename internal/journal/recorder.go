package journal

import (
	"jordanella.com/desktop-pilot/internal/events"
)

// Record subscribes the journal to step and run finished events of run
// runID. Events of other runs are ignored. Write failures go to the journal
// logger. The returned IDs unsubscribe the recorder.
func (j *Journal) Record(bus events.EventBus, runID string) []events.SubscriptionID {
	onStep := bus.Subscribe(events.EventTypeStepFinished, func(e events.Event) {
		step, ok := events.StepOf(e)
		if !ok || step.RunID != runID {
			return
		}
		record := StepRecord{Index: step.Index, Action: step.Action, Duration: step.Elapsed}
		if step.Err != nil {
			record.ErrorMessage = step.Err.Error()
		}
		if err := j.RecordStep(runID, record); err != nil {
			j.logger.Error("failed to journal step", err)
		}
	})

	onFinish := bus.Subscribe(events.EventTypeRunFinished, func(e events.Event) {
		run, ok := events.RunFinishedOf(e)
		if !ok || run.RunID != runID {
			return
		}
		if err := j.Finish(runID, run.Err); err != nil {
			j.logger.Error("failed to journal run outcome", err)
		}
	})

	return []events.SubscriptionID{onStep, onFinish}
}
