package events

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewEventBus(4)

	var got []int
	bus.Subscribe(EventTypeStepFinished, func(e Event) {
		step, _ := StepOf(e)
		got = append(got, step.Index)
	})

	for i := 0; i < 20; i++ {
		bus.Publish(NewStepFinishedEvent(StepFinished{Script: "login", Index: i, Action: "click"}))
	}
	bus.Stop()

	if len(got) != 20 {
		t.Fatalf("delivered %d events, want 20", len(got))
	}
	for i, index := range got {
		if index != i {
			t.Fatalf("event %d has index %d", i, index)
		}
	}
}

func TestBusRoutesByType(t *testing.T) {
	bus := NewEventBus(8)

	counts := map[EventType]int{}
	for _, eventType := range AllTypes {
		eventType := eventType
		bus.Subscribe(eventType, func(e Event) {
			if e.Type != eventType {
				t.Errorf("handler for %s got %s", eventType, e.Type)
			}
			counts[e.Type]++
		})
	}

	bus.Publish(NewRunStartedEvent("r1", "login"))
	bus.Publish(NewStepFinishedEvent(StepFinished{RunID: "r1", Script: "login"}))
	bus.Publish(NewStepFinishedEvent(StepFinished{RunID: "r1", Script: "login", Index: 1}))
	bus.Publish(NewRunFinishedEvent(RunFinished{RunID: "r1", Script: "login"}))
	bus.Stop()

	want := map[EventType]int{
		EventTypeRunStarted:   1,
		EventTypeStepFinished: 2,
		EventTypeRunFinished:  1,
	}
	for eventType, n := range want {
		if counts[eventType] != n {
			t.Errorf("%s delivered %d times, want %d", eventType, counts[eventType], n)
		}
	}
}

func TestBusRecoversFromPanics(t *testing.T) {
	bus := NewEventBus(2)

	var mu sync.Mutex
	var panics []interface{}
	bus.OnPanic = func(_ Event, recovered interface{}) {
		mu.Lock()
		defer mu.Unlock()
		panics = append(panics, recovered)
	}

	delivered := 0
	bus.Subscribe(EventTypeRunStarted, func(Event) { panic("boom") })
	bus.Subscribe(EventTypeRunStarted, func(Event) { delivered++ })

	bus.Publish(NewRunStartedEvent("r1", "login"))
	bus.Publish(NewRunStartedEvent("r2", "login"))
	bus.Stop()

	if delivered != 2 {
		t.Errorf("second handler ran %d times, want 2", delivered)
	}
	if len(panics) != 2 || panics[0] != "boom" {
		t.Errorf("panics = %v", panics)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(2)
	defer bus.Stop()

	id := bus.Subscribe(EventTypeRunFinished, func(Event) {})
	other := bus.Subscribe(EventTypeRunFinished, func(Event) {})
	if n := bus.GetSubscriberCount(EventTypeRunFinished); n != 2 {
		t.Fatalf("subscribers = %d, want 2", n)
	}

	bus.Unsubscribe(id)
	bus.Unsubscribe(id)
	if n := bus.GetSubscriberCount(EventTypeRunFinished); n != 1 {
		t.Errorf("subscribers after unsubscribe = %d, want 1", n)
	}

	bus.Unsubscribe(other)
	if n := bus.GetSubscriberCount(EventTypeRunFinished); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestBusDropsAfterStop(t *testing.T) {
	bus := NewEventBus(1)

	delivered := 0
	bus.Subscribe(EventTypeRunStarted, func(Event) { delivered++ })
	var dropped []Event
	bus.OnDrop = func(e Event) { dropped = append(dropped, e) }

	bus.Stop()
	bus.Stop()
	bus.Publish(NewRunStartedEvent("late", "login"))

	if delivered != 0 {
		t.Errorf("delivered %d events after stop", delivered)
	}
	if len(dropped) != 1 {
		t.Errorf("dropped %d events, want 1", len(dropped))
	}
}

func TestPayloadAccessors(t *testing.T) {
	stepErr := errors.New("template not found")
	step := StepFinished{RunID: "r1", Script: "login", Index: 3, Action: "click_image", Elapsed: time.Second, Err: stepErr}

	got, ok := StepOf(NewStepFinishedEvent(step))
	if !ok || got != step {
		t.Errorf("StepOf = %+v, %v", got, ok)
	}
	if _, ok := StepOf(NewRunStartedEvent("r1", "login")); ok {
		t.Error("StepOf accepted a run started event")
	}

	run := RunFinished{RunID: "r1", Script: "login", Elapsed: 2 * time.Second}
	if got, ok := RunFinishedOf(NewRunFinishedEvent(run)); !ok || got != run {
		t.Errorf("RunFinishedOf = %+v, %v", got, ok)
	}

	var zero Event
	zero.Type = EventTypeRunStarted
	if _, ok := RunFinishedOf(zero); ok {
		t.Error("RunFinishedOf accepted an event without data")
	}
}
