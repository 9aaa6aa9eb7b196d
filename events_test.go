package server

import "testing"

func TestEventInboxBounded(t *testing.T) {
	inbox := newEventInbox(3)
	for i := 0; i < 3; i++ {
		if !inbox.Enqueue(Event{Type: EventGrab}) {
			t.Fatalf("expected enqueue %d to succeed", i)
		}
	}
	if inbox.Enqueue(Event{Type: EventGrab}) {
		t.Fatal("expected the full inbox to reject the event")
	}

	drained := inbox.Drain()
	if len(drained) != 3 {
		t.Fatalf("expected 3 drained events, got %d", len(drained))
	}
	if !inbox.Enqueue(Event{Type: EventGrab}) {
		t.Fatal("expected capacity after draining")
	}
}

func TestEventInboxPreservesOrder(t *testing.T) {
	inbox := newEventInbox(8)
	types := []EventType{EventGrab, EventMoveTo, EventRelease, EventThrow}
	for _, typ := range types {
		inbox.Enqueue(Event{Type: typ})
	}
	drained := inbox.Drain()
	if len(drained) != len(types) {
		t.Fatalf("expected %d events, got %d", len(types), len(drained))
	}
	for i, typ := range types {
		if drained[i].Type != typ {
			t.Fatalf("expected %s at index %d, got %s", typ, i, drained[i].Type)
		}
	}
}

func TestDrainEmptyInboxReturnsNil(t *testing.T) {
	inbox := newEventInbox(4)
	if drained := inbox.Drain(); drained != nil {
		t.Fatalf("expected nil for an empty inbox, got %v", drained)
	}
}

func TestWorldDropsEventsWhenInboxFull(t *testing.T) {
	w, _ := newSimTestWorld(101)
	w.inbox = newEventInbox(2)
	w.SetTelemetry(NewTelemetry())

	w.EnqueueEvent(Event{Type: EventGrab, EntityID: "a"})
	w.EnqueueEvent(Event{Type: EventGrab, EntityID: "b"})
	if w.EnqueueEvent(Event{Type: EventGrab, EntityID: "c"}) {
		t.Fatal("expected the overflow event to be dropped")
	}
	if got := w.telemetry.Snapshot().DroppedEvents; got != 1 {
		t.Fatalf("expected 1 dropped event recorded, got %d", got)
	}
}
