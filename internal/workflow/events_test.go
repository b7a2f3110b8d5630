package workflow

import (
	"testing"

	"video-transcriber/internal/domain"
)

// TestEventBusSince verifies incremental event reads by sequence.
func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(3)
	bus.Publish(Event{Type: EventTypeStatus, Phase: domain.PhaseConverting})
	bus.Publish(Event{Type: EventTypeProgress, Progress: 0.5})
	bus.Publish(Event{Type: EventTypeStatus, Phase: domain.PhaseUploading})

	events := bus.Since(1)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
	if events[0].Timestamp.IsZero() {
		t.Fatal("expected timestamp to be assigned")
	}
}

// TestEventBusCapsHistory verifies buffer limit trimming behavior.
func TestEventBusCapsHistory(t *testing.T) {
	bus := NewEventBus(2)
	bus.Publish(Event{Message: "1"})
	bus.Publish(Event{Message: "2"})
	bus.Publish(Event{Message: "3"})

	events := bus.Since(0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Message != "2" || events[1].Message != "3" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

// TestStatusEventTypes checks how snapshots map onto event types.
func TestStatusEventTypes(t *testing.T) {
	cases := []struct {
		name string
		snap Snapshot
		want EventType
	}{
		{name: "running", snap: Snapshot{Phase: domain.PhaseUploading, Label: LabelUploading}, want: EventTypeStatus},
		{name: "completed", snap: Snapshot{Phase: domain.PhaseCompleted, Label: LabelSuccess, ArtifactID: "abc123"}, want: EventTypeResult},
		{name: "failed", snap: Snapshot{Phase: domain.PhaseUploading, Failure: &Failure{Phase: domain.PhaseUploading, Kind: KindSubmission, Message: "upload rejected"}}, want: EventTypeError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := StatusEvent(tc.snap)
			if event.Type != tc.want {
				t.Fatalf("type = %s, want %s", event.Type, tc.want)
			}
			if event.Phase != tc.snap.Phase || event.ArtifactID != tc.snap.ArtifactID {
				t.Fatalf("event = %+v", event)
			}
			if tc.snap.Failure != nil && event.Message != tc.snap.Failure.Message {
				t.Fatalf("message = %q", event.Message)
			}
		})
	}
}
