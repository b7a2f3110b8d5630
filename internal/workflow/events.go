package workflow

import (
	"sync"
	"time"

	"video-transcriber/internal/domain"
)

// EventType classifies messages emitted during a run.
type EventType string

const (
	EventTypeStatus   EventType = "status"
	EventTypeProgress EventType = "progress"
	EventTypeResult   EventType = "result"
	EventTypeError    EventType = "error"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq        int64        `json:"seq"`
	Timestamp  time.Time    `json:"timestamp"`
	RunID      string       `json:"runId,omitempty"`
	Type       EventType    `json:"type"`
	Phase      domain.Phase `json:"phase,omitempty"`
	Label      string       `json:"label,omitempty"`
	Progress   float64      `json:"progress,omitempty"`
	ArtifactID string       `json:"artifactId,omitempty"`
	Message    string       `json:"message,omitempty"`
	Failure    *Failure     `json:"failure,omitempty"`
}

// EventBus stores recent events and provides incremental reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// StatusEvent converts a snapshot into the event the UI renders.
func StatusEvent(snap Snapshot) Event {
	event := Event{
		RunID:      snap.RunID,
		Type:       EventTypeStatus,
		Phase:      snap.Phase,
		Label:      snap.Label,
		ArtifactID: snap.ArtifactID,
	}
	switch {
	case snap.Failure != nil:
		event.Type = EventTypeError
		event.Failure = snap.Failure
		event.Message = snap.Failure.Message
	case snap.Phase == domain.PhaseCompleted:
		event.Type = EventTypeResult
	}
	return event
}
