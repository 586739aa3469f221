package activity

import (
	"context"
	"sync"
)

// CaptureHook keeps every event it receives. Examples and tests use it to
// observe what a store emitted.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify records the event and returns Err.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Verbs returns the recorded verbs in arrival order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, len(h.Events))
	for i, event := range h.Events {
		verbs[i] = event.Verb
	}
	return verbs
}

// Paths returns the mutated path of each recorded event. Root mutations
// report "".
func (h *CaptureHook) Paths() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	paths := make([]string, len(h.Events))
	for i, event := range h.Events {
		paths[i], _ = event.Metadata[MetaPath].(string)
	}
	return paths
}

// Last returns the most recent event.
func (h *CaptureHook) Last() (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.Events) == 0 {
		return Event{}, false
	}
	return h.Events[len(h.Events)-1], true
}

// Reset drops recorded events.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = nil
}
