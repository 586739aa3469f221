package statestore

import (
	"errors"
	"sync"
)

// Dispatcher is a minimal in-process Controller. Handlers for an event run
// synchronously in registration order and their errors are joined.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

var _ Controller = (*Dispatcher)(nil)

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[string][]Handler{}}
}

// On registers handler for event. Nil handlers are ignored.
func (d *Dispatcher) On(event string, handler Handler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers == nil {
		d.handlers = map[string][]Handler{}
	}
	d.handlers[event] = append(d.handlers[event], handler)
}

// Emit runs every handler registered for event with args.
func (d *Dispatcher) Emit(event string, args ...any) error {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[event]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(args...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Handlers returns the number of handlers registered for event.
func (d *Dispatcher) Handlers(event string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[event])
}
