package augment

import "time"

// StepStatus is the state of one status entry.
type StepStatus string

const (
	StatusLoading StepStatus = "loading"
	StatusSuccess StepStatus = "success"
	StatusError   StepStatus = "error"
)

// StatusEntry is one element of the ordered, append-only status stream a
// pipeline emits while running. Entries are never mutated in place.
type StatusEntry struct {
	Step    string     `json:"step"`
	Status  StepStatus `json:"status"`
	Message string     `json:"message"`
	Details string     `json:"details,omitempty"`
	At      time.Time  `json:"at"`
}

// Events receives status appends and transient user notifications. All
// methods are called synchronously from the appending goroutine, so the
// stream order matches append order.
type Events interface {
	StatusAppended(entry StatusEntry)
	// Notify surfaces a transient notification. kind is "success" or
	// "error".
	Notify(kind, message string)
}

// Status returns a copy of the current status stream.
func (o *Orchestrator) Status() []StatusEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]StatusEntry(nil), o.entries...)
}

// IsGenerating reports whether a gated pipeline is in flight.
func (o *Orchestrator) IsGenerating() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generating
}

// reset clears the status stream at the start of a run.
func (o *Orchestrator) reset() {
	o.mu.Lock()
	o.entries = o.entries[:0]
	o.mu.Unlock()
}

// append adds an entry to the stream and publishes it.
func (o *Orchestrator) append(step string, status StepStatus, message, details string) {
	entry := StatusEntry{
		Step:    step,
		Status:  status,
		Message: message,
		Details: details,
		At:      time.Now(),
	}
	o.mu.Lock()
	o.entries = append(o.entries, entry)
	o.mu.Unlock()

	if o.events != nil {
		o.events.StatusAppended(entry)
	}
}

func (o *Orchestrator) notify(kind, message string) {
	if o.events != nil {
		o.events.Notify(kind, message)
	}
}
