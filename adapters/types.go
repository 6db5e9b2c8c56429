package adapters

// Event is one fully-built tracking payload: a flat mapping from wire
// parameter name to value, ready to be sent to a collector.
type Event map[string]string

// Clone returns an independent copy of the event.
func (e Event) Clone() Event {
	out := make(Event, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
