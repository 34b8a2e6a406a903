package widget

// EventKind names the operation that changed the widget state.
type EventKind string

const (
	EventSubmit EventKind = "submit"
	EventFocus  EventKind = "focus"
	EventReset  EventKind = "reset"
)

// Event is delivered to subscribers after every state change.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
}

const subscriberBuffer = 8

// Subscribe returns a channel receiving state changes and a function to end
// the subscription.  The channel is closed when the subscription ends or the
// widget is closed.  Events are dropped for subscribers that fall behind.
func (w *Widget) Subscribe() (<-chan Event, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	if w.closed {
		close(ch)
		return ch, func() {}
	}
	key := w.nextSub
	w.nextSub++
	w.subs[key] = ch
	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if sub, ok := w.subs[key]; ok {
			close(sub)
			delete(w.subs, key)
		}
	}
	return ch, cancel
}

// notify must be called with mu held.
func (w *Widget) notify(kind EventKind) {
	if len(w.subs) == 0 {
		return
	}
	ev := Event{Kind: kind, Snapshot: w.snapshot()}
	for _, ch := range w.subs {
		select {
		case ch <- ev:
		default:
			w.log.Printf("Dropping %s event for widget %s: subscriber not keeping up", kind, w.id)
		}
	}
}
