package widget

import (
	"log"
	"sync"
	"time"
)

// Registry keeps one widget per session.  Widgets that have not been used for
// the idle timeout are closed by a background sweep.
type Registry struct {
	opts        []Option
	idleTimeout time.Duration
	log         *log.Logger

	mu      sync.Mutex
	widgets map[string]*Widget
	closed  bool

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRegistry returns a registry creating widgets with the given options.  If
// idleTimeout is positive, idle widgets are swept at a quarter of the timeout.
func NewRegistry(idleTimeout time.Duration, logger *log.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	r := &Registry{
		opts:        opts,
		idleTimeout: idleTimeout,
		log:         logger,
		widgets:     make(map[string]*Widget),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	if idleTimeout > 0 {
		go r.janitor(idleTimeout / 4)
	} else {
		close(r.done)
	}
	return r
}

// Get returns the widget for the session, creating it on first use.
func (r *Registry) Get(id string) (*Widget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if w, ok := r.widgets[id]; ok && !w.Closed() {
		w.touch()
		return w, nil
	}
	opts := make([]Option, 0, len(r.opts)+2)
	opts = append(opts, WithLogger(r.log))
	opts = append(opts, r.opts...)
	opts = append(opts, WithID(id))
	w := New(opts...)
	r.widgets[id] = w
	return w, nil
}

// Lookup returns the widget for the session without creating one.
func (r *Registry) Lookup(id string) (*Widget, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.widgets[id]
	if !ok || w.Closed() {
		return nil, false
	}
	return w, true
}

// Remove closes and forgets the session's widget.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	w, ok := r.widgets[id]
	delete(r.widgets, id)
	r.mu.Unlock()
	if ok {
		w.Close()
	}
}

// Len returns the number of live widgets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.widgets)
}

// Close stops the sweep and closes every widget, releasing pending resets.
func (r *Registry) Close() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	<-r.done

	r.mu.Lock()
	r.closed = true
	widgets := r.widgets
	r.widgets = make(map[string]*Widget)
	r.mu.Unlock()

	for _, w := range widgets {
		w.Close()
	}
}

func (r *Registry) janitor(interval time.Duration) {
	defer close(r.done)
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if n := r.sweep(now); n > 0 {
				r.log.Printf("Closed %d idle widget(s)", n)
			}
		case <-r.stop:
			return
		}
	}
}

// sweep closes the widgets idle since before now minus the idle timeout and
// returns how many were closed.
func (r *Registry) sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTimeout)
	var expired []*Widget
	r.mu.Lock()
	for id, w := range r.widgets {
		if w.idleSince().Before(cutoff) {
			expired = append(expired, w)
			delete(r.widgets, id)
		}
	}
	r.mu.Unlock()
	for _, w := range expired {
		w.Close()
	}
	return len(expired)
}
