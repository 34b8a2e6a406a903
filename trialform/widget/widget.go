// Package widget holds the state of the signup form: the values on display,
// one error message per field, the success message and the timed reset that
// clears them.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/G-Node/trialform/trialform/form"
)

// SuccessMessage is shown after an accepted submission until the widget resets.
const SuccessMessage = "Form submitted successfully!"

// DefaultResetDelay is the time the success message stays on display.
const DefaultResetDelay = 5 * time.Second

var (
	// ErrClosed is returned by operations on a widget that has been released.
	ErrClosed = errors.New("widget closed")
	// ErrUnknownField is returned when focusing a field the form does not have.
	ErrUnknownField = errors.New("unknown field")
)

// Phase of the widget's state machine.  Validation happens synchronously
// inside Submit, so it has no phase of its own.
type Phase int

const (
	Idle Phase = iota
	Invalid
	SuccessDisplayed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Invalid:
		return "invalid"
	case SuccessDisplayed:
		return "success"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Snapshot is a copy of the widget state used for rendering.
type Snapshot struct {
	Phase   Phase
	Values  form.Values
	Errors  form.Errors
	Success string
}

// Error returns the message shown under the given field, if any.
func (s Snapshot) Error(f form.Field) string {
	msg, _ := s.Errors.Get(f)
	return msg
}

// HasError reports whether the given field is displayed in error.
func (s Snapshot) HasError(f form.Field) bool {
	_, ok := s.Errors.Get(f)
	return ok
}

// Result of a submission.  Payload is only set when the submission was
// accepted and holds the sanitized values.
type Result struct {
	Accepted bool
	Errors   form.Errors
	Payload  form.Values
}

// SubmitHook receives the sanitized payload of every accepted submission.
type SubmitHook func(ctx context.Context, widgetID string, payload form.Values) error

// Option configures a Widget.
type Option func(*Widget)

// WithID sets the identifier passed to the submit hook.
func WithID(id string) Option {
	return func(w *Widget) {
		w.id = id
	}
}

// WithResetDelay overrides DefaultResetDelay.  Non-positive values are ignored.
func WithResetDelay(d time.Duration) Option {
	return func(w *Widget) {
		if d > 0 {
			w.resetDelay = d
		}
	}
}

// WithValidator replaces the shared form validator.
func WithValidator(v *form.Validator) Option {
	return func(w *Widget) {
		if v != nil {
			w.validator = v
		}
	}
}

// WithSubmitHook sets the hook run for accepted submissions.
func WithSubmitHook(h SubmitHook) Option {
	return func(w *Widget) {
		w.onSubmit = h
	}
}

// WithLogger sets the logger for widget lifecycle messages.
func WithLogger(l *log.Logger) Option {
	return func(w *Widget) {
		if l != nil {
			w.log = l
		}
	}
}

// Widget is the signup form's state.  All methods are safe for concurrent use.
type Widget struct {
	id         string
	validator  *form.Validator
	resetDelay time.Duration
	onSubmit   SubmitHook
	log        *log.Logger

	mu       sync.Mutex
	state    Snapshot
	timer    *time.Timer
	gen      uint64
	subs     map[int]chan Event
	nextSub  int
	closed   bool
	lastUsed time.Time
}

// New returns an idle widget.
func New(opts ...Option) *Widget {
	w := &Widget{
		validator:  form.DefaultValidator(),
		resetDelay: DefaultResetDelay,
		log:        log.Default(),
		subs:       make(map[int]chan Event),
		lastUsed:   time.Now(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ID returns the widget identifier.
func (w *Widget) ID() string {
	return w.id
}

// Snapshot returns a copy of the current state.
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *Widget) snapshot() Snapshot {
	s := w.state
	if len(s.Errors) > 0 {
		s.Errors = append(form.Errors(nil), s.Errors...)
	}
	return s
}

// Submit validates the raw values.  Invalid values are kept on display with
// their errors.  Valid values are sanitized and handed to the submit hook;
// once the hook has taken them the success message is shown until the reset
// delay elapses.  A failing hook leaves the widget idle.
//
// The returned error is ErrClosed or a failure of the submit hook; rule
// violations are reported in the Result.
func (w *Widget) Submit(ctx context.Context, raw form.Values) (Result, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Result{}, ErrClosed
	}
	w.lastUsed = time.Now()

	if errs := w.validator.Validate(raw); len(errs) > 0 {
		w.stopTimer()
		w.state = Snapshot{
			Phase:  Invalid,
			Values: raw,
			Errors: errs,
		}
		w.notify(EventSubmit)
		w.mu.Unlock()
		return Result{Errors: append(form.Errors(nil), errs...)}, nil
	}

	payload := form.Sanitize(raw)
	hook := w.onSubmit
	id := w.id
	w.mu.Unlock()

	res := Result{Accepted: true, Payload: payload}
	if hook != nil {
		if err := hook(ctx, id, payload); err != nil {
			// The payload was not taken: nothing to claim success for.
			w.mu.Lock()
			if !w.closed {
				w.stopTimer()
				w.state = Snapshot{Phase: Idle}
				w.notify(EventReset)
			}
			w.mu.Unlock()
			return res, fmt.Errorf("submit hook: %w", err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return res, nil
	}
	w.state = Snapshot{
		Phase:   SuccessDisplayed,
		Values:  raw,
		Success: SuccessMessage,
	}
	w.scheduleReset()
	w.notify(EventSubmit)
	return res, nil
}

// Focus clears the error displayed for the field.  Once no errors remain the
// widget is idle again.
func (w *Widget) Focus(f form.Field) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.lastUsed = time.Now()
	if _, ok := w.state.Errors.Get(f); !ok {
		return nil
	}
	w.state.Errors = w.state.Errors.Without(f)
	if len(w.state.Errors) == 0 && w.state.Phase == Invalid {
		w.state.Phase = Idle
	}
	w.notify(EventFocus)
	return nil
}

// Reset clears values, errors and the success message and cancels a pending
// timed reset.
func (w *Widget) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.lastUsed = time.Now()
	w.stopTimer()
	w.state = Snapshot{Phase: Idle}
	w.notify(EventReset)
	return nil
}

// Close releases the widget.  The pending reset is cancelled and all
// subscriptions are closed.  Close is idempotent.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.stopTimer()
	for key, ch := range w.subs {
		close(ch)
		delete(w.subs, key)
	}
}

// Closed reports whether Close has been called.
func (w *Widget) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// idleSince returns the time of the last operation.
func (w *Widget) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// touch marks the widget as used without changing its state.
func (w *Widget) touch() {
	w.mu.Lock()
	w.lastUsed = time.Now()
	w.mu.Unlock()
}

// scheduleReset replaces any pending reset.  Must be called with mu held.
func (w *Widget) scheduleReset() {
	w.stopTimer()
	gen := w.gen
	w.timer = time.AfterFunc(w.resetDelay, func() {
		w.expire(gen)
	})
}

// stopTimer cancels the pending reset.  The generation bump makes a callback
// that already fired a no-op.  Must be called with mu held.
func (w *Widget) stopTimer() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.gen++
}

func (w *Widget) expire(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || gen != w.gen {
		return
	}
	w.timer = nil
	w.gen++
	w.state = Snapshot{Phase: Idle}
	w.notify(EventReset)
}
