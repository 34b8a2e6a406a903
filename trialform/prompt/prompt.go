// Package prompt fills in the signup form widget from a terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/G-Node/trialform/trialform/form"
	"github.com/G-Node/trialform/trialform/widget"
)

// Run asks for every field of the signup form, checking each answer with the
// field's rules, and submits the values to the widget.  Fields the widget
// still rejects are focused and asked again.  Once the submission is accepted
// the success message is printed and Run waits for the widget to reset.  The
// accepted payload is returned.
func Run(ctx context.Context, d Driver, w *widget.Widget, out io.Writer) (form.Values, error) {
	events, cancel := w.Subscribe()
	defer cancel()

	elements := form.Signup()
	var values form.Values
	pending := elements
	for {
		for _, elem := range pending {
			answer, err := ask(ctx, d, elem)
			if err != nil {
				return form.Values{}, err
			}
			values.Set(elem.Name, answer)
		}

		drain(events)
		res, err := w.Submit(ctx, values)
		if err != nil {
			return form.Values{}, err
		}
		if res.Accepted {
			fmt.Fprintln(out, widget.SuccessMessage)
			if err := waitReset(ctx, events); err != nil {
				return res.Payload, err
			}
			fmt.Fprintln(out, "Form cleared.")
			return res.Payload, nil
		}

		pending = pending[:0:0]
		for _, fe := range res.Errors {
			fmt.Fprintf(out, "  %s\n", fe.Message)
			if err := w.Focus(fe.Field); err != nil {
				return form.Values{}, err
			}
			for _, elem := range elements {
				if elem.Name == fe.Field {
					pending = append(pending, elem)
				}
			}
		}
	}
}

func ask(ctx context.Context, d Driver, elem form.Element) (string, error) {
	cfg := InputConfig{
		Message: elem.Label + ":",
		Validator: func(s string) error {
			if fe := form.ValidateField(elem.Name, s); fe != nil {
				return errors.New(fe.Message)
			}
			return nil
		},
	}
	if elem.Type == form.PasswordInput {
		cfg.Help = fmt.Sprintf("At least %d characters with at least one letter and one number", form.PasswordMinLength)
		return d.Password(ctx, cfg)
	}
	return d.Input(ctx, cfg)
}

func waitReset(ctx context.Context, events <-chan widget.Event) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return widget.ErrClosed
			}
			if ev.Kind == widget.EventReset {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drain discards the events of earlier attempts.
func drain(events <-chan widget.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
