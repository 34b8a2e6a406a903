package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/G-Node/trialform/trialform/form"
	"github.com/G-Node/trialform/trialform/widget"
)

// scriptedDriver answers prompts from a queue per message.  With validate
// set it behaves like a terminal prompt: answers failing the validator are
// reported and the next answer is taken.
type scriptedDriver struct {
	answers   map[string][]string
	validate  bool
	rejected  []string
	passwords int
}

func (d *scriptedDriver) next(cfg InputConfig) (string, error) {
	for {
		queue := d.answers[cfg.Message]
		if len(queue) == 0 {
			return "", errors.New("no answer for " + cfg.Message)
		}
		answer := queue[0]
		d.answers[cfg.Message] = queue[1:]
		if d.validate && cfg.Validator != nil {
			if err := cfg.Validator(answer); err != nil {
				d.rejected = append(d.rejected, err.Error())
				continue
			}
		}
		return answer, nil
	}
}

func (d *scriptedDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	return d.next(cfg)
}

func (d *scriptedDriver) Password(_ context.Context, cfg InputConfig) (string, error) {
	d.passwords++
	return d.next(cfg)
}

var quiet = log.New(io.Discard, "", 0)

func newWidget() *widget.Widget {
	return widget.New(widget.WithResetDelay(20*time.Millisecond), widget.WithLogger(quiet))
}

func TestRunValidates(t *testing.T) {
	d := &scriptedDriver{
		validate: true,
		answers: map[string][]string{
			"First Name:":    {"R2D2", "Ada"},
			"Last Name:":     {"Lovelace"},
			"Email Address:": {"user@example", "user@example.com"},
			"Password:":      {"abc", "abcdefgh", "abc12345"},
		},
	}
	w := newWidget()
	defer w.Close()
	out := new(bytes.Buffer)

	payload, err := Run(context.Background(), d, w, out)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := form.Values{FirstName: "Ada", LastName: "Lovelace", Email: "user@example.com", Password: "abc12345"}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	wantRejected := []string{
		"First Name should only contain letters",
		"Invalid email address",
		"Password must be at least 8 characters",
		"Password must contain at least one letter and one number",
	}
	if diff := cmp.Diff(wantRejected, d.rejected); diff != "" {
		t.Fatalf("validation messages mismatch (-want +got):\n%s", diff)
	}
	if d.passwords != 1 {
		t.Fatalf("password asked %d times through the password prompt", d.passwords)
	}
	if !strings.Contains(out.String(), widget.SuccessMessage) || !strings.Contains(out.String(), "Form cleared.") {
		t.Fatalf("unexpected output: %q", out.String())
	}
	if s := w.Snapshot(); s.Phase != widget.Idle || s.Values != (form.Values{}) {
		t.Fatalf("widget not reset: %+v", s)
	}
}

func TestRunAsksRejectedFieldsAgain(t *testing.T) {
	d := &scriptedDriver{
		answers: map[string][]string{
			"First Name:":    {"Ada"},
			"Last Name:":     {"", "Lovelace"},
			"Email Address:": {"user@example.com"},
			"Password:":      {"password", "abc12345"},
		},
	}
	w := newWidget()
	defer w.Close()
	out := new(bytes.Buffer)

	payload, err := Run(context.Background(), d, w, out)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if payload.LastName != "Lovelace" || payload.Password != "abc12345" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	for _, want := range []string{"Last Name is required", "Password must contain at least one letter and one number"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
	for msg, rest := range d.answers {
		if len(rest) > 0 {
			t.Errorf("%s: answers left over: %v", msg, rest)
		}
	}
}

func TestRunDriverError(t *testing.T) {
	d := &scriptedDriver{answers: map[string][]string{}}
	w := newWidget()
	defer w.Close()
	if _, err := Run(context.Background(), d, w, io.Discard); err == nil {
		t.Fatal("expected driver error")
	}
}

func TestRunCancelledWhileWaiting(t *testing.T) {
	d := &scriptedDriver{
		answers: map[string][]string{
			"First Name:":    {"Ada"},
			"Last Name:":     {"Lovelace"},
			"Email Address:": {"user@example.com"},
			"Password:":      {"abc12345"},
		},
	}
	w := widget.New(widget.WithResetDelay(time.Hour), widget.WithLogger(quiet))
	defer w.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	payload, err := Run(ctx, d, w, io.Discard)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if payload.Email != "user@example.com" {
		t.Fatalf("accepted payload not returned: %+v", payload)
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	other := errors.New("boom")
	if err := translateSurveyErr(other); err != other {
		t.Fatalf("unexpected translation %v", err)
	}
}
