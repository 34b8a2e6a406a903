package widget

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegistryGet(t *testing.T) {
	r := NewRegistry(0, quiet)
	defer r.Close()

	a, err := r.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a.ID() != "a" {
		t.Fatalf("widget created with id %q", a.ID())
	}
	again, _ := r.Get("a")
	if again != a {
		t.Fatal("Get returned a different widget for the same session")
	}
	b, _ := r.Get("b")
	if b == a {
		t.Fatal("sessions share a widget")
	}
	if n := r.Len(); n != 2 {
		t.Fatalf("unexpected widget count %d", n)
	}

	if _, ok := r.Lookup("c"); ok {
		t.Fatal("Lookup created a widget")
	}
	r.Remove("a")
	if !a.Closed() {
		t.Fatal("removed widget not closed")
	}
	if _, ok := r.Lookup("a"); ok {
		t.Fatal("removed widget still registered")
	}
}

func TestRegistryOptionsApplied(t *testing.T) {
	r := NewRegistry(0, quiet, WithResetDelay(15*time.Millisecond))
	defer r.Close()
	w, _ := r.Get("s")
	events, cancel := w.Subscribe()
	defer cancel()
	if _, err := w.Submit(context.Background(), validValues()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitEvent(t, events, EventReset, time.Second)
}

func TestRegistrySweep(t *testing.T) {
	r := NewRegistry(time.Hour, quiet)
	defer r.Close()

	w, _ := r.Get("idle")
	if n := r.sweep(time.Now()); n != 0 {
		t.Fatalf("fresh widget swept (%d)", n)
	}
	if n := r.sweep(time.Now().Add(2 * time.Hour)); n != 1 {
		t.Fatalf("expected one idle widget to be swept, got %d", n)
	}
	if !w.Closed() {
		t.Fatal("swept widget not closed")
	}
	if r.Len() != 0 {
		t.Fatal("swept widget still registered")
	}
	fresh, _ := r.Get("idle")
	if fresh == w || fresh.Closed() {
		t.Fatal("session did not get a new widget after sweep")
	}
}

func TestRegistryJanitor(t *testing.T) {
	r := NewRegistry(20*time.Millisecond, quiet)
	defer r.Close()
	w, _ := r.Get("s")
	deadline := time.Now().Add(time.Second)
	for !w.Closed() {
		if time.Now().After(deadline) {
			t.Fatal("idle widget was never closed by the janitor")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRegistryCloseTearsDownWidgets(t *testing.T) {
	r := NewRegistry(time.Minute, quiet, WithResetDelay(10*time.Millisecond))
	w, _ := r.Get("s")
	if _, err := w.Submit(context.Background(), validValues()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	r.Close()
	if !w.Closed() {
		t.Fatal("widget still open after registry close")
	}
	time.Sleep(30 * time.Millisecond)
	if s := w.Snapshot(); s.Success == "" {
		t.Fatal("reset ran after teardown")
	}
	if _, err := r.Get("t"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from closed registry, got %v", err)
	}
	r.Close()
}
