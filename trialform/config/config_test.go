package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"TRIALFORM_PORT", "TRIALFORM_DB", "TRIALFORM_COOKIE", "TRIALFORM_RESET_DELAY",
		"TRIALFORM_IDLE_TIMEOUT", "TRIALFORM_QUEUE_LENGTH", "TRIALFORM_SUBMIT_RATE_LIMIT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults changed by Load (-want +got):\n%s", diff)
	}
	if cfg.ResetDelay != 5*time.Second {
		t.Fatalf("unexpected reset delay %s", cfg.ResetDelay)
	}
	if cfg.Address() != ":3000" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := Load(missing); err != nil {
		t.Fatalf("missing config file should be skipped: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "trialform.yaml")
	data := []byte(`port: 8080
reset_delay: 2s
submit_rate_limit: 10/sec
page:
  button_label: Start now
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 || cfg.ResetDelay != 2*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Page.ButtonLabel != "Start now" || cfg.Page.Headline != Default().Page.Headline {
		t.Fatalf("unexpected page copy: %+v", cfg.Page)
	}
	rl, err := cfg.RateLimit()
	if err != nil || rl.Requests != 10 || rl.Interval != time.Second {
		t.Fatalf("unexpected rate limit %+v (%v)", rl, err)
	}

	if err := os.WriteFile(path, []byte("port: [\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRIALFORM_PORT", "9000")
	t.Setenv("TRIALFORM_DB", "/tmp/x.db")
	t.Setenv("TRIALFORM_RESET_DELAY", "1500ms")
	t.Setenv("TRIALFORM_QUEUE_LENGTH", "7")
	t.Setenv("TRIALFORM_SUBMIT_RATE_LIMIT", "5/h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9000 || cfg.DBPath != "/tmp/x.db" || cfg.QueueLength != 7 {
		t.Fatalf("unexpected config values: %+v", cfg)
	}
	if cfg.ResetDelay != 1500*time.Millisecond {
		t.Fatalf("unexpected reset delay %s", cfg.ResetDelay)
	}

	t.Setenv("TRIALFORM_SUBMIT_RATE_LIMIT", "xyz")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid rate limit")
	}
	t.Setenv("TRIALFORM_SUBMIT_RATE_LIMIT", "")
	t.Setenv("TRIALFORM_PORT", "http")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid port")
	}
	t.Setenv("TRIALFORM_PORT", "")
	t.Setenv("TRIALFORM_QUEUE_LENGTH", "-1")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid queue length")
	}
}

func TestEmptyRateLimitIsUnlimited(t *testing.T) {
	cfg := Default()
	cfg.SubmitRateLimit = " "
	rl, err := cfg.RateLimit()
	if err != nil || rl != (RateLimit{}) {
		t.Fatalf("expected zero rate limit, got %+v (%v)", rl, err)
	}
}

func TestParseRateLimit(t *testing.T) {
	cfg, err := parseRateLimit("5/sec")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Requests != 5 || cfg.Interval != time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := parseRateLimit("bad-format"); err == nil {
		t.Fatalf("expected error for malformed value")
	}
	if _, err := parseRateLimit("0/min"); err == nil {
		t.Fatalf("expected error for zero requests")
	}
	if _, err := parseRateLimit("5/day"); err == nil {
		t.Fatalf("expected error for unsupported unit")
	}
}

func TestParseDuration(t *testing.T) {
	if d, err := parseDuration("3h", time.Second); err != nil || d != 3*time.Hour {
		t.Fatalf("expected 3h duration, got %s (%v)", d, err)
	}
	if d, err := parseDuration("", time.Second); err != nil || d != time.Second {
		t.Fatalf("expected fallback for empty input, got %s (%v)", d, err)
	}
	if _, err := parseDuration("invalid", time.Second); err == nil {
		t.Fatalf("expected error for malformed duration")
	}
	if _, err := parseDuration("-1s", time.Second); err == nil {
		t.Fatalf("expected error for negative duration")
	}
}

func TestLoadEnvInvalidDuration(t *testing.T) {
	for _, key := range []string{"TRIALFORM_RESET_DELAY", "TRIALFORM_IDLE_TIMEOUT"} {
		clearEnv(t)
		for _, value := range []string{"5", "soon", "0s"} {
			t.Setenv(key, value)
			if _, err := Load(""); err == nil {
				t.Errorf("%s=%q: expected error", key, value)
			}
		}
	}
}
