package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RateLimit indicates how many requests are allowed within a given interval.
type RateLimit struct {
	Requests int
	Interval time.Duration
}

// Page holds the copy shown around the form.
type Page struct {
	Headline    string `yaml:"headline"`
	Paragraph   string `yaml:"paragraph"`
	Highlight   string `yaml:"highlight"`
	Detail      string `yaml:"detail"`
	ButtonLabel string `yaml:"button_label"`
	TermsURL    string `yaml:"terms_url"`
}

// Config aggregates service configuration values.
type Config struct {
	Port        uint16        `yaml:"port"`
	DBPath      string        `yaml:"db_path"`
	CookieName  string        `yaml:"cookie_name"`
	ResetDelay  time.Duration `yaml:"reset_delay"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	QueueLength int           `yaml:"queue_length"`
	// SubmitRateLimit in the form <requests>/<unit>, e.g. "30/min".  Empty
	// disables the limit.
	SubmitRateLimit string `yaml:"submit_rate_limit"`
	Page            Page   `yaml:"page"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:            3000,
		DBPath:          "trialform.db",
		CookieName:      "trialform-session",
		ResetDelay:      5 * time.Second,
		IdleTimeout:     30 * time.Minute,
		QueueLength:     100,
		SubmitRateLimit: "30/min",
		Page: Page{
			Headline:    "Learn to code by watching others",
			Paragraph:   "See how experienced developers solve problems in real-time. Watching scripted tutorials is great, but understanding how developers think is invaluable.",
			Highlight:   "Try it free 7 days",
			Detail:      "then $20/mo. thereafter",
			ButtonLabel: "Claim your free trial",
			TermsURL:    "#",
		},
	}
}

// Load returns the defaults overridden by the YAML file at path (skipped if
// path is empty or the file does not exist) and then by TRIALFORM_*
// environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %q: %w", path, err)
			}
		}
	}

	if v := getEnv("TRIALFORM_PORT", ""); v != "" {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return cfg, fmt.Errorf("invalid TRIALFORM_PORT value: %w", err)
		}
		cfg.Port = uint16(port)
	}
	cfg.DBPath = getEnv("TRIALFORM_DB", cfg.DBPath)
	cfg.CookieName = getEnv("TRIALFORM_COOKIE", cfg.CookieName)
	var err error
	if cfg.ResetDelay, err = parseDuration(getEnv("TRIALFORM_RESET_DELAY", ""), cfg.ResetDelay); err != nil {
		return cfg, fmt.Errorf("invalid TRIALFORM_RESET_DELAY value: %w", err)
	}
	if cfg.IdleTimeout, err = parseDuration(getEnv("TRIALFORM_IDLE_TIMEOUT", ""), cfg.IdleTimeout); err != nil {
		return cfg, fmt.Errorf("invalid TRIALFORM_IDLE_TIMEOUT value: %w", err)
	}
	if v := getEnv("TRIALFORM_QUEUE_LENGTH", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid TRIALFORM_QUEUE_LENGTH value: %q", v)
		}
		cfg.QueueLength = n
	}
	cfg.SubmitRateLimit = getEnv("TRIALFORM_SUBMIT_RATE_LIMIT", cfg.SubmitRateLimit)

	if _, err := cfg.RateLimit(); err != nil {
		return cfg, fmt.Errorf("invalid submit rate limit: %w", err)
	}
	return cfg, nil
}

// RateLimit parses SubmitRateLimit.  The zero RateLimit means unlimited.
func (c Config) RateLimit() (RateLimit, error) {
	if strings.TrimSpace(c.SubmitRateLimit) == "" {
		return RateLimit{}, nil
	}
	return parseRateLimit(c.SubmitRateLimit)
}

// Address returns the listen address for the configured port.
func (c Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func parseRateLimit(value string) (RateLimit, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimit{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimit{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimit{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimit{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

// parseDuration returns fallback for an empty input.
func parseDuration(input string, fallback time.Duration) (time.Duration, error) {
	if input == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(input)
	if err != nil {
		return fallback, err
	}
	if d <= 0 {
		return fallback, fmt.Errorf("duration must be positive, got %q", input)
	}
	return d, nil
}
