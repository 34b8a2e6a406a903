// Package trialform serves the free trial signup form.  Every browser session
// gets its own form widget; submissions are validated by the widget, and
// accepted payloads are handed to a worker that runs the submit action.
package trialform

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/G-Node/trialform/trialform/config"
	"github.com/G-Node/trialform/trialform/db"
	"github.com/G-Node/trialform/trialform/form"
	"github.com/G-Node/trialform/trialform/web"
	"github.com/G-Node/trialform/trialform/widget"
	"github.com/G-Node/trialform/trialform/worker"
)

// Trialform represents a full service which contains a web server, a
// registry of form widgets, a database for sessions and submission records,
// and a worker that runs the submit action.
type Trialform struct {
	web     *web.Server
	db      *db.Connection
	worker  *worker.Worker
	widgets *widget.Registry
	metrics *web.Metrics
	tracer  trace.Tracer
	log     *log.Logger
	form    form.Form
	Config  config.Config

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewService creates a new Trialform with the given configuration and submit
// action.  A nil action logs the submitted values with the password redacted.
func NewService(cfg config.Config, action worker.SubmitAction, logger *log.Logger) (*Trialform, error) {
	if logger == nil {
		logger = log.Default()
	}
	srv := new(Trialform)
	srv.Config = cfg
	srv.log = logger
	srv.stop = make(chan struct{})
	srv.tracer = otel.Tracer("trialform")
	srv.form = form.Form{
		Name:        cfg.Page.Headline,
		Description: cfg.Page.Paragraph,
		Elements:    form.Signup(),
	}

	// DB
	logger.Printf("Initialising database %s", cfg.DBPath)
	conn, err := db.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialise database: %w", err)
	}
	srv.db = conn

	// Worker
	srv.worker = worker.New(srv.db, cfg.QueueLength, logger)
	srv.SetSubmitAction(action)

	// Widgets
	srv.widgets = widget.NewRegistry(cfg.IdleTimeout, logger,
		widget.WithResetDelay(cfg.ResetDelay),
		widget.WithSubmitHook(srv.enqueue),
	)

	// Web server
	srv.web = web.New(cfg.Port, logger)
	srv.metrics = web.NewMetrics(srv.widgets.Len)
	if err := srv.setupWebRoutes(); err != nil {
		srv.widgets.Close()
		srv.db.Close()
		return nil, err
	}
	return srv, nil
}

// enqueue hands an accepted payload to the worker.
func (srv *Trialform) enqueue(_ context.Context, sessionID string, payload form.Values) error {
	return srv.worker.Enqueue(worker.NewJob(sessionID, payload))
}

// Start the service (worker, session expiry and web server).
func (srv *Trialform) Start() error {
	srv.log.Print("Starting worker")
	srv.worker.Start()

	if srv.Config.IdleTimeout > 0 {
		srv.wg.Add(1)
		go srv.expireSessions(srv.Config.IdleTimeout)
	}

	srv.log.Print("Starting web service")
	if err := srv.web.Start(); err != nil {
		return err
	}
	srv.log.Print("Web server started")
	return nil
}

// WaitForInterrupt blocks until the service receives an interrupt signal
// (SIGINT or SIGTERM).
func (srv *Trialform) WaitForInterrupt() {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigchan)
	<-sigchan
}

// Stop the service by gracefully shutting down the web service, releasing
// all widgets, stopping the worker, and closing the database connection, in
// that order.
func (srv *Trialform) Stop() {
	srv.log.Print("Stopping web service")
	srv.web.Stop()

	srv.stopOnce.Do(func() {
		close(srv.stop)
	})
	srv.wg.Wait()

	srv.log.Print("Releasing form widgets")
	srv.widgets.Close()

	srv.log.Print("Stopping worker queue")
	srv.worker.Stop()

	srv.log.Print("Closing database connection")
	if err := srv.db.Close(); err != nil {
		srv.log.Printf("Error closing database: %v", err)
	}
	srv.log.Print("Service stopped")
}

// SetSubmitAction can be used to set or override the submit action for the
// service.  A nil action restores the default.
func (srv *Trialform) SetSubmitAction(f worker.SubmitAction) {
	if f == nil {
		f = worker.LogAction(srv.log)
	}
	srv.worker.Action = f
}

// Form returns the definition of the signup form.
func (srv *Trialform) Form() form.Form {
	f := srv.form
	f.Elements = append([]form.Element(nil), srv.form.Elements...)
	return f
}

// expireSessions deletes stored sessions that have not been seen for the
// idle timeout.  Their widgets are swept by the registry.
func (srv *Trialform) expireSessions(idleTimeout time.Duration) {
	defer srv.wg.Done()
	ticker := time.NewTicker(idleTimeout)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			n, err := srv.db.DeleteSessionsBefore(now.Add(-idleTimeout))
			if err != nil {
				srv.log.Printf("Error expiring sessions: %v", err)
			} else if n > 0 {
				srv.log.Printf("Expired %d session(s)", n)
			}
		case <-srv.stop:
			return
		}
	}
}

// isClosed reports whether err means the widget or registry was released
// while a request was using it.
func isClosed(err error) bool {
	return errors.Is(err, widget.ErrClosed)
}
