// Common routes and pages

package trialform

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/G-Node/trialform/templates"
	"github.com/G-Node/trialform/trialform/config"
	"github.com/G-Node/trialform/trialform/db"
	"github.com/G-Node/trialform/trialform/form"
	"github.com/G-Node/trialform/trialform/web"
	"github.com/G-Node/trialform/trialform/widget"
	"github.com/G-Node/trialform/trialform/worker"
)

// sessionHandler is a handler that runs for a known browser session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *db.Session)

// withSession acts as middleware to attach the browser session.  Requests
// without a session cookie, or with a cookie for an unknown or expired
// session, get a fresh session.
func (srv *Trialform) withSession(handler sessionHandler) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := srv.session(w, r)
		if err != nil {
			srv.log.Printf("Session lookup failed: %v", err)
			srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error reading session")
			return
		}
		handler(w, r, sess)
	}
}

func (srv *Trialform) session(w http.ResponseWriter, r *http.Request) (*db.Session, error) {
	if cookie, err := r.Cookie(srv.Config.CookieName); err == nil && cookie.Value != "" {
		sess, err := srv.db.GetSession(cookie.Value)
		switch {
		case err == nil:
			now := time.Now()
			if err := srv.db.TouchSession(sess.ID, now); err != nil {
				srv.log.Printf("Error updating session %s: %v", sess.ID, err)
			}
			sess.LastSeen = now
			return sess, nil
		case !errors.Is(err, db.ErrNotFound):
			return nil, err
		}
	}

	sess := db.NewSession()
	if err := srv.db.InsertSession(sess); err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     srv.Config.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// sessionKey names a rate limited client by its session.  Requests without a
// known session are limited by IP.
func (srv *Trialform) sessionKey(r *http.Request) string {
	cookie, err := r.Cookie(srv.Config.CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	if _, err := srv.db.GetSession(cookie.Value); err != nil {
		return ""
	}
	return "session:" + cookie.Value
}

// setupWebRoutes sets up the routes of the service.
//
// Form (render, submit, focus, live events), submission log, metrics, health
// and static assets.
func (srv *Trialform) setupWebRoutes() error {
	rl, err := srv.Config.RateLimit()
	if err != nil {
		return err
	}

	router := srv.web.Router
	router.StrictSlash(true)
	router.Use(web.RequestID, srv.web.Logging, srv.metrics.Instrument)

	router.HandleFunc("/", srv.withSession(srv.renderForm)).Methods("GET")
	router.Handle("/", srv.web.RateLimit(rl, srv.sessionKey)(http.HandlerFunc(srv.withSession(srv.processForm)))).Methods("POST")
	router.HandleFunc("/focus", srv.withSession(srv.focusField)).Methods("POST")
	router.HandleFunc("/events", srv.withSession(srv.streamEvents)).Methods("GET")
	router.HandleFunc("/log", srv.renderLog).Methods("GET")
	router.HandleFunc("/log/{id:[0-9]+}", srv.showSubmission).Methods("GET")

	router.Handle("/metrics", srv.metrics.Handler()).Methods("GET")
	router.HandleFunc("/healthz", srv.healthz).Methods("GET")
	router.PathPrefix("/assets/").Handler(http.FileServer(http.FS(templates.Assets)))
	return nil
}

// fieldView is a form element with the state the widget shows for it.
type fieldView struct {
	form.Element
	Value string
	Error string
}

// formPage is the data of the Form template.
type formPage struct {
	Page         config.Page
	Fields       []fieldView
	Success      string
	ResetSeconds int
}

func (srv *Trialform) pageData(s widget.Snapshot) formPage {
	fields := make([]fieldView, len(srv.form.Elements))
	for idx, elem := range srv.form.Elements {
		fields[idx].Element = elem
		// Passwords are never written back into the page.
		if elem.Type != form.PasswordInput {
			fields[idx].Value = s.Values.Get(elem.Name)
		}
		fields[idx].Error = s.Error(elem.Name)
	}
	secs := int(math.Ceil(srv.Config.ResetDelay.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return formPage{
		Page:         srv.Config.Page,
		Fields:       fields,
		Success:      s.Success,
		ResetSeconds: secs,
	}
}

func (srv *Trialform) renderForm(w http.ResponseWriter, r *http.Request, sess *db.Session) {
	wd, err := srv.widgets.Get(sess.ID)
	if err != nil {
		srv.web.ErrorResponse(w, http.StatusServiceUnavailable, "Service is shutting down")
		return
	}
	if err := srv.web.Render(w, http.StatusOK, templates.Form, srv.pageData(wd.Snapshot())); err != nil {
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error showing form")
	}
}

func (srv *Trialform) processForm(w http.ResponseWriter, r *http.Request, sess *db.Session) {
	ctx, span := srv.tracer.Start(r.Context(), "trialform.submit",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("trialform.session_id", sess.ID),
			attribute.String("trialform.request_id", web.RequestIDFromContext(r.Context())),
		),
	)
	defer span.End()

	if err := r.ParseForm(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse form")
		srv.web.ErrorResponse(w, http.StatusBadRequest, "Failed to read form data")
		return
	}

	wd, err := srv.widgets.Get(sess.ID)
	if err != nil {
		srv.web.ErrorResponse(w, http.StatusServiceUnavailable, "Service is shutting down")
		return
	}

	submitTime := time.Now()
	res, err := wd.Submit(ctx, form.FromMap(r.PostForm))
	switch {
	case errors.Is(err, worker.ErrQueueFull):
		span.RecordError(err)
		span.SetStatus(codes.Error, "queue full")
		srv.metrics.ObserveSubmission(web.OutcomeDropped, nil)
		srv.web.ErrorResponse(w, http.StatusServiceUnavailable, "Too many signups right now. Please try again in a moment.")
		return
	case isClosed(err):
		srv.web.ErrorResponse(w, http.StatusServiceUnavailable, "Service is shutting down")
		return
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit")
		srv.metrics.ObserveSubmission(web.OutcomeDropped, nil)
		srv.log.Printf("Submission from session %s failed: %v", sess.ID, err)
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error processing submission")
		return
	}

	span.SetAttributes(attribute.Bool("trialform.accepted", res.Accepted))
	if res.Accepted {
		srv.metrics.ObserveSubmission(web.OutcomeAccepted, nil)
	} else {
		failed := res.Errors.Fields()
		span.SetAttributes(attribute.StringSlice("trialform.failed_fields", failed))
		srv.metrics.ObserveSubmission(web.OutcomeRejected, failed)
		record := &db.Submission{
			SessionID:    sess.ID,
			FailedFields: failed,
			Message:      "validation failed",
			SubmitTime:   submitTime,
			EndTime:      submitTime,
		}
		if err := srv.db.InsertSubmission(record); err != nil {
			srv.log.Printf("Error recording rejected submission: %v", err)
		}
	}

	if err := srv.web.Render(w, http.StatusOK, templates.Form, srv.pageData(wd.Snapshot())); err != nil {
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error showing form")
	}
}

func (srv *Trialform) focusField(w http.ResponseWriter, r *http.Request, sess *db.Session) {
	if err := r.ParseForm(); err != nil {
		srv.web.ErrorResponse(w, http.StatusBadRequest, "Failed to read form data")
		return
	}
	field := form.Field(r.PostForm.Get("field"))
	if !field.Valid() {
		srv.web.ErrorResponse(w, http.StatusBadRequest, "Unknown field")
		return
	}
	// Nothing to clear if the session has no widget yet.
	if wd, ok := srv.widgets.Lookup(sess.ID); ok {
		if err := wd.Focus(field); err != nil && !isClosed(err) {
			srv.web.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Trialform) renderLog(w http.ResponseWriter, r *http.Request) {
	subs, err := srv.db.AllSubmissions()
	if err != nil {
		srv.log.Printf("Error reading submissions: %v", err)
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error reading submissions from DB")
		return
	}
	if err := srv.web.Render(w, http.StatusOK, templates.LogView, subs); err != nil {
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error showing submission listing")
	}
}

func (srv *Trialform) showSubmission(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		srv.web.ErrorResponse(w, http.StatusBadRequest, "Invalid ID")
		return
	}
	sub, err := srv.db.GetSubmission(id)
	if errors.Is(err, db.ErrNotFound) {
		srv.web.ErrorResponse(w, http.StatusNotFound, "No such submission")
		return
	} else if err != nil {
		srv.log.Printf("Error reading submission %d: %v", id, err)
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error reading submission from DB")
		return
	}
	if err := srv.web.Render(w, http.StatusOK, templates.SubmissionView, sub); err != nil {
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error showing submission")
	}
}

func (srv *Trialform) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
