package web

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/G-Node/trialform/templates"
)

// ErrorResponse logs an error and renders an error page with the given message,
// returning the given status code to the user.
func (ws *Server) ErrorResponse(w http.ResponseWriter, status int, message string) {
	errinfo := struct {
		StatusCode int
		StatusText string
		Message    string
	}{
		status,
		http.StatusText(status),
		message,
	}
	ws.log.Printf("Responding %d: %s", status, message)
	if err := ws.Render(w, status, templates.Fail, &errinfo); err != nil {
		w.WriteHeader(status)
		w.Write([]byte(message))
	}
}

// Render executes the content template inside the site layout and writes it
// with the given status.  Nothing is written if rendering fails.
func (ws *Server) Render(w http.ResponseWriter, status int, content string, data interface{}) error {
	tmpl, err := template.New("layout").Parse(templates.Layout)
	if err != nil {
		ws.log.Printf("Failed to parse Layout template: %v", err)
		return err
	}
	tmpl, err = tmpl.Parse(content)
	if err != nil {
		ws.log.Printf("Failed to parse content template: %v", err)
		return err
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		ws.log.Printf("Failed to render template: %v", err)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		ws.log.Printf("Failed to write response: %v", err)
	}
	return nil
}

// Server implements the web server for the signup form service.
type Server struct {
	*http.Server
	Router *mux.Router
	log    *log.Logger
}

// New returns a web Server with an initialised mux.Router and http.Server
// listening on the given port.
func New(port uint16, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	srv := new(Server)
	srv.Router = mux.NewRouter()
	srv.log = logger
	httpsrv := new(http.Server)
	httpsrv.Handler = srv.Router

	httpsrv.Addr = fmt.Sprintf(":%d", port)
	httpsrv.WriteTimeout = time.Second * 15
	httpsrv.ReadTimeout = time.Second * 15
	httpsrv.IdleTimeout = time.Second * 60
	httpsrv.ErrorLog = logger
	srv.Server = httpsrv
	return srv
}

// Logger returns the logger the server writes to.
func (ws *Server) Logger() *log.Logger {
	return ws.log
}

// Start opens the listening socket and runs the embedded web server's Serve
// method in a goroutine.  This method does not block.  Use WaitForInterrupt()
// or implement your own blocking function to wait for any other stop
// condition.
func (ws *Server) Start() error {
	ln, err := net.Listen("tcp", ws.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", ws.Addr, err)
	}
	go func() {
		if err := ws.Serve(ln); err != nil && err != http.ErrServerClosed {
			ws.log.Println(err)
		}
	}()
	ws.log.Printf("Listening on %s", ln.Addr())
	return nil
}

// Stop gracefully stops the web service.
func (ws *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// Gracefully shut down, waiting for the timeout deadline for connections to close.
	if err := ws.Shutdown(ctx); err != nil {
		ws.log.Printf("Error shutting down web server: %v", err)
	}
}
