package web

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/G-Node/trialform/trialform/config"
)

// HeaderRequestID carries the request identifier on requests and responses.
const HeaderRequestID = "X-Request-ID"

type contextKey int

const requestIDKey contextKey = iota

// RequestIDFromContext returns the identifier assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID ensures every request has an identifier, reusing the one sent by
// the client if present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, rid)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, rid)))
	})
}

// statusRecorder remembers the status written by a handler.  It passes
// Hijack through so websocket upgrades keep working behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	if rec.status == 0 {
		rec.status = status
	}
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec.ResponseWriter.Write(b)
}

func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rec.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (rec *statusRecorder) Status() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

// Logging writes a concise structured line for each HTTP request.
func (ws *Server) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		latency := time.Since(start)

		rid := RequestIDFromContext(r.Context())
		ws.log.Printf("request_id=%s method=%s path=%s status=%d latency=%s", rid, r.Method, r.URL.Path, rec.Status(), latency)
	})
}

// ClientKey names the client a request is rate limited as.  An empty key
// falls back to the client IP.
type ClientKey func(r *http.Request) string

// ClientIP returns the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limiterSet holds one token bucket per client.  Buckets unused for a full
// interval are refilled anyway and get evicted.
type limiterSet struct {
	limit    rate.Limit
	burst    int
	interval time.Duration

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterSet(cfg config.RateLimit) *limiterSet {
	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}
	return &limiterSet{
		limit:     rate.Every(perRequest),
		burst:     cfg.Requests,
		interval:  cfg.Interval,
		clients:   make(map[string]*clientLimiter),
		lastSweep: time.Now(),
	}
}

func (ls *limiterSet) allow(key string, now time.Time) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if now.Sub(ls.lastSweep) >= ls.interval {
		for k, c := range ls.clients {
			if now.Sub(c.lastSeen) >= ls.interval {
				delete(ls.clients, k)
			}
		}
		ls.lastSweep = now
	}

	c, ok := ls.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(ls.limit, ls.burst)}
		ls.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (ls *limiterSet) len() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return len(ls.clients)
}

// RateLimit applies a token bucket limiter per client to the wrapped
// handler.  Clients are named by key, or by IP when key is nil or returns an
// empty string.  A zero configuration disables the limit.
func (ws *Server) RateLimit(cfg config.RateLimit, key ClientKey) mux.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	limiters := newLimiterSet(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ""
			if key != nil {
				client = key(r)
			}
			if client == "" {
				client = "ip:" + ClientIP(r)
			}
			if !limiters.allow(client, time.Now()) {
				ws.ErrorResponse(w, http.StatusTooManyRequests, "Too many submissions. Please wait a moment and try again.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
