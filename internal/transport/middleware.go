// Package transport implements the Transport Surface (component J): the
// HTTP API in front of the Quote Orchestrator and the admin stores.
// Middleware here is adapted from the corpus's mini-service-all-features
// request-id/recovery/logging chain, generalized to chi's handler
// signature and to this service's error envelope.
package transport

import (
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aquaquote/internal/apperr"
)

type contextKey string

const requestIDKey contextKey = "requestId"

// requestID honors an inbound x-request-id header or mints a v4 UUID,
// threading it through the context and echoing it on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("x-request-id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("x-request-id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// recovery catches panics in a handler and renders them as
// INTERNAL_SERVER_ERROR instead of crashing the process.
func recovery(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error().
						Str("requestId", requestIDFromContext(r.Context())).
						Interface("panic", rec).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")
					writeError(w, r, apperr.New(apperr.Internal, "internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogging logs one structured line per request, mirroring the
// corpus's before/after request-logging pattern.
func requestLogging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.Info().
				Str("requestId", requestIDFromContext(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// globalDeadline bounds total per-request work. When the deadline expires
// before the handler has written a response, the client sees
// REQUEST_TIMEOUT; the handler's own write, if it arrives after that, is
// discarded rather than raced onto the wire (the real ResponseWriter is
// never touched by more than one goroutine).
func globalDeadline(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			rec := &guardedWriter{underlying: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(rec, r)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if rec.claim("timeout") {
					writeError(w, r, apperr.New(apperr.RequestTimeout, "request exceeded the global deadline"))
				} else {
					<-done
				}
			}
		})
	}
}

// guardedWriter lets at most one of {the handler, the timeout path} write
// to the real http.ResponseWriter: whichever claims it first wins, and the
// handler goroutine keeps writing normally once it holds the claim since
// it is the sole writer from that point on.
type guardedWriter struct {
	underlying http.ResponseWriter
	mu         sync.Mutex
	claimedBy  string
}

func (g *guardedWriter) claim(who string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.claimedBy == "" {
		g.claimedBy = who
	}
	return g.claimedBy == who
}

func (g *guardedWriter) Header() http.Header { return g.underlying.Header() }

func (g *guardedWriter) WriteHeader(status int) {
	if !g.claim("handler") {
		return
	}
	g.underlying.WriteHeader(status)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	if !g.claim("handler") {
		return len(b), nil
	}
	return g.underlying.Write(b)
}
