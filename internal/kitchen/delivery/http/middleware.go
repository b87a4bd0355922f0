package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/metrics"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
	"github.com/tair/central-kitchen/pkg/logger"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "request_id"
)

// RequestIDHeader carries the request correlation id
const RequestIDHeader = "X-Request-Id"

// ActorFrom returns the authenticated caller stored by AuthMiddleware.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}

// WithActor returns ctx carrying actor.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// AuthMiddleware resolves the bearer token to an active account
func AuthMiddleware(verifier *command.VerifyTokenHandler) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				logger.Warn(r.Context()).Err(err).Msg("Rejected request without valid authorization header")
				respondError(w, r, err, nil)
				return
			}

			user, err := verifier.Handle(r.Context(), command.VerifyTokenCommand{Token: token})
			if err != nil {
				respondError(w, r, err, nil)
				return
			}

			logger.Debug(r.Context()).
				Str("user_id", user.ID).
				Str("role", user.Role.String()).
				Msg("User authenticated")

			ctx := WithActor(r.Context(), domain.Actor{UserID: user.ID, Role: user.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// RoleMiddleware admits only callers whose role is in roles. An empty list
// admits every authenticated caller.
func RoleMiddleware(roles ...domain.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				respondError(w, r, domain.Unauthenticated(domain.CodeAuthzRequired, "authentication required"), nil)
				return
			}
			if len(roles) > 0 && !actor.Role.In(roles...) {
				logger.Warn(r.Context()).
					Str("user_id", actor.UserID).
					Str("role", actor.Role.String()).
					Str("path", r.URL.Path).
					Msg("Role not permitted")
				respondError(w, r, domain.Forbidden(domain.CodeAuthzInsufficient, "role %s may not access this resource", actor.Role), nil)
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", domain.Unauthenticated(domain.CodeAuthzRequired, "authorization header required")
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", domain.Unauthenticated(domain.CodeAuthzTokenInvalid, "invalid authorization header format")
	}
	return parts[1], nil
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// routeTemplate returns the matched mux route template, or the raw path.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// MetricsMiddleware records Prometheus request metrics per route template
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		endpoint := routeTemplate(r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, endpoint).Observe(duration)
		metrics.HTTPRequestSummary.WithLabelValues(r.Method, endpoint).Observe(duration)
	})
}

// RequestIDMiddleware propagates or assigns X-Request-Id
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware provides structured logging for requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := "no-trace"
		if span := trace.SpanFromContext(r.Context()); span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		}
		requestID, _ := r.Context().Value(requestIDKey).(string)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		logEvent := logger.WithContext(r.Context()).Info()
		if rw.statusCode >= 500 {
			logEvent = logger.WithContext(r.Context()).Error()
		} else if rw.statusCode >= 400 {
			logEvent = logger.WithContext(r.Context()).Warn()
		}

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Int64("duration_ms", duration.Milliseconds()).
			Int("response_size", rw.size).
			Str("trace_id", traceID).
			Str("request_id", requestID).
			Msg("Request completed")
	})
}

// RecoveryMiddleware turns handler panics into 500 responses
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(r.Context()).
					Str("panic", fmt.Sprint(rec)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")
				respondError(w, r, fmt.Errorf("panic: %v", rec), nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// SecurityHeadersMiddleware sets conservative response headers
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
