package http

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
	"github.com/medivault-ai/medivault-core/internal/metrics"
)

// UserIDHeader carries the caller in development mode
const UserIDHeader = "X-User-ID"

// IdentityMiddleware resolves the caller of a request
type IdentityMiddleware struct {
	verifier driven.IdentityVerifier
}

// NewIdentityMiddleware creates a new IdentityMiddleware
func NewIdentityMiddleware(verifier driven.IdentityVerifier) *IdentityMiddleware {
	return &IdentityMiddleware{
		verifier: verifier,
	}
}

// Authenticate validates the bearer token and adds the caller identity.
// Without an enabled verifier the caller is taken from the X-User-ID header.
func (m *IdentityMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)

		if m.verifier == nil || !m.verifier.Enabled() {
			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "missing "+UserIDHeader+" header")
				return
			}
			id := &domain.Identity{UserID: userID, Token: token}
			next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), id)))
			return
		}

		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		id, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				writeError(w, http.StatusUnauthorized, "token expired")
			default:
				writeError(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), id)))
	})
}

// extractBearerToken extracts the Bearer token from Authorization header
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// Logging middleware

// LoggingMiddleware logs HTTP requests and records request metrics
type LoggingMiddleware struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewLoggingMiddleware creates a new LoggingMiddleware. m may be nil.
func NewLoggingMiddleware(logger *slog.Logger, m *metrics.Metrics) *LoggingMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingMiddleware{logger: logger, metrics: m}
}

// Handler wraps an http.Handler with request logging
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		// The mux fills in the matched pattern; unmatched paths share one label
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if m.metrics != nil {
			m.metrics.ObserveRequest(r.Method, route, rw.statusCode, duration)
		}

		level := slog.LevelInfo
		if rw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		m.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", duration,
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Recovery middleware

// RecoveryMiddleware recovers from panics
type RecoveryMiddleware struct {
	logger *slog.Logger
}

// NewRecoveryMiddleware creates a new RecoveryMiddleware
func NewRecoveryMiddleware(logger *slog.Logger) *RecoveryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryMiddleware{logger: logger}
}

// Handler wraps an http.Handler with panic recovery
func (m *RecoveryMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				m.logger.Error("panic recovered",
					"error", err,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS middleware

// NewCORSMiddleware allows the listed origins ("*" allows any)
func NewCORSMiddleware(allowedOrigins []string) *cors.Cors {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", UserIDHeader},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:         86400,
	})
}
