package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slotwise/booking-engine/internal/identity"
	redisclient "github.com/slotwise/booking-engine/internal/redis"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	principalKey contextKey = "principal"
)

// RequestIDMiddleware adds a unique request ID to each request context
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs method, path, status, duration, and request ID.
func LoggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Str("request_id", GetRequestID(r.Context())).
				Msg("request")
		})
	}
}

// PrincipalMiddleware resolves the acting principal from the identity
// headers an upstream gateway sets after authentication. The engine treats
// the result as an opaque capability input.
func PrincipalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get("X-Actor-ID"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing_principal", "X-Actor-ID must be a valid UUID")
			return
		}
		role := identity.Role(r.Header.Get("X-Actor-Role"))
		switch role {
		case identity.RoleCustomer, identity.RoleGuest, identity.RoleWorker,
			identity.RoleOwner, identity.RoleReceptionist, identity.RoleAdmin:
		default:
			writeError(w, http.StatusUnauthorized, "invalid_role", "X-Actor-Role is not a known role")
			return
		}

		p := identity.Principal{UserID: userID, Role: role}
		if raw := r.Header.Get("X-Provider-ID"); raw != "" {
			providerID, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid_provider", "X-Provider-ID must be a valid UUID")
				return
			}
			p.ProviderID = providerID
		}

		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CooldownMiddleware pauses repeat mutating attempts per principal using
// the injected TTL store, so the brake holds across replicas.
func CooldownMiddleware(store redisclient.CooldownStore, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			active, err := store.Touch(r.Context(), p.UserID.String())
			if err != nil {
				// Fail open: the booking constraints still hold without
				// the cooldown.
				logger.Warn().Err(err).Msg("cooldown store unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if active {
				writeError(w, http.StatusTooManyRequests, "cooldown_active", "too many booking attempts, slow down")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetPrincipal retrieves the acting principal from context.
func GetPrincipal(ctx context.Context) (identity.Principal, bool) {
	p, ok := ctx.Value(principalKey).(identity.Principal)
	return p, ok
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
