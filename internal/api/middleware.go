package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/deployguard/impact-engine/internal/config"
)

type contextKey int

const identityContextKey contextKey = iota

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID    string
	AccountID string
	Role      string
}

// IsAdmin reports whether the caller may act across accounts.
func (id Identity) IsAdmin() bool { return id.Role == "admin" }

// IdentityFromContext returns the caller identity, or the anonymous
// identity when authentication is disabled.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityContextKey).(Identity); ok {
		return id
	}
	return Identity{UserID: "anonymous"}
}

type tokenClaims struct {
	UserID    string `json:"userId"`
	AccountID string `json:"accountId"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// authMiddleware verifies HS256 bearer tokens and attaches the caller
// identity to the context. With auth disabled every request runs as the
// anonymous identity.
func authMiddleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				ctx := context.WithValue(r.Context(), identityContextKey, Identity{UserID: "anonymous"})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required", nil)
				return
			}

			tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			token, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(cfg.Secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, CodeInvalidToken, "Invalid or expired token", nil)
				return
			}
			claims, ok := token.Claims.(*tokenClaims)
			if !ok || claims.UserID == "" {
				writeError(w, http.StatusUnauthorized, CodeInvalidToken, "Invalid or expired token", nil)
				return
			}

			identity := Identity{
				UserID:    claims.UserID,
				AccountID: claims.AccountID,
				Role:      claims.Role,
			}
			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// keyedLimiter enforces a per-caller rate limit with one token bucket per
// key. Buckets are never evicted; key cardinality is bounded by the user
// population.
type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newKeyedLimiter(requests int, window time.Duration) *keyedLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &keyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
	}
}

func (l *keyedLimiter) allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// rateLimitKey identifies the caller: the authenticated user when known,
// the remote address otherwise.
func rateLimitKey(r *http.Request) string {
	identity := IdentityFromContext(r.Context())
	if identity.UserID != "" && identity.UserID != "anonymous" {
		return "user:" + identity.UserID
	}
	return "addr:" + r.RemoteAddr
}

func rateLimitMiddleware(limiter *keyedLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.allow(rateLimitKey(r)) {
				writeError(w, http.StatusTooManyRequests, CodeRateLimitExceeded, "Too many requests, please try again later", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// auditMiddleware logs one structured entry per request with the caller,
// outcome, and timing.
func auditMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-Id")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-Id", requestID)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			identity := IdentityFromContext(r.Context())
			logger.Info("api request",
				slog.String("request_id", requestID),
				slog.String("user_id", identity.UserID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
