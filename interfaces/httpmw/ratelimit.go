package httpmw

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bulwarklib/bulwark/application"
	"github.com/bulwarklib/bulwark/domain/ratelimit"
	"github.com/bulwarklib/bulwark/infrastructure/logging"
)

// Rate limit response headers.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// IdentifierFunc extracts the rate-limit identifier from a request.
type IdentifierFunc func(r *http.Request) string

// ClientIP extracts the client IP, preferring the first hop of
// X-Forwarded-For over the socket address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitConfig configures the rate-limit middleware.
type RateLimitConfig struct {
	// Identifier extracts the identifier. Defaults to ClientIP.
	Identifier IdentifierFunc

	// FailOpen allows requests through when the engine errors.
	FailOpen bool

	// OnDenied is called for every denied request.
	OnDenied func(r *http.Request, result ratelimit.Result)
}

type deniedBody struct {
	Error      string `json:"error"`
	Reason     string `json:"reason"`
	RetryAfter int64  `json:"retry_after_seconds,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// RateLimit enforces the engine's decision per request. Denied requests
// get 429 with Retry-After and a JSON body; allowed requests carry the
// X-RateLimit-* headers.
func RateLimit(engine *application.RateLimitEngine, cfg RateLimitConfig) func(http.Handler) http.Handler {
	identify := cfg.Identifier
	if identify == nil {
		identify = ClientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := identify(r)

			result, err := engine.CheckRequest(r.Context(), identifier, nil)
			if err != nil {
				logging.Error().
					Add(logging.Component("httpmw")).
					Add(logging.Identifier(identifier)).
					Add(logging.ErrorField(err)).
					Msg("rate limit check failed")
				if cfg.FailOpen {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "rate limiter unavailable", http.StatusInternalServerError)
				return
			}

			w.Header().Set(HeaderLimit, strconv.Itoa(result.Limit))
			w.Header().Set(HeaderRemaining, strconv.Itoa(result.Remaining))
			if !result.WindowResetAt.IsZero() {
				w.Header().Set(HeaderReset, strconv.FormatInt(result.WindowResetAt.Unix(), 10))
			}

			if result.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.OnDenied != nil {
				cfg.OnDenied(r, result)
			}

			body := deniedBody{
				Error:     "too many requests",
				Reason:    string(result.Reason),
				RequestID: RequestIDFromContext(r.Context()),
			}
			if !result.RetryAfter.IsZero() {
				seconds := int64(time.Until(result.RetryAfter).Seconds())
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
				body.RetryAfter = seconds
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(body)
		})
	}
}
