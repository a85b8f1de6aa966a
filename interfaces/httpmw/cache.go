package httpmw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/bulwarklib/bulwark/application"
	"github.com/bulwarklib/bulwark/infrastructure/logging"
)

// CachedResponse is the cached form of an HTTP response.
type CachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// ResponseCacheConfig configures the response cache middleware.
type ResponseCacheConfig struct {
	// TTL bounds how long responses are served from cache. Zero uses
	// the engine's default TTL.
	TTL time.Duration

	// KeyFunc derives the cache key. Defaults to method plus URL.
	KeyFunc func(r *http.Request) string
}

const cacheStateHeader = "X-Cache"

// ResponseCache serves repeated GET requests from the cache engine.
// Only 2xx responses are stored; everything else passes through.
func ResponseCache(engine *application.CacheEngine[CachedResponse], cfg ResponseCacheConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(r *http.Request) string {
			return r.Method + " " + r.URL.String()
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)

			if cached, found, err := engine.Get(r.Context(), key); err == nil && found {
				copyHeader(w.Header(), cached.Header)
				w.Header().Set(cacheStateHeader, "HIT")
				w.WriteHeader(cached.Status)
				_, _ = w.Write(cached.Body)
				return
			}

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			rec.Header().Set(cacheStateHeader, "MISS")
			next.ServeHTTP(rec, r)

			if rec.status < 200 || rec.status >= 300 {
				return
			}

			entry := CachedResponse{
				Status: rec.status,
				Header: cloneCacheableHeader(rec.Header()),
				Body:   rec.body.Bytes(),
			}
			if err := engine.Put(r.Context(), key, entry, application.PutOptions{TTL: cfg.TTL}); err != nil {
				logging.Warn().
					Add(logging.Component("httpmw")).
					Add(logging.CacheKey(key)).
					Add(logging.ErrorField(err)).
					Msg("response cache write failed")
			}
		})
	}
}

// recorder tees the response so it can be cached after it is sent.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func cloneCacheableHeader(h http.Header) http.Header {
	out := h.Clone()
	out.Del(cacheStateHeader)
	out.Del(RequestIDHeader)
	return out
}
