// Package main demonstrates the HTTP middleware stack: request IDs,
// per-client rate limiting, and cached GET responses.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/bulwarklib/bulwark/application"
	"github.com/bulwarklib/bulwark/domain/cache"
	"github.com/bulwarklib/bulwark/domain/ratelimit"
	"github.com/bulwarklib/bulwark/interfaces/httpmw"
)

func main() {
	ctx := context.Background()

	limitCfg := ratelimit.DefaultConfig()
	limitCfg.MaxRequests = 100
	limitCfg.WindowDuration = time.Minute

	limiter, err := application.NewRateLimitEngine(limitCfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := limiter.Initialize(ctx); err != nil {
		log.Fatal(err)
	}
	defer limiter.Dispose()

	responses, err := application.NewCacheEngine[httpmw.CachedResponse](cache.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}
	if err := responses.Initialize(ctx); err != nil {
		log.Fatal(err)
	}
	defer responses.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/time", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "now: %s\n", time.Now().Format(time.RFC3339Nano))
	})

	handler := httpmw.RequestID(
		httpmw.RateLimit(limiter, httpmw.RateLimitConfig{})(
			httpmw.ResponseCache(responses, httpmw.ResponseCacheConfig{
				TTL: 5 * time.Second,
			})(mux),
		),
	)

	log.Println("listening on :8080 (GET /time is cached for 5s)")
	log.Fatal(http.ListenAndServe(":8080", handler))
}
