// Package main demonstrates the rate limiter with progressive
// penalties: repeat offenders are blocked for increasingly long spans.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bulwarklib/bulwark/application"
	"github.com/bulwarklib/bulwark/domain/ratelimit"
)

func main() {
	ctx := context.Background()

	cfg := ratelimit.DefaultConfig()
	cfg.Algorithm = ratelimit.SlidingWindow
	cfg.MaxRequests = 3
	cfg.WindowDuration = time.Minute
	cfg.BlockDuration = 30 * time.Second
	cfg.ProgressivePenalties = true
	cfg.PenaltyMultiplier = 2.0

	engine, err := application.NewRateLimitEngine(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := engine.Initialize(ctx); err != nil {
		log.Fatal(err)
	}
	defer engine.Dispose()

	for i := 1; i <= 6; i++ {
		result, err := engine.CheckRequest(ctx, "client-42", nil)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("request %d: allowed=%v remaining=%d reason=%s\n",
			i, result.Allowed, result.Remaining, result.Reason)
	}

	stats := engine.GetStatistics()
	fmt.Printf("allowed=%d blocked=%d violations=%d\n",
		stats.Allowed, stats.Blocked, stats.Violations)
}
