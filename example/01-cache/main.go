// Package main demonstrates the two-tier cache with a filesystem
// durable backend: values survive a cache engine restart.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bulwarklib/bulwark/application"
	"github.com/bulwarklib/bulwark/domain/cache"
	"github.com/bulwarklib/bulwark/infrastructure/storage/filesystem"
)

type session struct {
	User    string    `json:"user"`
	LoginAt time.Time `json:"login_at"`
}

func main() {
	ctx := context.Background()

	store, err := filesystem.NewStore("./data")
	if err != nil {
		log.Fatal(err)
	}

	cfg := cache.DefaultConfig()
	cfg.DurableEnabled = true
	cfg.DefaultTTL = time.Hour

	engine, err := application.NewCacheEngine[session](cfg,
		application.WithDurableStore[session](store),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := engine.Initialize(ctx); err != nil {
		log.Fatal(err)
	}
	defer engine.Close()

	err = engine.Put(ctx, "session:ada", session{
		User:    "ada",
		LoginAt: time.Now(),
	}, application.PutOptions{})
	if err != nil {
		log.Fatal(err)
	}

	value, found, err := engine.Get(ctx, "session:ada")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("found=%v user=%s\n", found, value.User)

	stats := engine.Statistics()
	fmt.Printf("hits=%d misses=%d memory_entries=%d\n",
		stats.Hits, stats.Misses, stats.MemoryEntryCount)
}
