package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bulwarklib/bulwark/application"
	domaincache "github.com/bulwarklib/bulwark/domain/cache"
	"github.com/bulwarklib/bulwark/infrastructure/config"
	"github.com/bulwarklib/bulwark/infrastructure/logging"
	"github.com/bulwarklib/bulwark/infrastructure/observability"
	"github.com/bulwarklib/bulwark/infrastructure/resilience"
	badgerstore "github.com/bulwarklib/bulwark/infrastructure/storage/badger"
	"github.com/bulwarklib/bulwark/infrastructure/storage/filesystem"
	"github.com/bulwarklib/bulwark/infrastructure/storage/memory"
	pgstore "github.com/bulwarklib/bulwark/infrastructure/storage/postgres"
	redisstore "github.com/bulwarklib/bulwark/infrastructure/storage/redis"
	sqlitestore "github.com/bulwarklib/bulwark/infrastructure/storage/sqlite"
	"github.com/bulwarklib/bulwark/interfaces/httpmw"
)

type serveOptions struct {
	configPath string
	addr       string
	watch      bool
}

// newServeCmd creates the serve command.
func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cache HTTP server",
		Long: `Run an HTTP server exposing the cache over a small REST API, with
rate limiting applied to every request.

Endpoints:
  GET    /cache/{key}     read a value
  PUT    /cache/{key}     store a value (body is the value; ?ttl=30s)
  DELETE /cache/{key}     remove a value
  GET    /stats           cache and rate limit statistics

Examples:
  bulwark serve -c config.yaml
  bulwark serve -c config.yaml --addr :9090 --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "Listen address")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Reload configuration on file changes")

	return cmd
}

// buildStore constructs the configured durable backend.
func buildStore(ctx context.Context, cfg config.StoreConfig) (domaincache.DurableStore, io.Closer, error) {
	var (
		store  domaincache.DurableStore
		closer io.Closer
		err    error
	)

	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		store = memory.NewStore()
	case "filesystem":
		store, err = filesystem.NewStore(cfg.Dir)
	case "badger":
		bcfg := badgerstore.DefaultConfig()
		bcfg.Dir = cfg.Dir
		bcfg.KeyPrefix = cfg.KeyPrefix
		var bs *badgerstore.Store
		bs, err = badgerstore.NewStore(bcfg)
		store, closer = bs, bs
	case "redis":
		rcfg := redisstore.DefaultConfig()
		if cfg.Address != "" {
			rcfg.Address = cfg.Address
		}
		rcfg.Password = cfg.Password
		if cfg.KeyPrefix != "" {
			rcfg.KeyPrefix = cfg.KeyPrefix
		}
		var rs *redisstore.Store
		rs, err = redisstore.NewStore(rcfg)
		store, closer = rs, rs
	case "postgres":
		pcfg := pgstore.DefaultConfig()
		if cfg.DSN != "" {
			pcfg.DSN = cfg.DSN
		}
		var ps *pgstore.Store
		ps, err = pgstore.NewStore(ctx, pcfg)
		store, closer = ps, ps
	case "sqlite":
		scfg := sqlitestore.DefaultConfig()
		if cfg.DSN != "" {
			scfg.DSN = cfg.DSN
		}
		scfg.KeyPrefix = cfg.KeyPrefix
		var ss *sqlitestore.Store
		ss, err = sqlitestore.NewStore(scfg)
		store, closer = ss, ss
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, nil, err
	}

	if cfg.Resilient {
		store = resilience.NewStore(store, resilience.DefaultConfig())
	}
	return store, closer, nil
}

func (a *App) serve(ctx context.Context, opts *serveOptions) error {
	file := &config.File{}
	if opts.configPath != "" {
		loaded, err := config.NewLoader().LoadFile(opts.configPath)
		if err != nil {
			return err
		}
		file = loaded
	}

	logging.Init(logging.Config{
		Level:  file.Logging.Level,
		Format: file.Logging.Format,
	})

	store, closer, err := buildStore(ctx, file.Cache.Store)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	meter := observability.NewOTelMeter("bulwark")

	cacheEngine, err := application.NewCacheEngine[json.RawMessage](
		file.CacheConfig(),
		application.WithDurableStore[json.RawMessage](store),
		application.WithCacheMeter[json.RawMessage](meter),
	)
	if err != nil {
		return err
	}
	if err := cacheEngine.Initialize(ctx); err != nil {
		return err
	}
	defer cacheEngine.Close()

	limiter, err := application.NewRateLimitEngine(
		file.RateLimitConfig(),
		application.WithRateLimitMeter(meter),
	)
	if err != nil {
		return err
	}
	if err := limiter.Initialize(ctx); err != nil {
		return err
	}
	defer limiter.Dispose()

	if opts.watch && opts.configPath != "" {
		watcher, err := config.NewWatcher(opts.configPath, nil, func(updated *config.File) {
			if err := cacheEngine.Reconfigure(updated.CacheConfig()); err != nil {
				logging.Warn().Add(logging.ErrorField(err)).Msg("cache reconfigure rejected")
			}
			if err := limiter.UpdateConfig(updated.RateLimitConfig()); err != nil {
				logging.Warn().Add(logging.ErrorField(err)).Msg("rate limit reconfigure rejected")
			}
		})
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer watcher.Close()
	}

	mux := http.NewServeMux()
	mux.Handle("/cache/", cacheHandler(cacheEngine))
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"cache":     cacheEngine.Statistics(),
			"ratelimit": limiter.GetStatistics(),
		})
	})

	handler := httpmw.RequestID(
		httpmw.RateLimit(limiter, httpmw.RateLimitConfig{})(mux),
	)

	server := &http.Server{
		Addr:              opts.addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Add(logging.Str("addr", opts.addr)).Msg("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func cacheHandler(engine *application.CacheEngine[json.RawMessage]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/cache/")
		if key == "" {
			http.Error(w, "key required", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			value, found, err := engine.Get(r.Context(), key)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if !found {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(value)

		case http.MethodPut, http.MethodPost:
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
			if err != nil {
				http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
				return
			}
			if !json.Valid(body) {
				http.Error(w, "body must be JSON", http.StatusBadRequest)
				return
			}

			var ttl time.Duration
			if raw := r.URL.Query().Get("ttl"); raw != "" {
				ttl, err = time.ParseDuration(raw)
				if err != nil {
					http.Error(w, "invalid ttl", http.StatusBadRequest)
					return
				}
			}

			if err := engine.Put(r.Context(), key, body, application.PutOptions{TTL: ttl}); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		case http.MethodDelete:
			removed, err := engine.Remove(r.Context(), key)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if !removed {
				http.NotFound(w, r)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}
