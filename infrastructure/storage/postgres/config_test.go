package postgres_test

import (
	"strings"
	"testing"

	"github.com/bulwarklib/bulwark/infrastructure/storage/postgres"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := postgres.DefaultConfig()
	if cfg.Host != "localhost" || cfg.Port != 5432 {
		t.Errorf("Host:Port = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.Schema != "public" {
		t.Errorf("Schema = %q", cfg.Schema)
	}
	if cfg.SSLMode != "disable" {
		t.Errorf("SSLMode = %q", cfg.SSLMode)
	}
}

func TestConfig_ConnectionString(t *testing.T) {
	t.Parallel()

	cfg := postgres.DefaultConfig()
	cfg.Database = "caches"
	cfg.User = "svc"
	cfg.Password = "hunter2"

	got := cfg.ConnectionString()
	for _, want := range []string{
		"host=localhost",
		"port=5432",
		"dbname=caches",
		"user=svc",
		"password=hunter2",
		"sslmode=disable",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ConnectionString missing %q: %s", want, got)
		}
	}
}

func TestConfig_ConnectionStringOmitsEmptyPassword(t *testing.T) {
	t.Parallel()

	cfg := postgres.DefaultConfig()
	if strings.Contains(cfg.ConnectionString(), "password=") {
		t.Errorf("ConnectionString should omit empty password: %s", cfg.ConnectionString())
	}
}

func TestConfig_DSNOverrides(t *testing.T) {
	t.Parallel()

	cfg := postgres.DefaultConfig()
	postgres.WithDSN("postgres://svc@db.internal:5433/caches")(&cfg)

	if got := cfg.ConnectionString(); got != "postgres://svc@db.internal:5433/caches" {
		t.Errorf("ConnectionString = %q, want the DSN verbatim", got)
	}
}

func TestConfigOptions_Chaining(t *testing.T) {
	t.Parallel()

	cfg := postgres.DefaultConfig()
	for _, opt := range []postgres.Option{
		postgres.WithHost("db.internal"),
		postgres.WithPort(5433),
		postgres.WithDatabase("caches"),
		postgres.WithCredentials("svc", "hunter2"),
		postgres.WithSSLMode("require"),
		postgres.WithSchema("bulwark"),
		postgres.WithPoolSize(20),
	} {
		opt(&cfg)
	}

	if cfg.Host != "db.internal" || cfg.Port != 5433 {
		t.Errorf("Host:Port = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.Database != "caches" || cfg.User != "svc" || cfg.Password != "hunter2" {
		t.Errorf("credentials = %s/%s@%s", cfg.User, cfg.Password, cfg.Database)
	}
	if cfg.SSLMode != "require" || cfg.Schema != "bulwark" || cfg.PoolSize != 20 {
		t.Errorf("SSLMode=%s Schema=%s PoolSize=%d", cfg.SSLMode, cfg.Schema, cfg.PoolSize)
	}
}
