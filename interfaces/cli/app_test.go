package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bulwarklib/bulwark/interfaces/cli"
)

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := cli.New().WithOutput(&stdout, &stderr)
	err := app.ExecuteWithArgs(context.Background(), args)
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := runApp(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(stdout, "bulwark version") {
		t.Errorf("output missing version line: %q", stdout)
	}
}

func TestValidateCommand_ValidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
cache:
  max_memory_entries: 100
  eviction_policy: lru
ratelimit:
  max_requests: 50
  algorithm: sliding_window
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	stdout, _, err := runApp(t, "validate", "-c", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(stdout, "Configuration is valid") {
		t.Errorf("output = %q", stdout)
	}
	if !strings.Contains(stdout, "sliding_window") {
		t.Errorf("output missing algorithm summary: %q", stdout)
	}
}

func TestValidateCommand_InvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ratelimit: {max_requests: -1}"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, _, err := runApp(t, "validate", "-c", path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidateCommand_RequiresPath(t *testing.T) {
	t.Parallel()

	if _, _, err := runApp(t, "validate"); err == nil {
		t.Fatal("expected error without -c flag")
	}
}

func TestValidateCommand_StrictEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "cache: {store: {backend: redis, password: ${BULWARK_ABSENT_PASSWORD}}}"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, _, err := runApp(t, "validate", "-c", path, "--strict"); err == nil {
		t.Fatal("expected missing env var error in strict mode")
	}
	if _, _, err := runApp(t, "validate", "-c", path); err != nil {
		t.Errorf("lenient validate: %v", err)
	}
}
