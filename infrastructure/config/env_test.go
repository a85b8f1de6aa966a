package config

import (
	"errors"
	"testing"
)

func TestExpandEnv_Bracket(t *testing.T) {
	t.Setenv("BULWARK_TEST_ADDR", "redis:6379")

	got, err := expandEnv("address: ${BULWARK_TEST_ADDR}", false)
	if err != nil {
		t.Fatalf("expandEnv: %v", err)
	}
	if got != "address: redis:6379" {
		t.Errorf("expandEnv = %q", got)
	}
}

func TestExpandEnv_Default(t *testing.T) {
	t.Setenv("BULWARK_TEST_UNSET", "")

	got, err := expandEnv("addr: ${BULWARK_TEST_UNSET:-localhost:6379}", false)
	if err != nil {
		t.Fatalf("expandEnv: %v", err)
	}
	if got != "addr: localhost:6379" {
		t.Errorf("expandEnv = %q", got)
	}
}

func TestExpandEnv_DefaultIgnoredWhenSet(t *testing.T) {
	t.Setenv("BULWARK_TEST_SET", "actual")

	got, err := expandEnv("v: ${BULWARK_TEST_SET:-fallback}", false)
	if err != nil {
		t.Fatalf("expandEnv: %v", err)
	}
	if got != "v: actual" {
		t.Errorf("expandEnv = %q", got)
	}
}

func TestExpandEnv_RequiredMissing(t *testing.T) {
	_, err := expandEnv("password: ${BULWARK_TEST_ABSENT:?password is required}", false)
	if !errors.Is(err, ErrMissingEnvVar) {
		t.Errorf("error = %v, want ErrMissingEnvVar", err)
	}
}

func TestExpandEnv_StrictMode(t *testing.T) {
	if _, err := expandEnv("v: ${BULWARK_TEST_ABSENT}", true); !errors.Is(err, ErrMissingEnvVar) {
		t.Errorf("strict error = %v, want ErrMissingEnvVar", err)
	}

	got, err := expandEnv("v: ${BULWARK_TEST_ABSENT}", false)
	if err != nil {
		t.Fatalf("lenient expandEnv: %v", err)
	}
	if got != "v: " {
		t.Errorf("lenient expandEnv = %q, want empty expansion", got)
	}
}

func TestExpandEnv_BareVariable(t *testing.T) {
	t.Setenv("BULWARK_TEST_BARE", "value")

	got, err := expandEnv("v: $BULWARK_TEST_BARE", false)
	if err != nil {
		t.Fatalf("expandEnv: %v", err)
	}
	if got != "v: value" {
		t.Errorf("expandEnv = %q", got)
	}
}
