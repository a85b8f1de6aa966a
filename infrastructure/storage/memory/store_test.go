package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bulwarklib/bulwark/domain/cache"
	"github.com/bulwarklib/bulwark/infrastructure/storage/memory"
)

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()

	if err := store.Create(ctx); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Write(ctx, "alpha", []byte(`{"n":1}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := store.Read(ctx, "alpha")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != `{"n":1}` {
		t.Errorf("Read = %q, want %q", data, `{"n":1}`)
	}

	exists, err := store.Exists(ctx, "alpha")
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v, want true, nil", exists, err)
	}
}

func TestStore_ReadMissing(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	_, err := store.Read(context.Background(), "absent")
	if !errors.Is(err, cache.ErrRecordNotFound) {
		t.Errorf("Read error = %v, want ErrRecordNotFound", err)
	}
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()

	if err := store.Write(ctx, "key", []byte("v")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "key"); err != nil {
		t.Errorf("second Delete: %v, want nil", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()

	for _, name := range []string{"a", "b", "c"} {
		if err := store.Write(ctx, name, []byte(name)); err != nil {
			t.Fatalf("Write %q: %v", name, err)
		}
	}

	names, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 3 {
		t.Errorf("List returned %d names, want 3", len(names))
	}
}

func TestStore_ReadReturnsCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()

	if err := store.Write(ctx, "key", []byte("original")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := store.Read(ctx, "key")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	data[0] = 'X'

	again, err := store.Read(ctx, "key")
	if err != nil {
		t.Fatalf("second Read: %v", err)
	}
	if string(again) != "original" {
		t.Errorf("stored record mutated through returned slice: %q", again)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := memory.NewStore()
	if err := store.Write(ctx, "key", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Errorf("Write error = %v, want context.Canceled", err)
	}
}
