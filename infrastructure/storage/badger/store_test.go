package badger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bulwarklib/bulwark/domain/cache"
	"github.com/bulwarklib/bulwark/infrastructure/storage/badger"
)

func newStore(t *testing.T) *badger.Store {
	t.Helper()

	store, err := badger.NewStore(badger.DefaultConfig(), badger.WithInMemory())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)

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
		t.Errorf("Read = %q", data)
	}

	exists, err := store.Exists(ctx, "alpha")
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v, want true, nil", exists, err)
	}
}

func TestStore_ReadMissing(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	_, err := store.Read(context.Background(), "absent")
	if !errors.Is(err, cache.ErrRecordNotFound) {
		t.Errorf("Read error = %v, want ErrRecordNotFound", err)
	}
}

func TestStore_KeyPrefixIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := newStore(t)

	first := badger.NewStoreFromDB(base.DB(), "one:")
	second := badger.NewStoreFromDB(base.DB(), "two:")

	if err := first.Write(ctx, "shared", []byte("from-one")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := second.Read(ctx, "shared"); !errors.Is(err, cache.ErrRecordNotFound) {
		t.Errorf("cross-prefix Read error = %v, want ErrRecordNotFound", err)
	}

	names, err := first.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != "shared" {
		t.Errorf("List = %v, want [shared]", names)
	}
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)

	if err := store.Write(ctx, "key", []byte("v")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "key"); err != nil {
		t.Errorf("second Delete: %v, want nil", err)
	}
}

func TestStore_CreateAfterClose(t *testing.T) {
	t.Parallel()

	store, err := badger.NewStore(badger.DefaultConfig(), badger.WithInMemory())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := store.Create(context.Background()); !errors.Is(err, cache.ErrStoreUnavailable) {
		t.Errorf("Create after Close error = %v, want ErrStoreUnavailable", err)
	}
}
