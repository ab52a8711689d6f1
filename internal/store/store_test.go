package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ouro/internal/db"
)

// checkEpochGuard runs the same contract against every backend.
func checkEpochGuard(t *testing.T, open func() Store) {
	t.Helper()
	ctx := context.Background()
	a := open()
	defer a.Close()

	first, err := a.Load(ctx)
	if !errors.Is(err, ErrNoSave) {
		t.Fatalf("fresh store err got=%v want ErrNoSave", err)
	}
	if err := a.Save(ctx, first.Epoch, []byte(`{"version":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := a.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got.Data) == "" || got.Writer != a.Writer() || got.Epoch != first.Epoch {
		t.Fatalf("loaded %+v", got)
	}

	b := open()
	defer b.Close()
	if a.Writer() == b.Writer() {
		t.Fatalf("store handles should get distinct writer ids")
	}
	epoch, err := b.Wipe(ctx)
	if err != nil {
		t.Fatalf("wipe: %v", err)
	}
	if epoch != first.Epoch+1 {
		t.Fatalf("wipe epoch got=%d want=%d", epoch, first.Epoch+1)
	}

	if err := a.Save(ctx, first.Epoch, []byte(`{"version":1,"stale":true}`)); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("stale save err got=%v want ErrStaleSession", err)
	}
	if _, err := a.Load(ctx); !errors.Is(err, ErrNoSave) {
		t.Fatalf("stale save must not write, load err=%v", err)
	}
	if err := a.Save(ctx, epoch, []byte(`{"version":1}`)); err != nil {
		t.Fatalf("save with fresh epoch: %v", err)
	}
}

func TestFileStoreEpochGuard(t *testing.T) {
	dir := t.TempDir()
	checkEpochGuard(t, func() Store {
		st, err := NewFileStore(dir, "")
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		return st
	})
}

func TestFileStoreIgnoresGarbageFile(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir, "slot1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "slot1.save.json"), []byte("{{{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := st.Load(context.Background()); !errors.Is(err, ErrNoSave) {
		t.Fatalf("garbage file err got=%v want ErrNoSave", err)
	}
}

func TestFileStoreRejectsInvalidPayload(t *testing.T) {
	st, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Save(context.Background(), 0, []byte("not json")); err == nil {
		t.Fatalf("invalid payload should be refused")
	}
}

func TestSQLiteStoreEpochGuard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ouro.db")
	checkEpochGuard(t, func() Store {
		ctx := context.Background()
		conn, err := db.OpenSQLite(ctx, path)
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		st, err := NewSQLiteStore(ctx, conn, "")
		if err != nil {
			t.Fatalf("init store: %v", err)
		}
		return st
	})
}

func TestPostgresStoreEpochGuard(t *testing.T) {
	url := os.Getenv("OURO_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("OURO_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	slot := "test-" + filepath.Base(t.TempDir())
	checkEpochGuard(t, func() Store {
		st, err := NewPostgresStore(ctx, pool, slot)
		if err != nil {
			t.Fatalf("init store: %v", err)
		}
		return st
	})
}
