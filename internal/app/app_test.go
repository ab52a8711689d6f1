package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"ouro/internal/config"
	"ouro/internal/store"
)

func testConfig(t *testing.T, kind config.StoreKind) config.Config {
	t.Helper()
	return config.Config{
		DataDir:         t.TempDir(),
		Store:           kind,
		Seed:            7,
		ArchetypePolicy: "offer",
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenFreshThenResume(t *testing.T) {
	for _, kind := range []config.StoreKind{config.StoreFile, config.StoreSQLite} {
		t.Run(string(kind), func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, kind)

			rt, err := Open(ctx, cfg, quietLogger())
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			install := rt.Session.Record().Meta.InstallID
			if install == "" {
				t.Fatalf("fresh install should get an id")
			}
			if err := rt.Saver.Save(ctx, rt.Session); err != nil {
				t.Fatalf("save: %v", err)
			}
			rt.Close()

			again, err := Open(ctx, cfg, quietLogger())
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer again.Close()
			if got := again.Session.Record().Meta.InstallID; got != install {
				t.Fatalf("install id got=%q want=%q", got, install)
			}
		})
	}
}

func TestSaverRefusesAfterForeignWipe(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreFile)

	a, err := Open(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()
	b, err := Open(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	defer b.Close()

	if err := b.Saver.Wipe(ctx, b.Session); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	if err := a.Saver.Save(ctx, a.Session); !errors.Is(err, store.ErrStaleSession) {
		t.Fatalf("save after foreign wipe err got=%v want ErrStaleSession", err)
	}
	if !a.Saver.Stale() {
		t.Fatalf("saver should be marked stale")
	}
	if err := a.Saver.Save(ctx, a.Session); !errors.Is(err, store.ErrStaleSession) {
		t.Fatalf("stale saver must keep refusing, got %v", err)
	}

	if err := b.Saver.Save(ctx, b.Session); err != nil {
		t.Fatalf("save b: %v", err)
	}
	if err := a.Saver.Reload(ctx, a.Session); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if a.Saver.Stale() {
		t.Fatalf("reload should clear the stale flag")
	}
	want := b.Session.Record().Meta.InstallID
	if got := a.Session.Record().Meta.InstallID; got != want {
		t.Fatalf("reloaded install id got=%q want=%q", got, want)
	}
	if err := a.Saver.Save(ctx, a.Session); err != nil {
		t.Fatalf("save after reload: %v", err)
	}
}

func TestOpenStartsFreshOnCorruptSave(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreFile)

	st, err := store.NewFileStore(cfg.DataDir, store.DefaultSlot)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := st.Save(ctx, 0, []byte(`{"run":"not an object"}`)); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	rt, err := Open(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()
	if rt.Session.Record().Meta.InstallID == "" {
		t.Fatalf("corrupt save should fall back to a fresh install")
	}
}

func TestOpenRejectsUnknownStore(t *testing.T) {
	cfg := testConfig(t, config.StoreKind("tape"))
	if _, err := Open(context.Background(), cfg, quietLogger()); err == nil {
		t.Fatalf("unknown store should fail")
	}
}
