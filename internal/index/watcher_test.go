package index

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/notelens/internal/storage"
)

// watcherTestEnv sets up a vault dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store, testDB(t)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatch(t *testing.T, db *DB, store storage.Provider, root string, cb EventCallback) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go Watch(ctx, db, store, root, quietLogger(), cb)
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	var mu sync.Mutex
	var events []string
	startWatch(t, db, store, vaultDir, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	_ = os.WriteFile(filepath.Join(vaultDir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("new.md")
		return cs != ""
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.md" {
				return true
			}
		}
		return false
	}, "expected created:new.md callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	startWatch(t, db, store, vaultDir, nil)

	subDir := filepath.Join(vaultDir, "subdir")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("subdir/deep.md")
		return cs != ""
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_HiddenDirIgnored(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	startWatch(t, db, store, vaultDir, nil)

	hiddenDir := filepath.Join(vaultDir, ".notelens")
	_ = os.MkdirAll(hiddenDir, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(hiddenDir, "settings.md"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(vaultDir, "visible.md"), []byte("y"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("visible.md")
		return cs != ""
	}, "visible note not indexed")
	if cs, _ := db.GetChecksum(".notelens/settings.md"); cs != "" {
		t.Error("note inside hidden dir should not be indexed")
	}
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(vaultDir, "del.md"), []byte("# Delete Me"), 0o644)
	if _, err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("del.md"); cs == "" {
		t.Fatal("precondition: file should be indexed")
	}

	startWatch(t, db, store, vaultDir, nil)
	_ = os.Remove(filepath.Join(vaultDir, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del.md")
		return cs == ""
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(vaultDir, "old.md"), []byte("# Rename"), 0o644)
	_, _ = Sync(db, store, quietLogger())

	startWatch(t, db, store, vaultDir, nil)
	_ = os.Rename(filepath.Join(vaultDir, "old.md"), filepath.Join(vaultDir, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old.md")
		newCS, _ := db.GetChecksum("renamed.md")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}

func TestSync_Stats(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	_ = os.WriteFile(filepath.Join(vaultDir, "a.md"), []byte("[[b]]"), 0o644)
	_ = os.WriteFile(filepath.Join(vaultDir, "b.md"), []byte("b"), 0o644)

	stats, err := Sync(db, store, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats.Indexed != 2 {
		t.Errorf("indexed = %d, want 2", stats.Indexed)
	}

	stats, _ = Sync(db, store, quietLogger())
	if stats.Indexed != 0 {
		t.Errorf("second sync indexed = %d, want 0 (unchanged)", stats.Indexed)
	}

	_ = os.Remove(filepath.Join(vaultDir, "b.md"))
	stats, _ = Sync(db, store, quietLogger())
	if stats.Removed != 1 {
		t.Errorf("removed = %d, want 1", stats.Removed)
	}
	out, _ := db.OutgoingLinks("a.md")
	if len(out) != 0 {
		t.Errorf("link to removed note should no longer resolve: %v", out)
	}
}
