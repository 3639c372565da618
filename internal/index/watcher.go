package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notelens/internal/storage"
)

// Change kinds passed to EventCallback.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, path string)

type watcher struct {
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback
}

func (w *watcher) emit(kind, rel string) {
	if w.cb != nil {
		w.cb(kind, rel)
	}
}

// Watch starts an fsnotify watcher on the vault root and keeps the index in
// step with the files until ctx is cancelled. Directories created at runtime
// are added to the watch list; hidden directories are ignored. Renames
// schedule a debounced reconciliation pass, since fsnotify only reports the
// old name.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, vaultRoot); err != nil {
		return err
	}

	w := &watcher{db: db, store: store, root: vaultRoot, logger: logger, cb: cb}
	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var (
		reconcileTimer *time.Timer
		reconcileCh    <-chan time.Time
	)
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
			return
		}
		reconcileTimer.Reset(reconcileDelay)
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			w.reconcile()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev, scheduleReconcile)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event, scheduleReconcile func()) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if hidden(filepath.Base(ev.Name)) {
				return
			}
			if err := addDirsRecursive(fw, ev.Name); err != nil {
				w.logger.Warn("watcher: add new dir failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
			}
			w.indexDir(ev.Name)
			return
		}
	}

	rel, ok := w.relNote(ev.Name)
	if !ok {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if !w.indexOne(rel) {
			return
		}
		kind := ChangeUpdated
		if ev.Op&fsnotify.Create != 0 {
			kind = ChangeCreated
		}
		w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
		w.emit(kind, rel)

	case ev.Op&fsnotify.Remove != 0:
		if err := w.db.DeleteNote(rel); err != nil {
			w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		w.emit(ChangeDeleted, rel)

	case ev.Op&fsnotify.Rename != 0:
		if err := w.db.DeleteNote(rel); err != nil {
			w.logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		} else {
			w.emit(ChangeDeleted, rel)
		}
		scheduleReconcile()
	}
}

// relNote maps an absolute event path to a vault-relative note path, or
// reports false for non-notes, temp files and hidden directories.
func (w *watcher) relNote(abs string) (string, bool) {
	if !strings.HasSuffix(abs, ".md") {
		return "", false
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if hidden(part) {
			return "", false
		}
	}
	return rel, true
}

func (w *watcher) indexOne(rel string) bool {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}
	if err := IndexFile(w.db, rel, data, time.Now()); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}
	return true
}

// reconcile removes index entries whose files are gone and indexes files
// that are new or changed on disk.
func (w *watcher) reconcile() {
	checksums, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := w.db.DeleteNote(p); err == nil {
			w.emit(ChangeDeleted, p)
		}
	}
	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		if w.indexOne(p) {
			w.emit(ChangeCreated, p)
		}
	}
}

// indexDir indexes the notes already present in a newly created directory.
func (w *watcher) indexDir(dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, ok := w.relNote(p)
		if !ok {
			return nil
		}
		if w.indexOne(rel) {
			w.emit(ChangeCreated, rel)
		}
		return nil
	})
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// addDirsRecursive adds root and its non-hidden subdirectories to the watcher.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}
