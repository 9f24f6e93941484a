// Package configdoc bridges the on-disk configuration file to the
// internal/value engine: it loads a JSON document into a value.Value tree,
// serves path-addressed reads and overlay patches against it (the same
// op-chain compiler/executor internal/server exposes over HTTP), and
// optionally watches the backing file via fsnotify so external edits
// hot-reload without a restart.
package configdoc

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/genhoi/unit/internal/arena"
	"github.com/genhoi/unit/internal/patch"
	"github.com/genhoi/unit/internal/value"
)

// Doc is a live, hot-reloadable configuration document. Reads take a read
// lock over the current root; Patch and a reload both take the write lock
// to swap in a new root. Patch builds the new root in the document's
// current arena; a reload parses into a fresh arena and swaps root and
// arena together, so no reader ever observes a tree straddling two arenas.
type Doc struct {
	mu   sync.RWMutex
	fs   afero.Fs
	path string
	log  *logrus.Logger
	a    *arena.Arena
	root value.Value
}

// Open reads path from fs and parses it as a JSON configuration document.
func Open(fs afero.Fs, path string, log *logrus.Logger) (*Doc, error) {
	d := &Doc{fs: fs, path: path, log: log}
	if err := d.reload(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Doc) reload() error {
	data, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		return err
	}
	a := arena.New(0)
	root, err := value.Parse(data, a)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.a, d.root = a, root
	d.mu.Unlock()
	return nil
}

// Root returns the current document root. Callers must not mutate it;
// Value is immutable once built.
func (d *Doc) Root() value.Value {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.root
}

// Get resolves path against the current root.
func (d *Doc) Get(path string) (value.Value, bool) {
	return value.Get(d.Root(), path)
}

// Arena returns the arena backing the current root, for callers that need
// to parse a new value to pass into Patch.
func (d *Doc) Arena() *arena.Arena {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.a
}

// Patch compiles and applies an overlay patch at path, the same op-chain
// path the HTTP PATCH endpoint drives. val == nil deletes the member at
// path. The new root replaces the old one atomically; the old root (and
// every subtree the patch didn't touch, which the new root still
// references out of the same arena) remains valid for any caller already
// holding a reference to it.
func (d *Doc) Patch(path string, val *value.Value) (value.Value, patch.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	op, status := patch.Compile(d.root, val, path, d.a)
	if status != patch.OK {
		return value.Value{}, status, nil
	}
	out, err := patch.Apply(d.root, op, d.a)
	if err != nil {
		return value.Value{}, status, err
	}
	d.root = out
	return out, patch.OK, nil
}

// Watch starts an fsnotify watch on the backing file and reloads the
// document whenever it changes, logging the outcome. It blocks until ctx
// is cancelled or the watcher fails to start; reload errors are logged and
// do not stop the watch (a transient partial write should not poison the
// live document with a parse failure — the previous good root stays
// current until a subsequent write parses cleanly).
func (d *Doc) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(d.path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := d.reload(); err != nil {
				d.log.WithError(err).WithField("path", d.path).Warn("config reload failed, keeping previous document")
				continue
			}
			d.log.WithField("path", d.path).Info("config reloaded")
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.log.WithError(err).Warn("config watch error")
		}
	}
}
