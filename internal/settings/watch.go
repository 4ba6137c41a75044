package settings

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events editors emit on save.
const reloadDelay = 100 * time.Millisecond

// Watch reloads path into store whenever it changes, until ctx is done.
// The parent directory is watched so atomic-rename saves are seen. A file
// that fails to parse is logged and the previous settings stay live.
// onChange, if set, runs after every successful reload.
func Watch(ctx context.Context, path string, store *Store, log *slog.Logger, onChange func(File)) error {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating settings watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				pending = time.After(reloadDelay)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("settings watcher error", "err", err)
		case <-pending:
			pending = nil
			if _, err := os.Stat(path); err != nil {
				// Removed or mid-rename; the next event brings it back.
				continue
			}
			f, unknown, err := Load(path)
			if err != nil {
				log.Warn("settings reload failed, keeping previous", "err", err)
				continue
			}
			if len(unknown) > 0 {
				log.Warn("unknown settings keys", "keys", unknown)
			}
			store.Replace(f)
			log.Info("settings reloaded", "path", path)
			if onChange != nil {
				onChange(f)
			}
		}
	}
}
