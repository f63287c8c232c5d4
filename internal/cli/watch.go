package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

// watchFile calls onChange after path is written, created or replaced,
// until ctx is done. The parent directory is watched so atomic saves that
// rename a temporary file over path are seen too.
func watchFile(ctx context.Context, path string, logger *log.Logger, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	debounced := debounce.New(watchDebounce)
	base := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				logger.Debug("Tree changed", "path", ev.Name, "op", ev.Op.String())
				debounced(onChange)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error", "err", err)
		}
	}
}
