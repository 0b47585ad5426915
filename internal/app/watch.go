package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 300 * time.Millisecond

// watch runs the pipeline, then re-runs it whenever an .hcl file under the
// pipeline path changes. Run failures are logged rather than returned so a
// broken edit does not kill the watch loop.
func (a *App) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := a.config.PipelinePath
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	if err := watcher.Add(dir); err != nil {
		return err
	}
	a.logger.Info("👀 Watching for changes.", "dir", dir)

	if err := a.runOnce(ctx); err != nil {
		a.logger.Error("Pipeline run failed.", "error", err)
	}

	var debounce *time.Timer
	runs := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".hcl") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			// Editors fire bursts of events per save; coalesce them.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case runs <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("Watcher error.", "error", err)
		case <-runs:
			a.logger.Info("🔄 Pipeline changed, re-running.")
			if err := a.runOnce(ctx); err != nil {
				a.logger.Error("Pipeline run failed.", "error", err)
			}
		}
	}
}
