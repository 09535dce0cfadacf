package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a file must sit quiet after its last write before
// it is ingested. Subtitle files are often copied in, and copies arrive as a
// burst of write events.
const settleDelay = 500 * time.Millisecond

// Watch ingests .srt files as they appear in dir, blocking until ctx is
// canceled. Files already present are not re-ingested; run IngestDir first
// for the initial load.
func (g *Ingester) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	g.logger.Info("watching for subtitle files",
		"dir", dir,
	)

	// pending tracks files seen but not yet settled.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settleDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".srt") {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.logger.Error("watcher error",
				"error", err,
			)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settleDelay {
					continue
				}
				delete(pending, path)

				if _, err := g.IngestFile(ctx, path); err != nil {
					g.logger.Error("ingesting watched file",
						"path", path,
						"error", err,
					)
					continue
				}
				g.logger.Info("ingested watched file",
					"path", path,
				)
			}
		}
	}
}
