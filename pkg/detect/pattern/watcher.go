package pattern

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reloads rule packs into a Detector when manifests in the pack
// directory are written or created.
type Watcher struct {
	detector *Detector
	dir      string
	watcher  *fsnotify.Watcher
	log      *logrus.Logger
}

// NewWatcher starts watching dir and performs an initial pack load.
func NewWatcher(detector *Detector, dir string, log *logrus.Logger) (*Watcher, error) {
	if log == nil {
		log = logrus.New()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{detector: detector, dir: dir, watcher: fsw, log: log}
	w.reload()
	return w, nil
}

// Run processes filesystem events until the context is canceled or the
// watcher is closed. Call it from a dedicated goroutine.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			w.log.Infof("Rule pack change detected: %s (%s)", event.Name, event.Op)
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnf("Rule pack watcher error: %v", err)
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) reload() {
	packs, err := LoadPackDir(w.dir, w.log)
	if err != nil {
		w.log.Warnf("Rule pack reload failed: %v", err)
		return
	}
	w.detector.SetPacks(packs)
}
