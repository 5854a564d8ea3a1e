// Package watcher turns file system notifications on the graph and catalog
// files into debounced reload requests.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/logging"
	"github.com/fsnotify/fsnotify"
)

// ChangeType says which watched file changed
type ChangeType int

const (
	ChangeTypeGraph ChangeType = iota
	ChangeTypeCatalog
)

func (c ChangeType) String() string {
	switch c {
	case ChangeTypeGraph:
		return "graph"
	case ChangeTypeCatalog:
		return "catalog"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches individual files. It subscribes to their directories so
// that editors which replace files by rename are still seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]ChangeType // absolute path -> kind
	events  chan ChangeEvent
}

// NewFileWatcher watches graphPath and, when non-empty, catalogPath
func NewFileWatcher(graphPath, catalogPath string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: w,
		files:   make(map[string]ChangeType),
		events:  make(chan ChangeEvent, 100),
	}
	for path, kind := range map[string]ChangeType{graphPath: ChangeTypeGraph, catalogPath: ChangeTypeCatalog} {
		if path == "" {
			continue
		}
		if err := fw.add(path, kind); err != nil {
			w.Close()
			return nil, err
		}
	}
	return fw, nil
}

func (fw *FileWatcher) add(path string, kind ChangeType) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	fw.files[abs] = kind

	dir := filepath.Dir(abs)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logging.Info("watching file", "path", abs, "kind", kind)
	return nil
}

// Start processes notifications until ctx is done, then closes Events
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.processEvents(ctx)
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			kind, watched := fw.files[filepath.Clean(event.Name)]
			if !watched {
				continue
			}
			logging.Trace("file event", "path", event.Name, "op", event.Op.String())
			select {
			case fw.events <- ChangeEvent{Type: kind, Paths: []string{event.Name}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of raw change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
