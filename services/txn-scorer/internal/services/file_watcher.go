package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/publisher"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-scorer/internal/observability"
	"go.uber.org/zap"
)

// FileWatcher streams the paths of completed files in a directory.
type FileWatcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}

type FileWatcherConfig struct {
	Logger *zap.Logger
	Dir    string
	Buffer int
}

type FileWatcherImpl struct {
	logger *zap.Logger
	dir    string
	buffer int
}

func NewFileWatcher(cfg FileWatcherConfig) FileWatcher {
	return &FileWatcherImpl{logger: cfg.Logger, dir: cfg.Dir, buffer: max(cfg.Buffer, 1)}
}

// Watch emits files already present in the directory, then every file created afterwards.
// Each path is emitted at most once. The channel closes when ctx ends or the watcher fails.
func (w *FileWatcherImpl) Watch(ctx context.Context) (<-chan string, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// subscribe before the scan so nothing published in between is missed
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}
	existing, err := w.scan()
	if err != nil {
		_ = fw.Close()
		return nil, err
	}

	out := make(chan string, w.buffer)
	go func() {
		defer close(out)
		defer fw.Close()

		seen := make(map[string]struct{})
		emit := func(path string) bool {
			if _, dup := seen[path]; dup {
				return true
			}
			seen[path] = struct{}{}
			observability.FilesDetected.Inc()
			select {
			case out <- path:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for _, path := range existing {
			if !emit(path) {
				return
			}
		}
		w.logger.Info("file_watcher_started", zap.String("dir", w.dir), zap.Int("existing_files", len(existing)))

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) || !publisher.IsPublishedFile(filepath.Base(ev.Name)) {
					continue
				}
				if !emit(ev.Name) {
					return
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.logger.Error("file_watcher_error", zap.Error(err))
			}
		}
	}()
	return out, nil
}

func (w *FileWatcherImpl) scan() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !publisher.IsPublishedFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(w.dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
