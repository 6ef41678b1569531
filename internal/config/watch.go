package config

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/podium/pkg/logger"
)

// WatchTargets lists what Watch observes.
type WatchTargets struct {
	// Files are watched through their parent directory so atomic saves
	// (write temp, rename) are seen.
	Files []string
	// Dirs are watched recursively; directories created later are added.
	Dirs []string
	// Ignore drops events below these paths, e.g. an output directory
	// nested in a watched tree.
	Ignore []string
	// Debounce is the quiet period before onChange fires.
	Debounce time.Duration
}

// Watch calls onChange with the changed paths once the watched files and
// directories have been quiet for the debounce period. onChange runs on the
// watching goroutine, so calls never overlap. Watch runs until ctx is
// cancelled.
func Watch(ctx context.Context, targets WatchTargets, onChange func(ctx context.Context, changed []string)) error {
	log := logger.Named("config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWatch, err)
	}
	defer watcher.Close()

	files := make(map[string]struct{}, len(targets.Files))
	for _, f := range targets.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWatch, err)
		}
		files[abs] = struct{}{}
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWatch, f, err)
		}
	}

	dirs := make([]string, 0, len(targets.Dirs))
	for _, d := range targets.Dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWatch, err)
		}
		dirs = append(dirs, abs)
		if err := addTree(watcher, abs); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWatch, d, err)
		}
	}

	ignore := make([]string, 0, len(targets.Ignore))
	for _, p := range targets.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			ignore = append(ignore, abs)
		}
	}

	relevant := func(name string) bool {
		if under(name, ignore) {
			return false
		}
		if _, ok := files[name]; ok {
			return true
		}
		return under(name, dirs)
	}

	log.Info(ctx, "watching for changes",
		logger.Int("files", len(files)), logger.Int("dirs", len(dirs)), logger.Duration("debounce", targets.Debounce))

	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Clean(event.Name)
			if !relevant(name) {
				continue
			}
			if event.Has(fsnotify.Create) && under(name, dirs) {
				if info, err := os.Stat(name); err == nil && info.IsDir() {
					if err := addTree(watcher, name); err != nil {
						log.Warn(ctx, "cannot watch new directory", logger.String("dir", name), logger.Error(err))
					}
				}
			}
			pending[name] = struct{}{}
			timer.Reset(targets.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]struct{})
			log.Debug(ctx, "change detected", logger.Int("paths", len(changed)))
			onChange(ctx, changed)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(ctx, "watcher error", logger.Error(err))
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func under(path string, roots []string) bool {
	for _, r := range roots {
		if path == r || strings.HasPrefix(path, r+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
