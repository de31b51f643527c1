package logs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Follow calls emit for every complete line appended to path until ctx is
// cancelled. Lines already in the file when Follow starts are skipped unless
// fromStart is set.
func Follow(ctx context.Context, path string, fromStart bool, emit func(line string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create log watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	var offset int64
	if !fromStart {
		if _, offset, err = LastLines(path, 0); err != nil {
			return err
		}
	}

	drain := func() error {
		lines, next, err := ReadFrom(path, offset)
		offset = next
		for _, line := range lines {
			emit(line)
		}
		return err
	}
	// catch anything written between Add and the first event
	if err := drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				offset = 0
				fallthrough
			case event.Has(fsnotify.Write):
				if err := drain(); err != nil {
					return err
				}
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
