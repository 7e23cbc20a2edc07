package composition

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Load reads and builds a composition file.
func Load(path string) (*Composition, error) {
	doc, err := Read(path)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// Watch rebuilds the composition at path every time it is written and hands
// the result to onChange, until ctx is done. The parent directory is watched
// so that editors which replace the file on save are still followed.
func Watch(ctx context.Context, path string, onChange func(*Composition, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
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
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			onChange(Load(abs))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onChange(nil, err)
		}
	}
}
