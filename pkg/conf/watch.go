package conf

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads path whenever it is written or recreated and hands each
// successfully parsed config to fn. A file that fails to load is logged
// and the previous config stays in effect. Watch returns once the watcher
// is running; it stops when ctx is done.
func Watch(ctx context.Context, path string, fn func(*Conf)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("conf: watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("conf: watch %s: %w", path, err)
	}
	name := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Clean(event.Name) != name {
					continue
				}
				c, err := Load(path)
				if err != nil {
					log.Printf("conf: reload %s: %v", path, err)
					continue
				}
				log.Printf("conf: reloaded %s", path)
				fn(c)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("conf: watcher error: %v", err)
			}
		}
	}()
	return nil
}
