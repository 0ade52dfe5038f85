package daemonconfig

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads configPath whenever it changes and hands the merged result
// to onChange. Reload failures go to onError and leave the previous config
// in effect. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file so that editors which
// replace the file by rename are still observed.
func Watch(ctx context.Context, configPath string, onChange func(Config), onError func(error)) error {
	if configPath == "" {
		return fmt.Errorf("watch config: no path")
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	if onError == nil {
		onError = func(error) {}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadFromPath(abs)
			if err != nil {
				onError(err)
				continue
			}
			onChange(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			onError(err)
		}
	}
}
