package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

func watchCommand(args []string) error {
	manifestPath, dirs, err := manifestFlags("watch", args, true)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()
	// directories rather than files: editors often replace files on save.
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	styled := stdoutIsTerminal()
	reload := func() {
		if err := loadAndReport(os.Stdout, manifestPath, dirs, styled); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	return runWatchLoop(ctx, watcher.Events, watcher.Errors, reload)
}

// runWatchLoop calls reload once up front and again for every manifest
// change until ctx ends or a channel closes.
func runWatchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, reload func()) error {
	reload()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if manifestChanged(ev) {
				reload()
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}

func manifestChanged(ev fsnotify.Event) bool {
	if filepath.Ext(ev.Name) != ".yaml" {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
