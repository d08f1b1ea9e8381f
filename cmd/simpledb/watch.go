package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watch prints the collection, then again each time the store file changes,
// until ctx is done.
func (a *app) watch(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("watch: unexpected arguments: %v", args)
	}
	abs, err := filepath.Abs(a.file)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	// Writes replace the file with a rename, so watch the directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	if err := a.get(nil); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			slog.InfoContext(ctx, "Store changed", "path", abs, "op", event.Op.String())
			if err := a.get(nil); err != nil {
				slog.WarnContext(ctx, "Failed to reload store", "path", abs, "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Error watching store", "err", err)
		}
	}
}
