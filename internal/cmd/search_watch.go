package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/searchex/internal/config"
	"github.com/harrison/searchex/internal/models"
	"github.com/harrison/searchex/internal/watch"
)

// watchSettleDelay absorbs the burst of changes that follows the first
// one, so a single save does not trigger several runs.
const watchSettleDelay = 200 * time.Millisecond

// watchSearch runs the search once, then re-runs it whenever the
// watched tree changes. It returns when ctx is cancelled.
func watchSearch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, req models.SearchRequest, opts searchOptions, logs *runLoggers) error {
	out := cmd.OutOrStdout()

	// A file root is watched through its parent directory, so editors
	// that replace the file on save do not break the watch.
	watchRoot := req.Root
	target := ""
	if info, err := os.Stat(req.Root); err == nil && !info.IsDir() {
		target = filepath.Clean(req.Root)
		watchRoot = filepath.Dir(target)
	}

	watcher, err := watch.New(watchRoot, watch.Options{IncludeHidden: req.IncludeHidden})
	if err != nil {
		return fmt.Errorf("watch %s: %w", watchRoot, err)
	}
	defer watcher.Close()

	runOnce := func() error {
		res, err := executeSearch(ctx, out, cfg, req, opts, logs)
		if err != nil {
			return err
		}
		return persistRun(ctx, out, cfg, req, res, opts)
	}

	if err := runOnce(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nWatching %s for changes (ctrl-c to stop)\n", watchRoot)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-watcher.Errors():
			logs.all.LogWarn(fmt.Sprintf("watch error: %v", err))

		case change := <-watcher.Changes():
			if target != "" && change.Path != target {
				continue
			}
			settle(ctx, watcher)

			fmt.Fprintf(out, "\n%s %s, searching again\n", change.Path, change.Kind)
			if err := runOnce(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nWatching %s for changes (ctrl-c to stop)\n", watchRoot)
		}
	}
}

// settle drains changes until the tree has been quiet for the settle
// delay or ctx is cancelled.
func settle(ctx context.Context, w *watch.Watcher) {
	timer := time.NewTimer(watchSettleDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.Changes():
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(watchSettleDelay)
		case <-timer.C:
			return
		}
	}
}
