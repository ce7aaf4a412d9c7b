package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/snapsort/pkg/snapsort/output"
	"github.com/jamesainslie/snapsort/pkg/snapsort/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch SOURCE DESTINATION",
	Short: "Organize SOURCE now and again whenever new media appears",
	Long: `Run once, then keep watching SOURCE and re-run after new photos or
videos have stopped arriving for the debounce period. Every re-run is a
normal run: files already in DESTINATION are recognized and left alone.

Stop with Ctrl-C.`,
	Args: exactArgs(2),
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before re-running")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	source, destination := args[0], args[1]
	formatter, err := reportFormatter(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(destination)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(source); err != nil {
		return err
	}

	if err := watchRun(ctx, source, destination, formatter); err != nil {
		return err
	}
	printInfo("Watching %s (%d directories); press Ctrl-C to stop.", source, len(w.Paths()))

	w.Run(ctx, watchDebounce, func(ctx context.Context, paths []string) {
		printVerbose("%d new file(s): %s", len(paths), strings.Join(relPaths(source, paths), ", "))
		if err := watchRun(ctx, source, destination, formatter); err != nil {
			printError("%v", err)
		}
	})
	return nil
}

// watchRun runs one pass. Per-file failures were already reported and do not
// stop watching; cancellation ends quietly.
func watchRun(ctx context.Context, source, destination string, f output.Formatter) error {
	err := organize(ctx, source, destination, f)
	switch {
	case err == nil, errors.Is(err, errFailures), errors.Is(err, context.Canceled):
		return nil
	default:
		return err
	}
}

func relPaths(root string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if rel, err := filepath.Rel(root, p); err == nil {
			out[i] = rel
		} else {
			out[i] = p
		}
	}
	return out
}
