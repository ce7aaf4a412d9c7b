package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/snapsort/pkg/snapsort/config"
	"github.com/jamesainslie/snapsort/pkg/snapsort/manifest"
	"github.com/jamesainslie/snapsort/pkg/snapsort/organizer"
	"github.com/jamesainslie/snapsort/pkg/snapsort/output"
	"github.com/jamesainslie/snapsort/pkg/snapsort/placer"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// errFailures makes the process exit non-zero after per-file failures that
// were already reported.
var errFailures = errors.New("some files could not be placed")

// progress prints placement decisions as they are made.
type progress struct{}

func (progress) OnPlacing(src, dst string, mode types.Mode) {
	printInfo("%s %s %s", mode.Op(), src, dst)
}

func (progress) OnAlreadyPresent(src, dst string) {
	printInfo("%s already exist at: %s", src, dst)
}

func (progress) OnSkipped(_ string, err error) {
	printWarning("skipping %v", err)
}

func (progress) OnFailed(_ string, err error) {
	printError("%v", err)
}

var _ placer.Observer = progress{}

// runOrganize executes the organize operation.
func runOrganize(cmd *cobra.Command, args []string) error {
	formatter, err := reportFormatter(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return organize(ctx, args[0], args[1], formatter)
}

// reportFormatter returns the formatter selected by --output, or nil.
func reportFormatter(cmd *cobra.Command) (output.Formatter, error) {
	if appConfig.Output == "" {
		return nil, nil
	}
	f, err := output.Get(appConfig.Output)
	if err != nil {
		return nil, &usageError{cmd: cmd, err: err}
	}
	return f, nil
}

// organize performs one run from source into destination and prints its
// summary. It returns errFailures when any file failed.
func organize(ctx context.Context, source, destination string, formatter output.Formatter) error {
	cfg := appConfig

	mode := types.ModeCopy
	if viper.GetBool("mv") {
		mode = types.ModeMove
	}
	dryRun := viper.GetBool("dry_run")

	printVerbose("organizing %s into %s (mode=%s, dry_run=%t, workers=%d)",
		source, destination, mode, dryRun, cfg.Workers)

	report, err := organizer.New(organizer.Options{
		Source:        source,
		Destination:   destination,
		Mode:          mode,
		DryRun:        dryRun,
		Workers:       cfg.Workers,
		Exclude:       cfg.Exclude,
		MaxCollisions: cfg.MaxCollisions,
		MtimeFallback: cfg.MtimeFallback,
		Observer:      progress{},
	}).Run(ctx)
	if err != nil {
		if report != nil && errors.Is(err, context.Canceled) {
			printWarning("interrupted after %d of %d files", len(report.Files), report.Unique)
			recordRun(cfg, report, dryRun)
		}
		return err
	}

	for _, se := range report.ScanErrors {
		printWarning("could not scan %s: %s", se.Path, se.Error)
	}
	fmt.Fprintf(stdout, "Found %d duplicate files in source\n", report.Duplicates)

	if formatter != nil {
		var buf bytes.Buffer
		if err := formatter.Format(&buf, report); err != nil {
			return fmt.Errorf("formatting report: %w", err)
		}
		_, _ = stdout.Write(buf.Bytes())
	}

	recordRun(cfg, report, dryRun)

	if report.HasFailures() {
		return errFailures
	}
	return nil
}

// recordRun saves report to the history unless disabled. A failure to save
// is only a warning.
func recordRun(cfg *config.Config, report *organizer.Report, dryRun bool) {
	if dryRun || !cfg.Manifest.Enabled || viper.GetBool("no_manifest") {
		return
	}
	m, err := manifest.New(cfg.Manifest.Path)
	if err != nil {
		printWarning("run not recorded: %v", err)
		return
	}
	entry := manifest.FromReport(report)
	if err := m.Save(entry); err != nil {
		printWarning("run not recorded: %v", err)
		return
	}
	printVerbose("recorded run %s", entry.ID)
}
