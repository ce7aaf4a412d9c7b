package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/snapsort/pkg/snapsort/config"
	"github.com/jamesainslie/snapsort/pkg/snapsort/manifest"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past runs",
	Long: `List recorded snapsort runs, newest first.

Every run that is not a dry run is recorded with the outcome of each file,
unless --no-manifest is given or manifest.enabled is false.`,
	Args: noArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show the files of one run",
	Long:  `Display a recorded run. ID may be any unique prefix of the run ID.`,
	Args:  exactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove runs older than the retention period",
	Args:  noArgs,
	RunE:  runHistoryClean,
}

var (
	historyLimit     int
	historyShowLimit int
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show (0 for all)")
	historyShowCmd.Flags().IntVarP(&historyShowLimit, "limit", "l", 50, "maximum number of files to show (0 for all)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

func openManifest() (*manifest.Manifest, error) {
	m, err := manifest.New(appConfig.Manifest.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize manifest: %w", err)
	}
	return m, nil
}

// runHistory lists recent runs.
func runHistory(cmd *cobra.Command, args []string) error {
	m, err := openManifest()
	if err != nil {
		return err
	}
	entries, err := m.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tMODE\tPLACED\tPRESENT\tSKIPPED\tFAILED\tSIZE\tSOURCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			shortID(e.ID),
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Mode,
			e.Summary.Placed,
			e.Summary.Present,
			e.Summary.Skipped,
			e.Summary.Failed,
			types.FormatSize(e.Summary.PlacedBytes),
			e.Source,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printInfo("\nUse 'snapsort history show <id>' for the files of a run.")
	return nil
}

// runHistoryShow displays one run.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	m, err := openManifest()
	if err != nil {
		return err
	}
	e, err := m.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "ID:          %s\n", e.ID)
	fmt.Fprintf(stdout, "Timestamp:   %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(stdout, "Mode:        %s\n", e.Mode)
	fmt.Fprintf(stdout, "Source:      %s\n", e.Source)
	fmt.Fprintf(stdout, "Destination: %s\n", e.Destination)
	fmt.Fprintf(stdout, "Duplicates:  %d\n", e.Summary.Duplicates)
	fmt.Fprintf(stdout, "Placed:      %d (%s)\n", e.Summary.Placed, types.FormatSize(e.Summary.PlacedBytes))
	fmt.Fprintf(stdout, "Present:     %d\n", e.Summary.Present)
	fmt.Fprintf(stdout, "Skipped:     %d\n", e.Summary.Skipped)
	fmt.Fprintf(stdout, "Failed:      %d\n", e.Summary.Failed)

	if len(e.Files) == 0 {
		return nil
	}

	limit := len(e.Files)
	if historyShowLimit > 0 && historyShowLimit < limit {
		limit = historyShowLimit
	}

	fmt.Fprintln(stdout)
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tSOURCE\tDESTINATION")
	for _, f := range e.Files[:limit] {
		detail := f.Destination
		if f.Error != "" {
			detail = f.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Status, f.Source, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if limit < len(e.Files) {
		fmt.Fprintf(stdout, "\n... and %d more files\n", len(e.Files)-limit)
	}
	return nil
}

// runHistoryClean removes runs older than the retention period.
func runHistoryClean(cmd *cobra.Command, args []string) error {
	m, err := openManifest()
	if err != nil {
		return err
	}
	days := appConfig.Manifest.RetentionDays
	if days <= 0 {
		days = config.DefaultRetentionDays
	}

	removed, err := m.Clean(days)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("Removed %d run(s) older than %d days.", removed, days)
	return nil
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
