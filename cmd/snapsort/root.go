package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/snapsort/pkg/snapsort/config"
	"github.com/jamesainslie/snapsort/pkg/snapsort/logging"
)

// Process exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var (
	cfgFile string

	// appConfig is populated by bootstrap before any command runs.
	appConfig *config.Config

	helpShown bool

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "snapsort SOURCE DESTINATION",
	Short: "Organize photos and videos into a dated library",
	Long: `Snapsort scans SOURCE for photos and videos (.jpg, .jpeg, .png, .mp4),
collapses byte-identical duplicates, and places one copy of each into
DESTINATION as YYYY/MM/DD/YYYY-MM-DD-HH.MM.SS.ext using the capture time
recorded in the file (EXIF DateTimeOriginal, or the MP4 movie header).

Distinct files with the same capture second get "(0)", "(1)", ... suffixes.
Files already present at their destination are left alone, so re-running
over the same library changes nothing.

Examples:
  snapsort ~/Pictures/import ~/Pictures/library        # copy into the library
  snapsort --mv /media/card ~/Pictures/library         # move instead of copy
  snapsort -d ~/Downloads ~/Pictures/library           # preview only
  snapsort -q -o json /media/card ~/Pictures/library   # quiet, JSON report
  snapsort watch /media/inbox ~/Pictures/library       # keep organizing
  snapsort history                                     # past runs`,
	Args:              exactArgs(2),
	PersistentPreRunE: bootstrap,
	RunE:              runOrganize,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/snapsort/config.yaml)")
	pf.BoolP("quiet", "q", false, "suppress progress messages")
	pf.BoolP("verbose", "v", false, "mirror debug logs to stderr")
	pf.BoolP("dry-run", "d", false, "resolve destinations without creating directories or files")
	pf.Bool("mv", false, "move files instead of copying them")
	pf.IntP("workers", "w", config.DefaultWorkers, "concurrent digest workers")
	pf.StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	pf.StringP("output", "o", "", "print a run report: pretty, plain, json, yaml")
	pf.Bool("mtime-fallback", false, "use the modification time when a file has no capture time")
	pf.Bool("no-manifest", false, "do not record this run in the history")

	bindFlags()

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{cmd: c, err: err}
	})

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		helpShown = true
		defaultHelp(c, args)
	})
}

// bindFlags connects flags to their viper keys.
func bindFlags() {
	pf := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("quiet", pf.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("dry_run", pf.Lookup("dry-run"))
	_ = viper.BindPFlag("mv", pf.Lookup("mv"))
	_ = viper.BindPFlag("workers", pf.Lookup("workers"))
	_ = viper.BindPFlag("exclude", pf.Lookup("exclude"))
	_ = viper.BindPFlag("output", pf.Lookup("output"))
	_ = viper.BindPFlag("mtime_fallback", pf.Lookup("mtime-fallback"))
	_ = viper.BindPFlag("no_manifest", pf.Lookup("no-manifest"))
}

// configErr holds a failure from initConfig until bootstrap can report it.
var configErr error

// initConfig reads the config file and SNAPSORT_ environment variables.
func initConfig() {
	config.SetDefaults(viper.GetViper())
	configErr = config.Read(viper.GetViper(), cfgFile)
}

// bootstrap decodes the configuration and starts logging.
func bootstrap(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		return configErr
	}
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	appConfig = cfg

	if err := initLogging(cfg); err != nil {
		if errors.Is(err, logging.ErrInvalidLevel) {
			return err
		}
		printWarning("file logging disabled: %v", err)
	}
	printVerbose("config file: %s", viper.ConfigFileUsed())
	return nil
}

func initLogging(cfg *config.Config) error {
	maxSize, err := cfg.Logging.Rotation.MaxSizeBytes()
	if err != nil {
		return err
	}
	lc := logging.Config{
		Level: cfg.Logging.Level,
		Path:  cfg.Logging.Path,
		Rotation: logging.RotationConfig{
			MaxSize:    maxSize,
			MaxBackups: cfg.Logging.Rotation.MaxBackups,
		},
		Components: cfg.Logging.Components,
		Console:    stderr,
	}
	if getVerbose() {
		lc.ConsoleLevel = "debug"
	}
	return logging.Init(lc)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	defer func() { _ = logging.Close() }()

	helpShown = false
	err := rootCmd.Execute()
	if err == nil {
		if helpShown {
			return exitUsage
		}
		return exitOK
	}

	var ue *usageError
	if errors.As(err, &ue) {
		printError("%v", ue.err)
		fmt.Fprint(stderr, ue.cmd.UsageString())
		return exitUsage
	}
	if !errors.Is(err, errFailures) {
		printError("%v", err)
	}
	return exitError
}

// usageError is a bad invocation: wrong argument count or an unknown flag.
type usageError struct {
	cmd *cobra.Command
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exactArgs is cobra.ExactArgs reporting through usageError.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &usageError{cmd: cmd, err: fmt.Errorf("accepts %d arg(s), received %d", n, len(args))}
		}
		return nil
	}
}

// noArgs is cobra.NoArgs reporting through usageError.
func noArgs(cmd *cobra.Command, args []string) error {
	return exactArgs(0)(cmd, args)
}

func getVerbose() bool {
	return viper.GetBool("verbose")
}

func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...any) {
	if !getQuiet() {
		fmt.Fprintf(stdout, format+"\n", args...)
	}
}

// printWarning prints a warning to stderr.
func printWarning(format string, args ...any) {
	fmt.Fprintf(stderr, "Warning: "+format+"\n", args...)
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
}
