package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"xdigest/pkg/errors"
	"xdigest/pkg/ui"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitNoData  = 2
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd crawls when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "xdigest",
	Short: "Collect a time-bounded digest of your X home timeline",
	Long: `xdigest walks your X (Twitter) home timeline backwards, newest first,
through an API proxy and writes every post from the last N hours to a digest.

The crawl stops when it reaches posts older than the lookback window, when the
timeline has no more pages, or when the page cap is hit.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuiet(true)
		}
		if noColor {
			ui.SetColor(false)
		}
		if cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

// Execute runs the command tree and maps the outcome to an exit code
func Execute() int {
	err := rootCmd.Execute()
	code := exitCode(err)
	if err != nil && code == exitFailure {
		ui.PrintError("Error", err)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case stderrors.Is(err, errors.ErrNoData):
		return exitNoData
	default:
		return exitFailure
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.xdigest.yaml or ~/.config/xdigest/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`xdigest {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.SetOut(os.Stdout)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
