// Package cli provides the sercha-sp command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Process exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitPartial = 2
)

var (
	verbose   bool
	quiet     bool
	configDir string
	envFile   string
)

var rootCmd = &cobra.Command{
	Use:   "sercha-sp",
	Short: "Incremental SharePoint crawler",
	Long: `sercha-sp discovers the shared sites of a SharePoint Online tenant and
reports which documents changed since a point in time, so an external
indexer can keep its copy current.

Records are written as JSON lines to stdout by default. Use --sink to store
them in the local run database or to publish them to NATS.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress progress lines")
	flags.StringVar(&configDir, "config-dir", "", "config directory (default ~/.sercha-sp)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file with SERCHA_SP_* settings")
}

// setup applies the global flags. A missing env file is not an error.
func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetQuiet(quiet)

	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}
	return nil
}

// Execute runs the command line and returns the process exit status.
// Interrupts cancel the running command.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrPartialCrawl):
		return ExitPartial
	default:
		return ExitFailure
	}
}
