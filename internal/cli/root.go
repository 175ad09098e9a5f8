// Package cli implements the safedata command line: the HTTP server plus
// one-shot redact, restore and budget commands.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gonkalabs/safedata/internal/config"
)

const version = "0.1.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

// cfg is loaded once by the root command before any subcommand runs.
var cfg *config.Cfg

var rootCmd = &cobra.Command{
	Use:           "safedata",
	Short:         "PII redaction and private embedding service",
	Long:          "safedata detects PII and secrets in text, replaces them with reversible tags and returns a noise-protected embedding of the safe text.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = c
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(redactCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(versionCmd)
}

// Run executes the root command and returns an exit code.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return ExitSuccess
}

// usageError marks errors caused by bad flags or input.
type usageError struct{ error }

func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		return ExitUsageError
	}
	return ExitRuntimeError
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print safedata version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "safedata version %s\n", version)
	},
}
