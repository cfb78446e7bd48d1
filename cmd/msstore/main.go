// ABOUTME: Main entry point for the msstore CLI application
// ABOUTME: Sets up the root command, logger and keychain, then executes the CLI
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/cmd/apps"
	"github.com/gillisandrew/msstore-cli/internal/cmd/auth"
	"github.com/gillisandrew/msstore-cli/internal/cmd/flights"
	"github.com/gillisandrew/msstore-cli/internal/cmd/reconfigure"
	"github.com/gillisandrew/msstore-cli/internal/cmd/settings"
	"github.com/gillisandrew/msstore-cli/internal/cmd/submission"
	"github.com/gillisandrew/msstore-cli/internal/credentials"
	"github.com/gillisandrew/msstore-cli/internal/render"
	"github.com/gillisandrew/msstore-cli/internal/ui"
)

var (
	// Build-time variables (injected via -ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// newLogger builds the stderr logger for the verbosity flags
func newLogger(verbose, quiet bool) *pterm.Logger {
	var logger *pterm.Logger
	if quiet {
		logger = pterm.DefaultLogger.WithTime(false).WithLevel(pterm.LogLevelError)
	} else if verbose {
		logger = pterm.DefaultLogger.WithTime(false).WithLevel(pterm.LogLevelDebug)
	} else {
		logger = pterm.DefaultLogger.WithTime(false).WithLevel(pterm.LogLevelInfo)
	}

	// Configure logger to write to stderr to keep stdout clean
	return logger.WithWriter(os.Stderr)
}

// newRootCommand wires every subcommand to one shared context
func newRootCommand(cmdContext *cmd.CommandContext) *cobra.Command {
	var verbose, quiet bool

	rootCmd := &cobra.Command{
		Use:   "msstore",
		Short: "Manage Microsoft Store submissions from the command line",
		Long:  `msstore creates, updates and publishes Microsoft Store submissions.

Packaged (MSIX) products are managed through the Partner Center DevCenter API
and unpackaged (MSI/EXE) products through the Store submission API. Run
'msstore reconfigure' once to set up credentials.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet cannot be used together")
			}
			cmdContext.Logger = newLogger(verbose, quiet)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cmdContext.ConfigPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&cmdContext.Output, "output", "o", "", "Output format: table, json or yaml (default from settings)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (debug level)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Enable quiet mode (errors only)")

	rootCmd.AddCommand(reconfigure.NewReconfigureCommand(cmdContext))
	rootCmd.AddCommand(settings.NewSettingsCommand(cmdContext))
	rootCmd.AddCommand(settings.NewInfoCommand(cmdContext, Version))
	rootCmd.AddCommand(auth.NewAuthCommand(cmdContext))
	rootCmd.AddCommand(apps.NewAppsCommand(cmdContext))
	rootCmd.AddCommand(submission.NewSubmissionCommand(cmdContext))
	rootCmd.AddCommand(flights.NewFlightsCommand(cmdContext))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintf(c.OutOrStdout(), "msstore version %s\n", Version)
			fmt.Fprintf(c.OutOrStdout(), "Git commit: %s\n", Commit)
			fmt.Fprintf(c.OutOrStdout(), "Build time: %s\n", BuildTime)
		},
	})

	return rootCmd
}

// report prints a failed command once and returns the exit code
func report(logger *pterm.Logger, err error) int {
	if err == nil {
		return 0
	}
	if render.IsCancelled(err) {
		pterm.Warning.Println(render.MsgCancelled)
		return 1
	}
	args := []any{"error", render.Error(err)}
	if hint := render.Hint(err); hint != "" {
		args = append(args, "hint", hint)
	}
	logger.Error("Command execution failed", logger.Args(args...))
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Initialize command context; the logger is replaced once flags are parsed
	cmdContext := &cmd.CommandContext{
		Logger:      newLogger(false, false),
		Prompter:    ui.NewTerminal(),
		Credentials: credentials.NewKeyringStore(credentials.DefaultService),
	}

	err := newRootCommand(cmdContext).ExecuteContext(ctx)
	stop()
	os.Exit(report(cmdContext.Logger, err))
}
