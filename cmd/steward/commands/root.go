package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/m4xw311/steward/config"
	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/observability"
)

// TraceFile receives spans when --trace is set.
const TraceFile = "steward.trace"

var (
	// Global flags
	configPath string
	logLevel   string
	logFile    string
	trace      bool

	// Set up by the root command before any subcommand runs.
	cleanups []func()
)

var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Personal assistant for email and calendar",
	Long: `steward - a personal assistant that understands requests in natural language.

Each request is classified into an intent (email, calendar, ...) by a
language model and handed to the agent registered for it.

Configuration is read from ~/.steward/config.yaml, then ./.steward/config.yaml,
then the file given with --config. A .env file in the working directory is
loaded first.

Examples:
  # Start an interactive session
  steward chat

  # Ask a single question, then keep chatting
  steward chat "What's on my calendar tomorrow?"

  # Expose the assistant to an MCP client
  steward mcp`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { cleanup() },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer cleanup()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml), applied after the user and project config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false, "export trace spans to "+TraceFile)

	rootCmd.AddCommand(chatCmd, mcpCmd, wsCmd, versionCmd)
}

// setup initializes logging and tracing for every command.
func setup(cmd *cobra.Command, args []string) error {
	level, err := observability.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.ErrOrStderr()
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Fatal(err, "could not open log file %s", logFile)
		}
		cleanups = append(cleanups, func() { f.Close() })
		w = f
	}
	observability.InitLogging(level, w)

	if trace {
		f, err := os.Create(TraceFile)
		if err != nil {
			return errors.Fatal(err, "could not create %s", TraceFile)
		}
		shutdown, err := observability.InitTracing(f, Version)
		if err != nil {
			f.Close()
			return err
		}
		cleanups = append(cleanups, func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("flushing traces failed", "error", err)
			}
			f.Close()
		})
	}
	return nil
}

// cleanup runs the registered cleanups in reverse order, once.
func cleanup() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(configPath)
}
