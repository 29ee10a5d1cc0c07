// Package main provides the CLI entry point for agentcore: a terminal
// driver for the Agent Turn Engine, Tool Registry, and Executor that
// reads stdin lines as turns and renders the Event Bus to stdout.
//
// # Basic Usage
//
// Start a session in the current directory:
//
//	agentcore run
//
// Resume the most recently used session in this workspace:
//
//	agentcore run --continue
//
// # Environment Variables
//
//   - AGENTCORE_LOG_LEVEL, AGENTCORE_WORKSPACE, AGENTCORE_DEFAULT_PROVIDER,
//     AGENTCORE_DEFAULT_MODEL: config overrides, see internal/config.
//   - <PROVIDER>_API_KEY (e.g. ANTHROPIC_API_KEY): provider credentials,
//     loaded from the environment or a .env file in the workspace.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Provider keys are conventionally kept in a .env file next to the
	// workspace rather than exported into the shell; a missing file is
	// not an error, an unreadable one is.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agentcore",
		Short: "Terminal driver for the agentcore Agent Turn Engine",
		Long: "agentcore wires the Session Store, Tool Registry, Agent Turn Engine, and Executor\n" +
			"into a single process and exposes them through a stdin/stdout REPL.",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	}
	root.AddCommand(buildRunCmd())
	return root
}
