// Package main is the entry point for tiermill, the tier-derivation
// pipeline for canonical style-guide documents.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exitCode is set by run commands that finished but saw failed jobs.
// Cobra errors map to exit 2, failed jobs to exit 1.
var exitCode int

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tiermill: %v\n", err)
		os.Exit(2)
	}
	os.Exit(exitCode)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tiermill",
		Short: "Derive summary and abstract tiers from canonical documents",
		Long: `tiermill walks a corpus of canonical NN-shortname.complete.md documents,
classifies each source against its derived summary and abstract artifacts,
and (in regenerate mode) recompresses stale pairs through an external
LLM CLI under per-tier byte budgets.

With no subcommand, tiermill reports freshness and writes nothing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runReport,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "path to JSON config file")
	pf.String("root", "", "corpus root directory")
	pf.StringSlice("tier", nil, "restrict to tiers (summary, abstract)")
	pf.String("context-level", "", "corpus context for prompts: none, toc, abstract, summary, complete")
	pf.Int("summary-limit", 0, "summary budget in bytes")
	pf.Int("abstract-limit", 0, "abstract budget in bytes")
	pf.Int("max-attempts", 0, "compression attempts per job")
	pf.String("provider", "", "compressor provider name")
	pf.String("claude-cmd", "", "override the claude provider's command")
	pf.String("aggregate-dir", "", "directory holding the aggregate corpus views")
	pf.String("journal", "", "SQLite journal path (empty disables history)")
	pf.Int("rate-limit", 0, "max provider invocations per minute (0 = unlimited)")
	pf.Bool("verbose", false, "debug logging")

	cmd.AddCommand(newRegenerateCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if v, _ := cmd.Root().PersistentFlags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
