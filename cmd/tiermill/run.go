package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stylebook/tiermill/internal/domain"
)

// runReport is the bare `tiermill` invocation: classify every source as
// in_sync or stale and print one line per source. Nothing is written.
func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Mode = domain.ModeReport

	log := newLogger(cmd)
	p, journal, err := buildPipeline(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer journal.Close()

	ctx, cancel := signalContext()
	defer cancel()

	_, err = p.Run(ctx)
	return err
}

func newRegenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Recompress stale sources and commit fresh artifacts",
		RunE:  runRegenerate,
	}
	cmd.Flags().Bool("dry-run", false, "run compression but write nothing")
	cmd.Flags().Bool("force", false, "recompress every source regardless of freshness")
	return cmd
}

func runRegenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Mode = domain.ModeRegenerate
	if force, _ := cmd.Flags().GetBool("force"); force {
		cfg.Mode = domain.ModeForce
	}
	cfg.DryRun, _ = cmd.Flags().GetBool("dry-run")

	log := newLogger(cmd)
	p, journal, err := buildPipeline(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer journal.Close()

	ctx, cancel := signalContext()
	defer cancel()

	st, err := p.Run(ctx)
	if err != nil {
		return err
	}
	st.Render(os.Stdout)
	exitCode = st.ExitCode()
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM, so an
// interrupted run stops between provider invocations rather than
// mid-commit.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
