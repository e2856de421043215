package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stylebook/tiermill/internal/domain"
	"github.com/stylebook/tiermill/internal/watch"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate continuously as canonical documents change",
		Long: `watch performs one regenerate pass, then stays resident and reruns the
pipeline whenever a canonical document under the root changes. Writes to
derived artifacts are ignored, so the pipeline's own commits do not
retrigger it.`,
		RunE: runWatch,
	}
	cmd.Flags().Bool("dry-run", false, "run compression but write nothing")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Mode = domain.ModeRegenerate
	cfg.DryRun, _ = cmd.Flags().GetBool("dry-run")

	log := newLogger(cmd)
	p, journal, err := buildPipeline(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer journal.Close()

	ctx, cancel := signalContext()
	defer cancel()

	runOnce := func() {
		st, err := p.Run(ctx)
		if err != nil {
			log.Error("run failed", "error", err)
			return
		}
		st.Render(os.Stdout)
	}

	runOnce()

	debounce := time.Duration(cfg.DebounceMillis) * time.Millisecond
	w, err := watch.New(cfg.Root, debounce, runOnce, log)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	log.Info("watching for changes", "root", cfg.Root, "debounce", debounce)

	<-ctx.Done()
	w.Stop()
	log.Info("watch stopped")
	return nil
}
