package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stylebook/tiermill/internal/compress"
	"github.com/stylebook/tiermill/internal/config"
	"github.com/stylebook/tiermill/internal/domain"
	"github.com/stylebook/tiermill/internal/pipeline"
	"github.com/stylebook/tiermill/internal/provider"
	"github.com/stylebook/tiermill/internal/store"
)

// loadConfig builds the effective configuration: config file (if given),
// then explicit flag overrides, then defaults for whatever is still unset.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	// Persistent flags live on the root command; the *Flag objects are
	// shared with the subcommand's parsed set, so Changed is accurate
	// whichever command is running.
	f := cmd.Root().PersistentFlags()

	var cfg *config.Config
	if path, _ := f.GetString("config"); path != "" {
		c, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.Default()
	}

	// Remember whether the aggregate dir was just defaulted from the
	// root, so a --root override moves it along.
	aggFollowsRoot := cfg.AggregateDir == cfg.Root

	if f.Changed("root") {
		cfg.Root, _ = f.GetString("root")
		if aggFollowsRoot {
			cfg.AggregateDir = cfg.Root
		}
	}
	if f.Changed("aggregate-dir") {
		cfg.AggregateDir, _ = f.GetString("aggregate-dir")
	}
	if f.Changed("summary-limit") {
		cfg.SummaryLimit, _ = f.GetInt("summary-limit")
	}
	if f.Changed("abstract-limit") {
		cfg.AbstractLimit, _ = f.GetInt("abstract-limit")
	}
	if f.Changed("max-attempts") {
		cfg.MaxAttempts, _ = f.GetInt("max-attempts")
	}
	if f.Changed("provider") {
		cfg.Provider, _ = f.GetString("provider")
	}
	if f.Changed("journal") {
		cfg.JournalPath, _ = f.GetString("journal")
	}
	if f.Changed("rate-limit") {
		cfg.RateLimitPerMinute, _ = f.GetInt("rate-limit")
	}
	if f.Changed("context-level") {
		raw, _ := f.GetString("context-level")
		level, err := domain.ParseContextLevel(raw)
		if err != nil {
			return nil, err
		}
		cfg.ContextLevel = level
	}
	if f.Changed("tier") {
		raw, _ := f.GetStringSlice("tier")
		tiers := make([]domain.Tier, 0, len(raw))
		for _, s := range raw {
			t, err := domain.ParseTier(s)
			if err != nil {
				return nil, err
			}
			if t == domain.TierComplete {
				return nil, fmt.Errorf("tier %q is the source, not a derived tier", s)
			}
			tiers = append(tiers, t)
		}
		cfg.Tiers = tiers
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildPipeline wires the provider registry, invoker, compressor, and
// journal into a runnable pipeline. The journal is best-effort: an open
// failure is logged and the run proceeds without history.
func buildPipeline(cmd *cobra.Command, cfg *config.Config, log *slog.Logger) (*pipeline.Pipeline, *store.Journal, error) {
	reg := provider.NewRegistry()
	for name, pc := range cfg.Providers {
		spec := provider.Spec{
			Name:    domain.Provider(name),
			Command: pc.Command,
			Args:    pc.Args,
			Env:     pc.Env,
		}
		if err := reg.Register(spec); err != nil {
			return nil, nil, err
		}
	}
	if override, _ := cmd.Root().PersistentFlags().GetString("claude-cmd"); override != "" {
		if err := reg.Override(domain.ProviderClaude, override); err != nil {
			return nil, nil, err
		}
	}

	inv := provider.NewInvoker(reg, cfg.RateLimitPerMinute)
	comp := compress.NewCompressor(inv, domain.Provider(cfg.Provider))

	var journal *store.Journal
	if cfg.JournalPath != "" {
		j, err := store.Open(cfg.JournalPath)
		if err != nil {
			log.Warn("journal disabled", "path", cfg.JournalPath, "error", err)
		} else {
			journal = j
		}
	}

	return pipeline.New(cfg, comp, journal, log), journal, nil
}
