// Package pipeline wires discovery, freshness classification, context
// assembly, the retry controller, the committer, and the journal into
// one sequential run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/stylebook/tiermill/internal/commit"
	"github.com/stylebook/tiermill/internal/config"
	"github.com/stylebook/tiermill/internal/corpus"
	"github.com/stylebook/tiermill/internal/domain"
	"github.com/stylebook/tiermill/internal/freshness"
	"github.com/stylebook/tiermill/internal/manifest"
	"github.com/stylebook/tiermill/internal/stats"
	"github.com/stylebook/tiermill/internal/store"
	"github.com/stylebook/tiermill/internal/workflow"
)

// Pipeline executes runs over a corpus. One job at a time, no fan-out:
// the only shared state is the stats aggregator it builds itself.
type Pipeline struct {
	Config     *config.Config
	Controller *workflow.Controller
	Committer  *commit.Committer
	Assembler  *corpus.Assembler
	Journal    *store.Journal // nil when journaling is disabled
	Log        *slog.Logger
	// Out receives report-mode lines; defaults to os.Stdout.
	Out io.Writer
}

// New wires a Pipeline from configuration and a compressor.
func New(cfg *config.Config, comp workflow.Compressor, journal *store.Journal, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		Config:     cfg,
		Controller: workflow.NewController(comp, cfg.Limits(), cfg.MaxAttempts, *cfg.KeepOversized, log),
		Committer:  commit.NewCommitter(cfg.DryRun, log),
		Assembler:  corpus.NewAssembler(cfg.AggregateDir, cfg.AggregateBase, log),
		Journal:    journal,
		Log:        log,
		Out:        os.Stdout,
	}
}

// Run executes one full pass over the corpus and returns the aggregated
// statistics. Only discovery errors abort the run; per-job failures are
// isolated and reported.
func (p *Pipeline) Run(ctx context.Context) (*stats.RunStats, error) {
	m, err := manifest.Discover(p.Config.Root)
	if err != nil {
		return nil, err
	}
	if len(m.Sources) == 0 {
		p.Log.Warn("no canonical documents found", "root", p.Config.Root)
	}

	runID, err := p.Journal.StartRun(ctx, p.Config.Mode, p.Config.Root)
	if err != nil {
		// History must never break a run.
		p.Log.Warn("journal unavailable for this run", "error", err)
	}

	// One context payload per run: the aggregate views do not change
	// underneath a sequential pass.
	contextPayload := p.Assembler.Build(p.Config.ContextLevel)

	agg := stats.New()
	for _, src := range m.Sources {
		p.processSource(ctx, src, contextPayload, agg, runID)
	}

	p.finishJournal(ctx, runID, agg)
	return agg, nil
}

// processSource handles every in-scope tier of one source document.
func (p *Pipeline) processSource(ctx context.Context, src domain.SourceDocument, contextPayload string, agg *stats.RunStats, runID int64) {
	state := p.classify(src)

	if state == domain.InSync && p.Config.Mode == domain.ModeRegenerate {
		for _, tier := range p.Config.Tiers {
			p.record(ctx, agg, runID, domain.JobResult{
				Source: src.RelPath, Tier: tier, Outcome: domain.OutcomeSkipped,
			})
		}
		p.Log.Debug("in sync, skipping", "source", src.RelPath)
		return
	}

	if p.Config.Mode == domain.ModeReport {
		fmt.Fprintf(p.Out, "%-7s %s\n", state, src.RelPath)
		return
	}

	for _, tier := range p.Config.Tiers {
		res := p.runJob(ctx, src, tier, contextPayload)
		p.record(ctx, agg, runID, res)
	}
}

// classify checks the source against its in-scope artifacts. Force mode
// treats everything as stale.
func (p *Pipeline) classify(src domain.SourceDocument) domain.FreshnessState {
	if p.Config.Mode == domain.ModeForce {
		return domain.Stale
	}
	var artifacts []string
	for _, tier := range p.Config.Tiers {
		path, err := manifest.SiblingPath(src.Path, tier)
		if err != nil {
			return domain.Stale
		}
		artifacts = append(artifacts, path)
	}
	return freshness.Classify(src, artifacts)
}

// runJob drives one (source, tier) pair to a terminal outcome.
func (p *Pipeline) runJob(ctx context.Context, src domain.SourceDocument, tier domain.Tier, contextPayload string) domain.JobResult {
	limit := p.Config.Limits()[tier]
	res := domain.JobResult{Source: src.RelPath, Tier: tier, Limit: limit}

	out := p.Controller.Run(ctx, src, tier, contextPayload)
	res.Outcome = out.Outcome()
	res.Size = out.Size
	res.Attempts = out.Attempts
	res.Err = out.Err

	if out.Err != nil {
		p.Log.Error("job failed", "source", src.RelPath, "tier", string(tier), "error", out.Err)
		return res
	}

	if out.Candidate == nil {
		// Oversized final under keep_oversized=false: reported, not written.
		p.Log.Warn("oversized final discarded by policy",
			"source", src.RelPath, "tier", string(tier), "size", out.Size, "limit", limit)
		return res
	}

	if out.State == workflow.StateOversized {
		p.Log.Warn("committing oversized artifact",
			"source", src.RelPath, "tier", string(tier), "size", out.Size, "limit", limit)
	}

	if _, err := p.Committer.Commit(src, tier, out.Candidate); err != nil {
		res.Outcome = domain.OutcomeFailed
		res.Err = err
		p.Log.Error("commit failed", "source", src.RelPath, "tier", string(tier), "error", err)
	}
	return res
}

// record accumulates a result and journals it; journal failures only log.
func (p *Pipeline) record(ctx context.Context, agg *stats.RunStats, runID int64, res domain.JobResult) {
	agg.Record(res)
	if err := p.Journal.RecordJob(ctx, runID, res); err != nil {
		p.Log.Warn("journal write failed", "error", err)
	}
}

func (p *Pipeline) finishJournal(ctx context.Context, runID int64, agg *stats.RunStats) {
	succeeded, oversized, failed, skipped := 0, 0, 0, 0
	for _, c := range agg.PerTier {
		succeeded += c.Succeeded
		oversized += c.Oversized
		failed += c.Failed
		skipped += c.Skipped
	}
	if err := p.Journal.FinishRun(ctx, runID, succeeded, oversized, failed, skipped); err != nil {
		p.Log.Warn("journal finish failed", "error", err)
	}
}
