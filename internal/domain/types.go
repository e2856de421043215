// Package domain defines the core types for the tiermill pipeline.
package domain

import (
	"io/fs"
	"time"
)

// Tier is one of the three detail levels of a rule document.
type Tier string

const (
	TierComplete Tier = "complete"
	TierSummary  Tier = "summary"
	TierAbstract Tier = "abstract"
)

// DerivedTiers returns the tiers the pipeline produces, in processing order.
func DerivedTiers() []Tier {
	return []Tier{TierSummary, TierAbstract}
}

// ParseTier validates a tier name from user input.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierComplete, TierSummary, TierAbstract:
		return Tier(s), nil
	}
	return "", NewPipelineError(ErrInvalidTier.Code, "unknown tier: "+s)
}

// ContextLevel controls how much whole-corpus context accompanies each
// compression request. Levels are ordered by increasing detail and cost.
type ContextLevel string

const (
	ContextNone     ContextLevel = "none"
	ContextTOC      ContextLevel = "toc"
	ContextAbstract ContextLevel = "abstract"
	ContextSummary  ContextLevel = "summary"
	ContextComplete ContextLevel = "complete"
)

// ParseContextLevel validates a context level name from user input.
func ParseContextLevel(s string) (ContextLevel, error) {
	switch ContextLevel(s) {
	case ContextNone, ContextTOC, ContextAbstract, ContextSummary, ContextComplete:
		return ContextLevel(s), nil
	}
	return "", NewPipelineError(ErrInvalidContextLevel.Code, "unknown context level: "+s)
}

// SourceDocument is a canonical "complete" tier rule document. The
// pipeline never modifies it; its modification time is the cache-validity
// token for every artifact derived from it.
type SourceDocument struct {
	Path    string
	RelPath string // relative to the corpus root
	Content []byte
	ModTime time.Time
	Mode    fs.FileMode
}

// TierArtifact describes a derived document for one (source, tier) pair.
type TierArtifact struct {
	Path      string
	Tier      Tier
	Size      int
	Oversized bool
}

// Strictness selects the instruction variant sent to the compressor.
// Escalation is a heuristic nudge to the external service, not an
// algorithm; a strict attempt carries the prior failing size.
type Strictness string

const (
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// CompressionJob is the ephemeral unit of work for one (source, tier)
// pair. Attempt, PrevSize, and Strictness advance as the retry
// controller escalates.
type CompressionJob struct {
	Source     SourceDocument
	Tier       Tier
	Context    string
	Limit      int
	Attempt    int
	PrevSize   int
	Strictness Strictness
}

// Outcome is the terminal result of a compression job.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeOversized Outcome = "oversized"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// JobResult records how a job ended, for reporting and the journal.
type JobResult struct {
	Source   string
	Tier     Tier
	Outcome  Outcome
	Size     int
	Limit    int
	Attempts int
	Err      error
}

// FreshnessState classifies a source against its derived artifacts.
type FreshnessState string

const (
	InSync FreshnessState = "in_sync"
	Stale  FreshnessState = "stale"
)

// RunMode selects how the pipeline treats existing artifacts.
type RunMode string

const (
	// ModeReport classifies and lists; no compression, no writes.
	ModeReport RunMode = "report"
	// ModeRegenerate recompresses stale pairs and skips in-sync ones.
	ModeRegenerate RunMode = "regenerate"
	// ModeForce recompresses every pair regardless of freshness.
	ModeForce RunMode = "force"
)

// Provider identifies an external compressor CLI.
type Provider string

// ProviderClaude is the default compressor provider.
const ProviderClaude Provider = "claude"
