// Package stats accumulates per-tier job outcomes and renders the
// end-of-run summary that decides the process exit code.
package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/stylebook/tiermill/internal/domain"
)

// Counts holds the outcome counters for one tier.
type Counts struct {
	Succeeded int
	Oversized int
	Failed    int
	Skipped   int
}

// RunStats is the aggregator threaded through a run. It is built by
// explicit Record calls rather than global counters so the controller
// and committer stay free of shared mutable state.
type RunStats struct {
	PerTier map[domain.Tier]*Counts
	Results []domain.JobResult
}

// New creates an empty aggregator.
func New() *RunStats {
	return &RunStats{PerTier: make(map[domain.Tier]*Counts)}
}

// Record accumulates one terminal job result.
func (s *RunStats) Record(res domain.JobResult) {
	c, ok := s.PerTier[res.Tier]
	if !ok {
		c = &Counts{}
		s.PerTier[res.Tier] = c
	}
	switch res.Outcome {
	case domain.OutcomeSuccess:
		c.Succeeded++
	case domain.OutcomeOversized:
		c.Oversized++
	case domain.OutcomeFailed:
		c.Failed++
	case domain.OutcomeSkipped:
		c.Skipped++
	}
	s.Results = append(s.Results, res)
}

// TotalFailed returns the failed count across all tiers.
func (s *RunStats) TotalFailed() int {
	n := 0
	for _, c := range s.PerTier {
		n += c.Failed
	}
	return n
}

// TotalOversized returns the oversized count across all tiers.
func (s *RunStats) TotalOversized() int {
	n := 0
	for _, c := range s.PerTier {
		n += c.Oversized
	}
	return n
}

// Jobs returns the number of recorded non-skipped jobs.
func (s *RunStats) Jobs() int {
	n := 0
	for _, res := range s.Results {
		if res.Outcome != domain.OutcomeSkipped {
			n++
		}
	}
	return n
}

// ExitCode is 0 only when no job failed. Oversized artifacts are
// surfaced prominently but do not fail the run.
func (s *RunStats) ExitCode() int {
	if s.TotalFailed() > 0 {
		return 1
	}
	return 0
}

// Render writes the human-readable run summary.
func (s *RunStats) Render(w io.Writer) {
	fmt.Fprintln(w, "tier       succeeded  oversized  failed  skipped")
	for _, tier := range sortedTiers(s.PerTier) {
		c := s.PerTier[tier]
		fmt.Fprintf(w, "%-10s %9d  %9d  %6d  %7d\n", tier, c.Succeeded, c.Oversized, c.Failed, c.Skipped)
	}

	if s.TotalOversized() > 0 {
		fmt.Fprintln(w, "\noversized artifacts (committed over budget):")
		for _, res := range s.Results {
			if res.Outcome == domain.OutcomeOversized {
				fmt.Fprintf(w, "  %s [%s] %d bytes (limit %d)\n", res.Source, res.Tier, res.Size, res.Limit)
			}
		}
	}

	if s.TotalFailed() > 0 {
		fmt.Fprintln(w, "\nfailed jobs (nothing committed):")
		for _, res := range s.Results {
			if res.Outcome == domain.OutcomeFailed {
				fmt.Fprintf(w, "  %s [%s] %v\n", res.Source, res.Tier, res.Err)
			}
		}
	}
}

func sortedTiers(m map[domain.Tier]*Counts) []domain.Tier {
	tiers := make([]domain.Tier, 0, len(m))
	for tier := range m {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}
