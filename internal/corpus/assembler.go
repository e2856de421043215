// Package corpus builds the whole-corpus context payload that
// accompanies each compression request.
//
// Higher context levels let the compressor notice that a concept is
// already documented elsewhere and reference it instead of duplicating
// the explanation, at strictly increasing token cost. The trade-off is
// the operator's to make, so the level is configuration, not heuristic.
package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stylebook/tiermill/internal/domain"
)

// Assembler resolves a context level to the content of the matching
// pre-assembled aggregate view of the corpus.
type Assembler struct {
	// Dir holds the aggregate views; Base is their shared name prefix
	// (Base.toc.md, Base.abstract.md, Base.summary.md, Base.complete.md).
	Dir  string
	Base string
	Log  *slog.Logger
}

// NewAssembler creates an Assembler.
func NewAssembler(dir, base string, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{Dir: dir, Base: base, Log: log}
}

// Build returns the context payload for the given level. ContextNone
// yields an empty payload. A missing aggregate file degrades to
// ContextNone with a warning instead of failing the run.
func (a *Assembler) Build(level domain.ContextLevel) string {
	if level == domain.ContextNone {
		return ""
	}

	path := filepath.Join(a.Dir, a.aggregateName(level))
	data, err := os.ReadFile(path)
	if err != nil {
		a.Log.Warn("aggregate view missing, degrading context to none",
			"level", string(level), "path", path, "error", err)
		return ""
	}
	return string(data)
}

// AggregatePath returns the file the given level reads, mainly for
// report output.
func (a *Assembler) AggregatePath(level domain.ContextLevel) string {
	if level == domain.ContextNone {
		return ""
	}
	return filepath.Join(a.Dir, a.aggregateName(level))
}

func (a *Assembler) aggregateName(level domain.ContextLevel) string {
	return fmt.Sprintf("%s.%s.md", a.Base, level)
}
