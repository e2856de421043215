package compress

import (
	"fmt"
	"strings"

	"github.com/stylebook/tiermill/internal/domain"
	"github.com/stylebook/tiermill/internal/manifest"
)

// tierRules holds the structural directive per derived tier.
var tierRules = map[domain.Tier]string{
	domain.TierSummary: "Produce the summary tier: keep every rule statement and its key rationale, " +
		"drop extended discussion, edge-case walkthroughs, and all but the most instructive example per rule.",
	domain.TierAbstract: "Produce the abstract tier: one terse paragraph or tight bullet list stating " +
		"only the rules themselves, with no rationale and no examples.",
}

// HeadingLevel infers the required leading markdown heading level from
// the document's depth under the corpus root, clamped to h1..h6.
func HeadingLevel(relPath string) int {
	level := manifest.Depth(relPath)
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return level
}

// BuildInstructions synthesizes the instruction payload for one attempt.
// Strict attempts carry the measured size of the previous failed
// candidate; the escalation is a best-effort nudge to the external
// service, not a deterministic shrinking step.
func BuildInstructions(job domain.CompressionJob) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", tierRules[job.Tier])
	fmt.Fprintf(&b, "Start the output with a level-%d markdown heading (%s) and keep the document's heading hierarchy below it.\n",
		HeadingLevel(job.Source.RelPath), strings.Repeat("#", HeadingLevel(job.Source.RelPath)))
	fmt.Fprintf(&b, "Hard limit: the entire output must be at most %d bytes.\n", job.Limit)

	if job.Strictness == domain.StrictnessStrict {
		fmt.Fprintf(&b, "Attempt %d: the previous attempt produced %d bytes, which exceeds the %d byte limit. "+
			"Be substantially more aggressive: cut remaining examples, merge bullets, and shorten sentences until the limit holds.\n",
			job.Attempt, job.PrevSize, job.Limit)
	}

	b.WriteString("Output only the document body. No preamble, no code fences around the whole document, no commentary.\n")
	return b.String()
}

// BuildPrompt concatenates instructions, optional corpus context, and
// the source document into the single payload sent on stdin.
func BuildPrompt(job domain.CompressionJob) string {
	var b strings.Builder

	b.WriteString(BuildInstructions(job))

	if job.Context != "" {
		b.WriteString("\n--- CORPUS CONTEXT (already documented elsewhere; reference, do not repeat) ---\n")
		b.WriteString(job.Context)
		if !strings.HasSuffix(job.Context, "\n") {
			b.WriteByte('\n')
		}
	}

	b.WriteString("\n--- SOURCE DOCUMENT ---\n")
	b.Write(job.Source.Content)
	return b.String()
}
