// Package freshness decides whether a source document's derived
// artifacts are already current.
//
// The signal is timestamp equality, not ordering: the committer copies
// the source's mtime onto each artifact after a successful commit, which
// turns filesystem metadata into a single-bit cache-validity token. Any
// edit to the source moves its mtime and breaks equality for every
// artifact at once. Content hashing is deliberately not used.
package freshness

import (
	"os"

	"github.com/stylebook/tiermill/internal/domain"
)

// Classify returns InSync iff every artifact path exists and carries a
// modification time exactly equal to the source's. A missing or drifted
// artifact makes the pair Stale; it never fails.
func Classify(src domain.SourceDocument, artifactPaths []string) domain.FreshnessState {
	for _, p := range artifactPaths {
		info, err := os.Stat(p)
		if err != nil {
			return domain.Stale
		}
		if !info.ModTime().Equal(src.ModTime) {
			return domain.Stale
		}
	}
	return domain.InSync
}
