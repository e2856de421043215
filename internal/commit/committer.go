// Package commit publishes accepted candidates as tier artifacts.
//
// Publication is temp-file-then-rename so a reader can never observe a
// partially written artifact, followed by a metadata sync that copies
// the source's permission bits and modification time onto the artifact.
// The timestamp copy is what re-establishes the freshness classifier's
// in-sync signal for the next run.
package commit

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stylebook/tiermill/internal/domain"
	"github.com/stylebook/tiermill/internal/manifest"
)

// Committer writes accepted (possibly oversized) candidates to their
// artifact paths. With DryRun set it mutates nothing but logs the same
// decisions, so dry-run output is an exact preview of a real run.
type Committer struct {
	DryRun bool
	Log    *slog.Logger
}

// NewCommitter creates a Committer.
func NewCommitter(dryRun bool, log *slog.Logger) *Committer {
	if log == nil {
		log = slog.Default()
	}
	return &Committer{DryRun: dryRun, Log: log}
}

// Commit writes candidate as the tier artifact of src and syncs its
// metadata to the source. Failures are terminal for the job and are not
// retried.
func (c *Committer) Commit(src domain.SourceDocument, tier domain.Tier, candidate []byte) (domain.TierArtifact, error) {
	dest, err := manifest.SiblingPath(src.Path, tier)
	if err != nil {
		return domain.TierArtifact{}, err
	}
	artifact := domain.TierArtifact{Path: dest, Tier: tier, Size: len(candidate)}

	if c.DryRun {
		c.Log.Info("dry-run: would commit artifact",
			"path", dest, "tier", string(tier), "bytes", len(candidate))
		return artifact, nil
	}

	if err := writeAtomic(dest, candidate); err != nil {
		return artifact, err
	}

	if err := os.Chmod(dest, src.Mode.Perm()); err != nil {
		return artifact, domain.WrapPipelineError(domain.ErrCommitMetadata.Code, dest, err)
	}
	if err := os.Chtimes(dest, src.ModTime, src.ModTime); err != nil {
		return artifact, domain.WrapPipelineError(domain.ErrCommitMetadata.Code, dest, err)
	}

	c.Log.Info("committed artifact", "path", dest, "tier", string(tier), "bytes", len(candidate))
	return artifact, nil
}

// writeAtomic writes data to a temp file in the destination directory
// and renames it into place. The temp file is removed on every error
// path so an interrupted run can orphan at most one temp file, never a
// half-written artifact.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tiermill-*")
	if err != nil {
		return domain.WrapPipelineError(domain.ErrCommitWrite.Code, dest, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return domain.WrapPipelineError(domain.ErrCommitWrite.Code, dest, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return domain.WrapPipelineError(domain.ErrCommitWrite.Code, dest, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return domain.WrapPipelineError(domain.ErrCommitWrite.Code, dest, err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return domain.WrapPipelineError(domain.ErrCommitRename.Code, dest, err)
	}
	return nil
}
