package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/stylebook/tiermill/internal/domain"
)

// Manifest is the ordered set of canonical source documents for a run.
type Manifest struct {
	Root    string
	Sources []domain.SourceDocument
}

// Discover recursively enumerates complete-tier documents under root in
// lexicographic path order. A missing root is fatal; an empty result is
// valid and left to the caller to surface as a warning.
func Discover(root string) (*Manifest, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, domain.WrapPipelineError(domain.ErrRootMissing.Code, domain.ErrRootMissing.Message, err)
	}
	if !info.IsDir() {
		return nil, domain.NewPipelineError(domain.ErrRootMissing.Code, fmt.Sprintf("%s is not a directory", root))
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if IsCanonical(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus root: %w", err)
	}

	// WalkDir visits lexically, but sort anyway so the ordering
	// contract does not depend on traversal internals.
	sort.Strings(paths)

	m := &Manifest{Root: root}
	for _, p := range paths {
		src, err := loadSource(root, p)
		if err != nil {
			return nil, err
		}
		m.Sources = append(m.Sources, src)
	}
	return m, nil
}

// loadSource reads one canonical document and captures the metadata the
// committer later mirrors onto artifacts.
func loadSource(root, path string) (domain.SourceDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.SourceDocument{}, domain.WrapPipelineError(domain.ErrSourceNotFound.Code, path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.SourceDocument{}, domain.WrapPipelineError(domain.ErrSourceRead.Code, path, err)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return domain.SourceDocument{
		Path:    path,
		RelPath: rel,
		Content: content,
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}, nil
}

// Depth returns the number of directories between the corpus root and
// the document, starting at 1 for a file directly under the root. The
// compressor derives the artifact's leading heading level from it.
func Depth(relPath string) int {
	depth := 1
	for _, r := range relPath {
		if r == filepath.Separator {
			depth++
		}
	}
	return depth
}
