// Package manifest enumerates canonical rule documents and implements
// the NN-shortname.TIER.md naming scheme shared by all three tier files
// of a rule.
package manifest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/stylebook/tiermill/internal/domain"
)

var tierFileRE = regexp.MustCompile(`^(\d{2})-(.+)\.(complete|summary|abstract)\.md$`)

// RuleName is the decomposed form of a tier file name.
type RuleName struct {
	Ordinal string // two-digit prefix, kept as text to preserve leading zeros
	Short   string
	Tier    domain.Tier
}

// ParseFileName decomposes a base file name following the
// NN-shortname.TIER.md convention.
func ParseFileName(name string) (RuleName, error) {
	m := tierFileRE.FindStringSubmatch(name)
	if m == nil {
		return RuleName{}, domain.WrapPipelineError(
			domain.ErrBadTierName.Code,
			fmt.Sprintf("%s: %q", domain.ErrBadTierName.Message, name),
			nil,
		)
	}
	return RuleName{Ordinal: m[1], Short: m[2], Tier: domain.Tier(m[3])}, nil
}

// IsCanonical reports whether name is a complete-tier file name.
func IsCanonical(name string) bool {
	rn, err := ParseFileName(name)
	return err == nil && rn.Tier == domain.TierComplete
}

// SiblingPath returns the path of the tier artifact that belongs to the
// given canonical source path. All three tier files of a rule live in
// the same directory and share ordinal and short name.
func SiblingPath(sourcePath string, tier domain.Tier) (string, error) {
	dir := filepath.Dir(sourcePath)
	rn, err := ParseFileName(filepath.Base(sourcePath))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.%s.md", rn.Ordinal, rn.Short, tier)), nil
}

// IsDerived reports whether name is a summary or abstract tier file.
// Watch mode uses this to ignore the pipeline's own writes.
func IsDerived(name string) bool {
	rn, err := ParseFileName(name)
	if err != nil {
		return false
	}
	return rn.Tier == domain.TierSummary || rn.Tier == domain.TierAbstract
}

// IsTempArtifact reports whether name is one of the committer's
// in-flight temp files.
func IsTempArtifact(name string) bool {
	return strings.HasPrefix(name, tempPrefix)
}

// tempPrefix matches internal/commit's temp file naming.
const tempPrefix = ".tiermill-"
