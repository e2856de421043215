package compress

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stylebook/tiermill/internal/domain"
	"github.com/stylebook/tiermill/internal/provider"
)

func testJob(tier domain.Tier) domain.CompressionJob {
	return domain.CompressionJob{
		Source: domain.SourceDocument{
			Path:    "/corpus/10-style/05-quoting.complete.md",
			RelPath: filepath.Join("10-style", "05-quoting.complete.md"),
			Content: []byte("## Quoting\n\nAlways quote expansions.\n"),
		},
		Tier:       tier,
		Limit:      1500,
		Attempt:    1,
		Strictness: domain.StrictnessStandard,
	}
}

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		rel  string
		want int
	}{
		{"01-intro.complete.md", 1},
		{filepath.Join("10-style", "05-quoting.complete.md"), 2},
		{filepath.Join("a", "b", "c", "d", "e", "f", "g", "x.complete.md"), 6},
	}
	for _, tt := range tests {
		if got := HeadingLevel(tt.rel); got != tt.want {
			t.Errorf("HeadingLevel(%q) = %d, want %d", tt.rel, got, tt.want)
		}
	}
}

func TestBuildInstructions_Standard(t *testing.T) {
	got := BuildInstructions(testJob(domain.TierAbstract))

	if !strings.Contains(got, "abstract tier") {
		t.Error("instructions should name the tier's structural rule")
	}
	if !strings.Contains(got, "at most 1500 bytes") {
		t.Error("instructions should carry the hard byte ceiling")
	}
	if !strings.Contains(got, "level-2 markdown heading (##)") {
		t.Error("instructions should pin the heading level to the path depth")
	}
	if strings.Contains(got, "previous attempt") {
		t.Error("standard instructions must not mention a previous attempt")
	}
}

func TestBuildInstructions_StrictCarriesPriorSize(t *testing.T) {
	job := testJob(domain.TierAbstract)
	job.Attempt = 2
	job.PrevSize = 2100
	job.Strictness = domain.StrictnessStrict

	got := BuildInstructions(job)
	if !strings.Contains(got, "previous attempt produced 2100 bytes") {
		t.Errorf("strict instructions should carry the measured prior size, got:\n%s", got)
	}
	if !strings.Contains(got, "Attempt 2") {
		t.Error("strict instructions should name the attempt number")
	}
}

func TestBuildPrompt_Sections(t *testing.T) {
	job := testJob(domain.TierSummary)
	job.Context = "corpus toc here"

	got := BuildPrompt(job)

	ctxIdx := strings.Index(got, "CORPUS CONTEXT")
	srcIdx := strings.Index(got, "SOURCE DOCUMENT")
	if ctxIdx < 0 || srcIdx < 0 {
		t.Fatalf("prompt missing sections:\n%s", got)
	}
	if ctxIdx > srcIdx {
		t.Error("context must precede the source document")
	}
	if !strings.Contains(got, "Always quote expansions.") {
		t.Error("prompt should embed the source content")
	}
}

func TestBuildPrompt_NoContextSection(t *testing.T) {
	got := BuildPrompt(testJob(domain.TierSummary))

	if strings.Contains(got, "CORPUS CONTEXT") {
		t.Error("empty context payload must not produce a context section")
	}
}

func TestCompress_RoundTrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	reg := provider.NewRegistry()
	if err := reg.Register(provider.Spec{Name: domain.ProviderClaude, Command: "sh", Args: []string{"-c", "cat"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	c := NewCompressor(provider.NewInvoker(reg, 0), domain.ProviderClaude)

	out, err := c.Compress(context.Background(), testJob(domain.TierSummary))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !strings.Contains(string(out), "SOURCE DOCUMENT") {
		t.Error("provider should have received the assembled prompt on stdin")
	}
}
