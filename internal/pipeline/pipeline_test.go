package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stylebook/tiermill/internal/config"
	"github.com/stylebook/tiermill/internal/domain"
	"github.com/stylebook/tiermill/internal/store"
)

// fakeCompressor answers per (source, tier) with a fixed candidate or
// error, and counts invocations.
type fakeCompressor struct {
	candidates map[string][]byte // key: relpath + "|" + tier
	errs       map[string]error
	calls      int
}

func key(job domain.CompressionJob) string {
	return job.Source.RelPath + "|" + string(job.Tier)
}

func (f *fakeCompressor) Compress(_ context.Context, job domain.CompressionJob) ([]byte, error) {
	f.calls++
	if err, ok := f.errs[key(job)]; ok {
		return nil, err
	}
	if out, ok := f.candidates[key(job)]; ok {
		return out, nil
	}
	return []byte("ok\n"), nil
}

func writeSource(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("# rule\n\nbody body body\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mtime := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func testConfig(root string, mode domain.RunMode) *config.Config {
	cfg := config.Default()
	cfg.Root = root
	cfg.Mode = mode
	cfg.SummaryLimit = 100
	cfg.AbstractLimit = 30
	return cfg
}

func newPipeline(cfg *config.Config, comp *fakeCompressor, journal *store.Journal) *Pipeline {
	p := New(cfg, comp, journal, nil)
	p.Out = &strings.Builder{}
	return p
}

func TestRun_FreshSourceProducesBothArtifactsInSync(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "05-x.complete.md")
	comp := &fakeCompressor{}
	p := newPipeline(testConfig(root, domain.ModeRegenerate), comp, nil)

	agg, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := agg.PerTier[domain.TierSummary].Succeeded; got != 1 {
		t.Errorf("summary succeeded = %d, want 1", got)
	}
	if got := agg.PerTier[domain.TierAbstract].Succeeded; got != 1 {
		t.Errorf("abstract succeeded = %d, want 1", got)
	}

	srcInfo, _ := os.Stat(filepath.Join(root, "05-x.complete.md"))
	for _, tier := range []string{"summary", "abstract"} {
		info, err := os.Stat(filepath.Join(root, "05-x."+tier+".md"))
		if err != nil {
			t.Fatalf("artifact %s missing: %v", tier, err)
		}
		if !info.ModTime().Equal(srcInfo.ModTime()) {
			t.Errorf("%s mtime = %v, want source mtime %v", tier, info.ModTime(), srcInfo.ModTime())
		}
	}
	if agg.ExitCode() != 0 {
		t.Errorf("exit code = %d, want 0", agg.ExitCode())
	}
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "05-x.complete.md")
	comp := &fakeCompressor{}
	p := newPipeline(testConfig(root, domain.ModeRegenerate), comp, nil)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	firstCalls := comp.calls

	agg, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if comp.calls != firstCalls {
		t.Errorf("second run invoked the compressor %d more times, want 0", comp.calls-firstCalls)
	}
	if got := agg.Jobs(); got != 0 {
		t.Errorf("second run ran %d jobs, want 0", got)
	}
	if got := agg.PerTier[domain.TierSummary].Skipped; got != 1 {
		t.Errorf("summary skipped = %d, want 1", got)
	}
}

func TestRun_FailedJobIsIsolated(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "05-x.complete.md")
	writeSource(t, root, "06-y.complete.md")
	comp := &fakeCompressor{
		errs: map[string]error{"05-x.complete.md|summary": domain.ErrInvocationFailed},
	}
	p := newPipeline(testConfig(root, domain.ModeRegenerate), comp, nil)

	agg, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := agg.TotalFailed(); got != 1 {
		t.Errorf("TotalFailed = %d, want 1", got)
	}
	// The sibling tier of the failing source and both tiers of the
	// other source still ran.
	if got := agg.PerTier[domain.TierAbstract].Succeeded; got != 2 {
		t.Errorf("abstract succeeded = %d, want 2", got)
	}
	if got := agg.PerTier[domain.TierSummary].Succeeded; got != 1 {
		t.Errorf("summary succeeded = %d, want 1", got)
	}
	if agg.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1 with failed jobs", agg.ExitCode())
	}
	if _, err := os.Stat(filepath.Join(root, "05-x.summary.md")); !os.IsNotExist(err) {
		t.Error("failed job must not commit an artifact")
	}
}

func TestRun_OversizedFinalIsCommitted(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "05-x.complete.md")
	big := []byte(strings.Repeat("z", 50)) // over the 30-byte abstract limit, every attempt
	comp := &fakeCompressor{candidates: map[string][]byte{"05-x.complete.md|abstract": big}}
	p := newPipeline(testConfig(root, domain.ModeRegenerate), comp, nil)

	agg, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := agg.PerTier[domain.TierAbstract].Oversized; got != 1 {
		t.Errorf("abstract oversized = %d, want 1", got)
	}
	data, err := os.ReadFile(filepath.Join(root, "05-x.abstract.md"))
	if err != nil {
		t.Fatalf("oversized artifact must still be committed: %v", err)
	}
	if len(data) != 50 {
		t.Errorf("artifact size = %d, want 50", len(data))
	}
	if agg.ExitCode() != 0 {
		t.Errorf("exit code = %d, want 0 (oversized is not a failure)", agg.ExitCode())
	}
}

func TestRun_ReportModeWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "05-x.complete.md")
	comp := &fakeCompressor{}
	p := newPipeline(testConfig(root, domain.ModeReport), comp, nil)
	out := &strings.Builder{}
	p.Out = out

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if comp.calls != 0 {
		t.Errorf("report mode invoked the compressor %d times, want 0", comp.calls)
	}
	if _, err := os.Stat(filepath.Join(root, "05-x.summary.md")); !os.IsNotExist(err) {
		t.Error("report mode must not write artifacts")
	}
	if !strings.Contains(out.String(), "stale") || !strings.Contains(out.String(), "05-x.complete.md") {
		t.Errorf("report output should classify the source:\n%s", out.String())
	}
}

func TestRun_ForceRecompressesInSyncPairs(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "05-x.complete.md")
	comp := &fakeCompressor{}
	p := newPipeline(testConfig(root, domain.ModeRegenerate), comp, nil)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("seed Run: %v", err)
	}

	forced := newPipeline(testConfig(root, domain.ModeForce), comp, nil)
	agg, err := forced.Run(context.Background())
	if err != nil {
		t.Fatalf("force Run: %v", err)
	}
	if got := agg.Jobs(); got != 2 {
		t.Errorf("force run executed %d jobs, want 2", got)
	}
}

func TestRun_DryRunPreservesControlFlow(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "05-x.complete.md")
	comp := &fakeCompressor{}
	cfg := testConfig(root, domain.ModeRegenerate)
	cfg.DryRun = true
	p := newPipeline(cfg, comp, nil)

	agg, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := agg.Jobs(); got != 2 {
		t.Errorf("dry-run executed %d jobs, want 2 (same control flow)", got)
	}
	if _, err := os.Stat(filepath.Join(root, "05-x.summary.md")); !os.IsNotExist(err) {
		t.Error("dry-run must not write artifacts")
	}
}

func TestRun_TierRestriction(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "05-x.complete.md")
	comp := &fakeCompressor{}
	cfg := testConfig(root, domain.ModeRegenerate)
	cfg.Tiers = []domain.Tier{domain.TierAbstract}
	p := newPipeline(cfg, comp, nil)

	agg, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := agg.Jobs(); got != 1 {
		t.Errorf("restricted run executed %d jobs, want 1", got)
	}
	if _, err := os.Stat(filepath.Join(root, "05-x.summary.md")); !os.IsNotExist(err) {
		t.Error("summary tier was out of scope and must not be written")
	}
	if _, err := os.Stat(filepath.Join(root, "05-x.abstract.md")); err != nil {
		t.Errorf("abstract artifact missing: %v", err)
	}
}

func TestRun_MissingRootAborts(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "absent"), domain.ModeRegenerate)
	p := newPipeline(cfg, &fakeCompressor{}, nil)

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected discovery error for missing root, got nil")
	}
}

func TestRun_JournalRecordsRun(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "05-x.complete.md")
	journal, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer journal.Close()

	p := newPipeline(testConfig(root, domain.ModeRegenerate), &fakeCompressor{}, journal)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	runs, err := journal.RunRepo.ListRecent(context.Background(), journal.DB, 1)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("journaled %d runs, want 1", len(runs))
	}
	if runs[0].Succeeded != 2 {
		t.Errorf("journaled succeeded = %d, want 2", runs[0].Succeeded)
	}
	jobs, err := journal.JobRepo.ListByRun(context.Background(), journal.DB, runs[0].ID)
	if err != nil {
		t.Fatalf("ListByRun: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("journaled %d jobs, want 2", len(jobs))
	}
}
