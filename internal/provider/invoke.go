package provider

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/time/rate"

	"github.com/stylebook/tiermill/internal/domain"
)

// Invoker runs one compressor invocation per call. The call blocks until
// the process exits; the pipeline imposes no timeout of its own, so a
// hung provider stalls the run (accepted limitation).
type Invoker struct {
	Registry *Registry

	// limiter paces invocations when a requests-per-minute cap is
	// configured; nil means unpaced.
	limiter *rate.Limiter
}

// NewInvoker creates an Invoker. perMinute <= 0 disables pacing.
func NewInvoker(reg *Registry, perMinute int) *Invoker {
	inv := &Invoker{Registry: reg}
	if perMinute > 0 {
		inv.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)
	}
	return inv
}

// Invoke runs the named provider with prompt on stdin and returns the
// raw stdout bytes. A non-zero exit, a missing binary, or empty output
// is a hard ErrInvocationFailed; the caller never retries it.
func (v *Invoker) Invoke(ctx context.Context, name domain.Provider, prompt string) ([]byte, error) {
	spec, err := v.Registry.Get(name)
	if err != nil {
		return nil, err
	}

	if v.limiter != nil {
		if err := v.limiter.Wait(ctx); err != nil {
			return nil, domain.WrapPipelineError(domain.ErrInvocationFailed.Code, "rate limiter", err)
		}
	}

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Stdin = strings.NewReader(prompt)
	cmd.Env = os.Environ()
	for k, val := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+val)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, domain.WrapPipelineError(
			domain.ErrInvocationFailed.Code,
			fmt.Sprintf("%s: %s", spec.Command, firstLine(stderr.String())),
			err,
		)
	}

	out := stdout.Bytes()
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, domain.NewPipelineError(
			domain.ErrEmptyCandidate.Code,
			fmt.Sprintf("%s: %s", spec.Command, domain.ErrEmptyCandidate.Message),
		)
	}
	return out, nil
}

// firstLine keeps error messages single-line for the run report.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "(no stderr)"
	}
	return s
}
