// Package compress drives one compression attempt for one (source,
// tier) pair. It builds the instruction payload and invokes the external
// compressor; it performs no validation and no retries of its own.
package compress

import (
	"context"

	"github.com/stylebook/tiermill/internal/domain"
	"github.com/stylebook/tiermill/internal/provider"
)

// Compressor turns a CompressionJob into candidate bytes via the
// configured provider.
type Compressor struct {
	Invoker  *provider.Invoker
	Provider domain.Provider
}

// NewCompressor creates a Compressor bound to one provider.
func NewCompressor(inv *provider.Invoker, name domain.Provider) *Compressor {
	return &Compressor{Invoker: inv, Provider: name}
}

// Compress performs a single side-effecting invocation. Any invocation
// error is hard and non-retryable; an oversized result is not an error
// here, the retry controller measures candidates itself.
func (c *Compressor) Compress(ctx context.Context, job domain.CompressionJob) ([]byte, error) {
	return c.Invoker.Invoke(ctx, c.Provider, BuildPrompt(job))
}
