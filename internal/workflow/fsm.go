// Package workflow implements the per-job retry state machine that
// drives compression attempts until success, budget exhaustion, or a
// hard failure.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stylebook/tiermill/internal/domain"
)

// State is a retry controller state. Attempt states carry their attempt
// number in JobState; the remaining three are terminal and mutually
// exclusive.
type State string

const (
	StateAttempt   State = "attempt"
	StateSuccess   State = "success"
	StateOversized State = "oversized_final"
	StateFailed    State = "failed"
)

// validTransitions defines the legal state transitions.
// Each key is a source state, and the value is the set of valid targets.
var validTransitions = map[State]map[State]bool{
	StateAttempt: {
		StateAttempt:   true, // escalate to the next, stricter attempt
		StateSuccess:   true,
		StateOversized: true,
		StateFailed:    true,
	},
}

// IsValidTransition checks if a state transition is legal.
func IsValidTransition(from, to State) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// JobState is the full position of a job inside the machine.
type JobState struct {
	State   State
	Attempt int
}

// Terminal reports whether the job has reached a terminal state.
func (s JobState) Terminal() bool {
	return s.State != StateAttempt
}

// advance moves the job to the next state, enforcing the transition table.
func (s *JobState) advance(to State) error {
	if !IsValidTransition(s.State, to) {
		return domain.WrapPipelineError(
			domain.ErrInvalidTransition.Code,
			fmt.Sprintf("illegal transition %s -> %s", s.State, to),
			nil,
		)
	}
	if to == StateAttempt {
		s.Attempt++
	}
	s.State = to
	return nil
}

// Compressor is the single side-effecting call the controller drives.
// internal/compress provides the real implementation; tests script fakes.
type Compressor interface {
	Compress(ctx context.Context, job domain.CompressionJob) ([]byte, error)
}

// Result is the terminal outcome of one job run.
type Result struct {
	State     State
	Candidate []byte // nil for failed jobs and discarded oversized finals
	Size      int    // measured size of the final candidate, 0 when failed
	Attempts  int
	Err       error // set only for StateFailed
}

// Outcome maps the terminal state onto the reporting outcome.
func (r Result) Outcome() domain.Outcome {
	switch r.State {
	case StateSuccess:
		return domain.OutcomeSuccess
	case StateOversized:
		return domain.OutcomeOversized
	default:
		return domain.OutcomeFailed
	}
}

// Controller orchestrates repeated compression attempts for one job.
type Controller struct {
	Compressor Compressor
	Limits     map[domain.Tier]int
	// MaxAttempts bounds the attempt states; escalation beyond the
	// first attempt switches the instructions to strict mode.
	MaxAttempts int
	// KeepOversized controls whether an oversized final candidate is
	// forwarded for commit (the default) or discarded.
	KeepOversized bool
	Log           *slog.Logger
}

// NewController creates a Controller with the given policy.
func NewController(c Compressor, limits map[domain.Tier]int, maxAttempts int, keepOversized bool, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		Compressor:    c,
		Limits:        limits,
		MaxAttempts:   maxAttempts,
		KeepOversized: keepOversized,
		Log:           log,
	}
}

// Run executes one (source, tier) job to a terminal state. Escalation is
// informed: every retry carries the measured size of the previous failed
// candidate. Convergence is not guaranteed; StateOversized is an
// expected outcome, not an error.
func (c *Controller) Run(ctx context.Context, src domain.SourceDocument, tier domain.Tier, contextPayload string) Result {
	limit, ok := c.Limits[tier]
	if !ok {
		return Result{
			State: StateFailed,
			Err:   domain.WrapPipelineError(domain.ErrNoLimitForTier.Code, string(tier), nil),
		}
	}

	state := JobState{State: StateAttempt, Attempt: 1}

	var best []byte // smallest oversized candidate seen so far
	prevSize := 0

	for {
		job := domain.CompressionJob{
			Source:     src,
			Tier:       tier,
			Context:    contextPayload,
			Limit:      limit,
			Attempt:    state.Attempt,
			PrevSize:   prevSize,
			Strictness: domain.StrictnessStandard,
		}
		if state.Attempt > 1 {
			job.Strictness = domain.StrictnessStrict
		}

		candidate, err := c.Compressor.Compress(ctx, job)
		if err != nil {
			_ = state.advance(StateFailed)
			return Result{State: StateFailed, Attempts: state.Attempt, Err: err}
		}

		size := ByteLength(candidate)
		if WithinLimit(candidate, limit) {
			_ = state.advance(StateSuccess)
			return Result{State: StateSuccess, Candidate: candidate, Size: size, Attempts: state.Attempt}
		}

		if best == nil || size < ByteLength(best) {
			best = candidate
		}

		if state.Attempt >= c.MaxAttempts {
			_ = state.advance(StateOversized)
			res := Result{State: StateOversized, Size: ByteLength(best), Attempts: state.Attempt}
			if c.KeepOversized {
				res.Candidate = best
			}
			return res
		}

		c.Log.Debug("candidate over budget, escalating",
			"source", src.RelPath, "tier", string(tier),
			"attempt", state.Attempt, "size", size, "limit", limit)
		prevSize = size
		_ = state.advance(StateAttempt)
	}
}
