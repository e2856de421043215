package domain

import "fmt"

// PipelineError is the unified error type for the pipeline.
// Each error has a numeric code and human-readable message.
type PipelineError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("tiermill error %d: %s", e.Code, e.Message)
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(code int, msg string) *PipelineError {
	return &PipelineError{Code: code, Message: msg}
}

// WrapPipelineError creates a PipelineError that includes a cause.
func WrapPipelineError(code int, msg string, cause error) *PipelineError {
	return &PipelineError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// ---- Discovery / manifest errors (-40010 to -40029) ----

var (
	ErrRootMissing    = &PipelineError{Code: -40010, Message: "corpus root directory does not exist"}
	ErrBadTierName    = &PipelineError{Code: -40011, Message: "file name does not follow NN-name.TIER.md"}
	ErrInvalidTier    = &PipelineError{Code: -40012, Message: "invalid tier value"}
	ErrSourceRead     = &PipelineError{Code: -40013, Message: "failed to read source document"}
	ErrSourceNotFound = &PipelineError{Code: -40014, Message: "source document not found"}
)

// ---- Compression / provider errors (-40030 to -40049) ----

var (
	ErrProviderUnavailable = &PipelineError{Code: -40030, Message: "compressor provider not configured"}
	ErrInvocationFailed    = &PipelineError{Code: -40031, Message: "compressor invocation failed"}
	ErrEmptyCandidate      = &PipelineError{Code: -40032, Message: "compressor returned an empty candidate"}
	ErrInvalidContextLevel = &PipelineError{Code: -40033, Message: "invalid context level value"}
)

// ---- Retry controller errors (-40050 to -40069) ----

var (
	ErrBudgetExceeded    = &PipelineError{Code: -40050, Message: "candidate exceeds tier byte budget"}
	ErrInvalidTransition = &PipelineError{Code: -40051, Message: "invalid retry state transition"}
	ErrJobAlreadyDone    = &PipelineError{Code: -40052, Message: "job is already in a terminal state"}
	ErrNoLimitForTier    = &PipelineError{Code: -40053, Message: "no byte limit configured for tier"}
)

// ---- Commit errors (-40070 to -40089) ----

var (
	ErrCommitWrite    = &PipelineError{Code: -40070, Message: "failed to write artifact"}
	ErrCommitRename   = &PipelineError{Code: -40071, Message: "failed to publish artifact"}
	ErrCommitMetadata = &PipelineError{Code: -40072, Message: "failed to sync artifact metadata"}
)

// ---- Config / journal errors (-40090 to -40109) ----

var (
	ErrConfigInvalid = &PipelineError{Code: -40090, Message: "invalid configuration"}
	ErrJournalInit   = &PipelineError{Code: -40091, Message: "failed to initialize run journal"}
	ErrJournalWrite  = &PipelineError{Code: -40092, Message: "run journal write failed"}
)
