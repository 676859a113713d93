package domain

import "time"

// ExecutionStatus classifies a finished steamcmd invocation
type ExecutionStatus int

const (
	ExecSuccess ExecutionStatus = iota
	ExecFailure
	ExecExhausted
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecSuccess:
		return "success"
	case ExecFailure:
		return "failure"
	case ExecExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// ExecutionResult is the outcome of running steamcmd until a definitive answer
type ExecutionResult struct {
	Status   ExecutionStatus
	Output   string
	Attempts int
}

// RetryPolicy bounds retries of download directives.
// MaxAttempts of 0 retries until success or cancellation.
type RetryPolicy struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	OnRetry        func(attempt int, reason string)
}
