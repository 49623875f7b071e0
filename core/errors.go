package core

import (
	"fmt"
	"time"
)

// ConnectivityError is when the startup check cannot reach the validator.
// It aborts the run before any transaction is attempted.
type ConnectivityError struct {
	Endpoint string // RPC endpoint that was queried
	Err      error  // Underlying transport or decoding error
}

// FreshnessFetchError occurs when the validator does not report a usable
// blockhash for a transaction.
type FreshnessFetchError struct {
	Name string // Transaction the blockhash was fetched for
	Err  error
}

// SetupError is when the one-time compiler environment cannot be produced.
// No transaction can compile without it, so the whole run stops.
type SetupError struct {
	Artifact string // Path of the environment artifact
	Err      error
}

// DiscoveryError is when the discovery subprocess fails or produces an
// unusable output.
type DiscoveryError struct {
	Reason string
	Err    error
}

// CompileError is the structured failure reported by the external compiler,
// or produced when its output does not follow the response contract.
type CompileError struct {
	Name    string // Transaction being compiled
	Message string // Short error message
	Details string // Free form details, may be empty
}

// CompileTimeoutError is when the compiler process outlives its hard
// wall-clock timeout.
type CompileTimeoutError struct {
	Name    string
	Timeout time.Duration
}

// InvalidMessageError is when the signer cannot work with the bytes it has
// been handed.
type InvalidMessageError struct {
	Reason string
	Err    error
}

// SubmissionError is when the network refuses a transaction outright.
type SubmissionError struct {
	Name string
	Err  error // nil if the network answered without a signature
}

// ConfirmationTimeoutError is when no confirmation data came back for a sent
// transaction. The transaction may or may not have landed.
type ConfirmationTimeoutError struct {
	Name      string
	Signature string
	Err       error // last polling error, if any
}

// ExecutionError is when the transaction was included but failed on chain.
type ExecutionError struct {
	Name      string
	Signature string
	Detail    string // Execution error as reported by the network
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %s", e.Endpoint,
		e.Err.Error())
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

func (e *FreshnessFetchError) Error() string {
	if e.Err == nil {
		return "no blockhash"
	}
	return fmt.Sprintf("no blockhash: %s", e.Err.Error())
}

func (e *FreshnessFetchError) Unwrap() error { return e.Err }

func (e *SetupError) Error() string {
	return fmt.Sprintf("cannot generate %s: %s", e.Artifact, e.Err.Error())
}

func (e *SetupError) Unwrap() error { return e.Err }

func (e *DiscoveryError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Err.Error())
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

func (e *CompileError) Error() string {
	return fmt.Sprintf("build failed: %s", e.Message)
}

func (e *CompileTimeoutError) Error() string {
	return fmt.Sprintf("build timed out after %s", e.Timeout)
}

func (e *InvalidMessageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid message: %s", e.Reason)
	}
	return fmt.Sprintf("invalid message: %s: %s", e.Reason, e.Err.Error())
}

func (e *InvalidMessageError) Unwrap() error { return e.Err }

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return "no signature returned"
	}
	return fmt.Sprintf("no signature returned: %s", e.Err.Error())
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *ConfirmationTimeoutError) Error() string {
	if e.Err == nil {
		return "no confirmation received"
	}
	return fmt.Sprintf("no confirmation received: %s", e.Err.Error())
}

func (e *ConfirmationTimeoutError) Unwrap() error { return e.Err }

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed: %s", e.Detail)
}
