package model

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// ConfigurationError: a descriptor asks for something the pipeline does
	// not implement, or a reuse reference is invalid.
	ConfigurationError ErrorCode = "CONFIGURATION_ERROR"
	// AssemblyInvariantViolation: an internal consistency check failed.
	AssemblyInvariantViolation ErrorCode = "ASSEMBLY_INVARIANT_VIOLATION"
	// OnChainExecutionFailure: the bundle mined but an operation reported failure.
	OnChainExecutionFailure ErrorCode = "ON_CHAIN_EXECUTION_FAILURE"
	// NetworkOrProviderError: the execution environment could not be reached
	// or rejected a request.
	NetworkOrProviderError ErrorCode = "NETWORK_OR_PROVIDER_ERROR"
)

// BenchError carries a code and context for diagnosing a failed bundle.
type BenchError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *BenchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		msg = fmt.Sprintf("%s %v", msg, e.Details)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *BenchError) Unwrap() error {
	return e.Err
}

func NewBenchError(code ErrorCode, message string, details map[string]interface{}, err error) *BenchError {
	return &BenchError{
		Code:    code,
		Message: message,
		Details: details,
		Err:     err,
	}
}

func NewConfigurationError(message string, details map[string]interface{}) *BenchError {
	return NewBenchError(ConfigurationError, message, details, nil)
}

func NewInvariantViolation(message string, details map[string]interface{}) *BenchError {
	return NewBenchError(AssemblyInvariantViolation, message, details, nil)
}

func NewExecutionFailure(message string, details map[string]interface{}) *BenchError {
	return NewBenchError(OnChainExecutionFailure, message, details, nil)
}

// WrapNetworkError tags a provider failure with the step that issued it.
// Errors that already carry a code are returned unchanged.
func WrapNetworkError(step string, err error, details map[string]interface{}) error {
	if err == nil {
		return nil
	}
	var be *BenchError
	if errors.As(err, &be) {
		return err
	}
	return NewBenchError(NetworkOrProviderError, step, details, err)
}

// CodeOf returns the code of the first BenchError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Code, true
	}
	return "", false
}

func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

func IsConfigurationError(err error) bool {
	return HasCode(err, ConfigurationError)
}

func IsInvariantViolation(err error) bool {
	return HasCode(err, AssemblyInvariantViolation)
}

func IsExecutionFailure(err error) bool {
	return HasCode(err, OnChainExecutionFailure)
}

func withDetail(err error, kv ...interface{}) error {
	var be *BenchError
	if !errors.As(err, &be) {
		return err
	}
	if be.Details == nil {
		be.Details = map[string]interface{}{}
	}
	for i := 0; i+1 < len(kv); i += 2 {
		be.Details[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return be
}
