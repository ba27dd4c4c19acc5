package factory

import (
	"errors"
	"fmt"
)

// Sentinel errors for the factory engine. Every mutating entry point fails
// with one of these (or a ValidationError) before any durable write, so all
// failures except ErrDuplicateSalt and ErrAlreadyDeployed are safe to retry
// once the cause is fixed.
var (
	// Authorization
	ErrNotAdmin        = errors.New("caller is not the admin")
	ErrNotPendingAdmin = errors.New("caller is not the pending admin")
	ErrNoPendingAdmin  = errors.New("no admin transfer is pending")
	ErrAdminNotSet     = errors.New("admin is not set")

	// Lifecycle
	ErrPaused = errors.New("factory is paused")

	// Concurrency safety
	ErrReentrancy  = errors.New("reentrant deployment detected")
	ErrRateLimited = errors.New("deployment rate limit exceeded for current window")

	// Uniqueness
	ErrDuplicateSalt   = errors.New("salt has already been used")
	ErrAlreadyDeployed = errors.New("factory slot is already deployed")

	// Resources
	ErrWasmNotSet = errors.New("no wasm registered for template kind")

	// Arithmetic
	ErrCounterOverflow = errors.New("deployment counter would overflow")
)

// Validation error codes, one per rule an invalid config can break
const (
	CodeInvalidKind       = "invalid-kind"
	CodeInvalidName       = "invalid-name"
	CodeInvalidSymbol     = "invalid-symbol"
	CodeInvalidCharacters = "invalid-characters"
	CodeInvalidDecimals   = "invalid-decimals"
	CodeNegativeSupply    = "negative-supply"
	CodeSupplyTooLarge    = "supply-too-large"
	CodeMissingCap        = "missing-cap"
	CodeCapTooLow         = "cap-too-low"
	CodeUnexpectedCap     = "unexpected-cap"
	CodeInvalidConfig     = "invalid-config"
)

// ValidationError reports exactly which configuration rule a deploy request
// broke. Validation runs to completion before any state mutation or external
// call, so a ValidationError guarantees nothing was committed.
type ValidationError struct {
	Code   string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invalid deployment config: %s", e.Code)
	}
	return fmt.Sprintf("invalid deployment config: %s: %s", e.Code, e.Detail)
}

func validationErr(code, format string, args ...any) error {
	return &ValidationError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// failureReason maps an error to its metrics label
func failureReason(err error) string {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotAdmin):
		return "not_admin"
	case errors.Is(err, ErrPaused):
		return "paused"
	case errors.Is(err, ErrReentrancy):
		return "reentrancy"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrDuplicateSalt):
		return "duplicate_salt"
	case errors.Is(err, ErrAlreadyDeployed):
		return "already_deployed"
	case errors.Is(err, ErrWasmNotSet):
		return "wasm_not_set"
	case errors.Is(err, ErrCounterOverflow):
		return "counter_overflow"
	case errors.As(err, &verr):
		return "validation"
	default:
		return "other"
	}
}
