// Package errors provides structured error handling for the wallet core.
// It defines sentinel errors and helpers for adding context and operation
// tags to errors crossing the chain boundary.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// WalletError is the structured error type for the wallet core.
type WalletError struct {
	Code    string            // Machine-readable error code
	Message string            // Human-readable message
	Op      string            // Operation that produced the error (balanceOf, sendAmount, ...)
	Details map[string]string // Additional context
	Cause   error             // Underlying error
}

func (e *WalletError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}

	// Details are sorted for deterministic output.
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *WalletError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for WalletError. Two WalletErrors match when
// their codes match, regardless of details or cause.
func (e *WalletError) Is(target error) bool {
	var t *WalletError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	// ErrInitialization indicates the wallet or its contract bindings could
	// not be constructed. Fatal until the caller retries initialization.
	ErrInitialization = &WalletError{
		Code:    "INITIALIZATION_FAILED",
		Message: "wallet initialization failed",
	}

	// ErrChainQuery indicates a chain read (balance, entitlement, identity
	// check) failed. Recoverable; the caller may retry.
	ErrChainQuery = &WalletError{
		Code:    "CHAIN_QUERY_FAILED",
		Message: "chain query failed",
	}

	// ErrInvalidAddress indicates the recipient address is malformed.
	ErrInvalidAddress = &WalletError{
		Code:    "INVALID_ADDRESS",
		Message: "invalid address format",
	}

	// ErrInsufficientFunds indicates the amount is zero or not strictly
	// below the current balance.
	ErrInsufficientFunds = &WalletError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "amount exceeds spendable balance",
	}

	// ErrInvalidInput indicates a user-supplied value does not parse.
	ErrInvalidInput = &WalletError{
		Code:    "INVALID_INPUT",
		Message: "invalid input",
	}

	// ErrGasEstimation indicates the network rejected gas estimation,
	// usually a reverting call. Hard stop for the operation.
	ErrGasEstimation = &WalletError{
		Code:    "GAS_ESTIMATION_FAILED",
		Message: "gas estimation failed",
	}

	// ErrTxTimeout indicates the confirmation deadline elapsed after a
	// transaction hash was observed. The transaction may still land
	// on-chain; the hash detail allows later reconciliation.
	ErrTxTimeout = &WalletError{
		Code:    "TX_TIMEOUT",
		Message: "transaction confirmation timed out",
	}

	// ErrTimeout indicates the confirmation deadline elapsed before the
	// network ever acknowledged the transaction with a hash.
	ErrTimeout = &WalletError{
		Code:    "TIMEOUT",
		Message: "operation timed out",
	}

	// ErrInvalidMnemonic indicates the seed phrase does not parse as a
	// valid BIP39 mnemonic.
	ErrInvalidMnemonic = &WalletError{
		Code:    "INVALID_MNEMONIC",
		Message: "invalid mnemonic phrase",
	}

	// ErrTxReverted indicates the transaction was mined but reverted.
	ErrTxReverted = &WalletError{
		Code:    "TX_REVERTED",
		Message: "transaction reverted on chain",
	}

	// ErrNetwork indicates transport-level RPC failure.
	ErrNetwork = &WalletError{
		Code:    "NETWORK_ERROR",
		Message: "network communication failed",
	}

	// ErrNotFound indicates a requested resource does not exist.
	ErrNotFound = &WalletError{
		Code:    "NOT_FOUND",
		Message: "resource not found",
	}

	// ErrLinkUsed indicates the payment link code was already claimed.
	ErrLinkUsed = &WalletError{
		Code:    "LINK_ALREADY_USED",
		Message: "payment link already claimed",
	}
)

// Wrap returns a copy of the sentinel carrying the underlying cause and
// the operation tag. The sentinel itself is never mutated.
func Wrap(sentinel *WalletError, op string, cause error) *WalletError {
	return &WalletError{
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Op:      op,
		Cause:   cause,
	}
}

// WithDetail returns a copy of the error with an extra detail attached.
func WithDetail(err *WalletError, key, value string) *WalletError {
	details := make(map[string]string, len(err.Details)+1)
	for k, v := range err.Details {
		details[k] = v
	}
	details[key] = value
	return &WalletError{
		Code:    err.Code,
		Message: err.Message,
		Op:      err.Op,
		Details: details,
		Cause:   err.Cause,
	}
}

// TxHash extracts the transaction hash detail from a TX_TIMEOUT error.
// Returns an empty string when the error carries no hash.
func TxHash(err error) string {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Details["tx_hash"]
	}
	return ""
}

// GetWalletError extracts a WalletError from an error chain.
func GetWalletError(err error) (*WalletError, bool) {
	var we *WalletError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}
