// Package errors provides the router's error taxonomy.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrBadSignature      = errors.New("signature missing or mismatched")
	ErrMissingCredential = errors.New("broker credentials incomplete")
	ErrLoginRequired     = errors.New("broker login required")
	ErrEmptyChain        = errors.New("option chain unavailable")
	ErrNoCandidates      = errors.New("no option candidates")
	ErrUnsupportedSymbol = errors.New("unsupported symbol")
)

// AuthenticationError means the request signature failed verification.
// The request never reaches business logic.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(err error) *AuthenticationError {
	return &AuthenticationError{Err: err}
}

// ValidationError means the payload failed shape checks before any side
// effect occurred.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError creates a ValidationError.
func NewValidationError(err error) *ValidationError {
	return &ValidationError{Err: err}
}

// UnsupportedInstrumentError means the symbol is outside the supported
// asset classes (equities and equity options only).
type UnsupportedInstrumentError struct {
	Symbol string
}

func (e *UnsupportedInstrumentError) Error() string {
	return fmt.Sprintf("unsupported instrument: %s", e.Symbol)
}

func (e *UnsupportedInstrumentError) Unwrap() error { return ErrUnsupportedSymbol }

// NewUnsupportedInstrumentError creates an UnsupportedInstrumentError.
func NewUnsupportedInstrumentError(symbol string) *UnsupportedInstrumentError {
	return &UnsupportedInstrumentError{Symbol: symbol}
}

// SessionError means credentials are missing or the broker rejected login.
// Retryable by the caller on a later request.
type SessionError struct {
	Stage string // "credentials", "login", "trade_token"
	Err   error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session error [%s]: %v", e.Stage, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// NewSessionError creates a SessionError.
func NewSessionError(stage string, err error) *SessionError {
	return &SessionError{Stage: stage, Err: err}
}

// MarketDataError means the option chain or quotes were unavailable or
// unusable. The router recovers by falling back to the equity path.
type MarketDataError struct {
	Symbol string
	Err    error
}

func (e *MarketDataError) Error() string {
	return fmt.Sprintf("market data error [%s]: %v", e.Symbol, e.Err)
}

func (e *MarketDataError) Unwrap() error { return e.Err }

// NewMarketDataError creates a MarketDataError.
func NewMarketDataError(symbol string, err error) *MarketDataError {
	return &MarketDataError{Symbol: symbol, Err: err}
}

// OrderPlacementError means the broker rejected an order. For the option
// path it triggers the equity fallback; on the equity path it is terminal.
type OrderPlacementError struct {
	Symbol  string
	Product string
	Err     error
}

func (e *OrderPlacementError) Error() string {
	return fmt.Sprintf("order placement error [%s %s]: %v", e.Product, e.Symbol, e.Err)
}

func (e *OrderPlacementError) Unwrap() error { return e.Err }

// NewOrderPlacementError creates an OrderPlacementError.
func NewOrderPlacementError(symbol, product string, err error) *OrderPlacementError {
	return &OrderPlacementError{Symbol: symbol, Product: product, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
