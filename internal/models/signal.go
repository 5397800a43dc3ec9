// Package models defines the domain types shared across the router.
package models

import (
	"strings"
	"time"
)

// Bias represents the directional bias carried by an inbound signal.
type Bias string

const (
	BiasCall    Bias = "CALL"
	BiasPut     Bias = "PUT"
	BiasNeutral Bias = "NEUTRAL"
)

// IsDirectional reports whether the bias maps to a tradable side.
func (b Bias) IsDirectional() bool {
	return b == BiasCall || b == BiasPut
}

// Side returns the order side implied by the bias: BUY for CALL, SELL for PUT.
func (b Bias) Side() OrderSide {
	if b == BiasPut {
		return OrderSideSell
	}
	return OrderSideBuy
}

// ProductKind represents the product path requested by a signal.
type ProductKind string

const (
	ProductEquity ProductKind = "equity"
	ProductOption ProductKind = "option"
)

// OrderSide represents the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OptionRight represents an option right.
type OptionRight string

const (
	RightCall OptionRight = "CALL"
	RightPut  OptionRight = "PUT"
)

// Signal is the validated inbound trading signal. It is constructed once per
// request from untrusted bytes and never mutated afterwards.
type Signal struct {
	Source         string      `json:"source"`
	TimestampET    string      `json:"timestamp_et"`
	Product        ProductKind `json:"product,omitempty"`
	Symbol         string      `json:"symbol"`
	Bias           Bias        `json:"bias"`
	Confidence     int         `json:"confidence"`
	Price          float64     `json:"price"`
	ORB            string      `json:"orb"`
	VWAPSync       string      `json:"vwap_sync"`
	IdempotencyKey string      `json:"idempotency_key"`

	// Optional option-contract hints. Expiry and Strike are carried as
	// best-effort narrowing only; selection stays delta-nearest.
	Expiry    string      `json:"expiry,omitempty"`
	Strike    float64     `json:"strike,omitempty"`
	Right     OptionRight `json:"right,omitempty"`
	Contracts int         `json:"contracts,omitempty"`
}

// Normalize fills defaults and canonicalizes enum-ish fields in place.
// It is called once, before Validate, while the Signal is still private
// to its constructor.
func (s *Signal) Normalize() {
	s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
	s.Bias = Bias(strings.ToUpper(strings.TrimSpace(string(s.Bias))))
	s.Right = OptionRight(strings.ToUpper(strings.TrimSpace(string(s.Right))))
	if s.Product == "" {
		s.Product = ProductEquity
	}
}

// Validate checks the shape invariants of a normalized signal.
func (s *Signal) Validate() error {
	if s.Symbol == "" {
		return NewFieldError("symbol", "symbol is required")
	}
	switch s.Bias {
	case BiasCall, BiasPut, BiasNeutral:
	default:
		return NewFieldError("bias", "bias must be CALL, PUT or NEUTRAL")
	}
	switch s.Product {
	case ProductEquity, ProductOption:
	default:
		return NewFieldError("product", "product must be equity or option")
	}
	if s.Price <= 0 {
		return NewFieldError("price", "price must be positive")
	}
	if s.IdempotencyKey == "" {
		return NewFieldError("idempotency_key", "idempotency_key is required")
	}
	if s.Contracts < 0 {
		return NewFieldError("contracts", "contracts cannot be negative")
	}
	if s.Right != "" && s.Right != RightCall && s.Right != RightPut {
		return NewFieldError("right", "right must be CALL or PUT")
	}
	return nil
}

// OptionRightForOrder returns the right to trade: the explicit override when
// present, otherwise the right implied by the bias.
func (s *Signal) OptionRightForOrder() OptionRight {
	if s.Right != "" {
		return s.Right
	}
	if s.Bias == BiasPut {
		return RightPut
	}
	return RightCall
}

// FieldError reports a malformed signal field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return "invalid signal: " + e.Field + ": " + e.Message
}

// NewFieldError creates a FieldError.
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// ContractCandidate is the narrow internal record produced by option-chain
// search. Whatever shape the market-data capability returns is adapted into
// this before the rest of the system sees it.
type ContractCandidate struct {
	ContractID string
	Strike     float64
	Delta      float64 // absolute value
	LastPrice  float64 // premium per share
	Expiry     time.Time
}
