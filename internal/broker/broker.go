// Package broker defines the brokerage capabilities the router depends on
// and their concrete implementations.
package broker

import (
	"context"
	"time"

	"signal-router/internal/models"
)

// Session is the authentication capability. Login and trade-token
// provisioning are separate broker calls, invoked in that order.
type Session interface {
	Login(ctx context.Context, username, password string) error
	ProvisionTradeToken(ctx context.Context, pin string) error
}

// MarketData is the option-chain lookup capability.
type MarketData interface {
	// GetOptionChain returns the chain summary for symbol: the expirations
	// listed in the order the data source returns them.
	GetOptionChain(ctx context.Context, symbol string) (*OptionChain, error)

	// GetOptionQuotes returns the per-strike quote set for one expiry.
	GetOptionQuotes(ctx context.Context, symbol string, expiry time.Time) ([]OptionQuote, error)
}

// OrderPlacement is the order dispatch capability.
type OrderPlacement interface {
	PlaceEquityOrder(ctx context.Context, symbol string, side models.OrderSide, qty int) (*OrderResult, error)
	PlaceOptionOrder(ctx context.Context, symbol string, side models.OrderSide, contractID string, contracts int) (*OrderResult, error)
}

// Broker bundles all three capabilities.
type Broker interface {
	Session
	MarketData
	OrderPlacement
}

// OptionChain is the chain summary for an underlying.
type OptionChain struct {
	Symbol      string
	Expirations []time.Time
}

// OptionQuote is one strike's quote entry. Either leg may be absent;
// upstream chain data is loosely shaped and legs go missing routinely.
type OptionQuote struct {
	Strike float64
	Call   *OptionLeg
	Put    *OptionLeg
}

// OptionLeg is a single contract quote. Missing numeric fields arrive as
// zero values.
type OptionLeg struct {
	ContractID string
	Delta      float64
	LastPrice  float64
}

// Leg returns the leg matching right, or nil if that leg is absent.
func (q OptionQuote) Leg(right models.OptionRight) *OptionLeg {
	if right == models.RightPut {
		return q.Put
	}
	return q.Call
}

// OrderResult represents the result of an order placement.
type OrderResult struct {
	OrderID string
	Status  string
	Message string
}
