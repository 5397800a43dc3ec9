// Package broker provides broker capability implementations.
package broker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"signal-router/internal/models"
)

// PaperBroker implements all broker capabilities against in-memory state.
// It backs `serve --paper` and the test suite.
type PaperBroker struct {
	refPrice float64
	now      func() time.Time

	mu           sync.RWMutex
	loggedIn     bool
	tradeToken   bool
	orders       []PaperOrder
	orderCounter int
}

// PaperOrder is a simulated order record.
type PaperOrder struct {
	ID         string
	Symbol     string
	Side       models.OrderSide
	Product    models.ProductKind
	Quantity   int
	ContractID string
	PlacedAt   time.Time
}

// PaperBrokerConfig holds configuration for the paper broker.
type PaperBrokerConfig struct {
	// ReferencePrice seeds the synthetic option chain strikes. Defaults
	// to 100 when zero.
	ReferencePrice float64
	Now            func() time.Time
}

// NewPaperBroker creates a paper broker.
func NewPaperBroker(cfg PaperBrokerConfig) *PaperBroker {
	refPrice := cfg.ReferencePrice
	if refPrice == 0 {
		refPrice = 100
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &PaperBroker{refPrice: refPrice, now: now}
}

// Login marks the simulated session as authenticated.
func (p *PaperBroker) Login(ctx context.Context, username, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loggedIn = true
	return nil
}

// ProvisionTradeToken marks the simulated trade token as issued.
func (p *PaperBroker) ProvisionTradeToken(ctx context.Context, pin string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loggedIn {
		return fmt.Errorf("not logged in")
	}
	p.tradeToken = true
	return nil
}

// GetOptionChain returns a synthetic chain with weekly expirations.
func (p *PaperBroker) GetOptionChain(ctx context.Context, symbol string) (*OptionChain, error) {
	now := p.now()
	expirations := []time.Time{
		nextWeekday(now, time.Friday),
		nextWeekday(now, time.Friday).AddDate(0, 0, 7),
		nextWeekday(now, time.Friday).AddDate(0, 0, 14),
	}
	return &OptionChain{Symbol: symbol, Expirations: expirations}, nil
}

// GetOptionQuotes returns synthetic strikes bracketing the reference price.
// Deltas decay away from the money so delta-nearest selection has real
// structure to search.
func (p *PaperBroker) GetOptionQuotes(ctx context.Context, symbol string, expiry time.Time) ([]OptionQuote, error) {
	step := math.Max(1, math.Round(p.refPrice*0.025))
	quotes := make([]OptionQuote, 0, 9)
	for i := -4; i <= 4; i++ {
		strike := p.refPrice + float64(i)*step
		moneyness := float64(i) // strikes above spot: OTM calls, ITM puts
		callDelta := clamp(0.5-0.1*moneyness, 0.02, 0.98)
		putDelta := clamp(0.5+0.1*moneyness, 0.02, 0.98)
		quotes = append(quotes, OptionQuote{
			Strike: strike,
			Call: &OptionLeg{
				ContractID: fmt.Sprintf("%s%sC%08.0f", symbol, expiry.Format("060102"), strike*1000),
				Delta:      callDelta,
				LastPrice:  math.Max(0.05, p.refPrice*0.02*callDelta),
			},
			Put: &OptionLeg{
				ContractID: fmt.Sprintf("%s%sP%08.0f", symbol, expiry.Format("060102"), strike*1000),
				Delta:      -putDelta,
				LastPrice:  math.Max(0.05, p.refPrice*0.02*putDelta),
			},
		})
	}
	return quotes, nil
}

// PlaceEquityOrder simulates an equity order placement.
func (p *PaperBroker) PlaceEquityOrder(ctx context.Context, symbol string, side models.OrderSide, qty int) (*OrderResult, error) {
	return p.record(symbol, side, models.ProductEquity, qty, "")
}

// PlaceOptionOrder simulates an option order placement.
func (p *PaperBroker) PlaceOptionOrder(ctx context.Context, symbol string, side models.OrderSide, contractID string, contracts int) (*OrderResult, error) {
	return p.record(symbol, side, models.ProductOption, contracts, contractID)
}

func (p *PaperBroker) record(symbol string, side models.OrderSide, product models.ProductKind, qty int, contractID string) (*OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loggedIn || !p.tradeToken {
		return nil, fmt.Errorf("not authenticated")
	}
	if qty <= 0 {
		return nil, fmt.Errorf("invalid quantity: %d", qty)
	}

	p.orderCounter++
	order := PaperOrder{
		ID:         fmt.Sprintf("PAPER-%06d", p.orderCounter),
		Symbol:     symbol,
		Side:       side,
		Product:    product,
		Quantity:   qty,
		ContractID: contractID,
		PlacedAt:   p.now(),
	}
	p.orders = append(p.orders, order)

	return &OrderResult{
		OrderID: order.ID,
		Status:  "FILLED",
		Message: "paper order filled",
	}, nil
}

// Orders returns a copy of all simulated orders.
func (p *PaperBroker) Orders() []PaperOrder {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PaperOrder, len(p.orders))
	copy(out, p.orders)
	return out
}

func nextWeekday(from time.Time, day time.Weekday) time.Time {
	d := (int(day) - int(from.Weekday()) + 7) % 7
	if d == 0 {
		d = 7
	}
	next := from.AddDate(0, 0, d)
	return time.Date(next.Year(), next.Month(), next.Day(), 16, 0, 0, 0, next.Location())
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Ensure PaperBroker implements all capabilities
var _ Broker = (*PaperBroker)(nil)
