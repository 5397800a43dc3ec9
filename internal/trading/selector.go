package trading

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"signal-router/internal/broker"
	"signal-router/internal/errors"
	"signal-router/internal/models"
)

// Default selection parameters.
const (
	DefaultTargetDelta = 0.30
	DefaultMaxDTE      = 7
)

// Selector picks the option contract nearest a target delta within a
// days-to-expiry window. It holds no per-request state; chain data is
// re-fetched on every call.
type Selector struct {
	data        broker.MarketData
	targetDelta float64
	maxDTE      int
	now         func() time.Time
	logger      zerolog.Logger
}

// SelectorConfig holds contract selection tuning.
type SelectorConfig struct {
	TargetDelta float64
	MaxDTE      int
	Now         func() time.Time
}

// NewSelector creates a contract selector. Zero config fields take the
// defaults (target delta 0.30, DTE window 7 days).
func NewSelector(data broker.MarketData, cfg SelectorConfig, logger zerolog.Logger) *Selector {
	targetDelta := cfg.TargetDelta
	if targetDelta == 0 {
		targetDelta = DefaultTargetDelta
	}
	maxDTE := cfg.MaxDTE
	if maxDTE == 0 {
		maxDTE = DefaultMaxDTE
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Selector{
		data:        data,
		targetDelta: targetDelta,
		maxDTE:      maxDTE,
		now:         now,
		logger:      logger,
	}
}

// Select finds the contract for (symbol, right) whose absolute delta is
// nearest the target. Ties break on input order, first seen wins.
func (s *Selector) Select(ctx context.Context, symbol string, right models.OptionRight) (*models.ContractCandidate, error) {
	chain, err := s.data.GetOptionChain(ctx, symbol)
	if err != nil {
		return nil, errors.NewMarketDataError(symbol, errors.Wrap(err, "fetching option chain"))
	}
	if chain == nil || len(chain.Expirations) == 0 {
		return nil, errors.NewMarketDataError(symbol, errors.ErrEmptyChain)
	}

	expiry := s.pickExpiry(chain.Expirations)

	quotes, err := s.data.GetOptionQuotes(ctx, symbol, expiry)
	if err != nil {
		return nil, errors.NewMarketDataError(symbol, errors.Wrap(err, "fetching option quotes"))
	}
	if len(quotes) == 0 {
		return nil, errors.NewMarketDataError(symbol, errors.ErrEmptyChain)
	}

	var best *models.ContractCandidate
	var bestDist float64
	for _, q := range quotes {
		leg := q.Leg(right)
		if leg == nil || leg.ContractID == "" {
			continue
		}

		candidate := models.ContractCandidate{
			ContractID: leg.ContractID,
			Strike:     q.Strike,
			Delta:      math.Abs(leg.Delta),
			LastPrice:  leg.LastPrice,
			Expiry:     expiry,
		}
		dist := math.Abs(candidate.Delta - s.targetDelta)
		if best == nil || dist < bestDist {
			c := candidate
			best = &c
			bestDist = dist
		}
	}

	if best == nil {
		return nil, errors.NewMarketDataError(symbol, errors.ErrNoCandidates)
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Str("contract", best.ContractID).
		Float64("strike", best.Strike).
		Float64("delta", best.Delta).
		Time("expiry", best.Expiry).
		Msg("Contract selected")
	return best, nil
}

// pickExpiry scans expirations in source order and takes the first inside
// the (0, maxDTE] window. When nothing qualifies it falls back to the first
// listed expiry; a window miss alone never fails the selection.
func (s *Selector) pickExpiry(expirations []time.Time) time.Time {
	now := s.now()
	for _, exp := range expirations {
		days := exp.Sub(now).Hours() / 24
		if days > 0 && days <= float64(s.maxDTE) {
			return exp
		}
	}
	return expirations[0]
}
