package trading

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"signal-router/internal/broker"
	"signal-router/internal/dedup"
	"signal-router/internal/errors"
	"signal-router/internal/models"
	"signal-router/internal/security"
)

// DefaultNotional is the target dollar exposure per trade.
const DefaultNotional = 5000.0

// DefaultPremiumFloor guards option premiums against a zero-cost sizing
// degenerate.
const DefaultPremiumFloor = 0.05

// RouterConfig holds routing policy.
type RouterConfig struct {
	Notional        float64
	DryRun          bool
	PremiumFloor    float64
	ExcludedSymbols []string
}

// Router converts an authenticated signal into exactly one Decision.
// It owns the shared dedup cache and session gate; everything else it
// touches is stateless per call.
type Router struct {
	verifier *security.SignatureVerifier
	dedup    dedup.Cache
	gate     *Gate
	selector *Selector
	orders   broker.OrderPlacement
	logger   zerolog.Logger

	notional     float64
	dryRun       bool
	premiumFloor float64
	excluded     map[string]bool
}

// NewRouter creates an order router.
func NewRouter(
	verifier *security.SignatureVerifier,
	dedupCache dedup.Cache,
	gate *Gate,
	selector *Selector,
	orders broker.OrderPlacement,
	cfg RouterConfig,
	logger zerolog.Logger,
) *Router {
	notional := cfg.Notional
	if notional == 0 {
		notional = DefaultNotional
	}
	premiumFloor := cfg.PremiumFloor
	if premiumFloor == 0 {
		premiumFloor = DefaultPremiumFloor
	}
	excluded := make(map[string]bool, len(cfg.ExcludedSymbols))
	for _, sym := range cfg.ExcludedSymbols {
		excluded[strings.ToUpper(strings.TrimSpace(sym))] = true
	}
	return &Router{
		verifier:     verifier,
		dedup:        dedupCache,
		gate:         gate,
		selector:     selector,
		orders:       orders,
		logger:       logger,
		notional:     notional,
		dryRun:       cfg.DryRun,
		premiumFloor: premiumFloor,
		excluded:     excluded,
	}
}

// Route runs the full admission and dispatch pipeline for one raw signal
// payload. Steps are strictly sequential; every error it returns belongs to
// the taxonomy in the errors package.
func (r *Router) Route(ctx context.Context, body []byte, signature string) (*models.Decision, error) {
	if !r.verifier.Verify(body, signature) {
		return nil, errors.NewAuthenticationError(errors.ErrBadSignature)
	}

	var sig models.Signal
	if err := json.Unmarshal(body, &sig); err != nil {
		return nil, errors.NewValidationError(err)
	}
	sig.Normalize()
	if err := sig.Validate(); err != nil {
		return nil, errors.NewValidationError(err)
	}

	logger := r.logger.With().
		Str("symbol", sig.Symbol).
		Str("bias", string(sig.Bias)).
		Str("idempotency_key", sig.IdempotencyKey).
		Logger()

	dup, err := r.dedup.IsDuplicate(ctx, sig.IdempotencyKey)
	if err != nil {
		return nil, errors.Wrap(err, "dedup check")
	}
	if dup {
		logger.Info().Msg("Duplicate signal ignored")
		return r.decision(&sig, models.StatusDuplicateIgnored, nil), nil
	}

	if !sig.Bias.IsDirectional() {
		logger.Info().Msg("Neutral signal ignored")
		return r.decision(&sig, models.StatusIgnoredNeutral, nil), nil
	}

	if r.excluded[sig.Symbol] {
		return nil, errors.NewUnsupportedInstrumentError(sig.Symbol)
	}

	side := sig.Bias.Side()

	if r.dryRun {
		d := r.decision(&sig, models.StatusDryRun, nil)
		d.Side = side
		d.Product = sig.Product
		if sig.Product == models.ProductEquity {
			d.Quantity = SharesFromNotional(r.notional, sig.Price)
		} else if sig.Contracts > 0 {
			d.Quantity = sig.Contracts
		}
		logger.Info().Str("side", string(side)).Msg("Dry run, order not dispatched")
		return d, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.gate.EnsureLoggedIn(ctx); err != nil {
		return nil, err
	}

	if sig.Product == models.ProductOption {
		return r.routeOption(ctx, logger, &sig, side)
	}
	return r.routeEquity(ctx, logger, &sig, side)
}

// routeEquity is the base path: no fallback, broker failures surface
// directly.
func (r *Router) routeEquity(ctx context.Context, logger zerolog.Logger, sig *models.Signal, side models.OrderSide) (*models.Decision, error) {
	qty := SharesFromNotional(r.notional, sig.Price)

	res, err := r.orders.PlaceEquityOrder(ctx, sig.Symbol, side, qty)
	if err != nil {
		return nil, errors.NewOrderPlacementError(sig.Symbol, "equity", err)
	}

	logger.Info().Str("order_id", res.OrderID).Int("quantity", qty).Msg("Equity order submitted")
	d := r.decision(sig, models.StatusSubmittedEquity, res)
	d.Side = side
	d.Product = models.ProductEquity
	d.Quantity = qty
	return d, nil
}

// routeOption tries contract selection and option placement, falling back
// to a single equity attempt on any failure. The fallback's own failure is
// terminal.
func (r *Router) routeOption(ctx context.Context, logger zerolog.Logger, sig *models.Signal, side models.OrderSide) (*models.Decision, error) {
	candidate, optErr := r.selector.Select(ctx, sig.Symbol, sig.OptionRightForOrder())

	if optErr == nil {
		premium := candidate.LastPrice
		if premium < r.premiumFloor {
			premium = r.premiumFloor
		}

		contracts := sig.Contracts
		if contracts == 0 {
			contracts = ContractsFromNotional(r.notional, premium)
		}
		if contracts <= 0 {
			optErr = errors.Wrap(errors.ErrNoCandidates, "computed non-positive contract count")
		} else {
			res, err := r.orders.PlaceOptionOrder(ctx, sig.Symbol, side, candidate.ContractID, contracts)
			if err == nil {
				logger.Info().
					Str("order_id", res.OrderID).
					Str("contract", candidate.ContractID).
					Int("contracts", contracts).
					Msg("Option order submitted")
				d := r.decision(sig, models.StatusSubmittedOption, res)
				d.Side = side
				d.Product = models.ProductOption
				d.Quantity = contracts
				d.Contract = candidate.ContractID
				return d, nil
			}
			optErr = errors.NewOrderPlacementError(sig.Symbol, "option", err)
		}
	}

	// Option path failed: one equity fallback attempt, then give up.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Warn().Err(optErr).Msg("Option path failed, falling back to equity")

	qty := SharesFromNotional(r.notional, sig.Price)
	res, err := r.orders.PlaceEquityOrder(ctx, sig.Symbol, side, qty)
	if err != nil {
		return nil, errors.NewOrderPlacementError(sig.Symbol, "equity_fallback",
			errors.Wrap(err, "after option failure: "+optErr.Error()))
	}

	logger.Info().Str("order_id", res.OrderID).Int("quantity", qty).Msg("Fallback equity order submitted")
	d := r.decision(sig, models.StatusFallbackEquity, res)
	d.Side = side
	d.Product = models.ProductEquity
	d.Quantity = qty
	d.Reason = optErr.Error()
	if candidate != nil {
		d.Contract = candidate.ContractID
	}
	return d, nil
}

func (r *Router) decision(sig *models.Signal, status models.DecisionStatus, res *broker.OrderResult) *models.Decision {
	d := &models.Decision{
		Status:    status,
		Symbol:    sig.Symbol,
		DecidedAt: time.Now().UTC(),
	}
	if res != nil {
		d.OrderID = res.OrderID
		d.Result = res.Status
	}
	return d
}
