package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"signal-router/internal/models"
)

// KiteBroker implements the broker capabilities over Zerodha Kite Connect.
// Kite sessions are OAuth-based: Login succeeds only when a persisted
// session is still valid; otherwise it reports the login URL so the
// operator can complete the browser flow out-of-band.
type KiteBroker struct {
	client    *kiteconnect.Client
	apiKey    string
	apiSecret string
	tokenPath string

	mu            sync.RWMutex
	accessToken   string
	authenticated bool
	instruments   []kiteconnect.Instrument
	instrumentsAt time.Time
}

// KiteConfig holds configuration for the Kite broker.
type KiteConfig struct {
	APIKey    string
	APISecret string
	TokenPath string
}

// NewKiteBroker creates a Kite broker and loads any persisted session.
func NewKiteBroker(cfg KiteConfig) *KiteBroker {
	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		homeDir, _ := os.UserHomeDir()
		tokenPath = filepath.Join(homeDir, ".config", "signal-router", "kite-session.json")
	}

	kb := &KiteBroker{
		client:    kiteconnect.New(cfg.APIKey),
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		tokenPath: tokenPath,
	}
	_ = kb.loadSession()
	return kb
}

type kiteSessionData struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login verifies the persisted session. Kite ignores username/password here;
// its OAuth flow collects them in the browser.
func (k *KiteBroker) Login(ctx context.Context, username, password string) error {
	if err := k.loadSession(); err == nil && k.isAuthenticated() {
		if _, err := k.client.GetUserProfile(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("kite session required: complete login at %s and call CompleteLogin with the request token", k.client.GetLoginURL())
}

// CompleteLogin exchanges a request token from the OAuth redirect for an
// access token and persists it.
func (k *KiteBroker) CompleteLogin(ctx context.Context, requestToken string) error {
	session, err := k.client.GenerateSession(requestToken, k.apiSecret)
	if err != nil {
		return fmt.Errorf("failed to generate session: %w", err)
	}

	k.mu.Lock()
	k.accessToken = session.AccessToken
	k.authenticated = true
	k.client.SetAccessToken(session.AccessToken)
	k.mu.Unlock()

	return k.saveSession(session.AccessToken)
}

// ProvisionTradeToken confirms the session can reach the trading scope.
// Kite has no separate trade token; a margins probe is the closest check.
func (k *KiteBroker) ProvisionTradeToken(ctx context.Context, pin string) error {
	if !k.isAuthenticated() {
		return fmt.Errorf("not authenticated")
	}
	if _, err := k.client.GetUserMargins(); err != nil {
		return fmt.Errorf("trading scope unavailable: %w", err)
	}
	return nil
}

// GetOptionChain lists option expirations for symbol from the NFO
// instrument dump, nearest first.
func (k *KiteBroker) GetOptionChain(ctx context.Context, symbol string) (*OptionChain, error) {
	instruments, err := k.optionInstruments(symbol)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var expirations []time.Time
	for _, inst := range instruments {
		key := inst.Expiry.Time.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		expirations = append(expirations, inst.Expiry.Time)
	}
	sort.Slice(expirations, func(i, j int) bool { return expirations[i].Before(expirations[j]) })

	return &OptionChain{Symbol: symbol, Expirations: expirations}, nil
}

// GetOptionQuotes fetches per-strike quotes for one expiry. Kite quotes
// carry no greeks, so leg deltas stay zero and delta-nearest selection
// degrades to first-listed for this adapter.
func (k *KiteBroker) GetOptionQuotes(ctx context.Context, symbol string, expiry time.Time) ([]OptionQuote, error) {
	instruments, err := k.optionInstruments(symbol)
	if err != nil {
		return nil, err
	}

	byStrike := make(map[float64]*OptionQuote)
	var strikes []float64
	for _, inst := range instruments {
		if !sameDay(inst.Expiry.Time, expiry) {
			continue
		}

		quote, ok := byStrike[inst.StrikePrice]
		if !ok {
			quote = &OptionQuote{Strike: inst.StrikePrice}
			byStrike[inst.StrikePrice] = quote
			strikes = append(strikes, inst.StrikePrice)
		}

		ltp := k.lastPrice(fmt.Sprintf("NFO:%s", inst.Tradingsymbol))
		leg := &OptionLeg{ContractID: inst.Tradingsymbol, LastPrice: ltp}
		switch inst.InstrumentType {
		case "CE":
			quote.Call = leg
		case "PE":
			quote.Put = leg
		}
	}

	sort.Float64s(strikes)
	out := make([]OptionQuote, 0, len(strikes))
	for _, s := range strikes {
		out = append(out, *byStrike[s])
	}
	return out, nil
}

// PlaceEquityOrder places a market order on NSE.
func (k *KiteBroker) PlaceEquityOrder(ctx context.Context, symbol string, side models.OrderSide, qty int) (*OrderResult, error) {
	return k.placeOrder("NSE", symbol, side, "MIS", qty)
}

// PlaceOptionOrder places a market order for contractID on NFO.
func (k *KiteBroker) PlaceOptionOrder(ctx context.Context, symbol string, side models.OrderSide, contractID string, contracts int) (*OrderResult, error) {
	return k.placeOrder("NFO", contractID, side, "NRML", contracts)
}

func (k *KiteBroker) placeOrder(exchange, tradingsymbol string, side models.OrderSide, product string, qty int) (*OrderResult, error) {
	if !k.isAuthenticated() {
		return nil, fmt.Errorf("not authenticated")
	}

	resp, err := k.client.PlaceOrder(kiteconnect.VarietyRegular, kiteconnect.OrderParams{
		Exchange:        exchange,
		Tradingsymbol:   tradingsymbol,
		TransactionType: string(side),
		OrderType:       "MARKET",
		Product:         product,
		Quantity:        qty,
		Validity:        "DAY",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	return &OrderResult{
		OrderID: resp.OrderID,
		Status:  "PLACED",
		Message: "order placed",
	}, nil
}

func (k *KiteBroker) optionInstruments(symbol string) ([]kiteconnect.Instrument, error) {
	if !k.isAuthenticated() {
		return nil, fmt.Errorf("not authenticated")
	}

	k.mu.RLock()
	cached := k.instruments
	cachedAt := k.instrumentsAt
	k.mu.RUnlock()

	if cached == nil || time.Since(cachedAt) > time.Hour {
		all, err := k.client.GetInstrumentsByExchange("NFO")
		if err != nil {
			return nil, fmt.Errorf("failed to get instruments: %w", err)
		}
		k.mu.Lock()
		k.instruments = all
		k.instrumentsAt = time.Now()
		cached = all
		k.mu.Unlock()
	}

	var filtered []kiteconnect.Instrument
	for _, inst := range cached {
		if inst.Name != symbol {
			continue
		}
		if inst.InstrumentType != "CE" && inst.InstrumentType != "PE" {
			continue
		}
		filtered = append(filtered, inst)
	}
	return filtered, nil
}

func (k *KiteBroker) lastPrice(symbol string) float64 {
	ltps, err := k.client.GetLTP(symbol)
	if err != nil {
		return 0
	}
	if q, ok := ltps[symbol]; ok {
		return q.LastPrice
	}
	return 0
}

func (k *KiteBroker) isAuthenticated() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.authenticated
}

func (k *KiteBroker) loadSession() error {
	data, err := os.ReadFile(k.tokenPath)
	if err != nil {
		return err
	}

	var session kiteSessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}
	if time.Now().After(session.ExpiresAt) {
		return fmt.Errorf("session expired")
	}

	k.mu.Lock()
	k.accessToken = session.AccessToken
	k.authenticated = true
	k.client.SetAccessToken(session.AccessToken)
	k.mu.Unlock()
	return nil
}

func (k *KiteBroker) saveSession(accessToken string) error {
	if err := os.MkdirAll(filepath.Dir(k.tokenPath), 0700); err != nil {
		return err
	}

	// Kite tokens expire at 6 AM IST the next day.
	loc, _ := time.LoadLocation("Asia/Kolkata")
	now := time.Now().In(loc)
	session := kiteSessionData{
		AccessToken: accessToken,
		ExpiresAt:   time.Date(now.Year(), now.Month(), now.Day()+1, 6, 0, 0, 0, loc),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return os.WriteFile(k.tokenPath, data, 0600)
}

func sameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

var _ Broker = (*KiteBroker)(nil)
