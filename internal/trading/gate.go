// Package trading holds the decision engine: session gating, sizing,
// contract selection and the order router.
package trading

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"

	"signal-router/internal/broker"
	"signal-router/internal/errors"
)

// SessionState is the tri-state of the broker session.
type SessionState int32

const (
	StateNotLoggedIn SessionState = iota
	StateLoggingIn
	StateLoggedIn
)

func (s SessionState) String() string {
	switch s {
	case StateLoggingIn:
		return "LOGGING_IN"
	case StateLoggedIn:
		return "LOGGED_IN"
	default:
		return "NOT_LOGGED_IN"
	}
}

// Credentials holds the broker login material. TradingPIN may be replaced
// by a TOTP secret, in which case the one-time PIN is derived per login.
type Credentials struct {
	Username   string
	Password   string
	TradingPIN string
	TOTPSecret string
}

func (c Credentials) complete() bool {
	return c.Username != "" && c.Password != "" && (c.TradingPIN != "" || c.TOTPSecret != "")
}

// Gate lazily establishes a single broker session. Login is deferred to the
// first trade request: eager login at startup can block indefinitely when
// the account requires multi-factor confirmation.
type Gate struct {
	session broker.Session
	creds   Credentials
	logger  zerolog.Logger

	state atomic.Int32
	mu    sync.Mutex
}

// NewGate creates a session gate.
func NewGate(session broker.Session, creds Credentials, logger zerolog.Logger) *Gate {
	return &Gate{session: session, creds: creds, logger: logger}
}

// State returns the current session state.
func (g *Gate) State() SessionState {
	return SessionState(g.state.Load())
}

// EnsureLoggedIn performs login and trade-token provisioning exactly once.
// Concurrent callers serialize on the slow path; once LoggedIn the state
// never reverts within the process. A failed attempt leaves the gate
// retryable on the next call.
func (g *Gate) EnsureLoggedIn(ctx context.Context) error {
	if SessionState(g.state.Load()) == StateLoggedIn {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Re-check under the lock: another caller may have won the race.
	if SessionState(g.state.Load()) == StateLoggedIn {
		return nil
	}

	if !g.creds.complete() {
		return errors.NewSessionError("credentials", errors.ErrMissingCredential)
	}

	g.state.Store(int32(StateLoggingIn))

	if err := g.session.Login(ctx, g.creds.Username, g.creds.Password); err != nil {
		g.state.Store(int32(StateNotLoggedIn))
		g.logger.Warn().Err(err).Msg("Broker login failed")
		return errors.NewSessionError("login", err)
	}

	pin := g.creds.TradingPIN
	if pin == "" {
		code, err := totp.GenerateCode(g.creds.TOTPSecret, time.Now())
		if err != nil {
			g.state.Store(int32(StateNotLoggedIn))
			return errors.NewSessionError("trade_token", errors.Wrap(err, "deriving TOTP pin"))
		}
		pin = code
	}

	if err := g.session.ProvisionTradeToken(ctx, pin); err != nil {
		g.state.Store(int32(StateNotLoggedIn))
		g.logger.Warn().Err(err).Msg("Trade token provisioning failed")
		return errors.NewSessionError("trade_token", err)
	}

	g.state.Store(int32(StateLoggedIn))
	g.logger.Info().Str("user", g.creds.Username).Msg("Broker session established")
	return nil
}
