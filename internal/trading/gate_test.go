package trading

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"signal-router/internal/errors"
)

// fakeSession counts calls and fails on demand.
type fakeSession struct {
	mu          sync.Mutex
	loginCalls  int
	tokenCalls  int
	failLogins  int
	failTokens  int
	lastPIN      string
	lastUser     string
	lastPassword string
}

func (f *fakeSession) Login(ctx context.Context, username, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	f.lastUser = username
	f.lastPassword = password
	if f.failLogins > 0 {
		f.failLogins--
		return fmt.Errorf("login rejected")
	}
	return nil
}

func (f *fakeSession) ProvisionTradeToken(ctx context.Context, pin string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	f.lastPIN = pin
	if f.failTokens > 0 {
		f.failTokens--
		return fmt.Errorf("pin rejected")
	}
	return nil
}

func testCreds() Credentials {
	return Credentials{Username: "trader", Password: "hunter2", TradingPIN: "123456"}
}

func TestGateLoginOnce(t *testing.T) {
	session := &fakeSession{}
	gate := NewGate(session, testCreds(), zerolog.Nop())

	if got := gate.State(); got != StateNotLoggedIn {
		t.Fatalf("fresh gate must start NOT_LOGGED_IN, got %s", got)
	}

	for i := 0; i < 3; i++ {
		if err := gate.EnsureLoggedIn(context.Background()); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	if session.loginCalls != 1 || session.tokenCalls != 1 {
		t.Fatalf("expected exactly one login+token sequence, got %d/%d", session.loginCalls, session.tokenCalls)
	}
	if gate.State() != StateLoggedIn {
		t.Fatalf("expected LOGGED_IN, got %s", gate.State())
	}
	if session.lastUser != "trader" || session.lastPassword != "hunter2" || session.lastPIN != "123456" {
		t.Fatalf("credentials not forwarded: user=%q pin=%q", session.lastUser, session.lastPIN)
	}
}

func TestGateConcurrentCallersSingleLogin(t *testing.T) {
	session := &fakeSession{}
	gate := NewGate(session, testCreds(), zerolog.Nop())

	const callers = 32
	var failures atomic.Int32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if err := gate.EnsureLoggedIn(context.Background()); err != nil {
				failures.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d callers failed", failures.Load())
	}
	if session.loginCalls != 1 {
		t.Fatalf("expected a single login across %d callers, got %d", callers, session.loginCalls)
	}
}

func TestGateMissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
	}{
		{"no username", Credentials{Password: "p", TradingPIN: "1"}},
		{"no password", Credentials{Username: "u", TradingPIN: "1"}},
		{"no pin or totp", Credentials{Username: "u", Password: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &fakeSession{}
			gate := NewGate(session, tt.creds, zerolog.Nop())

			err := gate.EnsureLoggedIn(context.Background())
			if !errors.Is(err, errors.ErrMissingCredential) {
				t.Fatalf("expected ErrMissingCredential, got %v", err)
			}
			if session.loginCalls != 0 {
				t.Fatal("login must not be attempted without complete credentials")
			}
		})
	}
}

func TestGateRetryableAfterFailure(t *testing.T) {
	tests := []struct {
		name      string
		session   *fakeSession
		wantStage string
	}{
		{"login failure", &fakeSession{failLogins: 1}, "login"},
		{"token failure", &fakeSession{failTokens: 1}, "trade_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(tt.session, testCreds(), zerolog.Nop())

			err := gate.EnsureLoggedIn(context.Background())
			if err == nil {
				t.Fatal("expected first attempt to fail")
			}
			var sessErr *errors.SessionError
			if !errors.As(err, &sessErr) {
				t.Fatalf("expected SessionError, got %T: %v", err, err)
			}
			if sessErr.Stage != tt.wantStage {
				t.Fatalf("expected stage %q, got %q", tt.wantStage, sessErr.Stage)
			}
			if gate.State() != StateNotLoggedIn {
				t.Fatalf("failed attempt must reset to NOT_LOGGED_IN, got %s", gate.State())
			}

			// The fault is consumed; the next attempt succeeds.
			if err := gate.EnsureLoggedIn(context.Background()); err != nil {
				t.Fatalf("retry should succeed: %v", err)
			}
			if gate.State() != StateLoggedIn {
				t.Fatalf("expected LOGGED_IN after retry, got %s", gate.State())
			}
		})
	}
}

func TestGateDerivesPINFromTOTP(t *testing.T) {
	session := &fakeSession{}
	creds := Credentials{Username: "trader", Password: "hunter2", TOTPSecret: "JBSWY3DPEHPK3PXP"}
	gate := NewGate(session, creds, zerolog.Nop())

	if err := gate.EnsureLoggedIn(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(session.lastPIN) != 6 {
		t.Fatalf("expected a 6-digit TOTP code, got %q", session.lastPIN)
	}
}

func TestGateBadTOTPSecret(t *testing.T) {
	session := &fakeSession{}
	creds := Credentials{Username: "trader", Password: "hunter2", TOTPSecret: "not base32!"}
	gate := NewGate(session, creds, zerolog.Nop())

	err := gate.EnsureLoggedIn(context.Background())
	if err == nil {
		t.Fatal("expected error from invalid TOTP secret")
	}
	if session.tokenCalls != 0 {
		t.Fatal("token provisioning must not run with an underivable pin")
	}
	if gate.State() != StateNotLoggedIn {
		t.Fatalf("expected NOT_LOGGED_IN, got %s", gate.State())
	}
}
