package cli

import (
	"testing"

	"github.com/rs/zerolog"

	"signal-router/internal/config"
)

func TestRootCommandWiring(t *testing.T) {
	root := NewRootCmd(&config.Config{}, zerolog.Nop())

	for _, name := range []string{"serve", "login", "version"} {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected %q subcommand to be registered", name)
		}
	}
}

func TestLoginRequiresKiteCredentials(t *testing.T) {
	app := &App{Config: &config.Config{}, Logger: zerolog.Nop()}

	if err := runLogin(app, ""); err == nil {
		t.Fatal("login without kite credentials must fail")
	}
	if err := runLogin(app, "some-token"); err == nil {
		t.Fatal("token exchange without kite credentials must fail")
	}
}
