package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"signal-router/internal/broker"
)

func newLoginCmd(app *App) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Complete the Kite Connect browser login",
		Long: `Complete the Kite Connect OAuth flow.

Run without flags to print the login URL, open it in a browser, then re-run
with --token set to the request_token from the redirect URL. The resulting
session is persisted and picked up by 'signal-router serve'.`,
		Example: `  signal-router login
  signal-router login --token=<request_token>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(app, token)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "request_token from the OAuth redirect URL")
	return cmd
}

func runLogin(app *App, token string) error {
	cfg := app.Config
	if cfg.Broker.Kite.APIKey == "" {
		return fmt.Errorf("kite credentials not configured; the paper broker needs no login")
	}

	kb := broker.NewKiteBroker(broker.KiteConfig{
		APIKey:    cfg.Broker.Kite.APIKey,
		APISecret: cfg.Broker.Kite.APISecret,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if token == "" {
		if err := kb.Login(ctx, cfg.Broker.Username, cfg.Broker.Password); err != nil {
			// The error carries the login URL and instructions.
			fmt.Println(err)
			return nil
		}
		fmt.Println("Session is valid, no login needed.")
		return nil
	}

	if err := kb.CompleteLogin(ctx, token); err != nil {
		return fmt.Errorf("failed to complete login: %w", err)
	}

	app.Logger.Info().Msg("Kite session established")
	fmt.Println("Login successful, session persisted.")
	return nil
}
