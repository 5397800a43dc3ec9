package models

import "testing"

func validSignal() Signal {
	return Signal{
		Source:         "scanner",
		TimestampET:    "2024-06-03 10:00:00",
		Product:        ProductEquity,
		Symbol:         "SPY",
		Bias:           BiasCall,
		Confidence:     80,
		Price:          250,
		IdempotencyKey: "key-1",
	}
}

func TestNormalize(t *testing.T) {
	s := Signal{Symbol: " spy ", Bias: "call", Right: "put"}
	s.Normalize()

	if s.Symbol != "SPY" {
		t.Fatalf("expected upper-cased trimmed symbol, got %q", s.Symbol)
	}
	if s.Bias != BiasCall {
		t.Fatalf("expected canonical bias, got %q", s.Bias)
	}
	if s.Right != RightPut {
		t.Fatalf("expected canonical right, got %q", s.Right)
	}
	if s.Product != ProductEquity {
		t.Fatalf("empty product must default to equity, got %q", s.Product)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Signal)
		wantField string
	}{
		{"valid", nil, ""},
		{"neutral bias is valid", func(s *Signal) { s.Bias = BiasNeutral }, ""},
		{"option product is valid", func(s *Signal) { s.Product = ProductOption }, ""},
		{"missing symbol", func(s *Signal) { s.Symbol = "" }, "symbol"},
		{"unknown bias", func(s *Signal) { s.Bias = "SIDEWAYS" }, "bias"},
		{"unknown product", func(s *Signal) { s.Product = "future" }, "product"},
		{"zero price", func(s *Signal) { s.Price = 0 }, "price"},
		{"negative price", func(s *Signal) { s.Price = -1 }, "price"},
		{"missing idempotency key", func(s *Signal) { s.IdempotencyKey = "" }, "idempotency_key"},
		{"negative contracts", func(s *Signal) { s.Contracts = -1 }, "contracts"},
		{"unknown right", func(s *Signal) { s.Right = "STRADDLE" }, "right"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSignal()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			err := s.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			fieldErr, ok := err.(*FieldError)
			if !ok {
				t.Fatalf("expected FieldError, got %T: %v", err, err)
			}
			if fieldErr.Field != tt.wantField {
				t.Fatalf("expected field %q, got %q", tt.wantField, fieldErr.Field)
			}
		})
	}
}

func TestBiasSide(t *testing.T) {
	if got := BiasCall.Side(); got != OrderSideBuy {
		t.Fatalf("CALL must buy, got %s", got)
	}
	if got := BiasPut.Side(); got != OrderSideSell {
		t.Fatalf("PUT must sell, got %s", got)
	}
	if BiasNeutral.IsDirectional() {
		t.Fatal("NEUTRAL must not be directional")
	}
}

func TestOptionRightForOrder(t *testing.T) {
	s := validSignal()
	if got := s.OptionRightForOrder(); got != RightCall {
		t.Fatalf("CALL bias implies call right, got %s", got)
	}

	s.Bias = BiasPut
	if got := s.OptionRightForOrder(); got != RightPut {
		t.Fatalf("PUT bias implies put right, got %s", got)
	}

	s.Right = RightCall
	if got := s.OptionRightForOrder(); got != RightCall {
		t.Fatalf("explicit right must override bias, got %s", got)
	}
}
