package trading

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSharesFromNotional(t *testing.T) {
	tests := []struct {
		name     string
		notional float64
		price    float64
		want     int
	}{
		{"exact division", 5000, 250.0, 20},
		{"floors toward zero", 5000, 333.0, 15},
		{"tiny notional still one share", 10, 400.0, 1},
		{"zero price hits floor", 5000, 0, 500000},
		{"negative price hits floor", 5000, -10, 500000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SharesFromNotional(tt.notional, tt.price); got != tt.want {
				t.Fatalf("SharesFromNotional(%v, %v) = %d, want %d", tt.notional, tt.price, got, tt.want)
			}
		})
	}
}

func TestContractsFromNotional(t *testing.T) {
	tests := []struct {
		name     string
		notional float64
		premium  float64
		want     int
	}{
		{"exact division", 5000, 2.50, 20},
		{"floors toward zero", 5000, 3.33, 15},
		{"tiny notional still one contract", 50, 5.0, 1},
		{"zero premium hits floor", 5000, 0, 500000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContractsFromNotional(tt.notional, tt.premium); got != tt.want {
				t.Fatalf("ContractsFromNotional(%v, %v) = %d, want %d", tt.notional, tt.premium, got, tt.want)
			}
		})
	}
}

// Property: sizing never returns less than one unit, and quantity is
// nonincreasing in price for a fixed notional.
func TestProperty_SizingAlwaysPositive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	notionalGen := gen.Float64Range(0, 100000)
	priceGen := gen.Float64Range(0, 10000)

	properties.Property("shares quantity is always >= 1", prop.ForAll(
		func(notional, price float64) bool {
			return SharesFromNotional(notional, price) >= 1
		},
		notionalGen,
		priceGen,
	))

	properties.Property("contract quantity is always >= 1", prop.ForAll(
		func(notional, premium float64) bool {
			return ContractsFromNotional(notional, premium) >= 1
		},
		notionalGen,
		priceGen,
	))

	properties.Property("shares quantity nonincreasing in price", prop.ForAll(
		func(notional, price, bump float64) bool {
			return SharesFromNotional(notional, price+bump) <= SharesFromNotional(notional, price)
		},
		gen.Float64Range(1, 100000),
		gen.Float64Range(0.01, 10000),
		gen.Float64Range(0, 1000),
	))

	properties.TestingRun(t)
}
