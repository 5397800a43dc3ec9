package trading

import "math"

// priceFloor guards the divisors so that a zero or garbage price can never
// produce a division blowup or a zero-quantity order.
const priceFloor = 0.01

// SharesFromNotional converts a dollar notional into a share quantity at
// price, flooring toward zero but never below one share.
func SharesFromNotional(notional, price float64) int {
	qty := int(math.Floor(notional / math.Max(price, priceFloor)))
	if qty < 1 {
		return 1
	}
	return qty
}

// ContractsFromNotional converts a dollar notional into an option contract
// quantity at premiumPerShare. One contract covers 100 underlying shares.
func ContractsFromNotional(notional, premiumPerShare float64) int {
	qty := int(math.Floor(notional / math.Max(premiumPerShare*100, priceFloor)))
	if qty < 1 {
		return 1
	}
	return qty
}
