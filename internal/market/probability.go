package market

import (
	"math/big"

	"github.com/foresightmkt/foresight/internal/contracts"
)

// Prediction is the market's current leading outcome with its implied
// probability.
type Prediction struct {
	Outcome string
	Percent float64
}

// ComputePrediction derives the leading outcome from the pool's current
// sqrtPriceX96. The pool quotes the second outcome token in units of the
// first, so price = (sqrtPriceX96 / 2^96)^2; a price at or above 1 means the
// first outcome leads with probability price/(1+price), otherwise the second
// leads with 1/(1+price).
func ComputePrediction(market contracts.Market, sqrtPriceX96 *big.Int) Prediction {
	q := new(big.Float).Quo(
		new(big.Float).SetInt(sqrtPriceX96),
		new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96)),
	)

	price := new(big.Float).Mul(q, q)
	one := big.NewFloat(1)
	denominator := new(big.Float).Add(one, price)

	if price.Cmp(one) >= 0 {
		p, _ := new(big.Float).Quo(price, denominator).Float64()
		return Prediction{Outcome: market.Outcome1, Percent: p * 100}
	}

	p, _ := new(big.Float).Quo(one, denominator).Float64()

	return Prediction{Outcome: market.Outcome2, Percent: p * 100}
}
