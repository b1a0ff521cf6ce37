// Package amm implements the weighted constant-product pool maths and the
// ordered list of per-timestep transaction stages.
package amm

import (
	"fmt"
	"math"

	"TokenSim/internal/model"
)

// Curve holds the pool weights. Equal weights give a plain x·y=k pool.
type Curve struct {
	TokenWeight float64
	USDCWeight  float64
}

// DefaultCurve is the 50/50 pool.
var DefaultCurve = Curve{TokenWeight: 0.5, USDCWeight: 0.5}

// Validate rejects non-positive weights.
func (c Curve) Validate() error {
	if c.TokenWeight <= 0 || c.USDCWeight <= 0 {
		return fmt.Errorf("pool weights must be positive, got token=%g usdc=%g", c.TokenWeight, c.USDCWeight)
	}
	return nil
}

// BuyTokens swaps usdcIn into the pool and removes the matching tokens.
func (c Curve) BuyTokens(r model.Reserves, usdcIn float64) model.Reserves {
	if usdcIn == 0 || r.USDC+usdcIn == 0 {
		return r
	}
	out := r.Tokens * (1 - math.Pow(r.USDC/(r.USDC+usdcIn), c.USDCWeight/c.TokenWeight))
	return model.Reserves{Tokens: r.Tokens - out, USDC: r.USDC + usdcIn}
}

// SellTokens swaps tokensIn into the pool and removes the matching USDC.
func (c Curve) SellTokens(r model.Reserves, tokensIn float64) model.Reserves {
	if tokensIn == 0 || r.Tokens+tokensIn == 0 {
		return r
	}
	out := r.USDC * (1 - math.Pow(r.Tokens/(r.Tokens+tokensIn), c.TokenWeight/c.USDCWeight))
	return model.Reserves{Tokens: r.Tokens + tokensIn, USDC: r.USDC - out}
}

// AddLiquidity grows both reserves at the prevailing price. A negative
// amount withdraws liquidity.
func (c Curve) AddLiquidity(r model.Reserves, tokens, price float64) model.Reserves {
	return model.Reserves{Tokens: r.Tokens + tokens, USDC: r.USDC + tokens*price}
}

// Invariant is the quantity a pure swap preserves: tokens^(wT/wU) · usdc.
// For equal weights it is the constant product.
func (c Curve) Invariant(r model.Reserves) float64 {
	if c.TokenWeight == c.USDCWeight {
		return r.Product()
	}
	return math.Pow(r.Tokens, c.TokenWeight/c.USDCWeight) * r.USDC
}

// Price returns usdc/tokens floored at 0.
func Price(r model.Reserves) float64 {
	return math.Max(r.Price(), 0)
}
