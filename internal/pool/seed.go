// Package pool seeds the liquidity pool and commits AMM stage candidates,
// routing their balance effects back to the agents.
package pool

import (
	"TokenSim/internal/invariant"
	"TokenSim/internal/model"
)

// Seed initialises the pool from the configured reserves. The USDC side is
// funded from raised investor capital and fails if that is insufficient.
func Seed(r model.Reserves, raisedCapital float64) (model.Pool, error) {
	if r.Tokens <= 0 || r.USDC <= 0 {
		return model.Pool{}, invariant.Configuration("pool seeding",
			"seed reserves must be positive, got %g tokens and %g USDC", r.Tokens, r.USDC)
	}
	if r.USDC > raisedCapital {
		return model.Pool{}, invariant.Configuration("pool seeding",
			"the required funds to seed the DEX liquidity are %g, which is higher than the sum of raised capital %g",
			r.USDC, raisedCapital)
	}
	price := r.Price()
	return model.Pool{
		Reserves:        r,
		ConstantProduct: r.Product(),
		Price:           price,
		MaxPrice:        price,
		MinPrice:        price,
		Valuation:       r.USDC + r.Tokens*price,
		SeedPrice:       price,
		Seeded:          true,
	}, nil
}
