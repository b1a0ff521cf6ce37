package pool

import (
	"TokenSim/internal/allocation"
	"TokenSim/internal/amm"
	"TokenSim/internal/calculator"
	"TokenSim/internal/invariant"
	"TokenSim/internal/model"
)

// Options control the volatility state machine.
type Options struct {
	Timestep int
	// ResetEachTimestep restarts the price range at every adoption buy
	// instead of only on the first timestep.
	ResetEachTimestep bool
}

// Settle commits a stage candidate to a copy of the pool and routes its
// balance effects to a copy of the ledger.
func Settle(p model.Pool, ledger model.Ledger, cand amm.Candidate, opts Options) (model.Pool, model.Ledger, error) {
	next := p
	next.Reserves = cand.After
	next.ConstantProduct = cand.ConstantProduct
	next.Price = cand.Price

	if cand.Kind == amm.StageAdoptionBuy && (opts.Timestep == 1 || opts.ResetEachTimestep) {
		next.MaxPrice = cand.Price
		next.MinPrice = cand.Price
	} else {
		next.MaxPrice, next.MinPrice = calculator.UpdatePriceRange(
			next.MaxPrice, next.MinPrice, cand.Price, p.SeedPrice, opts.Timestep == 1)
	}
	next.Valuation = next.USDC + next.Tokens*next.Price
	next.Volatility = calculator.CalculateVolatility(next.MaxPrice, next.MinPrice)

	out := ledger
	var err error
	switch cand.Kind {
	case amm.StageAdoptionBuy:
		next.AfterAdoption = cand.After
		out, err = creditAdoptionBuys(ledger, cand.Before.Tokens-cand.After.Tokens)
	case amm.StageVestingSell:
		out, err = debitHoldingSales(ledger, cand.Volume.HoldingSales)
	case amm.StageLiquidityAddition:
		next.AfterLiquidityAddition = cand.After
	case amm.StageBuyback:
		next.AfterBuyback = cand.After
	}
	if err != nil {
		return model.Pool{}, nil, err
	}
	return next, out, nil
}

// creditAdoptionBuys splits the tokens removed from the pool equally among
// the cohorts that buy on adoption.
func creditAdoptionBuys(ledger model.Ledger, bought float64) (model.Ledger, error) {
	if bought == 0 {
		return ledger, nil
	}
	var buyers []int
	for i, a := range ledger {
		if allocation.CapabilityOf(a.Category).BuysAdoption {
			buyers = append(buyers, i)
		}
	}
	if len(buyers) == 0 {
		return nil, invariant.Configuration("adoption buy settlement",
			"%g tokens were bought from the pool but no agent receives adoption buys", bought)
	}
	out := ledger.Clone()
	share := bought / float64(len(buyers))
	for _, i := range buyers {
		out[i].Balance += share
	}
	return out, nil
}

// debitHoldingSales removes each agent's sale from standing holdings, using
// the amounts carried over from the stage computation.
func debitHoldingSales(ledger model.Ledger, sales map[model.AgentID]float64) (model.Ledger, error) {
	if len(sales) == 0 {
		return ledger, nil
	}
	out := ledger.Clone()
	for i := range out {
		a := &out[i]
		amt, ok := sales[a.ID]
		if !ok || amt == 0 {
			continue
		}
		if a.Balance-amt < 0 {
			return nil, invariant.Configuration("vesting sell settlement",
				"agent %s has less tokens: %g than planned selling from holding %g", a.Name, a.Balance, amt)
		}
		a.Balance -= amt
	}
	return out, nil
}
