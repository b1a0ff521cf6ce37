package allocation

import "TokenSim/internal/model"

// Compute converts each agent's percentage vector into absolute token
// flows. The result is index-aligned with the ledger. Compute never fails;
// balance checks belong to Settle.
func Compute(ledger model.Ledger) []model.Allocation {
	out := make([]model.Allocation, len(ledger))
	for i := range ledger {
		out[i] = computeAgent(&ledger[i])
	}
	return out
}

func computeAgent(a *model.Agent) model.Allocation {
	if !CapabilityOf(a.Category).Participates {
		return model.Allocation{}
	}
	acts := a.Actions
	inflow := a.Inflow()

	var al model.Allocation
	al.Selling = inflow * acts.Sell / 100
	al.Utility = inflow * acts.Utility / 100

	al.RemovedYield = a.YieldLock.Amount * acts.RemoveLocked / 100
	al.RemovedBuyback = a.BuybackLock.Amount * acts.RemoveLocked / 100
	al.RemovedLiquidity = a.LiquidityLock.Amount * acts.RemoveLocked / 100
	al.Removed = al.RemovedYield + al.RemovedBuyback + al.RemovedLiquidity

	// Holding is the residual of the current balance, not a share of inflow.
	al.Holding = a.Balance - al.Selling - al.Utility + al.Removed

	standing := a.Balance - inflow
	if standing < 0 {
		standing = 0
	}
	al.SellingFromHolding = standing * acts.SellFromHolding / 100
	al.HoldingFromHolding = standing - al.SellingFromHolding

	// Sub-bucket shares are not required to sum to 100 here; config
	// validation owns that check.
	al.YieldLock = al.Utility * acts.YieldLock / 100
	al.BuybackLock = al.Utility * acts.BuybackLock / 100
	al.Liquidity = al.Utility * acts.Liquidity / 100
	al.Transfer = al.Utility * acts.Transfer / 100
	al.Burn = al.Utility * acts.Burn / 100
	return al
}
