package allocation

import (
	"fmt"

	"TokenSim/internal/invariant"
	"TokenSim/internal/model"
)

// Settle applies allocations to a copy of the ledger and aggregates the
// economy-wide totals. prev carries the cumulative totals of the previous step.
// A negative resulting balance is a configuration-fatal error.
func Settle(ledger model.Ledger, allocs []model.Allocation, prev model.Totals) (model.Ledger, model.Totals, error) {
	if len(allocs) != len(ledger) {
		return nil, model.Totals{}, fmt.Errorf("settle: %d allocations for %d agents", len(allocs), len(ledger))
	}

	out := ledger.Clone()
	totals := model.Totals{
		SellingCum: prev.SellingCum,
		HoldingCum: prev.HoldingCum,
		UtilityCum: prev.UtilityCum,
	}

	for i := range out {
		a := &out[i]
		al := allocs[i]

		if err := nonNegativeFlows(a.Name, al); err != nil {
			return nil, model.Totals{}, err
		}
		after := a.Balance - al.Selling - al.Utility + al.Removed
		if after < 0 {
			return nil, model.Totals{}, invariant.Configuration("allocation settlement",
				"agent %s has less tokens: %g than planned selling allocation %g and utility allocation %g plus removing allocation %g combined",
				a.Name, a.Balance, al.Selling, al.Utility, al.Removed)
		}

		a.SellingTokens = al.Selling
		a.SellingFromHolding = al.SellingFromHolding
		a.UtilityTokens = al.Utility
		a.HoldingTokens = al.Holding
		a.HoldingFromHolding = al.HoldingFromHolding
		a.Balance = after

		applyLock(&a.YieldLock, al.YieldLock, al.RemovedYield)
		applyLock(&a.BuybackLock, al.BuybackLock, al.RemovedBuyback)
		applyLock(&a.LiquidityLock, al.Liquidity, al.RemovedLiquidity)

		a.Transferred = al.Transfer
		a.TransferredCum += al.Transfer
		a.Burned = al.Burn
		a.BurnedCum += al.Burn

		totals.Selling += al.Selling + al.SellingFromHolding
		totals.Holding += al.Holding
		totals.Utility += al.Utility
		totals.Removed += al.Removed
		totals.Shares.YieldLock += al.YieldLock
		totals.Shares.BuybackLock += al.BuybackLock
		totals.Shares.Liquidity += al.Liquidity
		totals.Shares.Transfer += al.Transfer
		totals.Shares.Burn += al.Burn
	}

	totals.SellingCum += totals.Selling
	totals.HoldingCum += totals.Holding
	totals.UtilityCum += totals.Utility
	return out, totals, nil
}

// nonNegativeFlows rejects flows that would mint tokens into a balance.
func nonNegativeFlows(name string, al model.Allocation) error {
	flows := []struct {
		what string
		v    float64
	}{
		{"selling allocation", al.Selling},
		{"selling from holding", al.SellingFromHolding},
		{"utility allocation", al.Utility},
		{"removal allocation", al.Removed},
	}
	for _, f := range flows {
		if err := invariant.NonNegative("allocation settlement", name+" "+f.what, f.v); err != nil {
			return err
		}
	}
	return nil
}

func applyLock(l *model.Lock, added, removed float64) {
	l.Amount += added - removed
	l.Cumulative += added
	l.Added = added
	l.Remove = removed
}
