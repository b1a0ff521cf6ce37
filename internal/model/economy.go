package model

// UtilityTotals breaks the utility meta bucket into its destinations.
type UtilityTotals struct {
	YieldLock   float64 `json:"yield_lock"`
	BuybackLock float64 `json:"buyback_lock"`
	Liquidity   float64 `json:"liquidity"`
	Transfer    float64 `json:"transfer"`
	Burn        float64 `json:"burn"`
}

// Sum adds every destination.
func (u UtilityTotals) Sum() float64 {
	return u.YieldLock + u.BuybackLock + u.Liquidity + u.Transfer + u.Burn
}

// Totals are the economy-wide meta-bucket aggregates of one timestep.
type Totals struct {
	Selling float64       `json:"selling"`
	Holding float64       `json:"holding"`
	Utility float64       `json:"utility"`
	Removed float64       `json:"removed"`
	Shares  UtilityTotals `json:"shares"`

	SellingCum float64 `json:"selling_cum"`
	HoldingCum float64 `json:"holding_cum"`
	UtilityCum float64 `json:"utility_cum"`
}

// Allocation is one agent's absolute token allocation for a step.
type Allocation struct {
	Selling            float64
	SellingFromHolding float64
	Holding            float64
	HoldingFromHolding float64
	Utility            float64
	Removed            float64

	RemovedYield     float64
	RemovedBuyback   float64
	RemovedLiquidity float64

	YieldLock   float64
	BuybackLock float64
	Liquidity   float64
	Transfer    float64
	Burn        float64
}
