// Package engine drives simulation runs: genesis, the per-timestep pipeline,
// single runs and batches of isolated parallel runs.
package engine

import (
	"fmt"

	"TokenSim/internal/allocation"
	"TokenSim/internal/amm"
	"TokenSim/internal/config"
	"TokenSim/internal/model"
	"TokenSim/internal/signals"
	"TokenSim/internal/treasury"
)

// GenesisAgent is a ledger entry created at genesis.
type GenesisAgent struct {
	Name      string
	Category  model.Category
	RaisedUSD float64
}

// Setup is the read-only description shared by every run of a batch.
type Setup struct {
	Agents    []GenesisAgent
	Mode      allocation.Mode
	Base      model.Actions
	Curve     amm.Curve
	Tolerance float64

	InitialReserves             model.Reserves
	ResetVolatilityEachTimestep bool

	YieldAPRPct           float64
	LiquidityMiningAPRPct float64

	Timesteps int
	Seed      int64

	Source   signals.Source
	Treasury treasury.Policy
}

// RaisedCapital sums the USD raised from every agent.
func (s *Setup) RaisedCapital() float64 {
	var total float64
	for _, a := range s.Agents {
		total += a.RaisedUSD
	}
	return total
}

// FromConfig converts validated configuration into a Setup.
func FromConfig(cfg *config.Config) (*Setup, error) {
	mode, err := allocation.ParseMode(cfg.Allocation.Mode)
	if err != nil {
		return nil, err
	}
	curve := amm.Curve{TokenWeight: cfg.Liquidity.TokenWeight, USDCWeight: cfg.Liquidity.USDCWeight}
	if err := curve.Validate(); err != nil {
		return nil, err
	}

	supply := cfg.Token.TotalSupply
	s := &Setup{
		Mode: mode,
		Base: model.Actions{
			Sell:            cfg.Allocation.SellPct,
			Hold:            cfg.Allocation.HoldPct,
			Utility:         cfg.Allocation.UtilityPct,
			RemoveLocked:    cfg.Allocation.RemoveLockedPct,
			SellFromHolding: cfg.Allocation.SellFromHoldingPct,
			YieldLock:       cfg.Utility.YieldLockPct,
			BuybackLock:     cfg.Utility.BuybackLockPct,
			Liquidity:       cfg.Utility.LiquidityPct,
			Transfer:        cfg.Utility.TransferPct,
			Burn:            cfg.Utility.BurnPct,
		},
		Curve:                       curve,
		Tolerance:                   cfg.Liquidity.Tolerance,
		ResetVolatilityEachTimestep: cfg.Liquidity.ResetVolatilityEachTimestep,
		YieldAPRPct:                 cfg.Utility.YieldAPRPct,
		LiquidityMiningAPRPct:       cfg.Utility.LiquidityMiningAPRPct,
		Timesteps:                   cfg.Simulation.Timesteps,
		Seed:                        cfg.Simulation.Seed,
		Treasury: treasury.Policy{
			MonthlyIncome: cfg.Business.MonthlyIncomeUSD,
			BuybackType:   treasury.BuybackType(cfg.Business.BuybackType),
			BuybackFixed:  cfg.Business.BuybackFixedUSD,
			BuybackPct:    cfg.Business.BuybackPct,
			BuybackStart:  cfg.Business.BuybackStart,
			BuybackEnd:    cfg.Business.BuybackEnd,
		},
	}

	vesting := make(map[string]signals.Vesting, len(cfg.Agents))
	for _, a := range cfg.Agents {
		cat, err := model.ParseCategory(a.Category)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", a.Name, err)
		}
		s.Agents = append(s.Agents, GenesisAgent{Name: a.Name, Category: cat, RaisedUSD: a.RaisedUSD})
		vesting[a.Name] = signals.Vesting{
			Tokens:        supply * a.AllocationPct / 100,
			TGEPct:        a.TGEPct,
			CliffMonths:   a.CliffMonths,
			VestingMonths: a.VestingMonths,
		}
	}
	s.Treasury.RaisedCapital = s.RaisedCapital()

	s.InitialReserves = model.Reserves{Tokens: cfg.Liquidity.InitialTokens, USDC: cfg.Liquidity.InitialUSDC}
	if s.InitialReserves.Tokens == 0 {
		s.InitialReserves.Tokens = supply * cfg.Liquidity.LPAllocationPct / 100
	}
	if s.InitialReserves.USDC == 0 {
		s.InitialReserves.USDC = s.InitialReserves.Tokens * cfg.Token.InitialPrice
	}

	s.Source = &signals.ScheduleSource{
		Vesting: vesting,
		Curve: signals.AdoptionCurve{
			InitialTokenHolders: cfg.Adoption.InitialTokenHolders,
			TokenHoldersTarget:  cfg.Adoption.TokenHoldersTarget,
			InitialProductUsers: cfg.Adoption.InitialProductUsers,
			ProductUsersTarget:  cfg.Adoption.ProductUsersTarget,
			OneTimeBuyPerUser:   cfg.Adoption.OneTimeTokenBuyPerUser,
			RegularBuyPerUser:   cfg.Adoption.RegularTokenBuyPerUser,
		},
	}
	return s, nil
}
