package amm

import (
	"fmt"

	"TokenSim/internal/invariant"
	"TokenSim/internal/model"
)

// Kind numbers the stages in execution order.
type Kind int

const (
	StageAdoptionBuy Kind = iota + 1
	StageVestingSell
	StageLiquidityAddition
	StageBuyback
)

func (k Kind) String() string {
	switch k {
	case StageAdoptionBuy:
		return "adoption_buy"
	case StageVestingSell:
		return "vesting_sell"
	case StageLiquidityAddition:
		return "liquidity_addition"
	case StageBuyback:
		return "buyback"
	}
	return fmt.Sprintf("stage(%d)", int(k))
}

// Input is the read-only state a stage derives its trigger volume from.
type Input struct {
	Agents  model.Ledger
	Totals  model.Totals
	Signals model.Signals
}

// Volume is a stage's trigger volume.
type Volume struct {
	Amount float64
	// HoldingSales is the per-agent part of a sell volume still to be
	// debited from free balances. Only the vesting sell sets it.
	HoldingSales map[model.AgentID]float64
}

// Candidate is a stage's proposed next pool state, committed by pool settlement.
type Candidate struct {
	Kind            Kind
	Volume          Volume
	Before          model.Reserves
	After           model.Reserves
	ProductBefore   float64
	ConstantProduct float64
	Price           float64
}

// Stage is one named, pure step of the pool pipeline.
type Stage struct {
	Kind             Kind
	PreservesProduct bool
	Volume           func(in Input, rtol float64) (Volume, error)
	Apply            func(c Curve, r model.Reserves, amount float64) model.Reserves
}

// Pipeline lists the stages in the order they run every timestep.
var Pipeline = []Stage{
	{
		Kind:             StageAdoptionBuy,
		PreservesProduct: true,
		Volume:           adoptionVolume,
		Apply:            Curve.BuyTokens,
	},
	{
		Kind:             StageVestingSell,
		PreservesProduct: true,
		Volume:           vestingSellVolume,
		Apply:            Curve.SellTokens,
	},
	{
		Kind:             StageLiquidityAddition,
		PreservesProduct: false,
		Volume:           liquidityVolume,
		Apply: func(c Curve, r model.Reserves, amount float64) model.Reserves {
			return c.AddLiquidity(r, amount, Price(r))
		},
	},
	{
		Kind:             StageBuyback,
		PreservesProduct: true,
		Volume:           buybackVolume,
		Apply:            Curve.BuyTokens,
	},
}

// Execute computes one stage's candidate and enforces the product invariant
// on pure swap stages.
func Execute(s Stage, c Curve, pool model.Pool, in Input, rtol float64) (Candidate, error) {
	vol, err := s.Volume(in, rtol)
	if err != nil {
		return Candidate{}, err
	}

	before := pool.Reserves
	after := s.Apply(c, before, vol.Amount)

	cand := Candidate{
		Kind:          s.Kind,
		Volume:        vol,
		Before:        before,
		After:         after,
		ProductBefore: before.Product(),
		Price:         Price(after),
	}

	if s.PreservesProduct {
		if err := invariant.ConstantProduct(s.Kind.String(), c.Invariant(before), c.Invariant(after), rtol); err != nil {
			return Candidate{}, err
		}
		cand.ConstantProduct = pool.ConstantProduct
	} else {
		cand.ConstantProduct = after.Product()
	}
	return cand, nil
}

func adoptionVolume(in Input, _ float64) (Volume, error) {
	if err := invariant.NonNegative(StageAdoptionBuy.String(), "adoption buy volume", in.Signals.AdoptionUSDC); err != nil {
		return Volume{}, err
	}
	return Volume{Amount: in.Signals.AdoptionUSDC}, nil
}

func buybackVolume(in Input, _ float64) (Volume, error) {
	if err := invariant.NonNegative(StageBuyback.String(), "buyback volume", in.Signals.BuybackUSD); err != nil {
		return Volume{}, err
	}
	return Volume{Amount: in.Signals.BuybackUSD}, nil
}

// vestingSellVolume re-derives the sell volume from the ledger and checks it
// against the settled meta-bucket total.
func vestingSellVolume(in Input, rtol float64) (Volume, error) {
	vol := Volume{HoldingSales: make(map[model.AgentID]float64, len(in.Agents))}
	for _, a := range in.Agents {
		vol.Amount += a.SellingTokens + a.SellingFromHolding
		vol.HoldingSales[a.ID] = a.SellingFromHolding
	}
	if err := invariant.NonNegative(StageVestingSell.String(), "vesting sell volume", vol.Amount); err != nil {
		return Volume{}, err
	}
	if err := invariant.Aggregate(StageVestingSell.String(), "selling", in.Totals.Selling, vol.Amount, rtol); err != nil {
		return Volume{}, err
	}
	return vol, nil
}

// liquidityVolume nets this step's liquidity-mining allocations against removals.
func liquidityVolume(in Input, _ float64) (Volume, error) {
	var net float64
	for _, a := range in.Agents {
		net += a.LiquidityLock.Added - a.LiquidityLock.Remove
	}
	return Volume{Amount: net}, nil
}
