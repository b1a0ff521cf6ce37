package pool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenSim/internal/amm"
	"TokenSim/internal/invariant"
	"TokenSim/internal/model"
)

func seeded(t *testing.T) model.Pool {
	t.Helper()
	p, err := Seed(model.Reserves{Tokens: 2_000_000, USDC: 1_000_000}, 5_000_000)
	require.NoError(t, err)
	return p
}

func TestSeed(t *testing.T) {
	p := seeded(t)
	assert.True(t, p.Seeded)
	assert.Equal(t, 0.5, p.Price)
	assert.Equal(t, 0.5, p.SeedPrice)
	assert.Equal(t, 2e12, p.ConstantProduct)
	assert.Equal(t, 2_000_000.0, p.Valuation)
}

func TestSeed_InsufficientCapital(t *testing.T) {
	_, err := Seed(model.Reserves{Tokens: 2_000_000, USDC: 1_000_000}, 999_999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, invariant.ErrConfiguration))
	assert.Contains(t, err.Error(), "999999")
}

func TestSeed_RejectsEmptyReserves(t *testing.T) {
	_, err := Seed(model.Reserves{Tokens: 0, USDC: 10}, 100)
	assert.True(t, errors.Is(err, invariant.ErrConfiguration))
}

func candidate(kind amm.Kind, before, after model.Reserves) amm.Candidate {
	return amm.Candidate{
		Kind:            kind,
		Before:          before,
		After:           after,
		ConstantProduct: after.Product(),
		Price:           amm.Price(after),
	}
}

func TestSettle_AdoptionCreditsMarketInvestors(t *testing.T) {
	p := seeded(t)
	m1 := model.NewAgent("market_a", model.CategoryMarketInvestors)
	m2 := model.NewAgent("market_b", model.CategoryMarketInvestors)
	team := model.NewAgent("team", model.CategoryTeam)
	ledger := model.Ledger{m1, team, m2}

	after := model.Reserves{Tokens: 1_800_000, USDC: 1_111_111}
	next, out, err := Settle(p, ledger, candidate(amm.StageAdoptionBuy, p.Reserves, after), Options{Timestep: 1})
	require.NoError(t, err)

	assert.InDelta(t, 100_000, out[0].Balance, 1e-9)
	assert.InDelta(t, 100_000, out[2].Balance, 1e-9)
	assert.Zero(t, out[1].Balance)
	assert.Zero(t, ledger[0].Balance)

	assert.Equal(t, after, next.Reserves)
	assert.Equal(t, after, next.AfterAdoption)
	assert.Equal(t, next.Price, next.MaxPrice)
	assert.Equal(t, next.Price, next.MinPrice)
	assert.Zero(t, next.Volatility)
}

func TestSettle_AdoptionWithoutBuyersIsFatal(t *testing.T) {
	p := seeded(t)
	ledger := model.Ledger{model.NewAgent("team", model.CategoryTeam)}
	after := model.Reserves{Tokens: 1_900_000, USDC: 1_052_632}
	_, _, err := Settle(p, ledger, candidate(amm.StageAdoptionBuy, p.Reserves, after), Options{Timestep: 2})
	assert.True(t, errors.Is(err, invariant.ErrConfiguration))
}

func TestSettle_VestingSellDebitsHoldingSales(t *testing.T) {
	p := seeded(t)
	a := model.NewAgent("seed", model.CategoryEarlyInvestor)
	a.Balance = 1000
	b := model.NewAgent("team", model.CategoryTeam)
	b.Balance = 50
	ledger := model.Ledger{a, b}

	cand := candidate(amm.StageVestingSell, p.Reserves, model.Reserves{Tokens: 2_000_300, USDC: 999_850})
	cand.Volume = amm.Volume{Amount: 300, HoldingSales: map[model.AgentID]float64{a.ID: 250, b.ID: 0}}

	_, out, err := Settle(p, ledger, cand, Options{Timestep: 3})
	require.NoError(t, err)
	assert.InDelta(t, 750, out[0].Balance, 1e-9)
	assert.InDelta(t, 50, out[1].Balance, 1e-9)

	cand.Volume.HoldingSales[b.ID] = 51
	_, _, err = Settle(p, ledger, cand, Options{Timestep: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, invariant.ErrConfiguration))
	assert.Contains(t, err.Error(), "team")
}

func TestSettle_Checkpoints(t *testing.T) {
	p := seeded(t)
	liq := model.Reserves{Tokens: 2_100_000, USDC: 1_050_000}
	next, _, err := Settle(p, nil, candidate(amm.StageLiquidityAddition, p.Reserves, liq), Options{Timestep: 2})
	require.NoError(t, err)
	assert.Equal(t, liq, next.AfterLiquidityAddition)
	assert.Equal(t, model.Reserves{}, next.AfterAdoption)

	bb := model.Reserves{Tokens: 2_000_000, USDC: 1_102_500}
	next, _, err = Settle(next, nil, candidate(amm.StageBuyback, liq, bb), Options{Timestep: 2})
	require.NoError(t, err)
	assert.Equal(t, bb, next.AfterBuyback)
	assert.Equal(t, liq, next.AfterLiquidityAddition)
}

func TestSettle_VolatilityStateMachine(t *testing.T) {
	p := seeded(t) // seed price 0.5
	r := func(price float64) model.Reserves { return model.Reserves{Tokens: 1_000_000, USDC: price * 1_000_000} }

	// Timestep 1, stage 1 resets to the current price.
	p, _, err := Settle(p, model.Ledger{model.NewAgent("m", model.CategoryMarketInvestors)},
		candidate(amm.StageAdoptionBuy, model.Reserves{Tokens: 1_000_000}, r(0.6)), Options{Timestep: 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, p.MaxPrice, 1e-12)
	assert.InDelta(t, 0.6, p.MinPrice, 1e-12)

	// Later stages of timestep 1 admit the seed price into the range.
	p, _, err = Settle(p, nil, candidate(amm.StageVestingSell, r(0.6), r(0.55)), Options{Timestep: 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, p.MaxPrice, 1e-12)
	assert.InDelta(t, 0.5, p.MinPrice, 1e-12)
	assert.InDelta(t, (0.6-0.5)/0.6*100, p.Volatility, 1e-9)

	// Stage 1 of timestep 2 keeps accumulating.
	p, _, err = Settle(p, nil, candidate(amm.StageAdoptionBuy, r(0.55), r(0.55)), Options{Timestep: 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, p.MaxPrice, 1e-12)
	assert.InDelta(t, 0.5, p.MinPrice, 1e-12)

	p, _, err = Settle(p, nil, candidate(amm.StageBuyback, r(0.55), r(0.9)), Options{Timestep: 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, p.MaxPrice, 1e-12)
	assert.InDelta(t, (0.9-0.5)/0.9*100, p.Volatility, 1e-9)
	assert.InDelta(t, p.USDC+p.Tokens*p.Price, p.Valuation, 1e-6)
}

func TestSettle_ResetEachTimestep(t *testing.T) {
	p := seeded(t)
	p.MaxPrice, p.MinPrice = 0.9, 0.2
	r := model.Reserves{Tokens: 1_000_000, USDC: 700_000}
	next, _, err := Settle(p, nil, candidate(amm.StageAdoptionBuy, r, r), Options{Timestep: 5, ResetEachTimestep: true})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, next.MaxPrice, 1e-12)
	assert.InDelta(t, 0.7, next.MinPrice, 1e-12)
	assert.Zero(t, next.Volatility)
}
