package amm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenSim/internal/invariant"
	"TokenSim/internal/model"
)

func seededPool() model.Pool {
	r := model.Reserves{Tokens: 2_000_000, USDC: 1_000_000}
	return model.Pool{Reserves: r, ConstantProduct: r.Product(), Price: r.Price(), Seeded: true}
}

func TestBuyTokens_AdoptionScenario(t *testing.T) {
	pool := seededPool()
	in := Input{Signals: model.Signals{AdoptionUSDC: 100_000}}

	cand, err := Execute(Pipeline[0], DefaultCurve, pool, in, invariant.DefaultTolerance)
	require.NoError(t, err)

	assert.Equal(t, StageAdoptionBuy, cand.Kind)
	assert.InDelta(t, 1_818_181.8, cand.After.Tokens, 0.1)
	assert.InDelta(t, 1_100_000, cand.After.USDC, 1e-6)
	assert.True(t, invariant.Close(2e12, cand.After.Product(), invariant.DefaultTolerance))
	assert.Equal(t, 2e12, cand.ConstantProduct)
	assert.InDelta(t, 1_100_000/1_818_181.818, cand.Price, 1e-6)
}

func TestSellTokens_PreservesProduct(t *testing.T) {
	c := DefaultCurve
	r := model.Reserves{Tokens: 2_000_000, USDC: 1_000_000}
	after := c.SellTokens(r, 500_000)

	assert.InDelta(t, 2_500_000, after.Tokens, 1e-9)
	assert.InDelta(t, 800_000, after.USDC, 1e-6)
	assert.InDelta(t, r.Product(), after.Product(), 1)
}

func TestWeightedCurve_PreservesInvariant(t *testing.T) {
	c := Curve{TokenWeight: 0.8, USDCWeight: 0.2}
	require.NoError(t, c.Validate())
	r := model.Reserves{Tokens: 4_000_000, USDC: 500_000}

	bought := c.BuyTokens(r, 50_000)
	assert.InEpsilon(t, c.Invariant(r), c.Invariant(bought), 1e-9)
	assert.Less(t, bought.Tokens, r.Tokens)

	sold := c.SellTokens(r, 100_000)
	assert.InEpsilon(t, c.Invariant(r), c.Invariant(sold), 1e-9)
	assert.Less(t, sold.USDC, r.USDC)
}

func TestCurve_ValidateRejectsZeroWeight(t *testing.T) {
	assert.Error(t, Curve{TokenWeight: 0, USDCWeight: 1}.Validate())
}

func TestExecute_ZeroVolumeIsNoop(t *testing.T) {
	pool := seededPool()
	for _, s := range Pipeline {
		cand, err := Execute(s, DefaultCurve, pool, Input{}, invariant.DefaultTolerance)
		require.NoError(t, err, s.Kind.String())
		assert.Equal(t, pool.Reserves, cand.After, s.Kind.String())
		assert.Equal(t, pool.Price, cand.Price, s.Kind.String())
		assert.Equal(t, pool.ConstantProduct, cand.ConstantProduct, s.Kind.String())
	}
}

func TestVestingSell_CrossCheck(t *testing.T) {
	a := model.NewAgent("seed", model.CategoryEarlyInvestor)
	a.SellingTokens = 1000
	a.SellingFromHolding = 200
	b := model.NewAgent("team", model.CategoryTeam)
	b.SellingTokens = 300
	in := Input{Agents: model.Ledger{a, b}, Totals: model.Totals{Selling: 1500}}

	cand, err := Execute(Pipeline[1], DefaultCurve, seededPool(), in, invariant.DefaultTolerance)
	require.NoError(t, err)
	assert.InDelta(t, 1500, cand.Volume.Amount, 1e-9)
	assert.Equal(t, 200.0, cand.Volume.HoldingSales[a.ID])
	assert.Equal(t, 0.0, cand.Volume.HoldingSales[b.ID])
	assert.InDelta(t, 2_001_500, cand.After.Tokens, 1e-6)

	in.Totals.Selling = 1510
	_, err = Execute(Pipeline[1], DefaultCurve, seededPool(), in, invariant.DefaultTolerance)
	require.Error(t, err)
	assert.True(t, errors.Is(err, invariant.ErrCrossCheck))
	assert.Contains(t, err.Error(), "1500")
	assert.Contains(t, err.Error(), "1510")
}

func TestVestingSell_NegativeVolumeIsConfigurationError(t *testing.T) {
	a := model.NewAgent("seed", model.CategoryEarlyInvestor)
	a.SellingTokens = -100
	in := Input{Agents: model.Ledger{a}, Totals: model.Totals{Selling: -100}}

	_, err := Execute(Pipeline[1], DefaultCurve, seededPool(), in, invariant.DefaultTolerance)
	require.Error(t, err)
	assert.True(t, errors.Is(err, invariant.ErrConfiguration))
	assert.Contains(t, err.Error(), "vesting sell volume")
}

func TestLiquidityAddition_GrowsAtPrice(t *testing.T) {
	a := model.NewAgent("seed", model.CategoryEarlyInvestor)
	a.LiquidityLock.Added = 10_000
	a.LiquidityLock.Remove = 2_000
	in := Input{Agents: model.Ledger{a}}

	cand, err := Execute(Pipeline[2], DefaultCurve, seededPool(), in, invariant.DefaultTolerance)
	require.NoError(t, err)
	assert.InDelta(t, 8_000, cand.Volume.Amount, 1e-9)
	assert.InDelta(t, 2_008_000, cand.After.Tokens, 1e-9)
	assert.InDelta(t, 1_004_000, cand.After.USDC, 1e-9)
	assert.InDelta(t, 0.5, cand.Price, 1e-12)
	assert.InDelta(t, cand.After.Product(), cand.ConstantProduct, 1e-3)
	assert.NotEqual(t, 2e12, cand.ConstantProduct)
}

func TestBuyback_UsesBuybackVolume(t *testing.T) {
	in := Input{Signals: model.Signals{AdoptionUSDC: 999, BuybackUSD: 100_000}}
	cand, err := Execute(Pipeline[3], DefaultCurve, seededPool(), in, invariant.DefaultTolerance)
	require.NoError(t, err)
	assert.InDelta(t, 1_100_000, cand.After.USDC, 1e-6)
}

func TestExecute_NegativeSignalIsConfigurationError(t *testing.T) {
	in := Input{Signals: model.Signals{AdoptionUSDC: -5}}
	_, err := Execute(Pipeline[0], DefaultCurve, seededPool(), in, invariant.DefaultTolerance)
	assert.True(t, errors.Is(err, invariant.ErrConfiguration))
}

func TestExecute_DetectsProductDrift(t *testing.T) {
	broken := Stage{
		Kind:             StageBuyback,
		PreservesProduct: true,
		Volume:           buybackVolume,
		Apply: func(_ Curve, r model.Reserves, amount float64) model.Reserves {
			return model.Reserves{Tokens: r.Tokens, USDC: r.USDC + amount}
		},
	}
	in := Input{Signals: model.Signals{BuybackUSD: 100_000}}
	_, err := Execute(broken, DefaultCurve, seededPool(), in, invariant.DefaultTolerance)
	require.Error(t, err)
	assert.True(t, errors.Is(err, invariant.ErrNumerical))
	assert.Contains(t, err.Error(), "old constant product 2e+12")
}

func TestPipeline_Order(t *testing.T) {
	want := []Kind{StageAdoptionBuy, StageVestingSell, StageLiquidityAddition, StageBuyback}
	require.Len(t, Pipeline, len(want))
	for i, s := range Pipeline {
		assert.Equal(t, want[i], s.Kind)
	}
	assert.False(t, Pipeline[2].PreservesProduct)
}

func TestPrice_FlooredAtZero(t *testing.T) {
	assert.Equal(t, 0.0, Price(model.Reserves{Tokens: 10, USDC: -5}))
	assert.Equal(t, 0.0, Price(model.Reserves{}))
	assert.False(t, math.IsNaN(Price(model.Reserves{})))
}
