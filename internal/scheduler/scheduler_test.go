package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenSim/internal/allocation"
	"TokenSim/internal/amm"
	"TokenSim/internal/engine"
	"TokenSim/internal/model"
	"TokenSim/internal/signals"
	"TokenSim/internal/treasury"
)

func smallSetup() *engine.Setup {
	return &engine.Setup{
		Agents: []engine.GenesisAgent{
			{Name: "seed", Category: model.CategoryEarlyInvestor, RaisedUSD: 10_000},
			{Name: "market", Category: model.CategoryMarketInvestors},
		},
		Mode:            allocation.ModeStatic,
		Base:            model.Actions{Sell: 10, Hold: 90},
		Curve:           amm.DefaultCurve,
		Tolerance:       0.001,
		InitialReserves: model.Reserves{Tokens: 10_000, USDC: 1_000},
		Timesteps:       3,
		Source:          &signals.MockSource{Inflows: map[string]float64{"seed": 100}, Buys: 50},
		Treasury:        treasury.Policy{RaisedCapital: 10_000},
	}
}

func TestRunNow(t *testing.T) {
	s := NewScheduler(context.Background(), engine.NewRunner(smallSetup(), nil, nil), 2, 2)

	var got []engine.Result
	s.OnBatch = func(r []engine.Result) { got = r }

	results := s.RunNow()
	require.Len(t, results, 2)
	assert.Equal(t, results, got)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}

func TestRunNow_SkipsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewScheduler(ctx, engine.NewRunner(smallSetup(), nil, nil), 1, 1)
	assert.Nil(t, s.RunNow())
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), engine.NewRunner(smallSetup(), nil, nil), 1, 1)
	assert.NoError(t, s.Register("0 0 * * * *"))
	assert.Error(t, s.Register("not a cron"))
	assert.Len(t, s.Cron.Entries(), 1)
}
