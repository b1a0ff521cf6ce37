package treasury

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenSim/internal/invariant"
)

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(Policy{RaisedCapital: -1})
	assert.True(t, errors.Is(err, invariant.ErrConfiguration))

	_, err = NewManager(Policy{BuybackType: "weekly"})
	assert.True(t, errors.Is(err, invariant.ErrConfiguration))

	_, err = NewManager(Policy{BuybackType: BuybackPercentage, BuybackPct: 120})
	assert.Error(t, err)

	m, err := NewManager(Policy{RaisedCapital: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, m.GetState().Cash)
}

func TestFundSeed(t *testing.T) {
	m, err := NewManager(Policy{RaisedCapital: 1000})
	require.NoError(t, err)

	require.NoError(t, m.FundSeed(400))
	s := m.GetState()
	assert.Equal(t, 600.0, s.Cash)
	assert.Equal(t, 400.0, s.SeedUSDC)

	err = m.FundSeed(601)
	assert.True(t, errors.Is(err, invariant.ErrConfiguration))
	assert.Equal(t, 600.0, m.GetState().Cash)
}

func TestBuyback_FixedWindow(t *testing.T) {
	m, err := NewManager(Policy{
		MonthlyIncome: 100,
		BuybackType:   BuybackFixed,
		BuybackFixed:  50,
		BuybackStart:  2,
		BuybackEnd:    3,
	})
	require.NoError(t, err)

	want := []float64{0, 50, 50, 0}
	for i, w := range want {
		got, err := m.Buyback(i + 1)
		require.NoError(t, err)
		assert.Equal(t, w, got, "timestep %d", i+1)
	}
	s := m.GetState()
	assert.Equal(t, 400.0, s.IncomeCum)
	assert.Equal(t, 100.0, s.BuybacksCum)
	assert.Equal(t, 300.0, s.Cash)
}

func TestBuyback_Percentage(t *testing.T) {
	m, err := NewManager(Policy{MonthlyIncome: 200, BuybackType: BuybackPercentage, BuybackPct: 25})
	require.NoError(t, err)

	got, err := m.Buyback(1)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)
}

func TestBuyback_CappedAtCash(t *testing.T) {
	m, err := NewManager(Policy{RaisedCapital: 10, MonthlyIncome: 5, BuybackFixed: 100})
	require.NoError(t, err)

	got, err := m.Buyback(1)
	require.NoError(t, err)
	assert.Equal(t, 15.0, got)
	assert.Zero(t, m.GetState().Cash)
}

func TestBuyback_IncomeOncePerMonth(t *testing.T) {
	m, err := NewManager(Policy{MonthlyIncome: 10})
	require.NoError(t, err)

	_, _ = m.Buyback(1)
	_, _ = m.Buyback(1)
	assert.Equal(t, 10.0, m.GetState().IncomeCum)
}
