// Package signals produces the inbound per-step values a run consumes:
// token inflows, adoption buys and buyback volume.
package signals

import (
	"fmt"

	"TokenSim/internal/model"
)

// BuybackFunder supplies the USD allocated to buybacks at a timestep.
type BuybackFunder interface {
	Buyback(t int) (float64, error)
}

// MockSource returns fixed values for development and testing.
type MockSource struct {
	Inflows map[string]float64
	Buys    float64
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Inflow(agent string, _ int) float64 { return m.Inflows[agent] }

func (m *MockSource) Adoption(_ int) Adoption { return Adoption{TokenBuysUSDC: m.Buys} }

// Collector assembles the per-step signals from a source and a funder.
type Collector struct {
	Source Source
	Funder BuybackFunder
}

// NewCollector creates a new Collector. funder may be nil for no buybacks.
func NewCollector(source Source, funder BuybackFunder) *Collector {
	return &Collector{Source: source, Funder: funder}
}

// Collect builds the signals of timestep t for the given ledger.
func (c *Collector) Collect(ledger model.Ledger, t int) (model.Signals, error) {
	sig := model.Signals{
		Timestep: t,
		Inflows:  make(map[model.AgentID]float64, len(ledger)),
	}
	for _, a := range ledger {
		v := c.Source.Inflow(a.Name, t)
		if v < 0 {
			return model.Signals{}, fmt.Errorf("inflow for %s at timestep %d is negative: %g", a.Name, t, v)
		}
		if v != 0 {
			sig.Inflows[a.ID] = v
		}
	}

	ad := c.Source.Adoption(t)
	sig.AdoptionUSDC = ad.TokenBuysUSDC
	sig.ProductUsers = ad.ProductUsers
	sig.TokenHolders = ad.TokenHolders

	if c.Funder != nil {
		bb, err := c.Funder.Buyback(t)
		if err != nil {
			return model.Signals{}, fmt.Errorf("buyback: %w", err)
		}
		sig.BuybackUSD = bb
	}
	return sig, nil
}
