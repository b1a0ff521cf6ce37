package engine

import (
	"fmt"

	"TokenSim/internal/allocation"
	"TokenSim/internal/amm"
	"TokenSim/internal/invariant"
	"TokenSim/internal/model"
	"TokenSim/internal/pool"
	"TokenSim/internal/signals"
	"TokenSim/internal/treasury"
)

// Simulation holds the per-run collaborators. It is not safe for concurrent
// use; every run of a batch owns its own Simulation.
type Simulation struct {
	setup     *Setup
	runID     string
	behavior  *allocation.Behavior
	treasury  *treasury.Manager
	collector *signals.Collector
}

// NewSimulation creates the collaborators of one run.
func NewSimulation(setup *Setup, runID string, seed int64) (*Simulation, error) {
	tm, err := treasury.NewManager(setup.Treasury)
	if err != nil {
		return nil, err
	}
	return &Simulation{
		setup:     setup,
		runID:     runID,
		behavior:  allocation.NewBehavior(setup.Mode, setup.Base, seed),
		treasury:  tm,
		collector: signals.NewCollector(setup.Source, tm),
	}, nil
}

// Treasury returns the run's treasury.
func (s *Simulation) Treasury() *treasury.Manager { return s.treasury }

// Genesis builds the timestep-0 snapshot: a fresh ledger and the seeded pool.
func (s *Simulation) Genesis() (model.Snapshot, error) {
	ledger := make(model.Ledger, 0, len(s.setup.Agents))
	for _, ga := range s.setup.Agents {
		ledger = append(ledger, model.NewAgent(ga.Name, ga.Category))
	}

	p, err := pool.Seed(s.setup.InitialReserves, s.setup.RaisedCapital())
	if err != nil {
		return model.Snapshot{}, err
	}
	if err := s.treasury.FundSeed(p.USDC); err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{RunID: s.runID, Agents: ledger, Pool: p}, nil
}

// Collect gathers the signals for the timestep following prev.
func (s *Simulation) Collect(prev model.Snapshot) (model.Signals, error) {
	return s.collector.Collect(prev.Agents, prev.Timestep+1)
}

// Step advances prev by one timestep. prev is never modified.
func (s *Simulation) Step(prev model.Snapshot, sig model.Signals) (model.Snapshot, error) {
	t := prev.Timestep + 1
	if sig.Timestep != t {
		return model.Snapshot{}, fmt.Errorf("signals for timestep %d passed to timestep %d", sig.Timestep, t)
	}
	if !prev.Pool.Seeded {
		return model.Snapshot{}, invariant.Configuration("step", "the liquidity pool was not seeded before timestep %d", t)
	}

	ledger := creditInflows(prev.Agents, sig, s.setup.YieldAPRPct, s.setup.LiquidityMiningAPRPct)
	ledger = s.behavior.Assign(ledger)

	ledger, totals, err := allocation.Settle(ledger, allocation.Compute(ledger), prev.Totals)
	if err != nil {
		return model.Snapshot{}, err
	}

	p := prev.Pool
	records := make([]model.StageRecord, 0, len(amm.Pipeline))
	for _, st := range amm.Pipeline {
		in := amm.Input{Agents: ledger, Totals: totals, Signals: sig}
		cand, err := amm.Execute(st, s.setup.Curve, p, in, s.setup.Tolerance)
		if err != nil {
			return model.Snapshot{}, err
		}
		p, ledger, err = pool.Settle(p, ledger, cand, pool.Options{
			Timestep:          t,
			ResetEachTimestep: s.setup.ResetVolatilityEachTimestep,
		})
		if err != nil {
			return model.Snapshot{}, err
		}
		records = append(records, model.StageRecord{
			Stage:         cand.Kind.String(),
			Volume:        cand.Volume.Amount,
			Before:        cand.Before,
			After:         cand.After,
			ProductBefore: cand.ProductBefore,
			ProductAfter:  cand.After.Product(),
			Price:         cand.Price,
		})
	}

	for i := range ledger {
		if err := invariant.NonNegative("step", ledger[i].Name+" balance", ledger[i].Balance); err != nil {
			return model.Snapshot{}, err
		}
	}

	return model.Snapshot{
		RunID:    s.runID,
		Timestep: t,
		Agents:   ledger,
		Pool:     p,
		Totals:   totals,
		Signals:  sig,
		Stages:   records,
	}, nil
}

// creditInflows books this step's signal inflow and the monthly lock rewards
// to a copy of the ledger.
func creditInflows(ledger model.Ledger, sig model.Signals, yieldAPR, miningAPR float64) model.Ledger {
	out := ledger.Clone()
	for i := range out {
		a := &out[i]
		a.Vested, a.Airdropped, a.Incentivised = 0, 0, 0

		in := sig.Inflows[a.ID]
		switch allocation.CapabilityOf(a.Category).Inflow {
		case allocation.InflowAirdropped:
			a.Airdropped = in
			a.AirdroppedCum += in
		case allocation.InflowIncentivised:
			a.Incentivised = in
			a.IncentivisedCum += in
		default:
			a.Vested = in
			a.VestedCum += in
		}
		a.Balance += in

		reward := a.YieldLock.Amount * yieldAPR / 100 / 12
		a.YieldLock.Rewards += reward
		mining := a.LiquidityLock.Amount * miningAPR / 100 / 12
		a.LiquidityLock.Rewards += mining
		a.Balance += reward + mining
	}
	return out
}
