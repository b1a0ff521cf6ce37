// Package metrics exposes Prometheus instrumentation for simulation runs.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"TokenSim/internal/model"
)

// SimulationMetrics groups the collectors fed by simulation runs.
type SimulationMetrics struct {
	runs         *prometheus.CounterVec
	timesteps    prometheus.Counter
	price        *prometheus.GaugeVec
	volatility   *prometheus.GaugeVec
	reserves     *prometheus.GaugeVec
	stageVolumes *prometheus.CounterVec
}

var (
	simOnce     sync.Once
	simRegistry *SimulationMetrics
)

// Simulation returns the process-wide collectors, registering them on first use.
func Simulation() *SimulationMetrics {
	simOnce.Do(func() {
		simRegistry = &SimulationMetrics{
			runs: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tokensim_runs_total",
				Help: "Completed simulation runs by outcome.",
			}, []string{"status"}),
			timesteps: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "tokensim_timesteps_total",
				Help: "Timesteps executed across all runs.",
			}),
			price: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "tokensim_token_price",
				Help: "Latest token price per run.",
			}, []string{"run"}),
			volatility: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "tokensim_price_volatility_pct",
				Help: "Latest price volatility per run in percent.",
			}, []string{"run"}),
			reserves: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "tokensim_pool_reserves",
				Help: "Latest pool reserves per run and asset.",
			}, []string{"run", "asset"}),
			stageVolumes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tokensim_stage_volume_total",
				Help: "Summed trigger volume per pool stage.",
			}, []string{"stage"}),
		}
		prometheus.MustRegister(
			simRegistry.runs,
			simRegistry.timesteps,
			simRegistry.price,
			simRegistry.volatility,
			simRegistry.reserves,
			simRegistry.stageVolumes,
		)
	})
	return simRegistry
}

// ObserveTimestep records the end-of-step pool state of a run.
func (m *SimulationMetrics) ObserveTimestep(snap *model.Snapshot) {
	if m == nil || snap == nil {
		return
	}
	m.timesteps.Inc()
	m.price.WithLabelValues(snap.RunID).Set(snap.Pool.Price)
	m.volatility.WithLabelValues(snap.RunID).Set(snap.Pool.Volatility)
	m.reserves.WithLabelValues(snap.RunID, "token").Set(snap.Pool.Tokens)
	m.reserves.WithLabelValues(snap.RunID, "usdc").Set(snap.Pool.USDC)
	for _, st := range snap.Stages {
		if st.Volume > 0 {
			m.stageVolumes.WithLabelValues(st.Stage).Add(st.Volume)
		}
	}
}

// ObserveRun counts a finished run and drops its per-run gauge series, so
// scheduled batches do not grow the label set without bound.
func (m *SimulationMetrics) ObserveRun(runID, status string) {
	if m == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	m.runs.WithLabelValues(status).Inc()
	m.price.DeleteLabelValues(runID)
	m.volatility.DeleteLabelValues(runID)
	m.reserves.DeleteLabelValues(runID, "token")
	m.reserves.DeleteLabelValues(runID, "usdc")
}

// RunsCounterVec exposes the run outcome counter.
func (m *SimulationMetrics) RunsCounterVec() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.runs
}

// TimestepsCounter exposes the executed timestep counter.
func (m *SimulationMetrics) TimestepsCounter() prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.timesteps
}

// PriceGaugeVec exposes the per-run price gauge.
func (m *SimulationMetrics) PriceGaugeVec() *prometheus.GaugeVec {
	if m == nil {
		return nil
	}
	return m.price
}
