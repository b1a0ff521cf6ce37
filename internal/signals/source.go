package signals

// Adoption is the adoption-side signal of one timestep.
type Adoption struct {
	TokenBuysUSDC float64
	ProductUsers  float64
	TokenHolders  float64
}

// Source supplies inbound per-step values for a run.
type Source interface {
	// Inflow returns the tokens released to the named agent at timestep t.
	Inflow(agent string, t int) float64
	Adoption(t int) Adoption
	Name() string
}
