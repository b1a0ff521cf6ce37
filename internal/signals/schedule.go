package signals

import "math"

// AdoptionHorizon is the number of months over which holder and user counts
// reach their long-run targets.
const AdoptionHorizon = 120

// Vesting is one agent's release schedule.
type Vesting struct {
	Tokens        float64
	TGEPct        float64
	CliffMonths   int
	VestingMonths int
}

// At returns the tokens released at timestep t (t >= 1). The TGE share is
// released at t=1; the remainder vests linearly after the cliff.
func (v Vesting) At(t int) float64 {
	if t < 1 || v.Tokens <= 0 {
		return 0
	}
	tge := v.Tokens * v.TGEPct / 100
	rest := v.Tokens - tge

	var out float64
	if t == 1 {
		out = tge
	}
	m := t - 1
	if v.VestingMonths <= 0 {
		if m == v.CliffMonths {
			out += rest
		}
		return out
	}
	if m > v.CliffMonths && m <= v.CliffMonths+v.VestingMonths {
		out += rest / float64(v.VestingMonths)
	}
	return out
}

// AdoptionCurve grows holder and user counts linearly toward their targets.
type AdoptionCurve struct {
	InitialTokenHolders float64
	TokenHoldersTarget  float64
	InitialProductUsers float64
	ProductUsersTarget  float64
	OneTimeBuyPerUser   float64
	RegularBuyPerUser   float64
}

func grow(initial, target float64, t int) float64 {
	if t <= 0 {
		return 0
	}
	f := math.Min(float64(t), AdoptionHorizon) / AdoptionHorizon
	return initial + (target-initial)*f
}

// At returns the adoption signal at timestep t. Every holder counted for the
// first time makes a one-time buy; all holders make the regular buy.
func (c AdoptionCurve) At(t int) Adoption {
	holders := grow(c.InitialTokenHolders, c.TokenHoldersTarget, t)
	newHolders := math.Max(holders-grow(c.InitialTokenHolders, c.TokenHoldersTarget, t-1), 0)
	return Adoption{
		TokenBuysUSDC: newHolders*c.OneTimeBuyPerUser + holders*c.RegularBuyPerUser,
		ProductUsers:  grow(c.InitialProductUsers, c.ProductUsersTarget, t),
		TokenHolders:  holders,
	}
}

// ScheduleSource is a deterministic Source built from configuration.
type ScheduleSource struct {
	Vesting map[string]Vesting
	Curve   AdoptionCurve
}

func (s *ScheduleSource) Name() string { return "schedule" }

func (s *ScheduleSource) Inflow(agent string, t int) float64 {
	return s.Vesting[agent].At(t)
}

func (s *ScheduleSource) Adoption(t int) Adoption {
	return s.Curve.At(t)
}
