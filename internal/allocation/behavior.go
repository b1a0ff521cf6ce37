package allocation

import (
	"fmt"
	"math/rand"

	"TokenSim/internal/model"
)

// Mode selects how percentage vectors are assigned to agents.
type Mode string

const (
	ModeStatic     Mode = "static"
	ModeStochastic Mode = "stochastic"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStatic, ModeStochastic:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown allocation mode %q", s)
}

// InflowKind decides which inflow field a category's signal inflow is booked to.
type InflowKind int

const (
	InflowVested InflowKind = iota
	InflowAirdropped
	InflowIncentivised
)

// Capability describes how a category takes part in each step.
type Capability struct {
	// Participates is false for cohorts that never sell or use tokens.
	Participates bool
	Inflow       InflowKind
	// BuysAdoption marks cohorts credited with tokens bought by adoption.
	BuysAdoption bool
	// Profile derives the stochastic-mode percentage vector from the global one.
	Profile func(base model.Actions) model.Actions
}

// Capabilities is the category → behaviour table.
var Capabilities = map[model.Category]Capability{
	model.CategoryEarlyInvestor:           {Participates: true, Inflow: InflowVested, Profile: averagedProfile},
	model.CategoryTeam:                    {Participates: true, Inflow: InflowVested, Profile: averagedProfile},
	model.CategoryProtocolBucket:          {Participates: false, Inflow: InflowVested, Profile: fixedProfile(0, 100, 0, 0)},
	model.CategoryMarketInvestors:         {Participates: true, Inflow: InflowVested, BuysAdoption: true, Profile: fixedProfile(60, 10, 25, 5)},
	model.CategoryAirdropReceiver:         {Participates: true, Inflow: InflowAirdropped, Profile: averagedProfile},
	model.CategoryIncentivisationReceiver: {Participates: true, Inflow: InflowIncentivised, Profile: averagedProfile},
}

// CapabilityOf returns the table entry for c; unknown categories do not participate.
func CapabilityOf(c model.Category) Capability {
	if cp, ok := Capabilities[c]; ok {
		return cp
	}
	return Capability{Profile: fixedProfile(0, 100, 0, 0)}
}

// averagedProfile spreads the removal share evenly out of trade, hold and utility.
func averagedProfile(base model.Actions) model.Actions {
	out := base
	out.Sell = base.Sell - base.RemoveLocked/3
	out.Hold = base.Hold - base.RemoveLocked/3
	out.Utility = base.Utility - base.RemoveLocked/3
	return out
}

func fixedProfile(sell, hold, utility, remove float64) func(model.Actions) model.Actions {
	return func(base model.Actions) model.Actions {
		out := base
		out.Sell = sell
		out.Hold = hold
		out.Utility = utility
		out.RemoveLocked = remove
		return out
	}
}

// Behavior assigns percentage vectors to agents.
type Behavior struct {
	Mode Mode
	Base model.Actions
	rng  *rand.Rand
}

// NewBehavior creates a Behavior. The seed only matters in stochastic mode.
func NewBehavior(mode Mode, base model.Actions, seed int64) *Behavior {
	return &Behavior{Mode: mode, Base: base, rng: rand.New(rand.NewSource(seed))}
}

var actionLabels = []string{"trade", "hold", "utility", "remove_locked_tokens"}

// Assign returns a copy of the ledger with each agent's action vector set.
func (b *Behavior) Assign(ledger model.Ledger) model.Ledger {
	out := ledger.Clone()
	for i := range out {
		a := &out[i]
		switch b.Mode {
		case ModeStochastic:
			acts := CapabilityOf(a.Category).Profile(b.Base)
			acts.CurrentAction = b.draw(acts)
			a.Actions = acts
		default:
			acts := b.Base
			acts.CurrentAction = a.Actions.CurrentAction
			a.Actions = acts
		}
	}
	return out
}

// draw picks an action label weighted by the meta-bucket percentages.
func (b *Behavior) draw(acts model.Actions) string {
	weights := []float64{acts.Sell, acts.Hold, acts.Utility, acts.RemoveLocked}
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return "hold"
	}
	r := b.rng.Float64() * total
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if r < w {
			return actionLabels[i]
		}
		r -= w
		last = i
	}
	return actionLabels[last]
}
