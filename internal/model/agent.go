package model

import (
	"fmt"

	"github.com/google/uuid"
)

// AgentID identifies a stakeholder cohort for the lifetime of a run.
type AgentID = uuid.UUID

// Category tags the stakeholder cohort an agent represents.
type Category string

const (
	CategoryEarlyInvestor           Category = "early_investor"
	CategoryTeam                    Category = "team"
	CategoryProtocolBucket          Category = "protocol_bucket"
	CategoryMarketInvestors         Category = "market_investors"
	CategoryAirdropReceiver         Category = "airdrop_receiver"
	CategoryIncentivisationReceiver Category = "incentivisation_receiver"
)

// Categories lists every known category in declaration order.
var Categories = []Category{
	CategoryEarlyInvestor,
	CategoryTeam,
	CategoryProtocolBucket,
	CategoryMarketInvestors,
	CategoryAirdropReceiver,
	CategoryIncentivisationReceiver,
}

// ParseCategory validates a category tag.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown agent category %q", s)
}

// Lock is one category of locked tokens held by an agent.
type Lock struct {
	Amount     float64 `json:"amount"`
	Cumulative float64 `json:"cumulative"`
	Added      float64 `json:"added"`  // allocated this step
	Remove     float64 `json:"remove"` // pending removal this step
	Rewards    float64 `json:"rewards"`
}

// Actions is the percentage vector assigned to an agent (20 == 20%).
type Actions struct {
	Sell            float64 `json:"sell"`
	Hold            float64 `json:"hold"`
	Utility         float64 `json:"utility"`
	RemoveLocked    float64 `json:"remove_locked"`
	SellFromHolding float64 `json:"sell_from_holding"`

	// Utility sub-bucket shares, applied to the utility amount.
	YieldLock   float64 `json:"yield_lock"`
	BuybackLock float64 `json:"buyback_lock"`
	Liquidity   float64 `json:"liquidity"`
	Transfer    float64 `json:"transfer"`
	Burn        float64 `json:"burn"`

	CurrentAction string `json:"current_action"`
}

// Agent is the ledger row of a single stakeholder cohort.
type Agent struct {
	ID       AgentID  `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`

	Balance float64 `json:"balance"`

	Vested          float64 `json:"vested"`
	VestedCum       float64 `json:"vested_cum"`
	Airdropped      float64 `json:"airdropped"`
	AirdroppedCum   float64 `json:"airdropped_cum"`
	Incentivised    float64 `json:"incentivised"`
	IncentivisedCum float64 `json:"incentivised_cum"`

	YieldLock     Lock `json:"yield_lock"`
	BuybackLock   Lock `json:"buyback_lock"`
	LiquidityLock Lock `json:"liquidity_lock"`

	Transferred    float64 `json:"transferred"`
	TransferredCum float64 `json:"transferred_cum"`
	Burned         float64 `json:"burned"`
	BurnedCum      float64 `json:"burned_cum"`

	// Meta-bucket outputs of the most recent allocation.
	SellingTokens      float64 `json:"selling_tokens"`
	SellingFromHolding float64 `json:"selling_from_holding"`
	UtilityTokens      float64 `json:"utility_tokens"`
	HoldingTokens      float64 `json:"holding_tokens"`
	HoldingFromHolding float64 `json:"holding_from_holding"`

	Actions Actions `json:"actions"`
}

// NewAgent creates an agent with zero balances.
func NewAgent(name string, category Category) Agent {
	return Agent{
		ID:       uuid.New(),
		Name:     name,
		Category: category,
		Actions:  Actions{CurrentAction: "hold"},
	}
}

// Inflow is the eligible token inflow of the current step.
func (a *Agent) Inflow() float64 {
	return a.Vested + a.Airdropped + a.Incentivised
}

// Locked sums every lock category.
func (a *Agent) Locked() float64 {
	return a.YieldLock.Amount + a.BuybackLock.Amount + a.LiquidityLock.Amount
}

// Ledger is the ordered set of agents of one run.
type Ledger []Agent

// Clone returns an independent copy. Agent holds no reference types, so a
// value copy of each row is a deep copy.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	copy(out, l)
	return out
}

// TotalBalance sums free balances across all agents.
func (l Ledger) TotalBalance() float64 {
	var sum float64
	for _, a := range l {
		sum += a.Balance
	}
	return sum
}
