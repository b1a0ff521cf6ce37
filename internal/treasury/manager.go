// Package treasury tracks the project's USD cash: raised capital, the DEX
// seed, monthly business income and the buybacks it funds.
package treasury

import (
	"log"
	"sync"

	"TokenSim/internal/invariant"
)

// BuybackType selects how the monthly buyback amount is derived.
type BuybackType string

const (
	BuybackFixed      BuybackType = "fixed"
	BuybackPercentage BuybackType = "percentage"
)

// Policy configures income and buybacks.
type Policy struct {
	RaisedCapital float64
	MonthlyIncome float64
	BuybackType   BuybackType
	// BuybackFixed is the USD per month for fixed buybacks.
	BuybackFixed float64
	// BuybackPct is the percentage of available cash for percentage buybacks.
	BuybackPct   float64
	BuybackStart int
	BuybackEnd   int
}

// State is a snapshot of the treasury.
type State struct {
	Cash            float64 `json:"cash"`
	SeedUSDC        float64 `json:"seed_usdc"`
	IncomeCum       float64 `json:"income_cum"`
	BuybacksCum     float64 `json:"buybacks_cum"`
	LastBuyback     float64 `json:"last_buyback"`
	LastIncomeMonth int     `json:"last_income_month"`
}

// Manager handles treasury operations with concurrency safety.
type Manager struct {
	mu     sync.Mutex
	policy Policy
	state  State
}

// NewManager creates a Manager holding the raised capital as cash.
func NewManager(p Policy) (*Manager, error) {
	if p.RaisedCapital < 0 || p.MonthlyIncome < 0 {
		return nil, invariant.Configuration("treasury", "raised capital %g and monthly income %g must be non-negative", p.RaisedCapital, p.MonthlyIncome)
	}
	switch p.BuybackType {
	case "", BuybackFixed, BuybackPercentage:
	default:
		return nil, invariant.Configuration("treasury", "unknown buyback type %q", p.BuybackType)
	}
	if p.BuybackFixed < 0 || p.BuybackPct < 0 || p.BuybackPct > 100 {
		return nil, invariant.Configuration("treasury", "buyback amount %g or percentage %g out of range", p.BuybackFixed, p.BuybackPct)
	}
	return &Manager{policy: p, state: State{Cash: p.RaisedCapital}}, nil
}

// GetState returns a copy of the current treasury state.
func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// FundSeed pays the USDC side of the initial DEX liquidity.
func (m *Manager) FundSeed(usdc float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if usdc > m.state.Cash {
		return invariant.Configuration("treasury", "the required funds to seed the DEX liquidity are %g, which is higher than the available cash %g", usdc, m.state.Cash)
	}
	m.state.Cash -= usdc
	m.state.SeedUSDC += usdc
	return nil
}

// Buyback books the monthly income for timestep t and returns the USD spent
// on buybacks, capped at available cash. Income is booked once per month.
func (m *Manager) Buyback(t int) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t > m.state.LastIncomeMonth {
		m.state.Cash += m.policy.MonthlyIncome
		m.state.IncomeCum += m.policy.MonthlyIncome
		m.state.LastIncomeMonth = t
	}

	m.state.LastBuyback = 0
	if !m.active(t) {
		return 0, nil
	}

	var amount float64
	switch m.policy.BuybackType {
	case BuybackPercentage:
		amount = m.state.Cash * m.policy.BuybackPct / 100
	default:
		amount = m.policy.BuybackFixed
	}
	if amount > m.state.Cash {
		log.Printf("[WARN] buyback of %.2f at timestep %d capped to available cash %.2f", amount, t, m.state.Cash)
		amount = m.state.Cash
	}

	m.state.Cash -= amount
	m.state.BuybacksCum += amount
	m.state.LastBuyback = amount
	return amount, nil
}

func (m *Manager) active(t int) bool {
	if m.policy.BuybackStart > 0 && t < m.policy.BuybackStart {
		return false
	}
	if m.policy.BuybackEnd > 0 && t > m.policy.BuybackEnd {
		return false
	}
	return true
}
