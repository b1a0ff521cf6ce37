package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all run parameters.
type Config struct {
	Simulation struct {
		Runs      int   `yaml:"runs"`
		Timesteps int   `yaml:"timesteps"`
		Seed      int64 `yaml:"seed"`
		Workers   int   `yaml:"workers"`
	} `yaml:"simulation"`
	Token struct {
		TotalSupply  float64 `yaml:"total_supply"`
		InitialPrice float64 `yaml:"initial_price"`
	} `yaml:"token"`
	Allocation struct {
		Mode                string  `yaml:"mode"`
		SellPct             float64 `yaml:"sell_pct"`
		HoldPct             float64 `yaml:"hold_pct"`
		UtilityPct          float64 `yaml:"utility_pct"`
		RemoveLockedPct     float64 `yaml:"remove_locked_pct"`
		SellFromHoldingPct  float64 `yaml:"sell_from_holding_pct"`
		AllowUtilityLeakage bool    `yaml:"allow_utility_leakage"`
	} `yaml:"allocation"`
	Utility struct {
		YieldLockPct          float64 `yaml:"yield_lock_pct"`
		BuybackLockPct        float64 `yaml:"buyback_lock_pct"`
		LiquidityPct          float64 `yaml:"liquidity_pct"`
		TransferPct           float64 `yaml:"transfer_pct"`
		BurnPct               float64 `yaml:"burn_pct"`
		YieldAPRPct           float64 `yaml:"yield_apr_pct"`
		LiquidityMiningAPRPct float64 `yaml:"liquidity_mining_apr_pct"`
	} `yaml:"utility"`
	Liquidity struct {
		InitialTokens               float64 `yaml:"initial_tokens"`
		InitialUSDC                 float64 `yaml:"initial_usdc"`
		LPAllocationPct             float64 `yaml:"lp_allocation_pct"`
		TokenWeight                 float64 `yaml:"token_weight"`
		USDCWeight                  float64 `yaml:"usdc_weight"`
		Tolerance                   float64 `yaml:"tolerance"`
		ResetVolatilityEachTimestep bool    `yaml:"reset_volatility_each_timestep"`
	} `yaml:"liquidity"`
	Agents   []Agent `yaml:"agents"`
	Adoption struct {
		InitialTokenHolders    float64 `yaml:"initial_token_holders"`
		TokenHoldersTarget     float64 `yaml:"token_holders_target"`
		InitialProductUsers    float64 `yaml:"initial_product_users"`
		ProductUsersTarget     float64 `yaml:"product_users_target"`
		OneTimeTokenBuyPerUser float64 `yaml:"one_time_token_buy_per_user"`
		RegularTokenBuyPerUser float64 `yaml:"regular_token_buy_per_user"`
	} `yaml:"adoption"`
	Business struct {
		MonthlyIncomeUSD float64 `yaml:"monthly_income_usd"`
		BuybackType      string  `yaml:"buyback_type"`
		BuybackFixedUSD  float64 `yaml:"buyback_fixed_usd"`
		BuybackPct       float64 `yaml:"buyback_pct"`
		BuybackStart     int     `yaml:"buyback_start"`
		BuybackEnd       int     `yaml:"buyback_end"`
	} `yaml:"business"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
}

// Agent is one stakeholder cohort and its vesting schedule.
type Agent struct {
	Name          string  `yaml:"name"`
	Category      string  `yaml:"category"`
	AllocationPct float64 `yaml:"allocation_pct"`
	TGEPct        float64 `yaml:"tge_pct"`
	CliffMonths   int     `yaml:"cliff_months"`
	VestingMonths int     `yaml:"vesting_months"`
	RaisedUSD     float64 `yaml:"raised_usd"`
}

var categories = map[string]bool{
	"early_investor":           true,
	"team":                     true,
	"protocol_bucket":          true,
	"market_investors":         true,
	"airdrop_receiver":         true,
	"incentivisation_receiver": true,
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TOKENSIM_RUNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TOKENSIM_RUNS: %w", err)
		}
		cfg.Simulation.Runs = n
	}
	if v := os.Getenv("TOKENSIM_TIMESTEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TOKENSIM_TIMESTEPS: %w", err)
		}
		cfg.Simulation.Timesteps = n
	}
	if v := os.Getenv("TOKENSIM_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TOKENSIM_SEED: %w", err)
		}
		cfg.Simulation.Seed = n
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("TOKENSIM_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("METRICS_LISTEN"); v != "" {
		cfg.Metrics.Listen = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Simulation.Runs == 0 {
		c.Simulation.Runs = 1
	}
	if c.Simulation.Timesteps == 0 {
		c.Simulation.Timesteps = 120
	}
	if c.Simulation.Workers == 0 {
		c.Simulation.Workers = 4
	}
	if c.Allocation.Mode == "" {
		c.Allocation.Mode = "static"
	}
	if c.Liquidity.TokenWeight == 0 && c.Liquidity.USDCWeight == 0 {
		c.Liquidity.TokenWeight = 0.5
		c.Liquidity.USDCWeight = 0.5
	}
	if c.Liquidity.Tolerance == 0 {
		c.Liquidity.Tolerance = 0.001
	}
	if c.Business.BuybackType == "" {
		c.Business.BuybackType = "fixed"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/tokensim.db"
	}
}

// Validate checks that the parameters describe a runnable economy.
func (c *Config) Validate() error {
	if c.Simulation.Runs <= 0 {
		return fmt.Errorf("simulation.runs must be positive")
	}
	if c.Simulation.Timesteps <= 0 {
		return fmt.Errorf("simulation.timesteps must be positive")
	}
	if c.Simulation.Workers <= 0 {
		return fmt.Errorf("simulation.workers must be positive")
	}
	switch c.Allocation.Mode {
	case "static", "stochastic":
	default:
		return fmt.Errorf("allocation.mode %q is not static or stochastic", c.Allocation.Mode)
	}

	pcts := map[string]float64{
		"allocation.sell_pct":              c.Allocation.SellPct,
		"allocation.hold_pct":              c.Allocation.HoldPct,
		"allocation.utility_pct":           c.Allocation.UtilityPct,
		"allocation.remove_locked_pct":     c.Allocation.RemoveLockedPct,
		"allocation.sell_from_holding_pct": c.Allocation.SellFromHoldingPct,
		"utility.yield_lock_pct":           c.Utility.YieldLockPct,
		"utility.buyback_lock_pct":         c.Utility.BuybackLockPct,
		"utility.liquidity_pct":            c.Utility.LiquidityPct,
		"utility.transfer_pct":             c.Utility.TransferPct,
		"utility.burn_pct":                 c.Utility.BurnPct,
		"liquidity.lp_allocation_pct":      c.Liquidity.LPAllocationPct,
		"business.buyback_pct":             c.Business.BuybackPct,
	}
	keys := make([]string, 0, len(pcts))
	for k := range pcts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := pcts[k]; v < 0 || v > 100 {
			return fmt.Errorf("%s must be within 0..100, got %g", k, v)
		}
	}
	if c.Allocation.Mode == "stochastic" {
		floor := c.Allocation.RemoveLockedPct / 3
		shares := []struct {
			name string
			v    float64
		}{
			{"allocation.sell_pct", c.Allocation.SellPct},
			{"allocation.hold_pct", c.Allocation.HoldPct},
			{"allocation.utility_pct", c.Allocation.UtilityPct},
		}
		for _, sh := range shares {
			if sh.v < floor {
				return fmt.Errorf("%s %g is below a third of allocation.remove_locked_pct (%g) in stochastic mode", sh.name, sh.v, floor)
			}
		}
	}
	if c.Allocation.SellPct+c.Allocation.UtilityPct > 100 {
		return fmt.Errorf("allocation.sell_pct plus allocation.utility_pct exceed 100")
	}
	if !c.Allocation.AllowUtilityLeakage {
		sum := c.Utility.YieldLockPct + c.Utility.BuybackLockPct + c.Utility.LiquidityPct +
			c.Utility.TransferPct + c.Utility.BurnPct
		if c.Allocation.UtilityPct > 0 && math.Abs(sum-100) > 100*c.Liquidity.Tolerance {
			return fmt.Errorf("utility sub-bucket shares sum to %g, want 100", sum)
		}
	}
	if c.Utility.YieldAPRPct < 0 || c.Utility.LiquidityMiningAPRPct < 0 {
		return fmt.Errorf("utility APRs must be non-negative")
	}

	if c.Token.TotalSupply <= 0 {
		return fmt.Errorf("token.total_supply must be positive")
	}
	if c.Token.InitialPrice <= 0 && c.Liquidity.InitialUSDC <= 0 {
		return fmt.Errorf("token.initial_price or liquidity.initial_usdc is required")
	}
	if c.Liquidity.InitialTokens < 0 || c.Liquidity.InitialUSDC < 0 {
		return fmt.Errorf("liquidity reserves must be non-negative")
	}
	if c.Liquidity.TokenWeight <= 0 || c.Liquidity.USDCWeight <= 0 {
		return fmt.Errorf("liquidity weights must be positive")
	}
	if c.Liquidity.Tolerance <= 0 {
		return fmt.Errorf("liquidity.tolerance must be positive")
	}

	if len(c.Agents) == 0 {
		return fmt.Errorf("at least one agent is required")
	}
	seen := make(map[string]bool, len(c.Agents))
	var allocated float64
	for i, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agents[%d].name is required", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("agent %q is defined twice", a.Name)
		}
		seen[a.Name] = true
		if !categories[a.Category] {
			return fmt.Errorf("agent %q has unknown category %q", a.Name, a.Category)
		}
		if a.AllocationPct < 0 || a.TGEPct < 0 || a.TGEPct > 100 || a.RaisedUSD < 0 {
			return fmt.Errorf("agent %q has out of range allocation parameters", a.Name)
		}
		if a.CliffMonths < 0 || a.VestingMonths < 0 {
			return fmt.Errorf("agent %q has negative vesting months", a.Name)
		}
		allocated += a.AllocationPct
	}
	if allocated+c.Liquidity.LPAllocationPct > 100+100*c.Liquidity.Tolerance {
		return fmt.Errorf("agent and LP allocations sum to %g, more than 100", allocated+c.Liquidity.LPAllocationPct)
	}

	switch c.Business.BuybackType {
	case "fixed", "percentage":
	default:
		return fmt.Errorf("business.buyback_type %q is not fixed or percentage", c.Business.BuybackType)
	}
	if c.Business.BuybackEnd > 0 && c.Business.BuybackEnd < c.Business.BuybackStart {
		return fmt.Errorf("business.buyback_end is before business.buyback_start")
	}
	return nil
}

// ErrUnknownParameter is returned by ApplyFlat for names it does not map.
var ErrUnknownParameter = errors.New("unknown parameter")

// ApplyFlat overrides fields by their flat parameter names, as used by
// parameter sweeps.
func (c *Config) ApplyFlat(params map[string]float64) error {
	fields := map[string]*float64{
		"avg_token_selling_allocation":   &c.Allocation.SellPct,
		"avg_token_holding_allocation":   &c.Allocation.HoldPct,
		"avg_token_utility_allocation":   &c.Allocation.UtilityPct,
		"avg_token_utility_removal":      &c.Allocation.RemoveLockedPct,
		"avg_token_selling_from_holding": &c.Allocation.SellFromHoldingPct,
		"lock_share":                     &c.Utility.YieldLockPct,
		"lock_buyback_distribute_share":  &c.Utility.BuybackLockPct,
		"liquidity_mining_share":         &c.Utility.LiquidityPct,
		"transfer_share":                 &c.Utility.TransferPct,
		"burning_share":                  &c.Utility.BurnPct,
		"initial_required_usdc":          &c.Liquidity.InitialUSDC,
		"initial_lp_token_allocation":    &c.Liquidity.InitialTokens,
		"initial_token_price":            &c.Token.InitialPrice,
		"initial_total_supply":           &c.Token.TotalSupply,
	}
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		f, ok := fields[k]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownParameter, k)
		}
		*f = params[k]
	}
	return nil
}
