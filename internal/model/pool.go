package model

// Reserves is a token/USDC reserve pair.
type Reserves struct {
	Tokens float64 `json:"tokens"`
	USDC   float64 `json:"usdc"`
}

// Product returns tokens × usdc.
func (r Reserves) Product() float64 { return r.Tokens * r.USDC }

// Price returns usdc / tokens, or 0 for an empty token reserve.
func (r Reserves) Price() float64 {
	if r.Tokens == 0 {
		return 0
	}
	return r.USDC / r.Tokens
}

// Pool is the singleton liquidity pool.
type Pool struct {
	Reserves
	ConstantProduct float64 `json:"constant_product"`
	Price           float64 `json:"price"`
	MaxPrice        float64 `json:"max_price"`
	MinPrice        float64 `json:"min_price"`
	Valuation       float64 `json:"valuation"`
	Volatility      float64 `json:"volatility"`

	SeedPrice float64 `json:"seed_price"`
	Seeded    bool    `json:"seeded"`

	AfterAdoption          Reserves `json:"after_adoption"`
	AfterLiquidityAddition Reserves `json:"after_liquidity_addition"`
	AfterBuyback           Reserves `json:"after_buyback"`
}
