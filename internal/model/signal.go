package model

// Signals are the inbound per-step values supplied by collaborators.
type Signals struct {
	Timestep     int                 `json:"timestep"`
	Inflows      map[AgentID]float64 `json:"inflows"`
	AdoptionUSDC float64             `json:"adoption_usdc"`
	BuybackUSD   float64             `json:"buyback_usd"`
	ProductUsers float64             `json:"product_users"`
	TokenHolders float64             `json:"token_holders"`
}
