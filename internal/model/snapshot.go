package model

// StageRecord captures one AMM stage of a timestep.
type StageRecord struct {
	Stage         string   `json:"stage"`
	Volume        float64  `json:"volume"`
	Before        Reserves `json:"before"`
	After         Reserves `json:"after"`
	ProductBefore float64  `json:"product_before"`
	ProductAfter  float64  `json:"product_after"`
	Price         float64  `json:"price"`
}

// Snapshot is the immutable end-of-timestep state of a run.
type Snapshot struct {
	RunID    string        `json:"run_id"`
	Timestep int           `json:"timestep"`
	Agents   Ledger        `json:"agents"`
	Pool     Pool          `json:"pool"`
	Totals   Totals        `json:"totals"`
	Signals  Signals       `json:"signals"`
	Stages   []StageRecord `json:"stages"`
}
