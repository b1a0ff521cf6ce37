package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"TokenSim/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while runs write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			seed        INTEGER,
			mode        TEXT,
			timesteps   INTEGER,
			status      TEXT,
			final_price REAL,
			volatility  REAL,
			started_at  INTEGER,
			finished_at INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS timesteps (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id             TEXT NOT NULL,
			timestep           INTEGER NOT NULL,
			tokens             REAL,
			usdc               REAL,
			constant_product   REAL,
			price              REAL,
			max_price          REAL,
			min_price          REAL,
			valuation          REAL,
			volatility         REAL,
			selling            REAL,
			holding            REAL,
			utility            REAL,
			removed            REAL,
			adoption_usdc      REAL,
			buyback_usd        REAL,
			token_holders      REAL,
			product_users      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_timesteps_run ON timesteps(run_id, timestep)`,

		`CREATE TABLE IF NOT EXISTS agent_states (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL,
			timestep        INTEGER NOT NULL,
			agent_id        TEXT NOT NULL,
			name            TEXT,
			category        TEXT,
			balance         REAL,
			vested_cum      REAL,
			selling         REAL,
			holding         REAL,
			utility         REAL,
			locked          REAL,
			burned_cum      REAL,
			current_action  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agent_states_run ON agent_states(run_id, timestep)`,

		`CREATE TABLE IF NOT EXISTS stage_reserves (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			timestep       INTEGER NOT NULL,
			stage          TEXT NOT NULL,
			volume         REAL,
			tokens_before  REAL,
			usdc_before    REAL,
			tokens_after   REAL,
			usdc_after     REAL,
			product_before REAL,
			product_after  REAL,
			price          REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stage_reserves_run ON stage_reserves(run_id, timestep)`,

		`CREATE TABLE IF NOT EXISTS run_failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestep  INTEGER,
			kind      TEXT,
			message   TEXT,
			timestamp INTEGER NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR REPLACE INTO runs
		(run_id, seed, mode, timesteps, status, final_price, volatility, started_at, finished_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.Seed, run.Mode, run.Timesteps, run.Status,
		run.FinalPrice, run.Volatility, run.StartedAt.Unix(), run.FinishedAt.Unix(),
	)
	return err
}

// RecordSnapshot writes the pool, totals, agents and stage reserves of one
// timestep in a single transaction.
func (r *SQLiteRecorder) RecordSnapshot(snap *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	p, tot, sig := snap.Pool, snap.Totals, snap.Signals
	if _, err := tx.Exec(`INSERT INTO timesteps
		(run_id, timestep, tokens, usdc, constant_product, price, max_price, min_price,
		 valuation, volatility, selling, holding, utility, removed,
		 adoption_usdc, buyback_usd, token_holders, product_users)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.RunID, snap.Timestep, p.Tokens, p.USDC, p.ConstantProduct, p.Price,
		p.MaxPrice, p.MinPrice, p.Valuation, p.Volatility,
		tot.Selling, tot.Holding, tot.Utility, tot.Removed,
		sig.AdoptionUSDC, sig.BuybackUSD, sig.TokenHolders, sig.ProductUsers,
	); err != nil {
		return fmt.Errorf("insert timestep: %w", err)
	}

	for i := range snap.Agents {
		a := &snap.Agents[i]
		if _, err := tx.Exec(`INSERT INTO agent_states
			(run_id, timestep, agent_id, name, category, balance, vested_cum,
			 selling, holding, utility, locked, burned_cum, current_action)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			snap.RunID, snap.Timestep, a.ID.String(), a.Name, string(a.Category),
			a.Balance, a.VestedCum, a.SellingTokens+a.SellingFromHolding,
			a.HoldingTokens, a.UtilityTokens, a.Locked(), a.BurnedCum, a.Actions.CurrentAction,
		); err != nil {
			return fmt.Errorf("insert agent state: %w", err)
		}
	}

	for _, st := range snap.Stages {
		if _, err := tx.Exec(`INSERT INTO stage_reserves
			(run_id, timestep, stage, volume, tokens_before, usdc_before,
			 tokens_after, usdc_after, product_before, product_after, price)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			snap.RunID, snap.Timestep, st.Stage, st.Volume,
			st.Before.Tokens, st.Before.USDC, st.After.Tokens, st.After.USDC,
			st.ProductBefore, st.ProductAfter, st.Price,
		); err != nil {
			return fmt.Errorf("insert stage reserves: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) RecordFailure(f *Failure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO run_failures
		(run_id, timestep, kind, message, timestamp)
		VALUES (?,?,?,?,?)`,
		f.RunID, f.Timestep, f.Kind, f.Message, time.Now().Unix(),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
