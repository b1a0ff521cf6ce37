package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenSim/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "tokensim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func count(t *testing.T, r *SQLiteRecorder, table string) int {
	t.Helper()
	var n int
	require.NoError(t, r.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLiteRecorder_Snapshot(t *testing.T) {
	r := newTestRecorder(t)

	snap := &model.Snapshot{
		RunID:    "run-1",
		Timestep: 1,
		Agents: model.Ledger{
			model.NewAgent("team", model.CategoryTeam),
			model.NewAgent("market", model.CategoryMarketInvestors),
		},
		Pool: model.Pool{Reserves: model.Reserves{Tokens: 100, USDC: 50}, Price: 0.5},
		Stages: []model.StageRecord{
			{Stage: "adoption_buy", Volume: 10},
			{Stage: "vesting_sell", Volume: 5},
		},
	}
	require.NoError(t, r.RecordSnapshot(snap))

	assert.Equal(t, 1, count(t, r, "timesteps"))
	assert.Equal(t, 2, count(t, r, "agent_states"))
	assert.Equal(t, 2, count(t, r, "stage_reserves"))

	var price float64
	require.NoError(t, r.db.QueryRow(`SELECT price FROM timesteps WHERE run_id = ?`, "run-1").Scan(&price))
	assert.Equal(t, 0.5, price)
}

func TestSQLiteRecorder_RunAndFailure(t *testing.T) {
	r := newTestRecorder(t)

	run := &RunSummary{RunID: "run-2", Seed: 7, Mode: "static", Status: "failed", StartedAt: time.Now(), FinishedAt: time.Now()}
	require.NoError(t, r.RecordRun(run))
	run.Status = "ok"
	require.NoError(t, r.RecordRun(run))
	require.NoError(t, r.RecordFailure(&Failure{RunID: "run-2", Timestep: 3, Kind: "numerical", Message: "drift"}))

	assert.Equal(t, 1, count(t, r, "runs"))
	assert.Equal(t, 1, count(t, r, "run_failures"))

	var status string
	require.NoError(t, r.db.QueryRow(`SELECT status FROM runs WHERE run_id = ?`, "run-2").Scan(&status))
	assert.Equal(t, "ok", status)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	assert.NoError(t, rec.RecordSnapshot(&model.Snapshot{}))
	assert.NoError(t, rec.RecordRun(&RunSummary{}))
	assert.NoError(t, rec.RecordFailure(&Failure{}))
	assert.NoError(t, rec.Close())
}
