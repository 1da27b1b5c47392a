package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hec-growth-lab/tfp-cli/internal/decomp"
	"github.com/hec-growth-lab/tfp-cli/internal/model"
	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRequest() model.RunRequest {
	return model.RunRequest{Economy: "CA", Method: "tornqvist", BaseYear: 1961, Window: 2}
}

// --- Runs ---

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateRun(ctx, testRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.RunStatusQueued, created.Status)

	got, err := st.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "CA", got.Request.Economy)
	assert.Equal(t, 1961, got.Request.BaseYear)
	assert.Nil(t, got.Result)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateRun(ctx, testRequest())
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, created.ID, model.RunStatusComputing))

	got, err := st.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComputing, got.Status)
}

func TestSQLite_UpdateRunStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateRunStatus(context.Background(), "missing", model.RunStatusComputing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_CompleteRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateRun(ctx, testRequest())
	require.NoError(t, err)

	result := &decomp.ResultSet{
		Economy:  "CA",
		Method:   decomp.MethodTornqvist,
		BaseYear: 1961,
		Window:   2,
		Rows: []decomp.ResultRow{
			{Period: 1962, Aggregate: 0.0183, Within: 0.018, Structural: 0.0006, Reallocation: -0.0003},
		},
	}
	require.NoError(t, st.CompleteRun(ctx, created.ID, result))

	got, err := st.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	require.Len(t, got.Result.Rows, 1)
	assert.Equal(t, panel.Period(1962), got.Result.Rows[0].Period)
	assert.InDelta(t, 0.0183, got.Result.Rows[0].Aggregate, 1e-12)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateRun(ctx, testRequest())
	require.NoError(t, err)

	require.NoError(t, st.FailRun(ctx, created.ID, "identity violation for transition 1961->1962"))

	got, err := st.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Contains(t, got.Error, "identity violation")
}

func TestSQLite_ListRuns_FilterByStatusAndEconomy(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	ca, err := st.CreateRun(ctx, testRequest())
	require.NoError(t, err)
	usReq := testRequest()
	usReq.Economy = "US"
	us, err := st.CreateRun(ctx, usReq)
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, us.ID, model.RunStatusComputing))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	queued, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusQueued})
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, ca.ID, queued[0].ID)

	usOnly, err := st.ListRuns(ctx, RunFilter{Economy: "US"})
	require.NoError(t, err)
	require.Len(t, usOnly, 1)
	assert.Equal(t, us.ID, usOnly[0].ID)
}

func TestSQLite_ListRuns_Limit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.CreateRun(ctx, testRequest())
		require.NoError(t, err)
	}

	runs, err := st.ListRuns(ctx, RunFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

// --- Panels ---

func testPanelRows() []panel.Row {
	cell := func(out, k, l, m float64) panel.Cell {
		return panel.Cell{
			NominalOutput: out, RealOutput: 1,
			CapitalComp: k, CapitalIndex: 1,
			LaborComp: l, LaborIndex: 1,
			IntermediateExp: m, IntermediateIndex: 1,
			OutputPrice: 1,
		}
	}
	return []panel.Row{
		{Industry: "11", Period: 1961, Cell: cell(100, 25, 35, 40)},
		{Industry: "21", Period: 1961, Cell: cell(80, 15, 25, 40)},
		{Industry: "11", Period: 1962, Cell: cell(105, 26, 37, 42)},
		{Industry: "21", Period: 1962, Cell: cell(82, 16, 25, 41)},
	}
}

func TestSQLite_SaveAndLoadPanel(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SavePanel(ctx, "CA", testPanelRows()))

	rows, err := st.LoadPanel(ctx, "CA")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// Ordered by industry then period.
	assert.Equal(t, panel.Industry("11"), rows[0].Industry)
	assert.Equal(t, panel.Period(1961), rows[0].Period)
	assert.Equal(t, 100.0, rows[0].Cell.NominalOutput)
	assert.Equal(t, panel.Period(1962), rows[1].Period)

	// The loaded rows must survive panel validation.
	_, err = panel.Load(rows)
	assert.NoError(t, err)
}

func TestSQLite_SavePanel_ReplaceIsIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SavePanel(ctx, "CA", testPanelRows()))

	updated := testPanelRows()
	updated[0].Cell.NominalOutput = 110
	updated[0].Cell.CapitalComp = 35
	require.NoError(t, st.SavePanel(ctx, "CA", updated))

	rows, err := st.LoadPanel(ctx, "CA")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, 110.0, rows[0].Cell.NominalOutput)
}

func TestSQLite_LoadPanel_EconomiesAreIsolated(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SavePanel(ctx, "CA", testPanelRows()))
	require.NoError(t, st.SavePanel(ctx, "US", testPanelRows()[:2]))

	ca, err := st.LoadPanel(ctx, "CA")
	require.NoError(t, err)
	assert.Len(t, ca, 4)

	us, err := st.LoadPanel(ctx, "US")
	require.NoError(t, err)
	assert.Len(t, us, 2)
}

func TestSQLite_LoadPanel_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	rows, err := st.LoadPanel(context.Background(), "CA")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
