package store

import (
	"context"

	"github.com/hec-growth-lab/tfp-cli/internal/decomp"
	"github.com/hec-growth-lab/tfp-cli/internal/model"
	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Economy string          `json:"economy,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for decomposition runs and
// ingested panels.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, req model.RunRequest) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, result *decomp.ResultSet) error
	FailRun(ctx context.Context, runID string, cause string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Panels
	SavePanel(ctx context.Context, economy string, rows []panel.Row) error
	LoadPanel(ctx context.Context, economy string) ([]panel.Row, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// panelColumns is the column order used by both backends for panel_obs.
var panelColumns = []string{
	"economy", "industry", "period",
	"nominal_output", "real_output",
	"capital_comp", "capital_index",
	"labor_comp", "labor_index",
	"intermediate_exp", "intermediate_index",
	"output_price",
}

func panelValues(economy string, r panel.Row) []any {
	return []any{
		economy, string(r.Industry), int(r.Period),
		r.Cell.NominalOutput, r.Cell.RealOutput,
		r.Cell.CapitalComp, r.Cell.CapitalIndex,
		r.Cell.LaborComp, r.Cell.LaborIndex,
		r.Cell.IntermediateExp, r.Cell.IntermediateIndex,
		r.Cell.OutputPrice,
	}
}
