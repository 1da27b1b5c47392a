package model

import (
	"time"

	"github.com/hec-growth-lab/tfp-cli/internal/decomp"
)

// RunStatus represents the current state of a decomposition run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusLoading   RunStatus = "loading"
	RunStatusComputing RunStatus = "computing"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// RunRequest captures the inputs a run was started with.
type RunRequest struct {
	Economy   string `json:"economy"`
	Method    string `json:"method"`
	BaseYear  int    `json:"base_year"`
	Window    int    `json:"window"`
	InputPath string `json:"input_path,omitempty"`
}

// Run represents a single decomposition run over one economy's panel.
type Run struct {
	ID        string            `json:"id"`
	Request   RunRequest        `json:"request"`
	Status    RunStatus         `json:"status"`
	Result    *decomp.ResultSet `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Terminal reports whether the run has finished, successfully or not.
func (r *Run) Terminal() bool {
	return r.Status == RunStatusComplete || r.Status == RunStatusFailed
}

// RunSummary is the list-view projection of a run, without the result payload.
type RunSummary struct {
	ID        string    `json:"id"`
	Economy   string    `json:"economy"`
	Method    string    `json:"method"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary projects the run into its list form.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:        r.ID,
		Economy:   r.Request.Economy,
		Method:    r.Request.Method,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
