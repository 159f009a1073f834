// Package pipeline implements spec components G and H: a declarative
// Stage and the ready-wave DAG executor that runs a collection of them,
// grounded on original_source/src/aicp/pipeline/engine.py and
// original_source/src/aicp/pipeline/models.py.
package pipeline

import "time"

// Status is a stage or run's terminal (or in-flight) state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// StageResult records the outcome of running a single Stage within a run.
type StageResult struct {
	StageName string
	Status    Status
	Output    interface{}
	Error     string
	StartTime time.Time
	EndTime   time.Time
}

// PipelineRun is the record of one Pipeline.Run invocation: every stage's
// result, keyed by stage name, plus the run's own terminal status.
type PipelineRun struct {
	RunID        string
	PipelineName string
	Status       Status
	Results      map[string]*StageResult
	StartTime    time.Time
	EndTime      time.Time
}
