package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aicp/controlplane/internal/pipeline"
	"github.com/aicp/controlplane/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineRun_SequentialDependency(t *testing.T) {
	p := pipeline.New("greeting")

	p.AddStage(pipeline.NewStage("make_name", nil, func(args map[string]interface{}) (interface{}, error) {
		return "ada", nil
	}, nil, nil, 0))

	p.AddStage(pipeline.NewStage("greet", []string{"make_name"}, func(args map[string]interface{}) (interface{}, error) {
		return "hello, " + args["make_name"].(string), nil
	}, []string{"make_name"}, nil, 0))

	run := p.Run(context.Background(), nil)

	require.Equal(t, pipeline.StatusCompleted, run.Status)
	assert.Equal(t, "hello, ada", run.Results["greet"].Output)
	assert.NotEmpty(t, run.RunID)
}

func TestPipelineRun_AbortsOnStageFailure(t *testing.T) {
	p := pipeline.New("failing")

	p.AddStage(pipeline.NewStage("boom", nil, func(args map[string]interface{}) (interface{}, error) {
		return nil, errors.New("kaboom")
	}, nil, nil, 0))

	p.AddStage(pipeline.NewStage("never_runs", nil, func(args map[string]interface{}) (interface{}, error) {
		t.Fatal("should never run after boom fails")
		return nil, nil
	}, []string{"boom"}, nil, 0))

	run := p.Run(context.Background(), nil)

	assert.Equal(t, pipeline.StatusFailed, run.Status)
	assert.Equal(t, pipeline.StatusFailed, run.Results["boom"].Status)
	assert.NotContains(t, run.Results, "never_runs")
}

func TestPipelineRun_DeadlockOnUnsatisfiableDependency(t *testing.T) {
	p := pipeline.New("deadlocked")

	p.AddStage(pipeline.NewStage("needs_phantom", nil, func(args map[string]interface{}) (interface{}, error) {
		return "ok", nil
	}, []string{"does_not_exist"}, nil, 0))

	run := p.Run(context.Background(), nil)

	assert.Equal(t, pipeline.StatusFailed, run.Status)
	assert.Empty(t, run.Results)
}

func TestPipelineRun_RetriesStageUntilItSucceeds(t *testing.T) {
	p := pipeline.New("retrying")

	attempts := 0
	p.AddStage(pipeline.NewStage("flaky", nil, func(args map[string]interface{}) (interface{}, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return "recovered", nil
	}, nil, nil, 2))

	run := p.Run(context.Background(), nil)

	assert.Equal(t, pipeline.StatusCompleted, run.Status)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "recovered", run.Results["flaky"].Output)
}

func TestPipelineRun_ValidationGateRejectsOutput(t *testing.T) {
	p := pipeline.New("gated")

	alwaysRejects := validation.New("reject-all", nil, func(data interface{}) bool { return false }, nil)
	p.AddStage(pipeline.NewStage("produce", nil, func(args map[string]interface{}) (interface{}, error) {
		return "anything", nil
	}, nil, alwaysRejects, 0))

	run := p.Run(context.Background(), nil)

	assert.Equal(t, pipeline.StatusFailed, run.Status)
	assert.Contains(t, run.Results["produce"].Error, "reject-all")
}

func TestPipelineRun_ProjectsOnlyDeclaredInputsFromContext(t *testing.T) {
	p := pipeline.New("scoped")

	p.AddStage(pipeline.NewStage("produce", nil, func(args map[string]interface{}) (interface{}, error) {
		return "secret", nil
	}, nil, nil, 0))

	var seenKeys []string
	p.AddStage(pipeline.NewStage("consume", []string{"produce"}, func(args map[string]interface{}) (interface{}, error) {
		for k := range args {
			seenKeys = append(seenKeys, k)
		}
		return nil, nil
	}, []string{"produce"}, nil, 0))

	run := p.Run(context.Background(), map[string]interface{}{"unrelated": "noise"})

	require.Equal(t, pipeline.StatusCompleted, run.Status)
	assert.Equal(t, []string{"produce"}, seenKeys)
}
