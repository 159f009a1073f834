package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aicp/controlplane/internal/aicperrors"
	"github.com/aicp/controlplane/internal/obslog"
	"github.com/aicp/controlplane/internal/obstrace"
	"github.com/aicp/controlplane/internal/validation"
)

// StageFunc is the unit of work a Stage wraps. args contains the subset of
// the running pipeline's context whose keys match the Stage's declared
// Inputs, projecting spec.md §9's "intersection of declared parameter
// names with context's keys" without reflection over Go function
// signatures.
type StageFunc func(args map[string]interface{}) (interface{}, error)

// Stage is spec component G: a named unit of pipeline work with explicit
// input bindings, dependencies, an optional validation gate, and a retry
// budget.
type Stage struct {
	Name      string
	Inputs    []string
	Fn        StageFunc
	DependsOn []string
	Gate      *validation.Gate
	Retries   int
}

// NewStage builds a Stage. Gate may be nil.
func NewStage(name string, inputs []string, fn StageFunc, dependsOn []string, gate *validation.Gate, retries int) *Stage {
	return &Stage{
		Name:      name,
		Inputs:    inputs,
		Fn:        fn,
		DependsOn: dependsOn,
		Gate:      gate,
		Retries:   retries,
	}
}

// run projects pctx onto the stage's declared inputs, invokes Fn, applies
// the validation gate if present, and retries with `1 * 2^attempt` second
// backoff on failure or gate rejection, matching original_source's
// Stage.run.
func (s *Stage) run(ctx context.Context, pctx map[string]interface{}, log obslog.Logger, tracer obstrace.Tracer) *StageResult {
	ctx, span := tracer.StartSpan(ctx, "pipeline_stage_"+s.Name)
	defer span.End()

	result := &StageResult{StageName: s.Name, Status: StatusRunning, StartTime: time.Now()}

	args := make(map[string]interface{}, len(s.Inputs))
	for _, key := range s.Inputs {
		if v, ok := pctx[key]; ok {
			args[key] = v
		}
	}

	var lastErr error
attempts:
	for attempt := 0; attempt <= s.Retries; attempt++ {
		if attempt > 0 {
			log.Info("retrying_stage", map[string]interface{}{"stage": s.Name, "attempt": attempt})
		}

		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		output, err := s.Fn(args)
		if err == nil {
			if s.Gate != nil && !s.Gate.Validate(output) {
				err = fmt.Errorf("Validation failed at gate: %s: %w", s.Gate.Name, aicperrors.ErrValidationFailed)
			}
		}

		if err == nil {
			result.Output = output
			result.Status = StatusCompleted
			result.EndTime = time.Now()
			return result
		}

		lastErr = err
		log.Error("stage_failed", map[string]interface{}{
			"stage": s.Name, "attempt": attempt, "error": err.Error(),
		})

		if attempt < s.Retries {
			sleep := time.Duration(float64(time.Second) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break attempts
			case <-time.After(sleep):
			}
		}
	}

	result.Status = StatusFailed
	if lastErr != nil {
		result.Error = lastErr.Error()
	} else {
		result.Error = aicperrors.ErrStageFailed.Error()
	}
	result.EndTime = time.Now()
	span.RecordError(lastErr)
	return result
}
