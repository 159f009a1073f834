package pipeline

import (
	"context"
	"time"

	"github.com/aicp/controlplane/internal/aicperrors"
	"github.com/aicp/controlplane/internal/obslog"
	"github.com/aicp/controlplane/internal/obsmetrics"
	"github.com/aicp/controlplane/internal/obstrace"
	"github.com/google/uuid"
)

// Pipeline is spec component H: a named, ordered collection of Stages
// executed wave-by-wave as their dependencies are satisfied, grounded on
// original_source/src/aicp/pipeline/engine.py's Pipeline.run.
//
// A Pipeline holds no run-local state; Run allocates a fresh PipelineRun
// and context map on every call, so the same Pipeline value is safe to
// run concurrently from multiple goroutines.
type Pipeline struct {
	Name        string
	stages      map[string]*Stage
	stageOrder  []string
	log         obslog.Logger
	metrics     *obsmetrics.Metrics
	tracer      obstrace.Tracer
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithLogger injects a Logger; the default discards everything.
func WithLogger(log obslog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithMetrics injects a Metrics collector; the default is nil (no metrics
// emitted).
func WithMetrics(m *obsmetrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithTracer injects a Tracer; the default is a no-op tracer.
func WithTracer(t obstrace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// New builds an empty Pipeline named name.
func New(name string, opts ...Option) *Pipeline {
	p := &Pipeline{
		Name:    name,
		stages:  make(map[string]*Stage),
		log:     obslog.NewNop(),
		tracer:  obstrace.Noop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddStage registers a Stage, in declaration order. Adding a Stage whose
// name is already registered replaces the earlier one, which keeps its
// original position in the order.
func (p *Pipeline) AddStage(s *Stage) {
	if _, exists := p.stages[s.Name]; !exists {
		p.stageOrder = append(p.stageOrder, s.Name)
	}
	p.stages[s.Name] = s
}

// Run executes every registered stage in dependency-ready waves, starting
// from initialContext, and returns the full PipelineRun record.
//
// Per spec.md §4.8: a wave is every not-yet-executed stage whose
// dependencies are all in the executed set. When no stage is ready and
// not all have executed, the run fails with ErrPipelineDeadlock. The
// first stage failure within a wave aborts the whole run immediately;
// there is no SKIPPED status in this engine.
func (p *Pipeline) Run(ctx context.Context, initialContext map[string]interface{}) *PipelineRun {
	run := &PipelineRun{
		RunID:        uuid.NewString(),
		PipelineName: p.Name,
		Status:       StatusRunning,
		Results:      make(map[string]*StageResult, len(p.stages)),
		StartTime:    time.Now(),
	}

	ctx, span := p.tracer.StartSpan(ctx, "pipeline_run_"+p.Name)
	defer span.End()

	p.log.Info("pipeline_started", map[string]interface{}{"pipeline": p.Name, "run_id": run.RunID})

	pctx := make(map[string]interface{}, len(initialContext))
	for k, v := range initialContext {
		pctx[k] = v
	}

	executed := make(map[string]bool, len(p.stages))

	for len(executed) < len(p.stages) {
		ready := p.readyStages(executed)

		if len(ready) == 0 {
			run.Status = StatusFailed
			p.log.Error("pipeline_deadlock", map[string]interface{}{"executed": keys(executed)})
			span.RecordError(aicperrors.ErrPipelineDeadlock)
			run.EndTime = time.Now()
			p.recordRunMetric(run)
			return run
		}

		for _, name := range ready {
			stage := p.stages[name]

			stageStart := time.Now()
			result := stage.run(ctx, pctx, p.log, p.tracer)
			if p.metrics != nil {
				p.metrics.PipelineStageLatencySeconds.WithLabelValues(p.Name, name).Observe(time.Since(stageStart).Seconds())
			}

			run.Results[name] = result
			executed[name] = true

			if result.Status == StatusFailed {
				run.Status = StatusFailed
				p.log.Error("pipeline_aborted", map[string]interface{}{"stage": name})
				run.EndTime = time.Now()
				p.recordRunMetric(run)
				return run
			}

			if result.Output != nil {
				pctx[name] = result.Output
			}
		}
	}

	run.Status = StatusCompleted
	run.EndTime = time.Now()
	p.log.Info("pipeline_completed", map[string]interface{}{"pipeline": p.Name, "run_id": run.RunID})
	p.recordRunMetric(run)
	return run
}

// readyStages returns, in registration order, every stage not yet
// executed whose dependencies are all satisfied.
func (p *Pipeline) readyStages(executed map[string]bool) []string {
	var ready []string
	for _, name := range p.stageOrder {
		if executed[name] {
			continue
		}
		s := p.stages[name]
		allSatisfied := true
		for _, dep := range s.DependsOn {
			if !executed[dep] {
				allSatisfied = false
				break
			}
		}
		if allSatisfied {
			ready = append(ready, name)
		}
	}
	return ready
}

func (p *Pipeline) recordRunMetric(run *PipelineRun) {
	if p.metrics == nil {
		return
	}
	p.metrics.PipelineRunsTotal.WithLabelValues(p.Name, string(run.Status)).Inc()
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
