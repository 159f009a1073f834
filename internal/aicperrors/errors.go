// Package aicperrors collects the engine-level sentinel errors this module
// raises above the provider layer, grounded on the teacher's
// internal/provider sentinel-error pattern (errors.New + errors.Is/As
// support) and generalized to the gateway, pipeline and registry
// components.
package aicperrors

import "errors"

var (
	// ErrAllProvidersUnavailable is returned by the reliability layer when
	// no provider was attempted because every configured provider had its
	// circuit breaker open. When at least one provider was attempted and
	// all failed, the layer returns the last observed error instead.
	ErrAllProvidersUnavailable = errors.New("reliability: all providers unavailable")

	// ErrBreakerOpen names the condition of a single provider's breaker
	// refusing execution. The reliability layer does not return it: it
	// skips that provider, and returns ErrAllProvidersUnavailable if every
	// provider is skipped.
	ErrBreakerOpen = errors.New("breaker: circuit open")

	// ErrValidationFailed is returned by a pipeline stage when its
	// validation gate rejects the stage's output.
	ErrValidationFailed = errors.New("validation: gate rejected output")

	// ErrStageFailed is returned when a pipeline stage exhausts its
	// retries without succeeding.
	ErrStageFailed = errors.New("pipeline: stage failed")

	// ErrPipelineDeadlock is returned when a pipeline run reaches a state
	// where no stage is ready to execute and not all stages have run, an
	// unsatisfiable dependency graph.
	ErrPipelineDeadlock = errors.New("pipeline: deadlock detected")

	// ErrModelNotFound is returned by the model registry when no model is
	// registered under the requested logical name.
	ErrModelNotFound = errors.New("registry: model not found")

	// ErrVersionNotFound is returned by the model registry when a
	// specific version of a known model does not exist.
	ErrVersionNotFound = errors.New("registry: version not found")

	// ErrDuplicateVersion is returned by Registry.Register when the
	// (name, version) pair already exists.
	ErrDuplicateVersion = errors.New("registry: duplicate version")
)
