// Package validation implements spec component F, a validation gate that
// never raises and always returns a bool, grounded on
// original_source/src/aicp/pipeline/validation.py's ValidationGate.
//
// Two checks compose: a struct-tag schema check (using
// github.com/go-playground/validator/v10, the ecosystem's idiomatic
// substitute for the original's Pydantic model validation) and an
// arbitrary predicate function. Either may be nil.
package validation

import (
	"fmt"

	"github.com/aicp/controlplane/internal/obslog"
	"github.com/go-playground/validator/v10"
)

// Schema validates the shape of arbitrary stage output (typically a
// map[string]any, which has no Go struct to attach validator tags to).
// Returning a non-nil error means validation failed.
type Schema func(data interface{}) error

// Predicate is an arbitrary post-schema check over the same data.
type Predicate func(data interface{}) bool

// Gate implements spec.md §4.6: struct-tag schema validation (when data is
// a struct or pointer to one carrying `validate:"..."` tags, or when a
// Schema func is supplied for dynamic data), followed by an optional
// Predicate. Validate never panics or returns an error; only true/false.
type Gate struct {
	Name      string
	Schema    Schema
	Predicate Predicate
	log       obslog.Logger
	tagValid  *validator.Validate
}

// New builds a Gate named name. log may be nil.
func New(name string, schema Schema, predicate Predicate, log obslog.Logger) *Gate {
	if log == nil {
		log = obslog.NewNop()
	}
	return &Gate{
		Name:      name,
		Schema:    schema,
		Predicate: predicate,
		log:       log,
		tagValid:  validator.New(),
	}
}

// Validate runs the Schema func when one is configured; without one, data
// that is a struct (or pointer to one) is checked against its `validate`
// tags and any other data skips the schema step. The Predicate, if
// configured, runs next. A panic in either check counts as a failure.
// With no Schema and no Predicate, only the struct-tag check can reject.
func (g *Gate) Validate(data interface{}) (ok bool) {
	g.log.Debug("executing_validation_gate", map[string]interface{}{"gate": g.Name})

	defer func() {
		if r := recover(); r != nil {
			g.log.Warn("validation_gate_failed", map[string]interface{}{
				"gate": g.Name, "error": fmt.Sprintf("panic: %v", r),
			})
			ok = false
		}
	}()

	if g.Schema != nil {
		if err := g.Schema(data); err != nil {
			g.log.Warn("validation_gate_failed", map[string]interface{}{
				"gate": g.Name, "error": err.Error(),
			})
			return false
		}
	} else if err := g.tagValid.Struct(data); err == nil {
		// data was a validator-compatible struct and passed; fall
		// through to the predicate check below.
	} else if isValidatorApplicable(err) {
		g.log.Warn("validation_gate_failed", map[string]interface{}{
			"gate": g.Name, "error": err.Error(),
		})
		return false
	}

	if g.Predicate != nil {
		if !g.Predicate(data) {
			g.log.Warn("validation_gate_failed", map[string]interface{}{
				"gate": g.Name, "error": "predicate rejected output",
			})
			return false
		}
	}

	g.log.Debug("validation_gate_passed", map[string]interface{}{"gate": g.Name})
	return true
}

// isValidatorApplicable distinguishes "data isn't a tagged struct" (which
// validator.v10 reports as an InvalidValidationError, not a real
// validation failure) from genuine tag-validation failures.
func isValidatorApplicable(err error) bool {
	_, notAStruct := err.(*validator.InvalidValidationError)
	return !notAStruct
}
