package validation_test

import (
	"errors"
	"testing"

	"github.com/aicp/controlplane/internal/validation"
	"github.com/stretchr/testify/assert"
)

type taggedPayload struct {
	Name string `validate:"required"`
	Age  int    `validate:"gte=0"`
}

func TestGatePassesWithNoChecksConfigured(t *testing.T) {
	g := validation.New("noop", nil, nil, nil)
	assert.True(t, g.Validate("anything"))
}

func TestGateStructTagSchemaPasses(t *testing.T) {
	g := validation.New("tagged", nil, nil, nil)
	assert.True(t, g.Validate(taggedPayload{Name: "a", Age: 5}))
}

func TestGateStructTagSchemaFails(t *testing.T) {
	g := validation.New("tagged", nil, nil, nil)
	assert.False(t, g.Validate(taggedPayload{Name: "", Age: -1}))
}

func TestGateCustomSchema(t *testing.T) {
	schema := func(data interface{}) error {
		m, ok := data.(map[string]interface{})
		if !ok {
			return errors.New("not a map")
		}
		if _, ok := m["output"]; !ok {
			return errors.New("missing output key")
		}
		return nil
	}
	g := validation.New("dynamic", schema, nil, nil)

	assert.True(t, g.Validate(map[string]interface{}{"output": "hi"}))
	assert.False(t, g.Validate(map[string]interface{}{"other": 1}))
}

func TestGatePredicate(t *testing.T) {
	predicate := func(data interface{}) bool {
		s, ok := data.(string)
		return ok && len(s) >= 10
	}
	g := validation.New("min-length", nil, predicate, nil)

	assert.True(t, g.Validate("this is long enough"))
	assert.False(t, g.Validate("short"))
}

func TestGateNeverPanics(t *testing.T) {
	g := validation.New("schema-on-non-struct", nil, nil, nil)
	assert.NotPanics(t, func() {
		g.Validate(42)
		g.Validate(nil)
		g.Validate([]int{1, 2, 3})
	})
}
