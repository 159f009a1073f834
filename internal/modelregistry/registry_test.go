package modelregistry_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/aicp/controlplane/internal/aicperrors"
	"github.com/aicp/controlplane/internal/modelregistry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGetProduction(t *testing.T) {
	r, err := modelregistry.New("")
	require.NoError(t, err)

	_, err = r.Register("summarizer", "v1", "openai", "gpt-4", "first cut")
	require.NoError(t, err)

	_, err = r.GetProduction("summarizer")
	assert.ErrorIs(t, err, aicperrors.ErrModelNotFound)

	_, err = r.Promote("summarizer", "v1")
	require.NoError(t, err)

	prod, err := r.GetProduction("summarizer")
	require.NoError(t, err)
	assert.Equal(t, "v1", prod.Version)
	assert.Equal(t, modelregistry.StatusProduction, prod.Status)
}

func TestRegisterRejectsDuplicateVersion(t *testing.T) {
	r, err := modelregistry.New("")
	require.NoError(t, err)

	_, err = r.Register("summarizer", "v1", "openai", "gpt-4", "")
	require.NoError(t, err)

	_, err = r.Register("summarizer", "v1", "openai", "gpt-4", "")
	assert.True(t, errors.Is(err, aicperrors.ErrDuplicateVersion))
}

func TestPromoteDemotesPreviousProduction(t *testing.T) {
	r, err := modelregistry.New("")
	require.NoError(t, err)

	_, _ = r.Register("summarizer", "v1", "openai", "gpt-4", "")
	_, _ = r.Register("summarizer", "v2", "openai", "gpt-4-turbo", "")

	_, err = r.Promote("summarizer", "v1")
	require.NoError(t, err)
	_, err = r.Promote("summarizer", "v2")
	require.NoError(t, err)

	models := r.ListModels()
	var v1Status, v2Status modelregistry.Status
	for _, v := range models["summarizer"] {
		switch v.Version {
		case "v1":
			v1Status = v.Status
		case "v2":
			v2Status = v.Status
		}
	}
	assert.Equal(t, modelregistry.StatusArchived, v1Status)
	assert.Equal(t, modelregistry.StatusProduction, v2Status)
}

func TestPromoteUnknownModelOrVersion(t *testing.T) {
	r, err := modelregistry.New("")
	require.NoError(t, err)

	_, err = r.Promote("nonexistent", "v1")
	assert.ErrorIs(t, err, aicperrors.ErrModelNotFound)

	_, _ = r.Register("summarizer", "v1", "openai", "gpt-4", "")
	_, err = r.Promote("summarizer", "v99")
	assert.ErrorIs(t, err, aicperrors.ErrVersionNotFound)
}

func TestRegistryPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	r1, err := modelregistry.New(path)
	require.NoError(t, err)
	_, err = r1.Register("summarizer", "v1", "openai", "gpt-4", "")
	require.NoError(t, err)
	_, err = r1.Promote("summarizer", "v1")
	require.NoError(t, err)

	r2, err := modelregistry.New(path)
	require.NoError(t, err)
	prod, err := r2.GetProduction("summarizer")
	require.NoError(t, err)
	assert.Equal(t, "v1", prod.Version)
}
