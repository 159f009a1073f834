// Package modelregistry implements spec component I: a versioned registry
// of (logical model name) -> (provider, physical model, status) mappings,
// grounded on original_source/src/aicp/pipeline/models.py's ModelRegistry.
// register/promote/get_production/list_models are unchanged in meaning;
// persistence moves from Python's json.dump to a write-temp-then-rename
// pattern so a reader never observes a half-written file.
package modelregistry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aicp/controlplane/internal/aicperrors"
)

// Status is a ModelVersion's lifecycle stage.
type Status string

const (
	StatusStaging    Status = "staging"
	StatusProduction Status = "production"
	StatusArchived   Status = "archived"
)

// ModelVersion is one registered version of a logical model name.
type ModelVersion struct {
	Version     string            `json:"version"`
	Provider    string            `json:"provider"`
	ModelName   string            `json:"model_name"`
	Status      Status            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Registry is a durable, versioned store of ModelVersions keyed by logical
// model name. All operations are safe for concurrent use.
type Registry struct {
	mu          sync.Mutex
	storagePath string
	models      map[string][]*ModelVersion
}

// New builds a Registry backed by storagePath, loading any existing state.
// An empty storagePath disables persistence (in-memory only, useful for
// tests).
func New(storagePath string) (*Registry, error) {
	r := &Registry{
		storagePath: storagePath,
		models:      make(map[string][]*ModelVersion),
	}
	if storagePath == "" {
		return r, nil
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.storagePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("modelregistry: reading %s: %w", r.storagePath, err)
	}
	if len(data) == 0 {
		return nil
	}
	var raw map[string][]*ModelVersion
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("modelregistry: decoding %s: %w", r.storagePath, err)
	}
	r.models = raw
	return nil
}

// save atomically persists the current state: write to a temp file in the
// same directory, then rename over the target, which is atomic on POSIX
// filesystems.
func (r *Registry) save() error {
	if r.storagePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(r.models, "", "  ")
	if err != nil {
		return fmt.Errorf("modelregistry: encoding: %w", err)
	}

	dir := filepath.Dir(r.storagePath)
	tmp, err := os.CreateTemp(dir, ".modelregistry-*.tmp")
	if err != nil {
		return fmt.Errorf("modelregistry: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("modelregistry: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("modelregistry: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.storagePath); err != nil {
		return fmt.Errorf("modelregistry: renaming into place: %w", err)
	}
	return nil
}

// Register adds a new version under name. Registering a (name, version)
// pair that already exists returns ErrDuplicateVersion rather than
// silently appending a second copy, the bug spec.md §9 flags in the
// original's unconditional append.
func (r *Registry) Register(name, version, provider, modelName, description string) (*ModelVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.models[name] {
		if v.Version == version {
			return nil, fmt.Errorf("%w: %s@%s", aicperrors.ErrDuplicateVersion, name, version)
		}
	}

	mv := &ModelVersion{
		Version:     version,
		Provider:    provider,
		ModelName:   modelName,
		Status:      StatusStaging,
		CreatedAt:   time.Now(),
		Description: description,
	}
	r.models[name] = append(r.models[name], mv)

	if err := r.save(); err != nil {
		return nil, err
	}
	return mv, nil
}

// Promote marks version as the production version of name, demoting any
// previously-production version of the same name to archived first, so
// at most one version per name is ever in production.
func (r *Registry) Promote(name, version string) (*ModelVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	versions, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", aicperrors.ErrModelNotFound, name)
	}

	var target *ModelVersion
	for _, v := range versions {
		if v.Version == version {
			target = v
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s@%s", aicperrors.ErrVersionNotFound, name, version)
	}

	for _, v := range versions {
		if v.Status == StatusProduction {
			v.Status = StatusArchived
		}
	}
	target.Status = StatusProduction

	if err := r.save(); err != nil {
		return nil, err
	}
	return target, nil
}

// GetProduction returns the current production version of name, or
// ErrModelNotFound if name has no production version (including when
// name is entirely unregistered).
func (r *Registry) GetProduction(name string) (*ModelVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.models[name] {
		if v.Status == StatusProduction {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", aicperrors.ErrModelNotFound, name)
}

// ListModels returns every registered model name and its versions.
func (r *Registry) ListModels() map[string][]*ModelVersion {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string][]*ModelVersion, len(r.models))
	for name, versions := range r.models {
		cp := make([]*ModelVersion, len(versions))
		copy(cp, versions)
		out[name] = cp
	}
	return out
}
