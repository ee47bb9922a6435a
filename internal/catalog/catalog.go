package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/davidmns/finsync/internal/apperrors"
	"github.com/davidmns/finsync/internal/model"
	"github.com/davidmns/finsync/internal/repository"
)

// Catalog is the in-memory registry of native entities: stable IDs,
// credential templates and supported features. User-created entities live in
// the database only; the catalog enriches persisted rows with template data
// when the entity is native.
type Catalog struct {
	byID map[string]model.Entity
}

// New builds a catalog over the given native entries.
func New(entities []model.Entity) *Catalog {
	byID := make(map[string]model.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	return &Catalog{byID: byID}
}

// Native returns the catalog of entities this binary ships adapters for.
func Native() *Catalog {
	return New(nativeEntities)
}

// Get returns the native entry for the ID, if any.
func (c *Catalog) Get(id string) (model.Entity, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// List returns every native entry sorted by name.
func (c *Catalog) List() []model.Entity {
	entities := make([]model.Entity, 0, len(c.byID))
	for _, e := range c.byID {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })
	return entities
}

// Enrich copies template, features and PIN geometry onto a persisted entity
// when it is part of the native catalog.
func (c *Catalog) Enrich(e *model.Entity) {
	native, ok := c.byID[e.ID]
	if !ok {
		return
	}
	e.CredentialsTemplate = native.CredentialsTemplate
	e.Features = native.Features
	e.PinLength = native.PinLength
}

// Seed upserts every native entry into the entities table. Called once at boot.
func (c *Catalog) Seed(ctx context.Context, repo *repository.EntityRepository) error {
	for _, e := range c.List() {
		if err := repo.Upsert(ctx, e); err != nil {
			return fmt.Errorf("failed to seed entity %s: %w", e.Name, err)
		}
	}
	return nil
}

// ValidateCredentials checks the provided credential map against the
// entity's template. Every template field except Internal and InternalTemp
// must be present; extra keys are rejected.
func ValidateCredentials(e model.Entity, values map[string]string) error {
	for name, credType := range e.CredentialsTemplate {
		if credType == model.CredentialTypeInternal || credType == model.CredentialTypeInternalTemp {
			continue
		}
		if values[name] == "" {
			return fmt.Errorf("%w: missing %s", apperrors.ErrInvalidProvidedCredentials, name)
		}
	}

	for name := range values {
		if _, ok := e.CredentialsTemplate[name]; !ok {
			return fmt.Errorf("%w: unexpected %s", apperrors.ErrInvalidProvidedCredentials, name)
		}
	}
	return nil
}

// StripTemporary returns a copy of the credential map without the fields the
// template marks InternalTemp. Those are accepted at login but never stored.
func StripTemporary(e model.Entity, values map[string]string) map[string]string {
	stored := make(map[string]string, len(values))
	for name, value := range values {
		if e.CredentialsTemplate[name] == model.CredentialTypeInternalTemp {
			continue
		}
		stored[name] = value
	}
	return stored
}
