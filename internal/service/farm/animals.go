package farm

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/models"
)

// AnimalFilter narrows the animal list. Empty fields match everything.
type AnimalFilter struct {
	Search string
	Type   models.AnimalType
	Status models.AnimalStatus
}

func (f AnimalFilter) match(a models.Animal) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return containsFold(f.Search, a.Tag, a.Name, a.Breed)
}

// Animals lists the animals matching filter, ordered by tag.
func (p *Provider) Animals(filter AnimalFilter) []models.Animal {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.Animal, 0, len(p.state.animals.order))
	for _, a := range p.state.animals.list() {
		if filter.match(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// Animal returns one animal.
func (p *Provider) Animal(id string) (models.Animal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	a, ok := p.state.animals.get(id)
	if !ok {
		return models.Animal{}, apperr.NotFound("animal", id)
	}
	return a, nil
}

// AnimalByTag resolves an animal by its ear tag, ignoring case.
func (p *Provider) AnimalByTag(tag string) (models.Animal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	a, ok := p.state.animalByTag(tag)
	if !ok {
		return models.Animal{}, apperr.NotFound("animal", tag)
	}
	return a, nil
}

// AnimalRecords returns an animal with its records, newest first, resolved
// through the animal id index.
func (p *Provider) AnimalRecords(id string) (models.AnimalRecords, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	a, ok := p.state.animals.get(id)
	if !ok {
		return models.AnimalRecords{}, apperr.NotFound("animal", id)
	}

	health := p.state.healthOf(id)
	sort.SliceStable(health, func(i, j int) bool { return health[i].Date.After(health[j].Date) })
	production := p.state.productionOf(id)
	sort.SliceStable(production, func(i, j int) bool { return production[i].Date.After(production[j].Date) })

	records := models.AnimalRecords{Animal: a, Health: health, Production: production}
	if g, ok := p.state.genealogy[id]; ok {
		view := p.genealogyViewLocked(g)
		records.Genealogy = &view
	}
	return records, nil
}

// CreateAnimal validates and stores a new animal.
func (p *Provider) CreateAnimal(ctx context.Context, animal models.Animal) (models.Animal, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	animal = normalizeAnimal(animal)
	animal.ID = ""
	if animal.Status == "" {
		animal.Status = models.StatusHealthy
	}
	animal.BirthDate = p.day(animal.BirthDate)
	animal.PurchaseDate = p.dayPtr(animal.PurchaseDate)
	if err := p.validateAnimal(p.state, animal); err != nil {
		return models.Animal{}, err
	}

	created, err := p.store.CreateAnimal(ctx, animal)
	if err := p.written("animal", "create", err); err != nil {
		return models.Animal{}, err
	}

	p.commit(func(st *state) { st.animals.put(created.ID, created) })
	return created, nil
}

// UpdateAnimal validates the patched animal and stores the patch.
func (p *Provider) UpdateAnimal(ctx context.Context, id string, patch models.AnimalPatch) (models.Animal, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	current, ok := p.state.animals.get(id)
	if !ok {
		return models.Animal{}, apperr.NotFound("animal", id)
	}
	if patch.Tag != nil {
		tag := strings.TrimSpace(*patch.Tag)
		patch.Tag = &tag
	}
	if patch.Type != nil {
		if t, ok := models.ParseAnimalType(string(*patch.Type)); ok {
			patch.Type = &t
		}
	}
	if patch.Gender != nil {
		g := models.Gender(strings.ToLower(string(*patch.Gender)))
		patch.Gender = &g
	}
	if patch.Status != nil {
		s := models.AnimalStatus(strings.ToLower(string(*patch.Status)))
		patch.Status = &s
	}
	patch.BirthDate = p.dayPtr(patch.BirthDate)
	patch.PurchaseDate = p.dayPtr(patch.PurchaseDate)

	if err := p.validateAnimal(p.state, normalizeAnimal(patch.Apply(current))); err != nil {
		return models.Animal{}, err
	}

	updated, err := p.store.UpdateAnimal(ctx, id, patch)
	if err := p.written("animal", "update", err); err != nil {
		return models.Animal{}, err
	}

	p.commit(func(st *state) { st.animals.put(updated.ID, updated) })
	return updated, nil
}

// DeleteAnimal deletes the animal, then its health and production records and
// its genealogy document. Cascade failures are logged; the in-memory
// collections drop the dependent records either way so aggregation never sees
// orphans.
func (p *Provider) DeleteAnimal(ctx context.Context, id string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, ok := p.state.animals.get(id); !ok {
		return apperr.NotFound("animal", id)
	}

	err := p.store.DeleteAnimal(ctx, id)
	if err := p.written("animal", "delete", err); err != nil {
		return err
	}

	if _, err := p.store.DeleteHealthRecordsByAnimal(ctx, id); err != nil {
		p.logger.Warn("cascade delete of health records failed", zap.String("animal_id", id), zap.Error(err))
	}
	if _, err := p.store.DeleteProductionRecordsByAnimal(ctx, id); err != nil {
		p.logger.Warn("cascade delete of production records failed", zap.String("animal_id", id), zap.Error(err))
	}
	if err := p.store.DeleteGenealogy(ctx, id); err != nil {
		p.logger.Warn("cascade delete of genealogy failed", zap.String("animal_id", id), zap.Error(err))
	}

	p.commit(func(st *state) {
		health, production := st.removeAnimal(id)
		p.logger.Info("animal deleted",
			zap.String("animal_id", id),
			zap.Int("health_records", health),
			zap.Int("production_records", production))
	})
	return nil
}

// containsFold reports whether needle occurs in any field, ignoring case. An
// empty needle matches.
func containsFold(needle string, fields ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
