package farm

import (
	"strings"

	"github.com/mamadbah2/herd/internal/domain/models"
)

// arena is a flat collection keyed by id that keeps load/insert order.
type arena[T any] struct {
	order []string
	rows  map[string]T
}

func newArena[T any]() *arena[T] {
	return &arena[T]{rows: make(map[string]T)}
}

func (a *arena[T]) get(id string) (T, bool) {
	row, ok := a.rows[id]
	return row, ok
}

func (a *arena[T]) put(id string, row T) {
	if _, exists := a.rows[id]; !exists {
		a.order = append(a.order, id)
	}
	a.rows[id] = row
}

func (a *arena[T]) remove(id string) bool {
	if _, exists := a.rows[id]; !exists {
		return false
	}
	delete(a.rows, id)
	for i, existing := range a.order {
		if existing == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

func (a *arena[T]) list() []T {
	out := make([]T, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.rows[id])
	}
	return out
}

// index maps an animal id to the ids of the records referencing it.
type index map[string][]string

func (ix index) add(animalID, id string) {
	ix[animalID] = append(ix[animalID], id)
}

func (ix index) remove(animalID, id string) {
	ids := ix[animalID]
	for i, existing := range ids {
		if existing == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(ix, animalID)
		return
	}
	ix[animalID] = ids
}

// state is the in-memory copy of the Record Store.
type state struct {
	animals    *arena[models.Animal]
	health     *arena[models.HealthRecord]
	production *arena[models.ProductionRecord]
	genealogy  map[string]models.Genealogy

	healthByAnimal     index
	productionByAnimal index
}

func newState(animals []models.Animal, health []models.HealthRecord, production []models.ProductionRecord, genealogy []models.Genealogy) *state {
	s := &state{
		animals:            newArena[models.Animal](),
		health:             newArena[models.HealthRecord](),
		production:         newArena[models.ProductionRecord](),
		genealogy:          make(map[string]models.Genealogy, len(genealogy)),
		healthByAnimal:     make(index),
		productionByAnimal: make(index),
	}
	for _, a := range animals {
		s.animals.put(a.ID, a)
	}
	for _, r := range health {
		s.putHealth(r)
	}
	for _, r := range production {
		s.putProduction(r)
	}
	for _, g := range genealogy {
		s.genealogy[g.AnimalID] = g
	}
	return s
}

func (s *state) putHealth(r models.HealthRecord) {
	if old, ok := s.health.get(r.ID); ok {
		s.healthByAnimal.remove(old.AnimalID, r.ID)
	}
	s.health.put(r.ID, r)
	s.healthByAnimal.add(r.AnimalID, r.ID)
}

func (s *state) removeHealth(id string) {
	if old, ok := s.health.get(id); ok {
		s.healthByAnimal.remove(old.AnimalID, id)
		s.health.remove(id)
	}
}

func (s *state) putProduction(r models.ProductionRecord) {
	if old, ok := s.production.get(r.ID); ok {
		s.productionByAnimal.remove(old.AnimalID, r.ID)
	}
	s.production.put(r.ID, r)
	s.productionByAnimal.add(r.AnimalID, r.ID)
}

func (s *state) removeProduction(id string) {
	if old, ok := s.production.get(id); ok {
		s.productionByAnimal.remove(old.AnimalID, id)
		s.production.remove(id)
	}
}

// removeAnimal drops the animal together with every record and the genealogy
// document keyed by it. Genealogy of other animals keeps its weak references.
func (s *state) removeAnimal(id string) (health, production int) {
	for _, recordID := range append([]string(nil), s.healthByAnimal[id]...) {
		s.removeHealth(recordID)
		health++
	}
	for _, recordID := range append([]string(nil), s.productionByAnimal[id]...) {
		s.removeProduction(recordID)
		production++
	}
	delete(s.genealogy, id)
	s.animals.remove(id)
	return health, production
}

func (s *state) healthOf(animalID string) []models.HealthRecord {
	ids := s.healthByAnimal[animalID]
	out := make([]models.HealthRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.health.rows[id])
	}
	return out
}

func (s *state) productionOf(animalID string) []models.ProductionRecord {
	ids := s.productionByAnimal[animalID]
	out := make([]models.ProductionRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.production.rows[id])
	}
	return out
}

// animalByTag matches tags case-insensitively.
func (s *state) animalByTag(tag string) (models.Animal, bool) {
	tag = strings.TrimSpace(tag)
	for _, id := range s.animals.order {
		if a := s.animals.rows[id]; strings.EqualFold(a.Tag, tag) {
			return a, true
		}
	}
	return models.Animal{}, false
}

func (s *state) tagTaken(tag, exceptID string) bool {
	a, ok := s.animalByTag(tag)
	return ok && a.ID != exceptID
}
