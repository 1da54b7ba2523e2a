// Package memory is an in-process Record Store used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/repository"
)

var _ repository.Store = (*Repository)(nil)

// table keeps insertion order so listings are stable.
type table[T any] struct {
	order []string
	rows  map[string]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) put(id string, row T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) remove(id string) bool {
	if _, exists := t.rows[id]; !exists {
		return false
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[T]) list(keep func(T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// Repository implements repository.Store in memory.
type Repository struct {
	mu         sync.RWMutex
	animals    *table[models.Animal]
	health     *table[models.HealthRecord]
	production *table[models.ProductionRecord]
	genealogy  *table[models.Genealogy]
	users      *table[models.User]
	snapshots  []models.DashboardSnapshot
}

// NewRepository returns an empty store.
func NewRepository() *Repository {
	return &Repository{
		animals:    newTable[models.Animal](),
		health:     newTable[models.HealthRecord](),
		production: newTable[models.ProductionRecord](),
		genealogy:  newTable[models.Genealogy](),
		users:      newTable[models.User](),
	}
}

func newID() string { return uuid.NewString() }

// ListAnimals returns every animal in insertion order.
func (r *Repository) ListAnimals(_ context.Context) ([]models.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.animals.list(nil), nil
}

// GetAnimal returns one animal.
func (r *Repository) GetAnimal(_ context.Context, id string) (models.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	animal, ok := r.animals.rows[id]
	if !ok {
		return models.Animal{}, apperr.NotFound("animal", id)
	}
	return animal, nil
}

// CreateAnimal stores the animal, generating an id when missing.
func (r *Repository) CreateAnimal(_ context.Context, animal models.Animal) (models.Animal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if animal.ID == "" {
		animal.ID = newID()
	}
	r.animals.put(animal.ID, animal)
	return animal, nil
}

// UpdateAnimal applies the patch and returns the stored result.
func (r *Repository) UpdateAnimal(_ context.Context, id string, patch models.AnimalPatch) (models.Animal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	animal, ok := r.animals.rows[id]
	if !ok {
		return models.Animal{}, apperr.NotFound("animal", id)
	}
	animal = patch.Apply(animal)
	r.animals.put(id, animal)
	return animal, nil
}

// DeleteAnimal removes one animal. Dependent records are left to the caller.
func (r *Repository) DeleteAnimal(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.animals.remove(id) {
		return apperr.NotFound("animal", id)
	}
	return nil
}

// ListHealthRecords returns every health record.
func (r *Repository) ListHealthRecords(_ context.Context) ([]models.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.health.list(nil), nil
}

// ListHealthRecordsByAnimal filters by animalId.
func (r *Repository) ListHealthRecordsByAnimal(_ context.Context, animalID string) ([]models.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.health.list(func(h models.HealthRecord) bool { return h.AnimalID == animalID }), nil
}

// RecentHealthRecords returns the newest records first.
func (r *Repository) RecentHealthRecords(_ context.Context, limit int) ([]models.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := r.health.list(nil)
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// GetHealthRecord returns one health record.
func (r *Repository) GetHealthRecord(_ context.Context, id string) (models.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.health.rows[id]
	if !ok {
		return models.HealthRecord{}, apperr.NotFound("health record", id)
	}
	return record, nil
}

// CreateHealthRecord stores the record, generating an id when missing.
func (r *Repository) CreateHealthRecord(_ context.Context, record models.HealthRecord) (models.HealthRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == "" {
		record.ID = newID()
	}
	r.health.put(record.ID, record)
	return record, nil
}

// UpdateHealthRecord applies the patch and returns the stored result.
func (r *Repository) UpdateHealthRecord(_ context.Context, id string, patch models.HealthRecordPatch) (models.HealthRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.health.rows[id]
	if !ok {
		return models.HealthRecord{}, apperr.NotFound("health record", id)
	}
	record = patch.Apply(record)
	r.health.put(id, record)
	return record, nil
}

// DeleteHealthRecord removes one record.
func (r *Repository) DeleteHealthRecord(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.health.remove(id) {
		return apperr.NotFound("health record", id)
	}
	return nil
}

// DeleteHealthRecordsByAnimal removes every record of one animal.
func (r *Repository) DeleteHealthRecordsByAnimal(_ context.Context, animalID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for _, record := range r.health.list(func(h models.HealthRecord) bool { return h.AnimalID == animalID }) {
		if r.health.remove(record.ID) {
			removed++
		}
	}
	return removed, nil
}

// ListProductionRecords returns every production record.
func (r *Repository) ListProductionRecords(_ context.Context) ([]models.ProductionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.production.list(nil), nil
}

// ListProductionRecordsByAnimal filters by animalId.
func (r *Repository) ListProductionRecordsByAnimal(_ context.Context, animalID string) ([]models.ProductionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.production.list(func(p models.ProductionRecord) bool { return p.AnimalID == animalID }), nil
}

// GetProductionRecord returns one production record.
func (r *Repository) GetProductionRecord(_ context.Context, id string) (models.ProductionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.production.rows[id]
	if !ok {
		return models.ProductionRecord{}, apperr.NotFound("production record", id)
	}
	return record, nil
}

// CreateProductionRecord stores the record, generating an id when missing.
func (r *Repository) CreateProductionRecord(_ context.Context, record models.ProductionRecord) (models.ProductionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == "" {
		record.ID = newID()
	}
	r.production.put(record.ID, record)
	return record, nil
}

// UpdateProductionRecord applies the patch and returns the stored result.
func (r *Repository) UpdateProductionRecord(_ context.Context, id string, patch models.ProductionRecordPatch) (models.ProductionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.production.rows[id]
	if !ok {
		return models.ProductionRecord{}, apperr.NotFound("production record", id)
	}
	record = patch.Apply(record)
	r.production.put(id, record)
	return record, nil
}

// DeleteProductionRecord removes one record.
func (r *Repository) DeleteProductionRecord(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.production.remove(id) {
		return apperr.NotFound("production record", id)
	}
	return nil
}

// DeleteProductionRecordsByAnimal removes every record of one animal.
func (r *Repository) DeleteProductionRecordsByAnimal(_ context.Context, animalID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for _, record := range r.production.list(func(p models.ProductionRecord) bool { return p.AnimalID == animalID }) {
		if r.production.remove(record.ID) {
			removed++
		}
	}
	return removed, nil
}

// ListGenealogies returns every genealogy document.
func (r *Repository) ListGenealogies(_ context.Context) ([]models.Genealogy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.genealogy.list(nil), nil
}

// GetGenealogy returns the genealogy of one animal.
func (r *Repository) GetGenealogy(_ context.Context, animalID string) (models.Genealogy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.genealogy.rows[animalID]
	if !ok {
		return models.Genealogy{}, apperr.NotFound("genealogy", animalID)
	}
	return g, nil
}

// UpsertGenealogy replaces the genealogy of one animal.
func (r *Repository) UpsertGenealogy(_ context.Context, g models.Genealogy) (models.Genealogy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.genealogy.put(g.AnimalID, g)
	return g, nil
}

// DeleteGenealogy removes the genealogy of one animal; missing documents are fine.
func (r *Repository) DeleteGenealogy(_ context.Context, animalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.genealogy.remove(animalID)
	return nil
}

// GetUser returns a user by id.
func (r *Repository) GetUser(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users.rows[id]
	if !ok {
		return models.User{}, apperr.NotFound("user", id)
	}
	return user, nil
}

// GetUserByEmail returns a user by case-insensitive email.
func (r *Repository) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users.list(nil) {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, apperr.NotFound("user", email)
}

// CreateUser stores a new user; emails are unique.
func (r *Repository) CreateUser(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users.list(nil) {
		if strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, apperr.Conflict("email already registered")
		}
	}
	if user.ID == "" {
		user.ID = newID()
	}
	r.users.put(user.ID, user)
	return user, nil
}

// UpdateUser replaces a stored user.
func (r *Repository) UpdateUser(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users.rows[user.ID]; !ok {
		return apperr.NotFound("user", user.ID)
	}
	r.users.put(user.ID, user)
	return nil
}

// SaveDashboardSnapshot appends a snapshot to the archive.
func (r *Repository) SaveDashboardSnapshot(_ context.Context, snapshot models.DashboardSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
	return nil
}

// Snapshots returns the archived snapshots.
func (r *Repository) Snapshots() []models.DashboardSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.DashboardSnapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

// Close is a no-op.
func (r *Repository) Close(context.Context) error { return nil }
