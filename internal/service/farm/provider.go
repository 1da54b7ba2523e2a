// Package farm is the Farm Data Provider: it keeps an in-memory copy of the
// Record Store, validates and forwards every mutation, and recomputes the
// dashboard after each successful write.
package farm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/metrics"
	"github.com/mamadbah2/herd/internal/repository"
	"github.com/mamadbah2/herd/internal/service/reporting"
)

// Store is the part of the Record Store the provider reads and writes.
type Store interface {
	repository.AnimalRepository
	repository.HealthRepository
	repository.ProductionRepository
	repository.GenealogyRepository
}

// Profile is the configured farm profile.
type Profile struct {
	Name     string
	Location string
	Size     float64
	Units    models.AreaUnit
}

// Provider owns the in-memory collections and the current dashboard snapshot.
//
// Writers are serialized by writeMu for the duration of the remote call, so
// local state only ever changes from a confirmed write. Readers take mu.
type Provider struct {
	store      Store
	clock      *dates.Normalizer
	aggregator reporting.Aggregator
	profile    Profile
	logger     *zap.Logger

	writeMu  sync.Mutex
	mu       sync.RWMutex
	state    *state
	snapshot models.DashboardSnapshot
	loadedAt time.Time
}

// NewProvider wires a provider. It holds no data until Load succeeds.
func NewProvider(store Store, clock *dates.Normalizer, weekStart time.Weekday, profile Profile, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = dates.NewNormalizer(time.UTC, logger)
	}
	p := &Provider{
		store:      store,
		clock:      clock,
		aggregator: reporting.Aggregator{WeekStart: weekStart},
		profile:    profile,
		logger:     logger,
		state:      newState(nil, nil, nil, nil),
	}
	p.recomputeLocked()
	return p
}

// Load replaces the in-memory collections with the store's content. On
// failure the previous state and snapshot are kept.
func (p *Provider) Load(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	err := p.load(ctx)
	metrics.RecordStoreLoad(err)
	if err != nil {
		p.logger.Error("failed to load farm data", zap.Error(err))
		return err
	}
	return nil
}

func (p *Provider) load(ctx context.Context) error {
	animals, err := p.store.ListAnimals(ctx)
	if err != nil {
		return fmt.Errorf("load animals: %w", err)
	}
	health, err := p.store.ListHealthRecords(ctx)
	if err != nil {
		return fmt.Errorf("load health records: %w", err)
	}
	production, err := p.store.ListProductionRecords(ctx)
	if err != nil {
		return fmt.Errorf("load production records: %w", err)
	}
	genealogy, err := p.store.ListGenealogies(ctx)
	if err != nil {
		return fmt.Errorf("load genealogy: %w", err)
	}

	// Stored documents may predate the current enumerations.
	for i := range animals {
		animals[i] = normalizeAnimal(animals[i])
	}
	for i := range health {
		health[i] = normalizeHealth(health[i])
	}
	for i := range production {
		production[i] = normalizeProduction(production[i])
	}

	st := newState(animals, health, production, genealogy)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = st
	p.loadedAt = p.clock.Now()
	p.recomputeLocked()

	p.logger.Info("farm data loaded",
		zap.Int("animals", len(animals)),
		zap.Int("health_records", len(health)),
		zap.Int("production_records", len(production)),
		zap.Int("genealogy", len(genealogy)))
	return nil
}

// Recompute rebuilds the snapshot against the current clock, picking up a
// calendar day change without any write.
func (p *Provider) Recompute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recomputeLocked()
}

func (p *Provider) recomputeLocked() {
	start := time.Now()
	p.snapshot = p.aggregator.Compute(p.state.animals.list(), p.state.health.list(), p.state.production.list(), p.clock.Now())
	metrics.RecordRecompute(time.Since(start))
	for animalType, count := range p.snapshot.ByType {
		metrics.SetAnimalCount(string(animalType), count)
	}
}

// Dashboard returns the current snapshot.
func (p *Provider) Dashboard() models.DashboardSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// LoadedAt is the time of the last successful Load; zero before the first.
func (p *Provider) LoadedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loadedAt
}

// Farm returns the profile with its head count derived from the snapshot.
func (p *Provider) Farm() models.Farm {
	snap := p.Dashboard()
	return models.Farm{
		Name:     p.profile.Name,
		Location: p.profile.Location,
		Size:     p.profile.Size,
		Units:    p.profile.Units,
		AnimalCount: models.AnimalCount{
			Dairy: snap.ByType[models.AnimalDairy],
			Beef:  snap.ByType[models.AnimalBeef],
			Total: snap.TotalAnimals,
		},
	}
}

// WeekStart is the first day of the dashboard week.
func (p *Provider) WeekStart() time.Weekday {
	return p.aggregator.WeekStart
}

// Today is midnight of the current farm calendar date.
func (p *Provider) Today() time.Time {
	return p.clock.Today()
}

// commit applies a confirmed write to local state and recomputes.
func (p *Provider) commit(apply func(*state)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	apply(p.state)
	p.recomputeLocked()
}

// written records the outcome of a remote write.
func (p *Provider) written(entity, operation string, err error) error {
	metrics.RecordMutation(entity, operation, err)
	if err != nil {
		p.logger.Error("record store write failed",
			zap.String("entity", entity),
			zap.String("operation", operation),
			zap.Error(err))
	}
	return err
}

// day truncates t to midnight in the farm time zone.
func (p *Provider) day(t time.Time) time.Time {
	return dates.Midnight(t.In(p.clock.Location()))
}

func (p *Provider) dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := p.day(*t)
	return &d
}
