package farm

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/dose"
	"github.com/mamadbah2/herd/internal/domain/models"
)

// HealthFilter narrows the health list. Empty fields match everything.
type HealthFilter struct {
	Search   string
	Category models.HealthCategory
	AnimalID string
}

// DoseView is a pending dose with its animal label and classification.
type DoseView struct {
	models.HealthView
	Assessment dose.Assessment `json:"assessment"`
}

func (p *Provider) healthViewLocked(r models.HealthRecord) models.HealthView {
	tag, name, animalType := p.labelLocked(r.AnimalID)
	return models.HealthView{HealthRecord: r, AnimalTag: tag, AnimalName: name, AnimalType: animalType}
}

// labelLocked resolves an animal id to its display fields, or the unknown
// placeholder when the animal is gone.
func (p *Provider) labelLocked(animalID string) (string, string, models.AnimalType) {
	a, ok := p.state.animals.get(animalID)
	if !ok {
		return models.UnknownTag, "", ""
	}
	return a.Tag, a.Name, a.Type
}

// HealthRecords lists matching records, newest first. Search matches the
// animal tag, description, medicine and veterinarian.
func (p *Provider) HealthRecords(filter HealthFilter) []models.HealthView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.HealthView, 0)
	for _, r := range p.state.health.list() {
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		if filter.AnimalID != "" && r.AnimalID != filter.AnimalID {
			continue
		}
		view := p.healthViewLocked(r)
		if !containsFold(filter.Search, view.AnimalTag, r.Description, r.Medicine, r.Veterinarian) {
			continue
		}
		out = append(out, view)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// HealthRecord returns one record with its animal label.
func (p *Provider) HealthRecord(id string) (models.HealthView, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	r, ok := p.state.health.get(id)
	if !ok {
		return models.HealthView{}, apperr.NotFound("health record", id)
	}
	return p.healthViewLocked(r), nil
}

// UpcomingDoses returns reminder-enabled doses classified against today,
// most urgent first. limit <= 0 returns all of them.
func (p *Provider) UpcomingDoses(limit int) []DoseView {
	return p.DosesAsOf(p.clock.Today(), limit)
}

// DosesAsOf classifies reminder-enabled doses against the given day.
func (p *Provider) DosesAsOf(today time.Time, limit int) []DoseView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	items := dose.Upcoming(p.state.health.list(), p.day(today), limit)
	out := make([]DoseView, 0, len(items))
	for _, item := range items {
		out = append(out, DoseView{HealthView: p.healthViewLocked(item.Record), Assessment: item.Assessment})
	}
	return out
}

// CreateHealthRecord validates and stores a new health record.
func (p *Provider) CreateHealthRecord(ctx context.Context, record models.HealthRecord) (models.HealthRecord, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	record = normalizeHealth(record)
	record.ID = ""
	record.Date = p.day(record.Date)
	record.NextDoseDate = p.dayPtr(record.NextDoseDate)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = p.clock.Now()
	}
	if err := p.validateHealth(p.state, record, true); err != nil {
		return models.HealthRecord{}, err
	}

	created, err := p.store.CreateHealthRecord(ctx, record)
	if err := p.written("health", "create", err); err != nil {
		return models.HealthRecord{}, err
	}

	p.commit(func(st *state) { st.putHealth(created) })
	return created, nil
}

// UpdateHealthRecord validates the patched record and stores the patch.
func (p *Provider) UpdateHealthRecord(ctx context.Context, id string, patch models.HealthRecordPatch) (models.HealthRecord, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	return p.updateHealthLocked(ctx, "update", id, patch)
}

const opDoseApplied = "dose_applied"

func (p *Provider) updateHealthLocked(ctx context.Context, operation, id string, patch models.HealthRecordPatch) (models.HealthRecord, error) {
	current, ok := p.state.health.get(id)
	if !ok {
		return models.HealthRecord{}, apperr.NotFound("health record", id)
	}
	if patch.Category != nil {
		c := models.HealthCategory(strings.ToLower(string(*patch.Category)))
		patch.Category = &c
	}
	patch.Date = p.dayPtr(patch.Date)
	patch.NextDoseDate = p.dayPtr(patch.NextDoseDate)

	// A finished course has no next dose even when its reminder stays on.
	requireSchedule := operation != opDoseApplied
	if err := p.validateHealth(p.state, normalizeHealth(patch.Apply(current)), requireSchedule); err != nil {
		return models.HealthRecord{}, err
	}

	updated, err := p.store.UpdateHealthRecord(ctx, id, patch)
	if err := p.written("health", operation, err); err != nil {
		return models.HealthRecord{}, err
	}

	p.commit(func(st *state) { st.putHealth(updated) })
	return updated, nil
}

// MarkDoseApplied records the dose as given today. With a repeat interval the
// next dose moves forward from the previous due date; otherwise the next dose
// date is cleared and the reminder setting is left as the user chose it.
func (p *Provider) MarkDoseApplied(ctx context.Context, id string) (models.HealthRecord, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	current, ok := p.state.health.get(id)
	if !ok {
		return models.HealthRecord{}, apperr.NotFound("health record", id)
	}

	return p.updateHealthLocked(ctx, opDoseApplied, id, dose.Rollover(current, p.clock.Today()))
}

// DeleteHealthRecord deletes one health record.
func (p *Provider) DeleteHealthRecord(ctx context.Context, id string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, ok := p.state.health.get(id); !ok {
		return apperr.NotFound("health record", id)
	}

	err := p.store.DeleteHealthRecord(ctx, id)
	if err := p.written("health", "delete", err); err != nil {
		return err
	}

	p.commit(func(st *state) { st.removeHealth(id) })
	return nil
}
