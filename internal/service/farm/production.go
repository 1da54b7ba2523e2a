package farm

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/service/reporting"
)

// ProductionFilter narrows the production list. From and To are inclusive
// calendar dates; empty fields match everything.
type ProductionFilter struct {
	Search   string
	Category models.ProductionCategory
	AnimalID string
	From     *time.Time
	To       *time.Time
}

func (p *Provider) productionViewLocked(r models.ProductionRecord) models.ProductionView {
	tag, name, animalType := p.labelLocked(r.AnimalID)
	return models.ProductionView{ProductionRecord: r, AnimalTag: tag, AnimalName: name, AnimalType: animalType}
}

// ProductionRecords lists matching records, newest first. Search matches the
// animal tag, the animal name and the ISO date.
func (p *Provider) ProductionRecords(filter ProductionFilter) []models.ProductionView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	from, to := p.dayPtr(filter.From), p.dayPtr(filter.To)
	out := make([]models.ProductionView, 0)
	for _, r := range p.state.production.list() {
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		if filter.AnimalID != "" && r.AnimalID != filter.AnimalID {
			continue
		}
		day := p.day(r.Date)
		if from != nil && day.Before(*from) {
			continue
		}
		if to != nil && day.After(*to) {
			continue
		}
		view := p.productionViewLocked(r)
		if !containsFold(filter.Search, view.AnimalTag, view.AnimalName, day.Format(dates.ISOLayout)) {
			continue
		}
		out = append(out, view)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// ProductionRecord returns one record with its animal label.
func (p *Provider) ProductionRecord(id string) (models.ProductionView, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	r, ok := p.state.production.get(id)
	if !ok {
		return models.ProductionView{}, apperr.NotFound("production record", id)
	}
	return p.productionViewLocked(r), nil
}

// ProductionTotals sums the matching records per animal, largest first.
func (p *Provider) ProductionTotals(filter ProductionFilter) []reporting.AnimalTotal {
	return reporting.TotalsByAnimal(p.ProductionRecords(filter))
}

// CreateProductionRecord validates and stores a new production record.
func (p *Provider) CreateProductionRecord(ctx context.Context, record models.ProductionRecord) (models.ProductionRecord, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	record = normalizeProduction(record)
	record.ID = ""
	record.Date = p.day(record.Date)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = p.clock.Now()
	}
	if err := p.validateProduction(p.state, record); err != nil {
		return models.ProductionRecord{}, err
	}

	created, err := p.store.CreateProductionRecord(ctx, record)
	if err := p.written("production", "create", err); err != nil {
		return models.ProductionRecord{}, err
	}

	p.commit(func(st *state) { st.putProduction(created) })
	return created, nil
}

// UpdateProductionRecord validates the patched record and stores the patch.
func (p *Provider) UpdateProductionRecord(ctx context.Context, id string, patch models.ProductionRecordPatch) (models.ProductionRecord, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	current, ok := p.state.production.get(id)
	if !ok {
		return models.ProductionRecord{}, apperr.NotFound("production record", id)
	}
	if patch.Category != nil {
		c := models.ProductionCategory(strings.ToLower(string(*patch.Category)))
		patch.Category = &c
	}
	if patch.Shift != nil {
		if shift, ok := models.ParseShift(strings.ToLower(string(*patch.Shift))); ok {
			patch.Shift = &shift
		}
	}
	patch.Date = p.dayPtr(patch.Date)

	if err := p.validateProduction(p.state, normalizeProduction(patch.Apply(current))); err != nil {
		return models.ProductionRecord{}, err
	}

	updated, err := p.store.UpdateProductionRecord(ctx, id, patch)
	if err := p.written("production", "update", err); err != nil {
		return models.ProductionRecord{}, err
	}

	p.commit(func(st *state) { st.putProduction(updated) })
	return updated, nil
}

// DeleteProductionRecord deletes one production record.
func (p *Provider) DeleteProductionRecord(ctx context.Context, id string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, ok := p.state.production.get(id); !ok {
		return apperr.NotFound("production record", id)
	}

	err := p.store.DeleteProductionRecord(ctx, id)
	if err := p.written("production", "delete", err); err != nil {
		return err
	}

	p.commit(func(st *state) { st.removeProduction(id) })
	return nil
}
