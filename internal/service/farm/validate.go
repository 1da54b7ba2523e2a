package farm

import (
	"strings"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/models"
)

// fieldErrors collects validation failures keyed by field name.
type fieldErrors map[string]string

func (f fieldErrors) check(ok bool, field, message string) {
	if !ok {
		if _, exists := f[field]; !exists {
			f[field] = message
		}
	}
}

func (f fieldErrors) err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return apperr.Validation(message, f)
}

// normalizeAnimal trims text fields and maps legacy enum spellings.
func normalizeAnimal(a models.Animal) models.Animal {
	a.Tag = strings.TrimSpace(a.Tag)
	a.Name = strings.TrimSpace(a.Name)
	a.Breed = strings.TrimSpace(a.Breed)
	if t, ok := models.ParseAnimalType(string(a.Type)); ok {
		a.Type = t
	}
	a.Gender = models.Gender(strings.ToLower(string(a.Gender)))
	a.Status = models.AnimalStatus(strings.ToLower(string(a.Status)))
	return a
}

func (p *Provider) validateAnimal(st *state, a models.Animal) error {
	f := fieldErrors{}
	f.check(a.Tag != "", "tag", "tag is required")
	f.check(a.Tag == "" || !st.tagTaken(a.Tag, a.ID), "tag", "tag is already used by another animal")
	f.check(a.Type == models.AnimalDairy || a.Type == models.AnimalBeef, "type", "type must be dairy or beef")
	f.check(a.Breed != "", "breed", "breed is required")
	f.check(!a.BirthDate.IsZero(), "birthDate", "birth date is required")
	f.check(a.Gender.Valid(), "gender", "gender must be male or female")
	f.check(a.Status.Valid(), "status", "status is not a known animal status")
	f.check(a.Weight >= 0, "weight", "weight must not be negative")
	f.check(a.PurchasePrice == nil || *a.PurchasePrice >= 0, "purchasePrice", "purchase price must not be negative")
	f.check(a.BirthDate.IsZero() || !p.day(a.BirthDate).After(p.clock.Today()), "birthDate", "birth date must not be in the future")
	return f.err("invalid animal")
}

func normalizeHealth(r models.HealthRecord) models.HealthRecord {
	r.Description = strings.TrimSpace(r.Description)
	r.Category = models.HealthCategory(strings.ToLower(string(r.Category)))
	return r
}

// validateHealth checks r against st. requireSchedule demands a next dose
// date for reminder-enabled records.
func (p *Provider) validateHealth(st *state, r models.HealthRecord, requireSchedule bool) error {
	f := fieldErrors{}
	_, animalExists := st.animals.get(r.AnimalID)
	f.check(r.AnimalID != "", "animalId", "animal is required")
	f.check(r.AnimalID == "" || animalExists, "animalId", "animal does not exist")
	f.check(!r.Date.IsZero(), "date", "date is required")
	f.check(r.Category.Valid(), "type", "type must be vaccination, treatment or checkup")
	f.check(r.Description != "", "description", "description is required")
	f.check(r.Cost == nil || *r.Cost >= 0, "cost", "cost must not be negative")
	f.check(r.RepeatEveryDays >= 0, "repeatEveryDays", "repeat interval must not be negative")
	f.check(r.ReminderAdvanceDays >= 0, "reminderAdvanceDays", "reminder advance must not be negative")
	f.check(!requireSchedule || !r.ReminderEnabled || r.NextDoseDate != nil, "nextDoseDate", "next dose date is required when the reminder is enabled")
	return f.err("invalid health record")
}

func normalizeProduction(r models.ProductionRecord) models.ProductionRecord {
	r.Category = models.ProductionCategory(strings.ToLower(string(r.Category)))
	if shift, ok := models.ParseShift(strings.ToLower(string(r.Shift))); ok {
		r.Shift = shift
	}
	r.Location = strings.TrimSpace(r.Location)
	return r
}

func (p *Provider) validateProduction(st *state, r models.ProductionRecord) error {
	f := fieldErrors{}
	_, animalExists := st.animals.get(r.AnimalID)
	f.check(r.AnimalID != "", "animalId", "animal is required")
	f.check(r.AnimalID == "" || animalExists, "animalId", "animal does not exist")
	f.check(!r.Date.IsZero(), "date", "date is required")
	f.check(r.Category.Valid(), "type", "type must be milk or meat")
	f.check(r.Quantity >= 0, "quantity", "quantity must not be negative")
	if r.Shift != "" {
		_, ok := models.ParseShift(string(r.Shift))
		f.check(ok, "shift", "shift must be morning, afternoon or night")
	}
	return f.err("invalid production record")
}
