package models

import "time"

// HealthCategory classifies a health event.
type HealthCategory string

const (
	HealthVaccination HealthCategory = "vaccination"
	HealthTreatment   HealthCategory = "treatment"
	HealthCheckup     HealthCategory = "checkup"
)

// HealthCategories lists every valid category.
var HealthCategories = []HealthCategory{HealthVaccination, HealthTreatment, HealthCheckup}

// Valid reports whether the category is known.
func (c HealthCategory) Valid() bool {
	for _, known := range HealthCategories {
		if c == known {
			return true
		}
	}
	return false
}

// HealthRecord is a vaccination, treatment or checkup for one animal,
// optionally carrying a recurring-dose reminder.
type HealthRecord struct {
	ID           string         `bson:"_id" json:"id"`
	AnimalID     string         `bson:"animalId" json:"animalId"`
	Date         time.Time      `bson:"date" json:"date"`
	Category     HealthCategory `bson:"type" json:"type"`
	Description  string         `bson:"description" json:"description"`
	Medicine     string         `bson:"medicine,omitempty" json:"medicine,omitempty"`
	Dosage       string         `bson:"dosage,omitempty" json:"dosage,omitempty"`
	Veterinarian string         `bson:"veterinarian,omitempty" json:"veterinarian,omitempty"`
	Cost         *float64       `bson:"cost,omitempty" json:"cost,omitempty"`
	Notes        string         `bson:"notes,omitempty" json:"notes,omitempty"`

	NextDoseDate        *time.Time `bson:"nextDoseDate,omitempty" json:"nextDoseDate,omitempty"`
	RepeatEveryDays     int        `bson:"repeatEveryDays,omitempty" json:"repeatEveryDays,omitempty"`
	ReminderAdvanceDays int        `bson:"reminderAdvanceDays,omitempty" json:"reminderAdvanceDays,omitempty"`
	ReminderEnabled     bool       `bson:"reminderEnabled" json:"reminderEnabled"`

	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// HealthRecordPatch carries a partial update. ClearNextDose removes the
// next-dose date and wins over NextDoseDate.
type HealthRecordPatch struct {
	AnimalID            *string         `json:"animalId,omitempty"`
	Date                *time.Time      `json:"date,omitempty"`
	Category            *HealthCategory `json:"type,omitempty"`
	Description         *string         `json:"description,omitempty"`
	Medicine            *string         `json:"medicine,omitempty"`
	Dosage              *string         `json:"dosage,omitempty"`
	Veterinarian        *string         `json:"veterinarian,omitempty"`
	Cost                *float64        `json:"cost,omitempty"`
	Notes               *string         `json:"notes,omitempty"`
	NextDoseDate        *time.Time      `json:"nextDoseDate,omitempty"`
	ClearNextDose       bool            `json:"clearNextDose,omitempty"`
	RepeatEveryDays     *int            `json:"repeatEveryDays,omitempty"`
	ReminderAdvanceDays *int            `json:"reminderAdvanceDays,omitempty"`
	ReminderEnabled     *bool           `json:"reminderEnabled,omitempty"`
}

// Apply returns a copy of r with the patch applied.
func (p HealthRecordPatch) Apply(r HealthRecord) HealthRecord {
	if p.AnimalID != nil {
		r.AnimalID = *p.AnimalID
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Medicine != nil {
		r.Medicine = *p.Medicine
	}
	if p.Dosage != nil {
		r.Dosage = *p.Dosage
	}
	if p.Veterinarian != nil {
		r.Veterinarian = *p.Veterinarian
	}
	if p.Cost != nil {
		v := *p.Cost
		r.Cost = &v
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	switch {
	case p.ClearNextDose:
		r.NextDoseDate = nil
	case p.NextDoseDate != nil:
		d := *p.NextDoseDate
		r.NextDoseDate = &d
	}
	if p.RepeatEveryDays != nil {
		r.RepeatEveryDays = *p.RepeatEveryDays
	}
	if p.ReminderAdvanceDays != nil {
		r.ReminderAdvanceDays = *p.ReminderAdvanceDays
	}
	if p.ReminderEnabled != nil {
		r.ReminderEnabled = *p.ReminderEnabled
	}
	return r
}
