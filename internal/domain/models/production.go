package models

import "time"

// ProductionCategory is what was produced.
type ProductionCategory string

const (
	ProductionMilk ProductionCategory = "milk"
	ProductionMeat ProductionCategory = "meat"
)

// Valid reports whether the category is milk or meat.
func (c ProductionCategory) Valid() bool {
	return c == ProductionMilk || c == ProductionMeat
}

// Unit returns liters for milk and kilograms for meat.
func (c ProductionCategory) Unit() string {
	if c == ProductionMeat {
		return "kg"
	}
	return "L"
}

// MilkingShift is the milking session a milk record belongs to.
type MilkingShift string

const (
	ShiftMorning   MilkingShift = "morning"
	ShiftAfternoon MilkingShift = "afternoon"
	ShiftNight     MilkingShift = "night"
)

// ParseShift accepts the English names and the legacy Spanish ones.
func ParseShift(value string) (MilkingShift, bool) {
	switch value {
	case "morning", "mañana", "manana":
		return ShiftMorning, true
	case "afternoon", "tarde":
		return ShiftAfternoon, true
	case "night", "noche":
		return ShiftNight, true
	default:
		return "", false
	}
}

// ProductionRecord is one milk or meat yield for one animal. Quantity is liters
// for milk and kilograms for meat.
type ProductionRecord struct {
	ID       string             `bson:"_id" json:"id"`
	AnimalID string             `bson:"animalId" json:"animalId"`
	Date     time.Time          `bson:"date" json:"date"`
	Category ProductionCategory `bson:"type" json:"type"`
	Quantity float64            `bson:"quantity" json:"quantity"`
	Quality  string             `bson:"quality,omitempty" json:"quality,omitempty"`
	Notes    string             `bson:"notes,omitempty" json:"notes,omitempty"`

	Shift    MilkingShift `bson:"shift,omitempty" json:"shift,omitempty"`
	Location string       `bson:"milkingLocation,omitempty" json:"milkingLocation,omitempty"`

	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// ProductionRecordPatch carries a partial update.
type ProductionRecordPatch struct {
	AnimalID *string             `json:"animalId,omitempty"`
	Date     *time.Time          `json:"date,omitempty"`
	Category *ProductionCategory `json:"type,omitempty"`
	Quantity *float64            `json:"quantity,omitempty"`
	Quality  *string             `json:"quality,omitempty"`
	Notes    *string             `json:"notes,omitempty"`
	Shift    *MilkingShift       `json:"shift,omitempty"`
	Location *string             `json:"milkingLocation,omitempty"`
}

// Apply returns a copy of r with the patch applied.
func (p ProductionRecordPatch) Apply(r ProductionRecord) ProductionRecord {
	if p.AnimalID != nil {
		r.AnimalID = *p.AnimalID
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Quantity != nil {
		r.Quantity = *p.Quantity
	}
	if p.Quality != nil {
		r.Quality = *p.Quality
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.Shift != nil {
		r.Shift = *p.Shift
	}
	if p.Location != nil {
		r.Location = *p.Location
	}
	return r
}
