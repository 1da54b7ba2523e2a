package models

import (
	"strings"
	"time"
)

// AnimalType distinguishes dairy from beef cattle.
type AnimalType string

const (
	AnimalDairy AnimalType = "dairy"
	AnimalBeef  AnimalType = "beef"
)

// AnimalStatus is the current condition of an animal.
type AnimalStatus string

const (
	StatusHealthy   AnimalStatus = "healthy"
	StatusSick      AnimalStatus = "sick"
	StatusPregnant  AnimalStatus = "pregnant"
	StatusLactating AnimalStatus = "lactating"
	StatusDry       AnimalStatus = "dry"
)

// AnimalTypes lists every valid type in display order.
var AnimalTypes = []AnimalType{AnimalDairy, AnimalBeef}

// AnimalStatuses lists every valid status in display order.
var AnimalStatuses = []AnimalStatus{StatusHealthy, StatusSick, StatusPregnant, StatusLactating, StatusDry}

// ParseAnimalType accepts the canonical values and the legacy
// "dairy_cattle"/"beef_cattle" spellings.
func ParseAnimalType(value string) (AnimalType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dairy", "dairy_cattle":
		return AnimalDairy, true
	case "beef", "beef_cattle":
		return AnimalBeef, true
	default:
		return "", false
	}
}

// Canonical maps legacy spellings onto dairy or beef. Anything unrecognized
// counts as dairy, the default of the entry form, so every animal lands in
// exactly one type.
func (t AnimalType) Canonical() AnimalType {
	if parsed, ok := ParseAnimalType(string(t)); ok {
		return parsed
	}
	return AnimalDairy
}

// Canonical lowercases the status; unknown statuses count as healthy.
func (s AnimalStatus) Canonical() AnimalStatus {
	lowered := AnimalStatus(strings.ToLower(strings.TrimSpace(string(s))))
	if lowered.Valid() {
		return lowered
	}
	return StatusHealthy
}

// Valid reports whether the status is one of the known values.
func (s AnimalStatus) Valid() bool {
	for _, known := range AnimalStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Gender of an animal.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether the gender is male or female.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// UnknownTag labels records whose animal can no longer be resolved.
const UnknownTag = "unknown"

// Animal is a single head of cattle. Health and production records are stored
// in their own collections and reference the animal by id.
type Animal struct {
	ID            string       `bson:"_id" json:"id"`
	Tag           string       `bson:"tag" json:"tag"`
	Name          string       `bson:"name,omitempty" json:"name,omitempty"`
	Type          AnimalType   `bson:"type" json:"type"`
	Breed         string       `bson:"breed" json:"breed"`
	BirthDate     time.Time    `bson:"birthDate" json:"birthDate"`
	Gender        Gender       `bson:"gender" json:"gender"`
	Status        AnimalStatus `bson:"status" json:"status"`
	Weight        float64      `bson:"weight" json:"weight"`
	PurchaseDate  *time.Time   `bson:"purchaseDate,omitempty" json:"purchaseDate,omitempty"`
	PurchasePrice *float64     `bson:"purchasePrice,omitempty" json:"purchasePrice,omitempty"`
	Notes         string       `bson:"notes,omitempty" json:"notes,omitempty"`
	ImageURL      string       `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`

	// ParentInfo is the legacy free-text parent block kept only so it can be
	// migrated into a Genealogy document.
	ParentInfo *ParentInfo `bson:"parentInfo,omitempty" json:"parentInfo,omitempty"`
}

// AnimalPatch carries a partial update; nil fields are left untouched.
type AnimalPatch struct {
	Tag           *string       `json:"tag,omitempty"`
	Name          *string       `json:"name,omitempty"`
	Type          *AnimalType   `json:"type,omitempty"`
	Breed         *string       `json:"breed,omitempty"`
	BirthDate     *time.Time    `json:"birthDate,omitempty"`
	Gender        *Gender       `json:"gender,omitempty"`
	Status        *AnimalStatus `json:"status,omitempty"`
	Weight        *float64      `json:"weight,omitempty"`
	PurchaseDate  *time.Time    `json:"purchaseDate,omitempty"`
	PurchasePrice *float64      `json:"purchasePrice,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	ImageURL      *string       `json:"imageUrl,omitempty"`
}

// Apply returns a copy of a with the patch applied.
func (p AnimalPatch) Apply(a Animal) Animal {
	if p.Tag != nil {
		a.Tag = *p.Tag
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Breed != nil {
		a.Breed = *p.Breed
	}
	if p.BirthDate != nil {
		a.BirthDate = *p.BirthDate
	}
	if p.Gender != nil {
		a.Gender = *p.Gender
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Weight != nil {
		a.Weight = *p.Weight
	}
	if p.PurchaseDate != nil {
		d := *p.PurchaseDate
		a.PurchaseDate = &d
	}
	if p.PurchasePrice != nil {
		v := *p.PurchasePrice
		a.PurchasePrice = &v
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.ImageURL != nil {
		a.ImageURL = *p.ImageURL
	}
	return a
}

// ParentReference is a weak pointer at another animal.
type ParentReference struct {
	ID   string `bson:"id,omitempty" json:"id,omitempty"`
	Tag  string `bson:"tag,omitempty" json:"tag,omitempty"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
}

// IsZero reports whether the reference names nothing.
func (r *ParentReference) IsZero() bool {
	return r == nil || (r.ID == "" && r.Tag == "" && r.Name == "")
}

// ParentInfo is the legacy embedded ancestry block.
type ParentInfo struct {
	Father              *ParentReference `bson:"father,omitempty" json:"father,omitempty"`
	Mother              *ParentReference `bson:"mother,omitempty" json:"mother,omitempty"`
	PaternalGrandfather *ParentReference `bson:"paternalGrandfather,omitempty" json:"paternalGrandfather,omitempty"`
	PaternalGrandmother *ParentReference `bson:"paternalGrandmother,omitempty" json:"paternalGrandmother,omitempty"`
	MaternalGrandfather *ParentReference `bson:"maternalGrandfather,omitempty" json:"maternalGrandfather,omitempty"`
	MaternalGrandmother *ParentReference `bson:"maternalGrandmother,omitempty" json:"maternalGrandmother,omitempty"`
}
