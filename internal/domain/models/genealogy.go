package models

import "time"

// Genealogy is the canonical ancestry of one animal. Every reference is a weak
// animal id; deleting an ancestor never deletes this document.
type Genealogy struct {
	AnimalID              string    `bson:"_id" json:"animalId"`
	FatherID              string    `bson:"fatherId,omitempty" json:"fatherId,omitempty"`
	MotherID              string    `bson:"motherId,omitempty" json:"motherId,omitempty"`
	PaternalGrandfatherID string    `bson:"paternalGrandfatherId,omitempty" json:"paternalGrandfatherId,omitempty"`
	PaternalGrandmotherID string    `bson:"paternalGrandmotherId,omitempty" json:"paternalGrandmotherId,omitempty"`
	MaternalGrandfatherID string    `bson:"maternalGrandfatherId,omitempty" json:"maternalGrandfatherId,omitempty"`
	MaternalGrandmotherID string    `bson:"maternalGrandmotherId,omitempty" json:"maternalGrandmotherId,omitempty"`
	UpdatedAt             time.Time `bson:"updatedAt" json:"updatedAt"`
	UpdatedBy             string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}

// Refs returns pointers to every reference slot keyed by its role, so callers
// can validate or rewrite them uniformly.
func (g *Genealogy) Refs() map[string]*string {
	return map[string]*string{
		"father":              &g.FatherID,
		"mother":              &g.MotherID,
		"paternalGrandfather": &g.PaternalGrandfatherID,
		"paternalGrandmother": &g.PaternalGrandmotherID,
		"maternalGrandfather": &g.MaternalGrandfatherID,
		"maternalGrandmother": &g.MaternalGrandmotherID,
	}
}

// Empty reports whether no ancestor is recorded.
func (g Genealogy) Empty() bool {
	for _, ref := range g.Refs() {
		if *ref != "" {
			return false
		}
	}
	return true
}

// GenealogyView is a genealogy with references resolved to tag and name.
type GenealogyView struct {
	AnimalID            string           `json:"animalId"`
	Father              *ParentReference `json:"father,omitempty"`
	Mother              *ParentReference `json:"mother,omitempty"`
	PaternalGrandfather *ParentReference `json:"paternalGrandfather,omitempty"`
	PaternalGrandmother *ParentReference `json:"paternalGrandmother,omitempty"`
	MaternalGrandfather *ParentReference `json:"maternalGrandfather,omitempty"`
	MaternalGrandmother *ParentReference `json:"maternalGrandmother,omitempty"`
	UpdatedAt           time.Time        `json:"updatedAt"`
	UpdatedBy           string           `json:"updatedBy,omitempty"`
}
