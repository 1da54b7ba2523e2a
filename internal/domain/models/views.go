package models

// HealthView is a health record enriched with its animal's label.
type HealthView struct {
	HealthRecord
	AnimalTag  string     `json:"animalTag"`
	AnimalName string     `json:"animalName,omitempty"`
	AnimalType AnimalType `json:"animalType,omitempty"`
}

// ProductionView is a production record enriched with its animal's label.
type ProductionView struct {
	ProductionRecord
	AnimalTag  string     `json:"animalTag"`
	AnimalName string     `json:"animalName,omitempty"`
	AnimalType AnimalType `json:"animalType,omitempty"`
}

// AnimalRecords is an animal together with the records indexed under it.
type AnimalRecords struct {
	Animal     Animal             `json:"animal"`
	Health     []HealthRecord     `json:"health"`
	Production []ProductionRecord `json:"production"`
	Genealogy  *GenealogyView     `json:"genealogy,omitempty"`
}
