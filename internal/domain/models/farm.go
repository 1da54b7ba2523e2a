package models

// AreaUnit is the unit a farm size is expressed in.
type AreaUnit string

const (
	UnitHectares AreaUnit = "hectares"
	UnitAcres    AreaUnit = "acres"
)

// AnimalCount is derived from the animal collection on every read.
type AnimalCount struct {
	Dairy int `json:"dairy"`
	Beef  int `json:"beef"`
	Total int `json:"total"`
}

// Farm is the tenant profile plus its derived head count.
type Farm struct {
	Name        string      `json:"name"`
	Location    string      `json:"location"`
	Size        float64     `json:"size"`
	Units       AreaUnit    `json:"units"`
	AnimalCount AnimalCount `json:"animalCount"`
}
