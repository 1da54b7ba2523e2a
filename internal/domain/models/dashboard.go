package models

import "time"

// MilkRollup sums milk liters over the rolling windows.
type MilkRollup struct {
	Today     float64 `bson:"today" json:"today"`
	ThisWeek  float64 `bson:"thisWeek" json:"thisWeek"`
	ThisMonth float64 `bson:"thisMonth" json:"thisMonth"`
	ThisYear  float64 `bson:"thisYear" json:"thisYear"`
}

// MeatRollup sums meat kilograms over the rolling windows.
type MeatRollup struct {
	ThisMonth float64 `bson:"thisMonth" json:"thisMonth"`
	ThisYear  float64 `bson:"thisYear" json:"thisYear"`
}

// ProductionRollup groups the milk and meat sums.
type ProductionRollup struct {
	Milk MilkRollup `bson:"milk" json:"milk"`
	Meat MeatRollup `bson:"meat" json:"meat"`
}

// DashboardSnapshot is derived state recomputed from the collections. It is
// only ever persisted as a nightly archive.
type DashboardSnapshot struct {
	AsOf         time.Time              `bson:"asOf" json:"asOf"`
	TotalAnimals int                    `bson:"totalAnimals" json:"totalAnimals"`
	ByType       map[AnimalType]int     `bson:"byType" json:"byType"`
	ByStatus     map[AnimalStatus]int   `bson:"byStatus" json:"byStatus"`
	HealthByType map[HealthCategory]int `bson:"healthByType" json:"healthByType"`
	Production   ProductionRollup       `bson:"production" json:"production"`
	RecentHealth []HealthRecord         `bson:"recentHealth" json:"recentHealth"`
}
