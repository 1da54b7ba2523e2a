// Package repository declares the Record Store: one logical collection per
// entity, keyed by opaque string ids.
package repository

import (
	"context"

	"github.com/mamadbah2/herd/internal/domain/models"
)

// Collection names shared by every Store implementation.
const (
	AnimalsCollection    = "animals"
	HealthCollection     = "healthRecords"
	ProductionCollection = "productionRecords"
	GenealogyCollection  = "genealogy"
	UsersCollection      = "users"
	SnapshotsCollection  = "dashboardSnapshots"
)

// AnimalRepository persists animals.
type AnimalRepository interface {
	ListAnimals(ctx context.Context) ([]models.Animal, error)
	GetAnimal(ctx context.Context, id string) (models.Animal, error)
	CreateAnimal(ctx context.Context, animal models.Animal) (models.Animal, error)
	UpdateAnimal(ctx context.Context, id string, patch models.AnimalPatch) (models.Animal, error)
	DeleteAnimal(ctx context.Context, id string) error
}

// HealthRepository persists health records.
type HealthRepository interface {
	ListHealthRecords(ctx context.Context) ([]models.HealthRecord, error)
	ListHealthRecordsByAnimal(ctx context.Context, animalID string) ([]models.HealthRecord, error)
	RecentHealthRecords(ctx context.Context, limit int) ([]models.HealthRecord, error)
	GetHealthRecord(ctx context.Context, id string) (models.HealthRecord, error)
	CreateHealthRecord(ctx context.Context, record models.HealthRecord) (models.HealthRecord, error)
	UpdateHealthRecord(ctx context.Context, id string, patch models.HealthRecordPatch) (models.HealthRecord, error)
	DeleteHealthRecord(ctx context.Context, id string) error
	DeleteHealthRecordsByAnimal(ctx context.Context, animalID string) (int64, error)
}

// ProductionRepository persists production records.
type ProductionRepository interface {
	ListProductionRecords(ctx context.Context) ([]models.ProductionRecord, error)
	ListProductionRecordsByAnimal(ctx context.Context, animalID string) ([]models.ProductionRecord, error)
	GetProductionRecord(ctx context.Context, id string) (models.ProductionRecord, error)
	CreateProductionRecord(ctx context.Context, record models.ProductionRecord) (models.ProductionRecord, error)
	UpdateProductionRecord(ctx context.Context, id string, patch models.ProductionRecordPatch) (models.ProductionRecord, error)
	DeleteProductionRecord(ctx context.Context, id string) error
	DeleteProductionRecordsByAnimal(ctx context.Context, animalID string) (int64, error)
}

// GenealogyRepository persists one genealogy document per animal.
type GenealogyRepository interface {
	ListGenealogies(ctx context.Context) ([]models.Genealogy, error)
	GetGenealogy(ctx context.Context, animalID string) (models.Genealogy, error)
	UpsertGenealogy(ctx context.Context, genealogy models.Genealogy) (models.Genealogy, error)
	DeleteGenealogy(ctx context.Context, animalID string) error
}

// UserRepository persists user profiles and credentials.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
}

// SnapshotRepository archives dashboard snapshots.
type SnapshotRepository interface {
	SaveDashboardSnapshot(ctx context.Context, snapshot models.DashboardSnapshot) error
}

// Store is the full Record Store.
type Store interface {
	AnimalRepository
	HealthRepository
	ProductionRepository
	GenealogyRepository
	UserRepository
	SnapshotRepository
	Close(ctx context.Context) error
}
