package handlers

import (
	"time"

	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/models"
)

// Request bodies carry dates as dates.DateLike so any wire form is accepted;
// they are normalized to farm calendar dates before reaching the provider.

func dateOrZero(n *dates.Normalizer, d dates.DateLike) time.Time {
	if d.IsZero() {
		return time.Time{}
	}
	return n.Normalize(d)
}

func datePtr(n *dates.Normalizer, d *dates.DateLike) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := n.Normalize(*d)
	return &t
}

type animalRequest struct {
	Tag           string              `json:"tag"`
	Name          string              `json:"name"`
	Type          models.AnimalType   `json:"type"`
	Breed         string              `json:"breed"`
	BirthDate     dates.DateLike      `json:"birthDate"`
	Gender        models.Gender       `json:"gender"`
	Status        models.AnimalStatus `json:"status"`
	Weight        float64             `json:"weight"`
	PurchaseDate  *dates.DateLike     `json:"purchaseDate"`
	PurchasePrice *float64            `json:"purchasePrice"`
	Notes         string              `json:"notes"`
	ImageURL      string              `json:"imageUrl"`
	ParentInfo    *models.ParentInfo  `json:"parentInfo"`
}

func (r animalRequest) toAnimal(n *dates.Normalizer) models.Animal {
	return models.Animal{
		Tag:           r.Tag,
		Name:          r.Name,
		Type:          r.Type,
		Breed:         r.Breed,
		BirthDate:     dateOrZero(n, r.BirthDate),
		Gender:        r.Gender,
		Status:        r.Status,
		Weight:        r.Weight,
		PurchaseDate:  datePtr(n, r.PurchaseDate),
		PurchasePrice: r.PurchasePrice,
		Notes:         r.Notes,
		ImageURL:      r.ImageURL,
		ParentInfo:    r.ParentInfo,
	}
}

type animalPatchRequest struct {
	Tag           *string              `json:"tag"`
	Name          *string              `json:"name"`
	Type          *models.AnimalType   `json:"type"`
	Breed         *string              `json:"breed"`
	BirthDate     *dates.DateLike      `json:"birthDate"`
	Gender        *models.Gender       `json:"gender"`
	Status        *models.AnimalStatus `json:"status"`
	Weight        *float64             `json:"weight"`
	PurchaseDate  *dates.DateLike      `json:"purchaseDate"`
	PurchasePrice *float64             `json:"purchasePrice"`
	Notes         *string              `json:"notes"`
	ImageURL      *string              `json:"imageUrl"`
}

func (r animalPatchRequest) toPatch(n *dates.Normalizer) models.AnimalPatch {
	return models.AnimalPatch{
		Tag:           r.Tag,
		Name:          r.Name,
		Type:          r.Type,
		Breed:         r.Breed,
		BirthDate:     datePtr(n, r.BirthDate),
		Gender:        r.Gender,
		Status:        r.Status,
		Weight:        r.Weight,
		PurchaseDate:  datePtr(n, r.PurchaseDate),
		PurchasePrice: r.PurchasePrice,
		Notes:         r.Notes,
		ImageURL:      r.ImageURL,
	}
}

type healthRequest struct {
	AnimalID            string                `json:"animalId"`
	Date                dates.DateLike        `json:"date"`
	Type                models.HealthCategory `json:"type"`
	Description         string                `json:"description"`
	Medicine            string                `json:"medicine"`
	Dosage              string                `json:"dosage"`
	Veterinarian        string                `json:"veterinarian"`
	Cost                *float64              `json:"cost"`
	Notes               string                `json:"notes"`
	NextDoseDate        *dates.DateLike       `json:"nextDoseDate"`
	RepeatEveryDays     int                   `json:"repeatEveryDays"`
	ReminderAdvanceDays int                   `json:"reminderAdvanceDays"`
	ReminderEnabled     bool                  `json:"reminderEnabled"`
}

func (r healthRequest) toRecord(n *dates.Normalizer) models.HealthRecord {
	return models.HealthRecord{
		AnimalID:            r.AnimalID,
		Date:                dateOrZero(n, r.Date),
		Category:            r.Type,
		Description:         r.Description,
		Medicine:            r.Medicine,
		Dosage:              r.Dosage,
		Veterinarian:        r.Veterinarian,
		Cost:                r.Cost,
		Notes:               r.Notes,
		NextDoseDate:        datePtr(n, r.NextDoseDate),
		RepeatEveryDays:     r.RepeatEveryDays,
		ReminderAdvanceDays: r.ReminderAdvanceDays,
		ReminderEnabled:     r.ReminderEnabled,
	}
}

type healthPatchRequest struct {
	AnimalID            *string                `json:"animalId"`
	Date                *dates.DateLike        `json:"date"`
	Type                *models.HealthCategory `json:"type"`
	Description         *string                `json:"description"`
	Medicine            *string                `json:"medicine"`
	Dosage              *string                `json:"dosage"`
	Veterinarian        *string                `json:"veterinarian"`
	Cost                *float64               `json:"cost"`
	Notes               *string                `json:"notes"`
	NextDoseDate        *dates.DateLike        `json:"nextDoseDate"`
	ClearNextDose       bool                   `json:"clearNextDose"`
	RepeatEveryDays     *int                   `json:"repeatEveryDays"`
	ReminderAdvanceDays *int                   `json:"reminderAdvanceDays"`
	ReminderEnabled     *bool                  `json:"reminderEnabled"`
}

func (r healthPatchRequest) toPatch(n *dates.Normalizer) models.HealthRecordPatch {
	return models.HealthRecordPatch{
		AnimalID:            r.AnimalID,
		Date:                datePtr(n, r.Date),
		Category:            r.Type,
		Description:         r.Description,
		Medicine:            r.Medicine,
		Dosage:              r.Dosage,
		Veterinarian:        r.Veterinarian,
		Cost:                r.Cost,
		Notes:               r.Notes,
		NextDoseDate:        datePtr(n, r.NextDoseDate),
		ClearNextDose:       r.ClearNextDose,
		RepeatEveryDays:     r.RepeatEveryDays,
		ReminderAdvanceDays: r.ReminderAdvanceDays,
		ReminderEnabled:     r.ReminderEnabled,
	}
}

type productionRequest struct {
	AnimalID        string                    `json:"animalId"`
	Date            dates.DateLike            `json:"date"`
	Type            models.ProductionCategory `json:"type"`
	Quantity        float64                   `json:"quantity"`
	Quality         string                    `json:"quality"`
	Notes           string                    `json:"notes"`
	Shift           models.MilkingShift       `json:"shift"`
	MilkingLocation string                    `json:"milkingLocation"`
}

func (r productionRequest) toRecord(n *dates.Normalizer) models.ProductionRecord {
	return models.ProductionRecord{
		AnimalID: r.AnimalID,
		Date:     dateOrZero(n, r.Date),
		Category: r.Type,
		Quantity: r.Quantity,
		Quality:  r.Quality,
		Notes:    r.Notes,
		Shift:    r.Shift,
		Location: r.MilkingLocation,
	}
}

type productionPatchRequest struct {
	AnimalID        *string                    `json:"animalId"`
	Date            *dates.DateLike            `json:"date"`
	Type            *models.ProductionCategory `json:"type"`
	Quantity        *float64                   `json:"quantity"`
	Quality         *string                    `json:"quality"`
	Notes           *string                    `json:"notes"`
	Shift           *models.MilkingShift       `json:"shift"`
	MilkingLocation *string                    `json:"milkingLocation"`
}

func (r productionPatchRequest) toPatch(n *dates.Normalizer) models.ProductionRecordPatch {
	return models.ProductionRecordPatch{
		AnimalID: r.AnimalID,
		Date:     datePtr(n, r.Date),
		Category: r.Type,
		Quantity: r.Quantity,
		Quality:  r.Quality,
		Notes:    r.Notes,
		Shift:    r.Shift,
		Location: r.MilkingLocation,
	}
}

type genealogyRequest struct {
	FatherID              string `json:"fatherId"`
	MotherID              string `json:"motherId"`
	PaternalGrandfatherID string `json:"paternalGrandfatherId"`
	PaternalGrandmotherID string `json:"paternalGrandmotherId"`
	MaternalGrandfatherID string `json:"maternalGrandfatherId"`
	MaternalGrandmotherID string `json:"maternalGrandmotherId"`
}

func (r genealogyRequest) toGenealogy(animalID string) models.Genealogy {
	return models.Genealogy{
		AnimalID:              animalID,
		FatherID:              r.FatherID,
		MotherID:              r.MotherID,
		PaternalGrandfatherID: r.PaternalGrandfatherID,
		PaternalGrandmotherID: r.PaternalGrandmotherID,
		MaternalGrandfatherID: r.MaternalGrandfatherID,
		MaternalGrandmotherID: r.MaternalGrandmotherID,
	}
}

type exportRequest struct {
	Type     models.ProductionCategory `json:"type"`
	Search   string                    `json:"search"`
	AnimalID string                    `json:"animalId"`
	From     *dates.DateLike           `json:"from"`
	To       *dates.DateLike           `json:"to"`
}

type signUpRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type resetRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}
