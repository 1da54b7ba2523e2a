package farm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/dose"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/repository/memory"
)

var testNow = time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var errStoreOffline = errors.New("store offline")

// flakyStore fails selected operations of an in-memory store.
type flakyStore struct {
	*memory.Repository
	failWrites bool
	failLoads  bool
}

func (s *flakyStore) ListAnimals(ctx context.Context) ([]models.Animal, error) {
	if s.failLoads {
		return nil, apperr.Unavailable("list animals", errStoreOffline)
	}
	return s.Repository.ListAnimals(ctx)
}

func (s *flakyStore) CreateAnimal(ctx context.Context, a models.Animal) (models.Animal, error) {
	if s.failWrites {
		return models.Animal{}, apperr.Unavailable("create animal", errStoreOffline)
	}
	return s.Repository.CreateAnimal(ctx, a)
}

func (s *flakyStore) DeleteAnimal(ctx context.Context, id string) error {
	if s.failWrites {
		return apperr.Unavailable("delete animal", errStoreOffline)
	}
	return s.Repository.DeleteAnimal(ctx, id)
}

func (s *flakyStore) CreateProductionRecord(ctx context.Context, r models.ProductionRecord) (models.ProductionRecord, error) {
	if s.failWrites {
		return models.ProductionRecord{}, apperr.Unavailable("create production record", errStoreOffline)
	}
	return s.Repository.CreateProductionRecord(ctx, r)
}

func (s *flakyStore) UpdateHealthRecord(ctx context.Context, id string, patch models.HealthRecordPatch) (models.HealthRecord, error) {
	if s.failWrites {
		return models.HealthRecord{}, apperr.Unavailable("update health record", errStoreOffline)
	}
	return s.Repository.UpdateHealthRecord(ctx, id, patch)
}

func newTestProvider(t *testing.T) (*Provider, *flakyStore) {
	t.Helper()
	store := &flakyStore{Repository: memory.NewRepository()}
	clock := dates.NewNormalizer(time.UTC, nil).WithClock(func() time.Time { return testNow })
	p := NewProvider(store, clock, time.Sunday, Profile{Name: "Hillside", Size: 12, Units: models.UnitHectares}, nil)
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return p, store
}

func newAnimal(tag string, animalType models.AnimalType, gender models.Gender) models.Animal {
	return models.Animal{
		Tag:       tag,
		Type:      animalType,
		Breed:     "Holstein",
		BirthDate: day(2020, time.March, 1),
		Gender:    gender,
		Status:    models.StatusHealthy,
		Weight:    450,
	}
}

func mustAnimal(t *testing.T, p *Provider, tag string, animalType models.AnimalType, gender models.Gender) models.Animal {
	t.Helper()
	a, err := p.CreateAnimal(context.Background(), newAnimal(tag, animalType, gender))
	if err != nil {
		t.Fatalf("CreateAnimal(%s) returned error: %v", tag, err)
	}
	return a
}

func mustMilk(t *testing.T, p *Provider, animalID string, qty float64, date time.Time) models.ProductionRecord {
	t.Helper()
	r, err := p.CreateProductionRecord(context.Background(), models.ProductionRecord{
		AnimalID: animalID,
		Category: models.ProductionMilk,
		Quantity: qty,
		Date:     date,
	})
	if err != nil {
		t.Fatalf("CreateProductionRecord returned error: %v", err)
	}
	return r
}

func TestCreateAnimalValidation(t *testing.T) {
	p, store := newTestProvider(t)
	mustAnimal(t, p, "A-1", models.AnimalDairy, models.GenderFemale)

	tests := []struct {
		name   string
		mutate func(*models.Animal)
		field  string
	}{
		{"missing tag", func(a *models.Animal) { a.Tag = "  " }, "tag"},
		{"duplicate tag", func(a *models.Animal) { a.Tag = "a-1" }, "tag"},
		{"bad type", func(a *models.Animal) { a.Type = "goat" }, "type"},
		{"missing breed", func(a *models.Animal) { a.Breed = "" }, "breed"},
		{"missing birth date", func(a *models.Animal) { a.BirthDate = time.Time{} }, "birthDate"},
		{"future birth date", func(a *models.Animal) { a.BirthDate = day(2030, time.January, 1) }, "birthDate"},
		{"bad gender", func(a *models.Animal) { a.Gender = "x" }, "gender"},
		{"negative weight", func(a *models.Animal) { a.Weight = -1 }, "weight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAnimal("B-1", models.AnimalBeef, models.GenderMale)
			tt.mutate(&a)

			_, err := p.CreateAnimal(context.Background(), a)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			appErr, _ := apperr.As(err)
			if _, ok := appErr.Details[tt.field]; !ok {
				t.Errorf("Expected details for %s, got %v", tt.field, appErr.Details)
			}
		})
	}

	stored, _ := store.ListAnimals(context.Background())
	if len(stored) != 1 {
		t.Errorf("Expected rejected animals to never reach the store, found %d", len(stored))
	}
}

func TestCreateAnimalNormalizesLegacyValues(t *testing.T) {
	p, _ := newTestProvider(t)

	a := newAnimal(" C-7 ", "beef_cattle", "MALE")
	a.Status = ""
	a.BirthDate = time.Date(2021, time.May, 4, 17, 45, 0, 0, time.UTC)

	created, err := p.CreateAnimal(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAnimal returned error: %v", err)
	}
	if created.Tag != "C-7" || created.Type != models.AnimalBeef || created.Gender != models.GenderMale {
		t.Errorf("Unexpected normalized animal %+v", created)
	}
	if created.Status != models.StatusHealthy {
		t.Errorf("Expected default status healthy, got %s", created.Status)
	}
	if !created.BirthDate.Equal(day(2021, time.May, 4)) {
		t.Errorf("Expected birth date truncated to midnight, got %s", created.BirthDate)
	}
}

func TestMutationsRecomputeDashboard(t *testing.T) {
	p, _ := newTestProvider(t)
	cow := mustAnimal(t, p, "A-1", models.AnimalDairy, models.GenderFemale)
	mustAnimal(t, p, "B-1", models.AnimalBeef, models.GenderMale)

	mustMilk(t, p, cow.ID, 10, day(2024, time.June, 3))
	mustMilk(t, p, cow.ID, 5, day(2024, time.June, 1))

	snap := p.Dashboard()
	if snap.TotalAnimals != 2 || snap.ByType[models.AnimalDairy] != 1 || snap.ByType[models.AnimalBeef] != 1 {
		t.Errorf("Unexpected counts %+v", snap)
	}
	milk := snap.Production.Milk
	if milk.Today != 10 || milk.ThisWeek != 10 || milk.ThisMonth != 15 {
		t.Errorf("Unexpected milk rollup %+v", milk)
	}

	farm := p.Farm()
	if farm.Name != "Hillside" || farm.AnimalCount != (models.AnimalCount{Dairy: 1, Beef: 1, Total: 2}) {
		t.Errorf("Unexpected farm %+v", farm)
	}
}

func TestFailedWriteLeavesStateUnchanged(t *testing.T) {
	p, store := newTestProvider(t)
	cow := mustAnimal(t, p, "A-1", models.AnimalDairy, models.GenderFemale)
	before := p.Dashboard()

	store.failWrites = true

	if _, err := p.CreateAnimal(context.Background(), newAnimal("A-2", models.AnimalDairy, models.GenderFemale)); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	if _, err := p.CreateProductionRecord(context.Background(), models.ProductionRecord{AnimalID: cow.ID, Category: models.ProductionMilk, Quantity: 3, Date: testNow}); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	if err := p.DeleteAnimal(context.Background(), cow.ID); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}

	if got := len(p.Animals(AnimalFilter{})); got != 1 {
		t.Errorf("Expected 1 animal after failed writes, got %d", got)
	}
	after := p.Dashboard()
	if after.TotalAnimals != before.TotalAnimals || after.Production != before.Production {
		t.Errorf("Expected snapshot unchanged, got %+v", after)
	}
}

func TestLoadFailureKeepsPreviousState(t *testing.T) {
	p, store := newTestProvider(t)
	mustAnimal(t, p, "A-1", models.AnimalDairy, models.GenderFemale)

	store.failLoads = true
	if err := p.Load(context.Background()); !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}

	if p.Dashboard().TotalAnimals != 1 {
		t.Error("Expected previous snapshot to be retained")
	}
	if len(p.Animals(AnimalFilter{})) != 1 {
		t.Error("Expected previous animals to be retained")
	}
}

func TestLoadNormalizesStoredValues(t *testing.T) {
	p, store := newTestProvider(t)
	ctx := context.Background()

	legacy := []models.Animal{
		{Tag: "L-1", Type: "dairy_cattle", Status: "Lactating", Gender: "Female", Breed: "Jersey", BirthDate: day(2020, time.May, 1)},
		{Tag: "L-2", Type: "beef_cattle", Status: "HEALTHY", Gender: "male", Breed: "Angus", BirthDate: day(2021, time.May, 1)},
		{Tag: "L-3", Type: models.AnimalDairy, Status: models.StatusDry, Gender: models.GenderFemale, Breed: "Holstein", BirthDate: day(2019, time.May, 1)},
	}
	var firstID string
	for i, a := range legacy {
		created, err := store.Repository.CreateAnimal(ctx, a)
		if err != nil {
			t.Fatalf("seeding animal returned error: %v", err)
		}
		if i == 0 {
			firstID = created.ID
		}
	}
	if _, err := store.Repository.CreateProductionRecord(ctx, models.ProductionRecord{
		AnimalID: firstID, Category: "Milk", Quantity: 6, Date: day(2024, time.June, 3),
	}); err != nil {
		t.Fatalf("seeding production returned error: %v", err)
	}

	if err := p.Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	farm := p.Farm()
	if farm.AnimalCount.Dairy != 2 || farm.AnimalCount.Beef != 1 || farm.AnimalCount.Total != 3 {
		t.Errorf("Expected 2 dairy and 1 beef of 3, got %+v", farm.AnimalCount)
	}
	snap := p.Dashboard()
	if snap.ByStatus[models.StatusLactating] != 1 || snap.ByStatus[models.StatusHealthy] != 1 {
		t.Errorf("Expected lowercased statuses, got %+v", snap.ByStatus)
	}
	if snap.Production.Milk.Today != 6 {
		t.Errorf("Expected legacy milk record in today's total, got %v", snap.Production.Milk.Today)
	}

	cow, err := p.Animal(firstID)
	if err != nil {
		t.Fatalf("Animal returned error: %v", err)
	}
	if cow.Type != models.AnimalDairy || cow.Status != models.StatusLactating || cow.Gender != models.GenderFemale {
		t.Errorf("Expected canonical values in memory, got %+v", cow)
	}
}

func TestDeleteAnimalCascades(t *testing.T) {
	p, store := newTestProvider(t)
	ctx := context.Background()
	cow := mustAnimal(t, p, "A-1", models.AnimalDairy, models.GenderFemale)
	other := mustAnimal(t, p, "A-2", models.AnimalDairy, models.GenderFemale)

	mustMilk(t, p, cow.ID, 10, testNow)
	mustMilk(t, p, other.ID, 4, testNow)
	if _, err := p.CreateHealthRecord(ctx, models.HealthRecord{AnimalID: cow.ID, Date: testNow, Category: models.HealthCheckup, Description: "routine"}); err != nil {
		t.Fatalf("CreateHealthRecord returned error: %v", err)
	}

	if err := p.DeleteAnimal(ctx, cow.ID); err != nil {
		t.Fatalf("DeleteAnimal returned error: %v", err)
	}

	if got := p.Dashboard().Production.Milk.Today; got != 4 {
		t.Errorf("Expected only the remaining animal's milk, got %v", got)
	}
	if got := len(p.HealthRecords(HealthFilter{})); got != 0 {
		t.Errorf("Expected orphan health records to be dropped, got %d", got)
	}
	for _, r := range p.ProductionRecords(ProductionFilter{}) {
		if r.AnimalID == cow.ID {
			t.Errorf("Found orphan production record %s", r.ID)
		}
	}
	remote, _ := store.ListProductionRecordsByAnimal(ctx, cow.ID)
	if len(remote) != 0 {
		t.Errorf("Expected remote cascade, found %d records", len(remote))
	}
	if _, err := p.Animal(cow.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := p.DeleteAnimal(ctx, cow.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMarkDoseApplied(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	cow := mustAnimal(t, p, "A-1", models.AnimalDairy, models.GenderFemale)

	due := day(2024, time.January, 10)
	repeating, err := p.CreateHealthRecord(ctx, models.HealthRecord{
		AnimalID: cow.ID, Date: day(2023, time.December, 27), Category: models.HealthVaccination,
		Description: "FMD booster", NextDoseDate: &due, RepeatEveryDays: 14, ReminderEnabled: true,
	})
	if err != nil {
		t.Fatalf("CreateHealthRecord returned error: %v", err)
	}
	once, err := p.CreateHealthRecord(ctx, models.HealthRecord{
		AnimalID: cow.ID, Date: day(2024, time.May, 1), Category: models.HealthTreatment,
		Description: "antibiotic", NextDoseDate: &due, ReminderEnabled: true,
	})
	if err != nil {
		t.Fatalf("CreateHealthRecord returned error: %v", err)
	}

	applied, err := p.MarkDoseApplied(ctx, repeating.ID)
	if err != nil {
		t.Fatalf("MarkDoseApplied returned error: %v", err)
	}
	if !applied.Date.Equal(day(2024, time.June, 3)) {
		t.Errorf("Expected date set to today, got %s", applied.Date)
	}
	if applied.NextDoseDate == nil || !applied.NextDoseDate.Equal(day(2024, time.January, 24)) {
		t.Errorf("Expected next dose 2024-01-24, got %v", applied.NextDoseDate)
	}

	cleared, err := p.MarkDoseApplied(ctx, once.ID)
	if err != nil {
		t.Fatalf("MarkDoseApplied returned error: %v", err)
	}
	if cleared.NextDoseDate != nil {
		t.Errorf("Expected next dose cleared, got %v", cleared.NextDoseDate)
	}
	if !cleared.ReminderEnabled {
		t.Error("Expected the reminder setting to be left untouched")
	}
	stored, err := p.store.GetHealthRecord(ctx, once.ID)
	if err != nil {
		t.Fatalf("GetHealthRecord returned error: %v", err)
	}
	if !stored.ReminderEnabled || stored.NextDoseDate != nil {
		t.Errorf("Expected stored record to keep the reminder and drop the date, got %+v", stored)
	}
	for _, item := range p.UpcomingDoses(0) {
		if item.ID == once.ID {
			t.Error("Expected a record without next dose to leave the upcoming list")
		}
	}

	// Editing a reminder-enabled record still requires a next dose date.
	notes := "follow-up"
	if _, err := p.UpdateHealthRecord(ctx, once.ID, models.HealthRecordPatch{Notes: &notes}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected ErrValidation on edit without next dose, got %v", err)
	}

	if _, err := p.MarkDoseApplied(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpcomingDoses(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	cow := mustAnimal(t, p, "A-1", models.AnimalDairy, models.GenderFemale)

	create := func(desc string, next time.Time, advance int, enabled bool) {
		t.Helper()
		n := next
		if _, err := p.CreateHealthRecord(ctx, models.HealthRecord{
			AnimalID: cow.ID, Date: day(2024, time.May, 1), Category: models.HealthVaccination,
			Description: desc, NextDoseDate: &n, ReminderAdvanceDays: advance, ReminderEnabled: enabled,
		}); err != nil {
			t.Fatalf("CreateHealthRecord returned error: %v", err)
		}
	}
	create("later", day(2024, time.June, 20), 3, true)
	create("soon", day(2024, time.June, 5), 3, true)
	create("today", day(2024, time.June, 3), 3, true)
	create("late", day(2024, time.May, 30), 3, true)
	create("muted", day(2024, time.May, 1), 3, false)

	doses := p.UpcomingDoses(0)

	want := []struct {
		desc   string
		status dose.Status
	}{
		{"late", dose.StatusOverdue},
		{"today", dose.StatusDueToday},
		{"soon", dose.StatusDueSoon},
		{"later", dose.StatusOK},
	}
	if len(doses) != len(want) {
		t.Fatalf("Expected %d doses, got %d", len(want), len(doses))
	}
	for i, w := range want {
		if doses[i].Description != w.desc || doses[i].Assessment.Status != w.status {
			t.Errorf("Position %d: expected %s/%s, got %s/%s", i, w.desc, w.status, doses[i].Description, doses[i].Assessment.Status)
		}
		if doses[i].AnimalTag != "A-1" {
			t.Errorf("Expected animal tag on dose view, got %q", doses[i].AnimalTag)
		}
	}

	if got := p.UpcomingDoses(2); len(got) != 2 {
		t.Errorf("Expected limit to apply, got %d", len(got))
	}
}

func TestViewsUseUnknownPlaceholder(t *testing.T) {
	store := memory.NewRepository()
	ctx := context.Background()
	if _, err := store.CreateProductionRecord(ctx, models.ProductionRecord{AnimalID: "gone", Category: models.ProductionMilk, Quantity: 2, Date: testNow}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	clock := dates.NewNormalizer(time.UTC, nil).WithClock(func() time.Time { return testNow })
	p := NewProvider(store, clock, time.Sunday, Profile{}, nil)
	if err := p.Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	rows := p.ProductionRecords(ProductionFilter{})
	if len(rows) != 1 || rows[0].AnimalTag != models.UnknownTag {
		t.Errorf("Expected placeholder tag, got %+v", rows)
	}
	totals := p.ProductionTotals(ProductionFilter{})
	if len(totals) != 1 || totals[0].Tag != models.UnknownTag || totals[0].Total != 2 {
		t.Errorf("Unexpected totals %+v", totals)
	}
}

func TestFiltersAndSearch(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	bella := mustAnimal(t, p, "A-1", models.AnimalDairy, models.GenderFemale)
	name := "Bella"
	if _, err := p.UpdateAnimal(ctx, bella.ID, models.AnimalPatch{Name: &name}); err != nil {
		t.Fatalf("UpdateAnimal returned error: %v", err)
	}
	bull := mustAnimal(t, p, "B-9", models.AnimalBeef, models.GenderMale)

	mustMilk(t, p, bella.ID, 10, day(2024, time.June, 3))
	mustMilk(t, p, bella.ID, 8, day(2024, time.May, 20))
	if _, err := p.CreateProductionRecord(ctx, models.ProductionRecord{AnimalID: bull.ID, Category: models.ProductionMeat, Quantity: 250, Date: day(2024, time.June, 1)}); err != nil {
		t.Fatalf("CreateProductionRecord returned error: %v", err)
	}
	if _, err := p.CreateHealthRecord(ctx, models.HealthRecord{AnimalID: bull.ID, Date: testNow, Category: models.HealthTreatment, Description: "lameness", Medicine: "Oxytetracycline", Veterinarian: "Dr. Diallo"}); err != nil {
		t.Fatalf("CreateHealthRecord returned error: %v", err)
	}

	if got := p.ProductionRecords(ProductionFilter{Search: "bella"}); len(got) != 2 {
		t.Errorf("Expected 2 rows for name search, got %d", len(got))
	}
	if got := p.ProductionRecords(ProductionFilter{Search: "2024-05"}); len(got) != 1 {
		t.Errorf("Expected 1 row for date search, got %d", len(got))
	}
	if got := p.ProductionRecords(ProductionFilter{Category: models.ProductionMeat}); len(got) != 1 || got[0].AnimalTag != "B-9" {
		t.Errorf("Unexpected meat rows %+v", got)
	}
	from := day(2024, time.June, 1)
	if got := p.ProductionRecords(ProductionFilter{From: &from, Category: models.ProductionMilk}); len(got) != 1 {
		t.Errorf("Expected 1 milk row since June, got %d", len(got))
	}
	if got := p.HealthRecords(HealthFilter{Search: "oxytetra"}); len(got) != 1 {
		t.Errorf("Expected medicine search to match, got %d", len(got))
	}
	if got := p.HealthRecords(HealthFilter{Search: "diallo", Category: models.HealthVaccination}); len(got) != 0 {
		t.Errorf("Expected category filter to exclude the treatment, got %d", len(got))
	}
	if got := p.Animals(AnimalFilter{Type: models.AnimalBeef}); len(got) != 1 || got[0].ID != bull.ID {
		t.Errorf("Unexpected beef animals %+v", got)
	}

	totals := p.ProductionTotals(ProductionFilter{Category: models.ProductionMilk})
	if len(totals) != 1 || totals[0].Total != 18 || totals[0].Name != "Bella" {
		t.Errorf("Unexpected totals %+v", totals)
	}
}

func TestAnimalRecordsFollowIndex(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	a := mustAnimal(t, p, "A-1", models.AnimalDairy, models.GenderFemale)
	b := mustAnimal(t, p, "A-2", models.AnimalDairy, models.GenderFemale)

	old := mustMilk(t, p, a.ID, 1, day(2024, time.May, 1))
	mustMilk(t, p, a.ID, 2, day(2024, time.June, 1))
	record, err := p.CreateHealthRecord(ctx, models.HealthRecord{AnimalID: a.ID, Date: testNow, Category: models.HealthCheckup, Description: "weigh-in"})
	if err != nil {
		t.Fatalf("CreateHealthRecord returned error: %v", err)
	}

	moved := b.ID
	if _, err := p.UpdateHealthRecord(ctx, record.ID, models.HealthRecordPatch{AnimalID: &moved}); err != nil {
		t.Fatalf("UpdateHealthRecord returned error: %v", err)
	}
	if err := p.DeleteProductionRecord(ctx, old.ID); err != nil {
		t.Fatalf("DeleteProductionRecord returned error: %v", err)
	}

	recordsA, err := p.AnimalRecords(a.ID)
	if err != nil {
		t.Fatalf("AnimalRecords returned error: %v", err)
	}
	if len(recordsA.Health) != 0 || len(recordsA.Production) != 1 {
		t.Errorf("Unexpected records for A-1: %d health, %d production", len(recordsA.Health), len(recordsA.Production))
	}
	recordsB, _ := p.AnimalRecords(b.ID)
	if len(recordsB.Health) != 1 {
		t.Errorf("Expected moved health record under A-2, got %d", len(recordsB.Health))
	}
}

func TestUpdateValidatesMergedRecord(t *testing.T) {
	p, store := newTestProvider(t)
	ctx := context.Background()
	cow := mustAnimal(t, p, "A-1", models.AnimalDairy, models.GenderFemale)
	r := mustMilk(t, p, cow.ID, 5, testNow)

	negative := -2.0
	if _, err := p.UpdateProductionRecord(ctx, r.ID, models.ProductionRecordPatch{Quantity: &negative}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
	missing := "ghost"
	if _, err := p.UpdateProductionRecord(ctx, r.ID, models.ProductionRecordPatch{AnimalID: &missing}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
	shift := models.MilkingShift("tarde")
	updated, err := p.UpdateProductionRecord(ctx, r.ID, models.ProductionRecordPatch{Shift: &shift})
	if err != nil {
		t.Fatalf("UpdateProductionRecord returned error: %v", err)
	}
	if updated.Shift != models.ShiftAfternoon {
		t.Errorf("Expected legacy shift mapped to afternoon, got %s", updated.Shift)
	}

	stored, _ := store.GetProductionRecord(ctx, r.ID)
	if stored.Quantity != 5 {
		t.Errorf("Expected rejected patch to never reach the store, quantity is %v", stored.Quantity)
	}
}
