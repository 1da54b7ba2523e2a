package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/dose"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/repository/memory"
)

type fakeSheets struct {
	cleared  []string
	appended map[string][][]interface{}
	err      error
}

func (f *fakeSheets) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	if f.err != nil {
		return f.err
	}
	if f.appended == nil {
		f.appended = make(map[string][][]interface{})
	}
	f.appended[sheetRange] = append(f.appended[sheetRange], rows...)
	return nil
}

func (f *fakeSheets) ClearRange(_ context.Context, sheetRange string) error {
	f.cleared = append(f.cleared, sheetRange)
	return nil
}

func productionRows() []models.ProductionView {
	return []models.ProductionView{
		{
			ProductionRecord: models.ProductionRecord{ID: "p1", AnimalID: "a1", Category: models.ProductionMilk, Quantity: 12.5, Date: day(2024, time.June, 3), Shift: models.ShiftMorning, Location: "Barn A"},
			AnimalTag:        "A-1",
			AnimalName:       "Bella",
		},
		{
			ProductionRecord: models.ProductionRecord{ID: "p2", AnimalID: "a2", Category: models.ProductionMilk, Quantity: 7.5, Date: day(2024, time.June, 2), Quality: "good"},
			AnimalTag:        models.UnknownTag,
		},
	}
}

func TestExportProduction(t *testing.T) {
	sheetsRepo := &fakeSheets{}
	svc := NewService(sheetsRepo, nil, nil)

	result, err := svc.ExportProduction(context.Background(), models.ProductionMilk, productionRows())
	if err != nil {
		t.Fatalf("ExportProduction returned error: %v", err)
	}

	if result.Rows != 2 || result.Subtotal != 20 || result.Unit != "L" || result.Range != "Milk!A:G" {
		t.Errorf("Unexpected result %+v", result)
	}
	if len(sheetsRepo.cleared) != 1 || sheetsRepo.cleared[0] != "Milk!A:G" {
		t.Errorf("Expected the milk sheet to be cleared, got %v", sheetsRepo.cleared)
	}

	rows := sheetsRepo.appended["Milk!A:G"]
	if len(rows) != 4 {
		t.Fatalf("Expected header, 2 rows and subtotal, got %d rows", len(rows))
	}
	if rows[1][0] != "2024-06-03" || rows[1][1] != "A-1 (Bella)" || rows[1][3] != "morning" || rows[1][4] != "Barn A" {
		t.Errorf("Unexpected first row %v", rows[1])
	}
	if rows[2][1] != models.UnknownTag {
		t.Errorf("Expected placeholder tag, got %v", rows[2][1])
	}
	last := rows[3]
	if last[0] != "Subtotal" || last[2] != 20.0 || last[3] != "L" {
		t.Errorf("Unexpected subtotal row %v", last)
	}
}

func TestExportProductionErrors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc := NewService(nil, nil, nil)
		_, err := svc.ExportProduction(context.Background(), models.ProductionMilk, nil)
		if !errors.Is(err, apperr.ErrDisabled) {
			t.Errorf("Expected ErrDisabled, got %v", err)
		}
	})

	t.Run("bad category", func(t *testing.T) {
		svc := NewService(&fakeSheets{}, nil, nil)
		_, err := svc.ExportProduction(context.Background(), "wool", nil)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Expected ErrValidation, got %v", err)
		}
	})

	t.Run("sheet failure", func(t *testing.T) {
		svc := NewService(&fakeSheets{err: errors.New("quota")}, nil, nil)
		_, err := svc.ExportProduction(context.Background(), models.ProductionMeat, productionRows())
		if !errors.Is(err, apperr.ErrUnavailable) {
			t.Errorf("Expected ErrUnavailable, got %v", err)
		}
	})
}

func TestArchiveSnapshot(t *testing.T) {
	store := memory.NewRepository()
	svc := NewService(nil, store, nil)

	snap := ComputeDashboard(nil, nil, nil, day(2024, time.June, 3))
	if err := svc.ArchiveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("ArchiveSnapshot returned error: %v", err)
	}

	saved := store.Snapshots()
	if len(saved) != 1 || !saved[0].AsOf.Equal(snap.AsOf) {
		t.Errorf("Expected one archived snapshot, got %+v", saved)
	}
}

func TestWeeklyReportRender(t *testing.T) {
	animals := []models.Animal{
		{ID: "a1", Type: models.AnimalDairy, Status: models.StatusLactating},
		{ID: "a2", Type: models.AnimalBeef, Status: models.StatusSick},
	}
	production := []models.ProductionRecord{
		milk("p1", 10, day(2024, time.June, 3)),
		milk("p2", 5, day(2024, time.June, 1)),
	}
	report := WeeklyReport{
		FarmName:  "Hillside",
		WeekStart: time.Sunday,
		Snapshot:  ComputeDashboard(animals, nil, production, day(2024, time.June, 3)),
		TopProducers: []AnimalTotal{
			{Tag: "A-1", Name: "Bella", Total: 70.5},
			{Tag: "A-2", Total: 60},
			{Tag: "A-3", Total: 50},
			{Tag: "A-4", Total: 40},
		},
		Doses: []dose.Item{
			{Assessment: dose.Assessment{Status: dose.StatusOverdue}},
			{Assessment: dose.Assessment{Status: dose.StatusDueSoon}},
			{Assessment: dose.Assessment{Status: dose.StatusDueSoon}},
		},
	}

	text := report.Render()

	for _, want := range []string{
		"Hillside",
		"Week of 2024-06-02",
		"Animals: 2 (dairy 1, beef 1)",
		"Milk: 10 L this week, 15 L this month",
		"1. A-1 (Bella): 70.5 L",
		"3. A-3: 50 L",
		"1 overdue, 0 due today, 2 due soon",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected report to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "A-4") {
		t.Error("Expected only the top three producers")
	}
}
