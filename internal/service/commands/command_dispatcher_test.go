package commands

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/repository/memory"
	"github.com/mamadbah2/herd/internal/service/farm"
)

var testNow = time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

type failingStore struct {
	*memory.Repository
}

func (s failingStore) CreateProductionRecord(context.Context, models.ProductionRecord) (models.ProductionRecord, error) {
	return models.ProductionRecord{}, apperr.Unavailable("create production record", context.DeadlineExceeded)
}

func newProvider(t *testing.T, store farm.Store) *farm.Provider {
	t.Helper()
	clock := dates.NewNormalizer(time.UTC, nil).WithClock(func() time.Time { return testNow })
	p := farm.NewProvider(store, clock, time.Sunday, farm.Profile{Name: "Hillside"}, nil)
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	_, err := p.CreateAnimal(context.Background(), models.Animal{
		Tag:       "A-12",
		Type:      models.AnimalDairy,
		Breed:     "Holstein",
		BirthDate: time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
		Gender:    models.GenderFemale,
		Status:    models.StatusHealthy,
	})
	if err != nil {
		t.Fatalf("CreateAnimal returned error: %v", err)
	}
	return p
}

func TestHandleMilkCommand(t *testing.T) {
	p := newProvider(t, memory.NewRepository())
	svc := NewService(p, nil)

	tests := []struct {
		name      string
		text      string
		wantReply string
		wantShift models.MilkingShift
		saved     bool
	}{
		{"default shift", "/milk A-12 14.5", "Saved 14.5 L milk for A-12 on 2024-06-03. Shift: morning.", models.ShiftMorning, true},
		{"explicit shift", "/milk a-12 9,25 night", "Saved 9.25 L milk for A-12 on 2024-06-03. Shift: night.", models.ShiftNight, true},
		{"legacy shift", "/MILK A-12 3 tarde", "Saved 3 L milk for A-12 on 2024-06-03. Shift: afternoon.", models.ShiftAfternoon, true},
		{"unknown tag", "/milk Z-99 4", "No animal with tag Z-99.", "", false},
		{"missing quantity", "/milk A-12", "Usage: /milk", "", false},
		{"negative quantity", "/milk A-12 -3", "Usage: /milk", "", false},
		{"bad shift", "/milk A-12 3 midnight", "Usage: /milk", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(p.ProductionRecords(farm.ProductionFilter{}))
			reply, err := svc.HandleCommand(context.Background(), models.ParseCommand(tt.text), "22177000000")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !strings.HasPrefix(reply, tt.wantReply) {
				t.Errorf("Expected reply starting with %q, got %q", tt.wantReply, reply)
			}
			records := p.ProductionRecords(farm.ProductionFilter{})
			if tt.saved != (len(records) == before+1) {
				t.Fatalf("Expected saved=%v, records went from %d to %d", tt.saved, before, len(records))
			}
			if tt.saved && records[len(records)-1].Shift != tt.wantShift {
				t.Errorf("Expected shift %s, got %s", tt.wantShift, records[len(records)-1].Shift)
			}
		})
	}

	if got := p.Dashboard().Production.Milk.Today; got != 26.75 {
		t.Errorf("Expected 26.75 L today after commands, got %v", got)
	}
}

func TestHandleMeatCommand(t *testing.T) {
	p := newProvider(t, memory.NewRepository())
	svc := NewService(p, nil)

	reply, err := svc.HandleCommand(context.Background(), models.ParseCommand("/meat A-12 212.5"), "staff")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if reply != "Saved 212.5 kg meat for A-12 on 2024-06-03." {
		t.Errorf("Unexpected reply %q", reply)
	}

	reply, _ = svc.HandleCommand(context.Background(), models.ParseCommand("/meat A-12 10 morning"), "staff")
	if !strings.HasPrefix(reply, "Usage: /meat") {
		t.Errorf("Expected meat usage for extra argument, got %q", reply)
	}
}

func TestHandleCommandStoreFailure(t *testing.T) {
	p := newProvider(t, failingStore{Repository: memory.NewRepository()})
	svc := NewService(p, nil)

	reply, err := svc.HandleCommand(context.Background(), models.ParseCommand("/milk A-12 10"), "staff")
	if err == nil {
		t.Fatalf("Expected an error when the store is down")
	}
	if reply != failedMessage {
		t.Errorf("Expected failure reply, got %q", reply)
	}
	if len(p.ProductionRecords(farm.ProductionFilter{})) != 0 {
		t.Errorf("Expected no record in memory after a failed write")
	}
}

func TestHandleDosesAndSummary(t *testing.T) {
	p := newProvider(t, memory.NewRepository())
	svc := NewService(p, nil)
	ctx := context.Background()

	reply, _ := svc.HandleCommand(ctx, models.ParseCommand("/doses"), "staff")
	if reply != "No doses due in the next days." {
		t.Errorf("Unexpected empty doses reply %q", reply)
	}

	animal, _ := p.AnimalByTag("A-12")
	next := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	_, err := p.CreateHealthRecord(ctx, models.HealthRecord{
		AnimalID:        animal.ID,
		Date:            time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		Category:        models.HealthVaccination,
		Description:     "Foot and mouth",
		Medicine:        "FMD vaccine",
		ReminderEnabled: true,
		NextDoseDate:    &next,
	})
	if err != nil {
		t.Fatalf("CreateHealthRecord returned error: %v", err)
	}

	reply, _ = svc.HandleCommand(ctx, models.ParseCommand("/doses"), "staff")
	if reply != "Upcoming doses:\n- A-12 FMD vaccine: overdue by 2 d" {
		t.Errorf("Unexpected doses reply %q", reply)
	}

	if _, err := svc.HandleCommand(ctx, models.ParseCommand("/milk A-12 12"), "staff"); err != nil {
		t.Fatalf("milk: %v", err)
	}
	reply, _ = svc.HandleCommand(ctx, models.ParseCommand("/summary"), "staff")
	for _, want := range []string{
		"Animals: 1 (dairy 1, beef 0)",
		"Milk: 12 L today, 12 L this week",
		"Doses: 1 overdue, 0 due today, 0 due soon",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("Expected summary to contain %q, got %q", want, reply)
		}
	}
}

func TestHandleUnknownCommandReturnsHelp(t *testing.T) {
	svc := NewService(newProvider(t, memory.NewRepository()), nil)
	reply, err := svc.HandleCommand(context.Background(), models.ParseCommand("hello there"), "staff")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if reply != helpMessage {
		t.Errorf("Expected help message, got %q", reply)
	}
}
