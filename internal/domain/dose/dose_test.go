package dose

import (
	"testing"
	"time"

	"github.com/mamadbah2/herd/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func TestEvaluateBoundaries(t *testing.T) {
	tests := []struct {
		daysRemaining int
		want          Status
	}{
		{-1, StatusOverdue},
		{0, StatusDueToday},
		{1, StatusDueSoon},
		{3, StatusDueSoon},
		{4, StatusOK},
	}

	for _, tt := range tests {
		got := Evaluate(tt.daysRemaining, 3)
		if got.Status != tt.want {
			t.Errorf("Evaluate(%d, 3) = %s, want %s", tt.daysRemaining, got.Status, tt.want)
		}
	}
}

func TestEvaluateWithoutAdvanceWindow(t *testing.T) {
	if got := Evaluate(1, 0); got.Status != StatusOK || got.ProgressPercent != 100 {
		t.Fatalf("Evaluate(1, 0) = %+v", got)
	}
	if got := Evaluate(2, -5); got.Status != StatusOK || got.ProgressPercent != 100 {
		t.Fatalf("negative advance should behave like zero, got %+v", got)
	}
}

func TestProgressIsMonotonicAndBounded(t *testing.T) {
	for _, advance := range []int{1, 3, 7, 30} {
		prev := 101
		for d := -10; d <= advance+10; d++ {
			pct := Evaluate(d, advance).ProgressPercent
			if pct < 0 || pct > 100 {
				t.Fatalf("advance=%d days=%d progress %d out of range", advance, d, pct)
			}
			if pct > prev {
				t.Fatalf("advance=%d progress increased from %d to %d at days=%d", advance, prev, pct, d)
			}
			prev = pct
		}
	}
}

func TestProgressValues(t *testing.T) {
	tests := []struct {
		days, advance, want int
	}{
		{3, 3, 0},
		{2, 3, 33},
		{1, 3, 67},
		{0, 3, 100},
		{-4, 3, 100},
		{10, 3, 0},
	}
	for _, tt := range tests {
		if got := Evaluate(tt.days, tt.advance).ProgressPercent; got != tt.want {
			t.Errorf("progress(%d, %d) = %d, want %d", tt.days, tt.advance, got, tt.want)
		}
	}
}

func TestClassifyWithoutDueDate(t *testing.T) {
	got := ClassifyRecord(models.HealthRecord{ReminderAdvanceDays: 3}, day(2024, 1, 1))
	if got.Status != StatusOK || got.ProgressPercent != 100 || got.HasDueDate {
		t.Fatalf("unexpected assessment %+v", got)
	}

	zero := time.Time{}
	if got := Classify(day(2024, 1, 1), &zero, 3); got.Status != StatusOK {
		t.Fatalf("zero due date should be ok, got %+v", got)
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2024, 1, 10, 23, 30, 0, 0, time.UTC)
	due := time.Date(2024, 1, 11, 0, 15, 0, 0, time.UTC)

	got := Classify(today, &due, 3)
	if got.DaysRemaining != 1 || got.Status != StatusDueSoon {
		t.Fatalf("got %+v, want 1 day due-soon", got)
	}
}

func TestUpcomingOrdering(t *testing.T) {
	today := day(2024, 3, 10)
	records := []models.HealthRecord{
		{ID: "ok", ReminderEnabled: true, NextDoseDate: ptr(day(2024, 3, 30)), ReminderAdvanceDays: 3},
		{ID: "soon-far", ReminderEnabled: true, NextDoseDate: ptr(day(2024, 3, 13)), ReminderAdvanceDays: 5},
		{ID: "disabled", ReminderEnabled: false, NextDoseDate: ptr(day(2024, 3, 1))},
		{ID: "overdue", ReminderEnabled: true, NextDoseDate: ptr(day(2024, 3, 8))},
		{ID: "today", ReminderEnabled: true, NextDoseDate: ptr(day(2024, 3, 10))},
		{ID: "soon-near", ReminderEnabled: true, NextDoseDate: ptr(day(2024, 3, 11)), ReminderAdvanceDays: 5},
		{ID: "no-date", ReminderEnabled: true},
		{ID: "soon-near-2", ReminderEnabled: true, NextDoseDate: ptr(day(2024, 3, 11)), ReminderAdvanceDays: 2},
	}

	got := Upcoming(records, today, 0)
	want := []string{"overdue", "today", "soon-near", "soon-near-2", "soon-far", "ok"}
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].Record.ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].Record.ID, id)
		}
	}

	if limited := Upcoming(records, today, 2); len(limited) != 2 || limited[1].Record.ID != "today" {
		t.Fatalf("limit not applied correctly: %+v", limited)
	}
}

func TestRolloverAdvancesFromPreviousDueDate(t *testing.T) {
	record := models.HealthRecord{
		RepeatEveryDays: 14,
		NextDoseDate:    ptr(day(2024, 1, 10)),
	}

	for _, today := range []time.Time{day(2024, 1, 5), day(2024, 1, 10), day(2024, 2, 20)} {
		patch := Rollover(record, today)
		if patch.NextDoseDate == nil {
			t.Fatalf("expected next dose date for today=%s", today)
		}
		if got := patch.NextDoseDate.Format("2006-01-02"); got != "2024-01-24" {
			t.Errorf("today=%s next dose = %s, want 2024-01-24", today.Format("2006-01-02"), got)
		}
		if patch.Date == nil || !patch.Date.Equal(today) {
			t.Errorf("applied date = %v, want %s", patch.Date, today)
		}
		if patch.ClearNextDose {
			t.Errorf("unexpected clear flag")
		}
	}
}

func TestRolloverClearsWithoutRepeat(t *testing.T) {
	tests := []models.HealthRecord{
		{NextDoseDate: ptr(day(2024, 1, 10))},
		{RepeatEveryDays: 7},
		{RepeatEveryDays: -1, NextDoseDate: ptr(day(2024, 1, 10))},
	}
	for _, record := range tests {
		patch := Rollover(record, day(2024, 1, 12))
		if !patch.ClearNextDose || patch.NextDoseDate != nil {
			t.Errorf("expected the reminder to be cleared, got %+v", patch)
		}
		applied := patch.Apply(record)
		if applied.NextDoseDate != nil {
			t.Errorf("apply kept next dose date %v", applied.NextDoseDate)
		}
	}
}
