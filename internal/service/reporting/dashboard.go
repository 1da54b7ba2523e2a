package reporting

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/models"
)

// RecentHealthLimit is how many health events the dashboard lists.
const RecentHealthLimit = 5

// Aggregator computes dashboard snapshots. The zero value starts weeks on Sunday.
type Aggregator struct {
	WeekStart time.Weekday
}

// ComputeDashboard is Aggregator{WeekStart: time.Sunday}.Compute.
func ComputeDashboard(animals []models.Animal, health []models.HealthRecord, production []models.ProductionRecord, asOf time.Time) models.DashboardSnapshot {
	return Aggregator{WeekStart: time.Sunday}.Compute(animals, health, production, asOf)
}

// Windows are the calendar ranges the rollups sum over. Every window ends on
// the asOf calendar date inclusive.
type Windows struct {
	Day   time.Time
	Week  time.Time
	Month time.Time
	Year  time.Time
}

// WindowsFor derives the window starts for asOf, in asOf's location.
func WindowsFor(asOf time.Time, weekStart time.Weekday) Windows {
	return Windows{
		Day:   dates.Midnight(asOf),
		Week:  dates.StartOfWeek(asOf, weekStart),
		Month: dates.StartOfMonth(asOf),
		Year:  dates.StartOfYear(asOf),
	}
}

// contains reports whether day (a midnight) falls in [start, w.Day].
func (w Windows) contains(start, day time.Time) bool {
	return !day.Before(start) && !day.After(w.Day)
}

// Compute builds a snapshot from the three collections. It is a pure function
// of its arguments and rescans everything on each call.
func (a Aggregator) Compute(animals []models.Animal, health []models.HealthRecord, production []models.ProductionRecord, asOf time.Time) models.DashboardSnapshot {
	snapshot := models.DashboardSnapshot{
		AsOf:         asOf,
		TotalAnimals: len(animals),
		ByType:       make(map[models.AnimalType]int, len(models.AnimalTypes)),
		ByStatus:     make(map[models.AnimalStatus]int, len(models.AnimalStatuses)),
		HealthByType: make(map[models.HealthCategory]int, len(models.HealthCategories)),
	}
	for _, t := range models.AnimalTypes {
		snapshot.ByType[t] = 0
	}
	for _, s := range models.AnimalStatuses {
		snapshot.ByStatus[s] = 0
	}
	for _, c := range models.HealthCategories {
		snapshot.HealthByType[c] = 0
	}

	for _, animal := range animals {
		snapshot.ByType[animal.Type.Canonical()]++
		snapshot.ByStatus[animal.Status.Canonical()]++
	}
	for _, record := range health {
		snapshot.HealthByType[models.HealthCategory(strings.ToLower(string(record.Category)))]++
	}

	snapshot.Production = a.rollup(production, WindowsFor(asOf, a.WeekStart))
	snapshot.RecentHealth = RecentHealth(health, RecentHealthLimit)
	return snapshot
}

func (a Aggregator) rollup(records []models.ProductionRecord, w Windows) models.ProductionRollup {
	var milkDay, milkWeek, milkMonth, milkYear, meatMonth, meatYear decimal.Decimal
	loc := w.Day.Location()

	for _, record := range records {
		if record.Quantity < 0 {
			continue
		}
		day := dates.Midnight(record.Date.In(loc))
		if !w.contains(w.Year, day) {
			continue
		}
		qty := decimal.NewFromFloat(record.Quantity)

		switch models.ProductionCategory(strings.ToLower(string(record.Category))) {
		case models.ProductionMilk:
			milkYear = milkYear.Add(qty)
			if w.contains(w.Month, day) {
				milkMonth = milkMonth.Add(qty)
			}
			if w.contains(w.Week, day) {
				milkWeek = milkWeek.Add(qty)
			}
			if w.contains(w.Day, day) {
				milkDay = milkDay.Add(qty)
			}
		case models.ProductionMeat:
			meatYear = meatYear.Add(qty)
			if w.contains(w.Month, day) {
				meatMonth = meatMonth.Add(qty)
			}
		}
	}

	return models.ProductionRollup{
		Milk: models.MilkRollup{
			Today:     milkDay.InexactFloat64(),
			ThisWeek:  milkWeek.InexactFloat64(),
			ThisMonth: milkMonth.InexactFloat64(),
			ThisYear:  milkYear.InexactFloat64(),
		},
		Meat: models.MeatRollup{
			ThisMonth: meatMonth.InexactFloat64(),
			ThisYear:  meatYear.InexactFloat64(),
		},
	}
}

// RecentHealth returns the limit most recently dated records, newest first.
// Records with equal dates keep their collection order.
func RecentHealth(records []models.HealthRecord, limit int) []models.HealthRecord {
	sorted := make([]models.HealthRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
