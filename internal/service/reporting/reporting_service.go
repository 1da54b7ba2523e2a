package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/dose"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/repository"
	"github.com/mamadbah2/herd/internal/repository/sheets"
)

// exportHeader is the first row of every production export.
var exportHeader = []interface{}{"Date", "Animal", "Quantity", "Shift", "Location", "Quality", "Notes"}

// Service produces the outward reports: spreadsheet exports, the weekly
// WhatsApp summary and the nightly snapshot archive.
type Service struct {
	sheets    sheets.Repository
	snapshots repository.SnapshotRepository
	logger    *zap.Logger
}

// NewService wires the reporting service. A nil sheets repository disables
// the export.
func NewService(sheetsRepo sheets.Repository, snapshots repository.SnapshotRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sheets:    sheetsRepo,
		snapshots: snapshots,
		logger:    logger,
	}
}

// ExportResult describes a finished export.
type ExportResult struct {
	Range    string  `json:"range"`
	Rows     int     `json:"rows"`
	Subtotal float64 `json:"subtotal"`
	Unit     string  `json:"unit"`
}

// ExportRange is the sheet range a category is written to.
func ExportRange(category models.ProductionCategory) string {
	if category == models.ProductionMeat {
		return "Meat!A:G"
	}
	return "Milk!A:G"
}

// ExportRows renders the production table followed by a subtotal row.
func ExportRows(rows []models.ProductionView, unit string) [][]interface{} {
	out := make([][]interface{}, 0, len(rows)+2)
	out = append(out, exportHeader)
	for _, row := range rows {
		out = append(out, []interface{}{
			row.Date.Format(dates.ISOLayout),
			AnimalLabel(row.AnimalTag, row.AnimalName),
			row.Quantity,
			string(row.Shift),
			row.Location,
			row.Quality,
			row.Notes,
		})
	}
	out = append(out, []interface{}{"Subtotal", "", Subtotal(rows), unit, "", "", ""})
	return out
}

// AnimalLabel renders "tag (name)" or just the tag.
func AnimalLabel(tag, name string) string {
	if name == "" {
		return tag
	}
	return fmt.Sprintf("%s (%s)", tag, name)
}

// ExportProduction replaces the category's sheet with rows and a subtotal.
func (s *Service) ExportProduction(ctx context.Context, category models.ProductionCategory, rows []models.ProductionView) (ExportResult, error) {
	if s.sheets == nil {
		return ExportResult{}, apperr.Disabled("production export")
	}
	if !category.Valid() {
		return ExportResult{}, apperr.Validation("unknown production type", map[string]string{"type": string(category)})
	}

	sheetRange := ExportRange(category)
	if err := s.sheets.ClearRange(ctx, sheetRange); err != nil {
		return ExportResult{}, apperr.Unavailable("clear export sheet", err)
	}
	if err := s.sheets.AppendRows(ctx, sheetRange, ExportRows(rows, category.Unit())); err != nil {
		return ExportResult{}, apperr.Unavailable("write export sheet", err)
	}

	result := ExportResult{
		Range:    sheetRange,
		Rows:     len(rows),
		Subtotal: Subtotal(rows),
		Unit:     category.Unit(),
	}
	s.logger.Info("production exported",
		zap.String("range", sheetRange),
		zap.Int("rows", result.Rows),
		zap.Float64("subtotal", result.Subtotal))
	return result, nil
}

// ArchiveSnapshot persists a dashboard snapshot.
func (s *Service) ArchiveSnapshot(ctx context.Context, snapshot models.DashboardSnapshot) error {
	if s.snapshots == nil {
		return apperr.Disabled("snapshot archive")
	}
	if err := s.snapshots.SaveDashboardSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("archive dashboard snapshot: %w", err)
	}
	s.logger.Info("dashboard snapshot archived", zap.Time("as_of", snapshot.AsOf))
	return nil
}

// WeeklyReport is the data the weekly summary is rendered from.
type WeeklyReport struct {
	FarmName     string
	WeekStart    time.Weekday
	Snapshot     models.DashboardSnapshot
	TopProducers []AnimalTotal
	Doses        []dose.Item
}

// topProducerCount bounds the producers listed in the weekly summary.
const topProducerCount = 3

// Render formats the weekly summary sent over WhatsApp.
func (r WeeklyReport) Render() string {
	snap := r.Snapshot
	var b strings.Builder

	weekOf := dates.StartOfWeek(snap.AsOf, r.WeekStart)
	fmt.Fprintf(&b, "📊 *Weekly report: %s*\n", r.FarmName)
	fmt.Fprintf(&b, "Week of %s\n\n", weekOf.Format(dates.ISOLayout))

	fmt.Fprintf(&b, "🐄 Animals: %d (dairy %d, beef %d)\n",
		snap.TotalAnimals, snap.ByType[models.AnimalDairy], snap.ByType[models.AnimalBeef])
	fmt.Fprintf(&b, "Sick: %d | Pregnant: %d | Lactating: %d\n\n",
		snap.ByStatus[models.StatusSick], snap.ByStatus[models.StatusPregnant], snap.ByStatus[models.StatusLactating])

	milk := snap.Production.Milk
	fmt.Fprintf(&b, "🥛 Milk: %s L this week, %s L this month\n", formatQty(milk.ThisWeek), formatQty(milk.ThisMonth))
	fmt.Fprintf(&b, "🥩 Meat: %s kg this month\n", formatQty(snap.Production.Meat.ThisMonth))

	if len(r.TopProducers) > 0 {
		b.WriteString("\nTop producers:\n")
		for i, total := range r.TopProducers {
			if i == topProducerCount {
				break
			}
			fmt.Fprintf(&b, "%d. %s: %s L\n", i+1, AnimalLabel(total.Tag, total.Name), formatQty(total.Total))
		}
	}

	counts := make(map[dose.Status]int, len(dose.Statuses))
	for _, item := range r.Doses {
		counts[item.Assessment.Status]++
	}
	fmt.Fprintf(&b, "\n💉 Doses: %d overdue, %d due today, %d due soon",
		counts[dose.StatusOverdue], counts[dose.StatusDueToday], counts[dose.StatusDueSoon])

	return b.String()
}

func formatQty(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
