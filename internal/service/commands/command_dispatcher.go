package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/dose"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/service/farm"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

const (
	dateFormat    = "2006-01-02"
	maxDoseLines  = 10
	helpMessage   = "Commands:\n/milk <tag> <liters> [morning|afternoon|night]\n/meat <tag> <kg>\n/doses\n/summary"
	failedMessage = "Could not save the record right now, please try again later."
)

// Farm is the part of the Farm Data Provider the commands use.
type Farm interface {
	AnimalByTag(tag string) (models.Animal, error)
	CreateProductionRecord(ctx context.Context, record models.ProductionRecord) (models.ProductionRecord, error)
	UpcomingDoses(limit int) []farm.DoseView
	Dashboard() models.DashboardSnapshot
	Today() time.Time
}

// Dispatcher executes parsed staff commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface on top of the farm provider.
type Service struct {
	farm   Farm
	logger *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(provider Farm, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{farm: provider, logger: logger}
}

// HandleCommand runs the command. Mistakes by the sender come back as reply
// text with a nil error; the error is only set when the store failed, and the
// reply then says so.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandMilk:
		return s.logProduction(ctx, cmd, models.ProductionMilk, sender)
	case models.CommandMeat:
		return s.logProduction(ctx, cmd, models.ProductionMeat, sender)
	case models.CommandDoses:
		return s.doses(), nil
	case models.CommandSummary:
		return s.summary(), nil
	default:
		return helpMessage, nil
	}
}

func (s *Service) logProduction(ctx context.Context, cmd models.Command, category models.ProductionCategory, sender string) (string, error) {
	record, err := s.buildProductionRecord(cmd, category)
	if err != nil {
		return usage(category), nil
	}

	animal, err := s.farm.AnimalByTag(cmd.Args[0])
	if err != nil {
		return fmt.Sprintf("No animal with tag %s.", cmd.Args[0]), nil
	}
	record.AnimalID = animal.ID
	record.Notes = "via WhatsApp from " + sender

	saved, err := s.farm.CreateProductionRecord(ctx, record)
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrNotFound):
		return "Record rejected: " + describe(err), nil
	case err != nil:
		return failedMessage, fmt.Errorf("save %s record: %w", category, err)
	}

	message := fmt.Sprintf("Saved %s %s %s for %s on %s.",
		formatQty(saved.Quantity), category.Unit(), category, animal.Tag, saved.Date.Format(dateFormat))
	if saved.Shift != "" {
		message += fmt.Sprintf(" Shift: %s.", saved.Shift)
	}
	return message, nil
}

func (s *Service) buildProductionRecord(cmd models.Command, category models.ProductionCategory) (models.ProductionRecord, error) {
	if len(cmd.Args) < 2 {
		return models.ProductionRecord{}, ErrInvalidArguments
	}

	quantity, err := strconv.ParseFloat(strings.ReplaceAll(cmd.Args[1], ",", "."), 64)
	if err != nil || quantity < 0 {
		return models.ProductionRecord{}, ErrInvalidArguments
	}

	record := models.ProductionRecord{
		Date:     s.farm.Today(),
		Category: category,
		Quantity: quantity,
	}

	if category == models.ProductionMilk {
		record.Shift = models.ShiftMorning
		if len(cmd.Args) > 2 {
			shift, ok := models.ParseShift(strings.ToLower(cmd.Args[2]))
			if !ok {
				return models.ProductionRecord{}, ErrInvalidArguments
			}
			record.Shift = shift
		}
	} else if len(cmd.Args) > 2 {
		return models.ProductionRecord{}, ErrInvalidArguments
	}

	return record, nil
}

func (s *Service) doses() string {
	var lines []string
	for _, item := range s.farm.UpcomingDoses(0) {
		if item.Assessment.Status == dose.StatusOK {
			continue
		}
		if len(lines) == maxDoseLines {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s %s: %s", item.AnimalTag, doseName(item.HealthRecord), statusText(item.Assessment)))
	}
	if len(lines) == 0 {
		return "No doses due in the next days."
	}
	return "Upcoming doses:\n" + strings.Join(lines, "\n")
}

func (s *Service) summary() string {
	snap := s.farm.Dashboard()

	counts := map[dose.Status]int{}
	for _, item := range s.farm.UpcomingDoses(0) {
		counts[item.Assessment.Status]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summary for %s\n", snap.AsOf.Format(dateFormat))
	fmt.Fprintf(&b, "Animals: %d (dairy %d, beef %d)\n", snap.TotalAnimals, snap.ByType[models.AnimalDairy], snap.ByType[models.AnimalBeef])
	fmt.Fprintf(&b, "Milk: %s L today, %s L this week\n", formatQty(snap.Production.Milk.Today), formatQty(snap.Production.Milk.ThisWeek))
	fmt.Fprintf(&b, "Meat: %s kg this month\n", formatQty(snap.Production.Meat.ThisMonth))
	fmt.Fprintf(&b, "Doses: %d overdue, %d due today, %d due soon", counts[dose.StatusOverdue], counts[dose.StatusDueToday], counts[dose.StatusDueSoon])
	return b.String()
}

func usage(category models.ProductionCategory) string {
	if category == models.ProductionMeat {
		return "Usage: /meat <tag> <kg>, e.g. /meat B-07 212.5"
	}
	return "Usage: /milk <tag> <liters> [morning|afternoon|night], e.g. /milk A-12 14.5 morning"
}

func doseName(r models.HealthRecord) string {
	if r.Medicine != "" {
		return r.Medicine
	}
	if r.Description != "" {
		return r.Description
	}
	return "treatment"
}

func statusText(a dose.Assessment) string {
	switch a.Status {
	case dose.StatusOverdue:
		return fmt.Sprintf("overdue by %d d", -a.DaysRemaining)
	case dose.StatusDueToday:
		return "due today"
	default:
		return fmt.Sprintf("in %d d", a.DaysRemaining)
	}
}

func describe(err error) string {
	appErr, ok := apperr.As(err)
	if !ok {
		return err.Error()
	}
	if len(appErr.Details) == 0 {
		return appErr.Message
	}
	fields := make([]string, 0, len(appErr.Details))
	for field := range appErr.Details {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+appErr.Details[field])
	}
	return strings.Join(parts, "; ")
}

func formatQty(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
