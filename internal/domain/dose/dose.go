// Package dose classifies recurring-dose reminders on health records.
//
// Every function here is pure in (today, next due date, advance window) so
// callers can pin "today" and get exact answers.
package dose

import (
	"math"
	"sort"
	"time"

	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/models"
)

// Status is the urgency of a pending dose.
type Status string

const (
	StatusOverdue  Status = "overdue"
	StatusDueToday Status = "due-today"
	StatusDueSoon  Status = "due-soon"
	StatusOK       Status = "ok"
)

// Statuses lists every status from most to least urgent.
var Statuses = []Status{StatusOverdue, StatusDueToday, StatusDueSoon, StatusOK}

// Severity orders statuses; lower is more urgent.
func (s Status) Severity() int {
	switch s {
	case StatusOverdue:
		return 0
	case StatusDueToday:
		return 1
	case StatusDueSoon:
		return 2
	default:
		return 3
	}
}

// Assessment is the classification of one record on one day.
type Assessment struct {
	Status          Status `json:"status"`
	DaysRemaining   int    `json:"daysRemaining"`
	ProgressPercent int    `json:"progressPercent"`
	HasDueDate      bool   `json:"hasDueDate"`
}

// Evaluate classifies a dose that is daysRemaining calendar days away with an
// advance warning window of advance days.
func Evaluate(daysRemaining, advance int) Assessment {
	if advance < 0 {
		advance = 0
	}

	var status Status
	switch {
	case daysRemaining < 0:
		status = StatusOverdue
	case daysRemaining == 0:
		status = StatusDueToday
	case daysRemaining <= advance:
		status = StatusDueSoon
	default:
		status = StatusOK
	}

	return Assessment{
		Status:          status,
		DaysRemaining:   daysRemaining,
		ProgressPercent: progress(daysRemaining, advance),
		HasDueDate:      true,
	}
}

// progress is the share of the advance window already used, in [0, 100].
func progress(daysRemaining, advance int) int {
	if advance <= 0 {
		return 100
	}
	used := advance - max(0, daysRemaining)
	if used < 0 {
		used = 0
	}
	pct := int(math.Round(100 * float64(used) / float64(advance)))
	return min(100, max(0, pct))
}

// Classify assesses a next-due date relative to today. A nil date is always ok.
func Classify(today time.Time, nextDue *time.Time, advance int) Assessment {
	if nextDue == nil || nextDue.IsZero() {
		return Assessment{Status: StatusOK, ProgressPercent: 100}
	}
	return Evaluate(dates.DaysBetween(today, *nextDue), advance)
}

// ClassifyRecord assesses a health record's next dose.
func ClassifyRecord(record models.HealthRecord, today time.Time) Assessment {
	return Classify(today, record.NextDoseDate, record.ReminderAdvanceDays)
}

// Item pairs a record with its assessment.
type Item struct {
	Record     models.HealthRecord `json:"record"`
	Assessment Assessment          `json:"assessment"`
}

// Less orders items by severity, then by days remaining.
func Less(a, b Item) bool {
	if sa, sb := a.Assessment.Status.Severity(), b.Assessment.Status.Severity(); sa != sb {
		return sa < sb
	}
	return a.Assessment.DaysRemaining < b.Assessment.DaysRemaining
}

// Sort orders items most urgent first; equal items keep their input order.
func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool { return Less(items[i], items[j]) })
}

// Upcoming returns the reminder-enabled records that have a next dose, most
// urgent first. limit <= 0 returns them all.
func Upcoming(records []models.HealthRecord, today time.Time, limit int) []Item {
	items := make([]Item, 0, len(records))
	for _, r := range records {
		if !r.ReminderEnabled || r.NextDoseDate == nil {
			continue
		}
		items = append(items, Item{Record: r, Assessment: ClassifyRecord(r, today)})
	}
	Sort(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Rollover returns the patch that marks a dose as applied today. The next dose
// moves forward from the previous due date, not from today, so a late dose
// does not shorten the interval. Without a repeat interval the reminder is cleared.
func Rollover(record models.HealthRecord, today time.Time) models.HealthRecordPatch {
	applied := dates.Midnight(today)
	patch := models.HealthRecordPatch{Date: &applied}

	if record.RepeatEveryDays > 0 && record.NextDoseDate != nil && !record.NextDoseDate.IsZero() {
		previous := dates.Midnight(record.NextDoseDate.In(today.Location()))
		next := dates.AddDays(previous, record.RepeatEveryDays)
		patch.NextDoseDate = &next
		return patch
	}

	patch.ClearNextDose = true
	return patch
}
