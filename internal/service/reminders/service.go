// Package reminders polls pending doses against the wall clock and keeps the
// local notification board.
package reminders

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/dose"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/metrics"
	"github.com/mamadbah2/herd/internal/service/farm"
)

// DoseSource lists classified doses for a given day.
type DoseSource interface {
	DosesAsOf(today time.Time, limit int) []farm.DoseView
}

// Notifier delivers outbound messages.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Notification is one entry of the board.
type Notification struct {
	RecordID      string      `json:"recordId"`
	AnimalID      string      `json:"animalId"`
	AnimalTag     string      `json:"animalTag"`
	Status        dose.Status `json:"status"`
	DaysRemaining int         `json:"daysRemaining"`
	Message       string      `json:"message"`
}

// Service holds the board produced by the last poll.
type Service struct {
	source    DoseSource
	notifier  Notifier
	recipient string
	logger    *zap.Logger

	mu       sync.RWMutex
	board    []Notification
	polledAt time.Time
}

// NewService wires the reminder poll. A nil notifier or an empty recipient
// disables the digest.
func NewService(source DoseSource, notifier Notifier, recipient string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:    source,
		notifier:  notifier,
		recipient: recipient,
		logger:    logger,
		board:     []Notification{},
	}
}

// Poll classifies every pending dose against now and replaces the board with
// the doses due today or overdue. It only reads in-memory records.
func (s *Service) Poll(now time.Time) []Notification {
	doses := s.source.DosesAsOf(now, 0)

	counts := make(map[dose.Status]int, len(dose.Statuses))
	board := make([]Notification, 0)
	for _, d := range doses {
		counts[d.Assessment.Status]++
		if d.Assessment.Status != dose.StatusDueToday && d.Assessment.Status != dose.StatusOverdue {
			continue
		}
		board = append(board, Notification{
			RecordID:      d.ID,
			AnimalID:      d.AnimalID,
			AnimalTag:     d.AnimalTag,
			Status:        d.Assessment.Status,
			DaysRemaining: d.Assessment.DaysRemaining,
			Message:       message(d),
		})
	}
	for _, status := range dose.Statuses {
		metrics.SetDoseCount(string(status), counts[status])
	}

	s.mu.Lock()
	changed := len(board) != len(s.board)
	s.board = board
	s.polledAt = now
	s.mu.Unlock()

	if changed {
		s.logger.Info("dose notifications updated", zap.Int("count", len(board)))
	}
	return board
}

// message renders the board line of a dose.
func message(d farm.DoseView) string {
	what := d.Medicine
	if what == "" {
		what = d.Description
	}
	if d.Assessment.Status == dose.StatusOverdue {
		late := -d.Assessment.DaysRemaining
		unit := "days"
		if late == 1 {
			unit = "day"
		}
		return fmt.Sprintf("Overdue: apply %s to %s (%d %s late)", what, d.AnimalTag, late, unit)
	}
	return fmt.Sprintf("Today: apply %s to %s", what, d.AnimalTag)
}

// Notifications returns the board of the last poll.
func (s *Service) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.board))
	copy(out, s.board)
	return out
}

// PolledAt is the time of the last poll.
func (s *Service) PolledAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.polledAt
}

// SendDigest sends the board to the farm manager. It is a no-op when the
// notifier is disabled or nothing is due.
func (s *Service) SendDigest(ctx context.Context) error {
	if s.notifier == nil || s.recipient == "" {
		s.logger.Debug("dose digest skipped, notifier disabled")
		return nil
	}

	board := s.Notifications()
	if len(board) == 0 {
		s.logger.Debug("dose digest skipped, nothing due")
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💉 Doses due on %s\n", s.PolledAt().Format(dates.ISOLayout))
	for _, n := range board {
		fmt.Fprintf(&b, "- %s\n", n.Message)
	}

	err := s.notifier.SendOutbound(ctx, models.OutboundMessageRequest{
		To:      s.recipient,
		Message: strings.TrimRight(b.String(), "\n"),
	})
	metrics.RecordMessage("dose_digest", err)
	if err != nil {
		return fmt.Errorf("send dose digest: %w", err)
	}
	s.logger.Info("dose digest sent", zap.Int("doses", len(board)))
	return nil
}
