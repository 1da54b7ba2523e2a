package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/config"
	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/dose"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/service/farm"
	"github.com/mamadbah2/herd/internal/service/reminders"
	"github.com/mamadbah2/herd/internal/service/reporting"
	"github.com/mamadbah2/herd/internal/service/whatsapp"
)

const jobTimeout = 2 * time.Minute

// FarmState is the part of the Farm Data Provider the jobs read.
type FarmState interface {
	Recompute()
	Dashboard() models.DashboardSnapshot
	ProductionTotals(filter farm.ProductionFilter) []reporting.AnimalTotal
	UpcomingDoses(limit int) []farm.DoseView
	WeekStart() time.Weekday
	Today() time.Time
}

// Reminders is the dose poll and digest.
type Reminders interface {
	Poll(now time.Time) []reminders.Notification
	SendDigest(ctx context.Context) error
}

// Archiver persists dashboard snapshots.
type Archiver interface {
	ArchiveSnapshot(ctx context.Context, snapshot models.DashboardSnapshot) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	schedules    config.ScheduleConfig
	farmName     string
	managerID    string
	farm         FarmState
	reminders    Reminders
	archiver     Archiver
	messagingSvc whatsapp.MessagingService
	now          func() time.Time
	logger       *zap.Logger
}

// NewScheduler creates a scheduler whose cron expressions are read in loc.
func NewScheduler(cfg config.Config, loc *time.Location, farmState FarmState, remindersSvc Reminders, archiver Archiver, messagingSvc whatsapp.MessagingService, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	cl := cronLogger{logger.Sugar()}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &Scheduler{
		cron:         c,
		schedules:    cfg.Schedules,
		farmName:     cfg.Farm.Name,
		managerID:    cfg.WhatsApp.ManagerID,
		farm:         farmState,
		reminders:    remindersSvc,
		archiver:     archiver,
		messagingSvc: messagingSvc,
		now:          time.Now,
		logger:       logger,
	}
}

// Start registers every job and starts the scheduler. An invalid cron
// expression is returned before anything runs.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"dose poll", s.schedules.DosePoll, s.pollDoses},
		{"dose digest", s.schedules.DoseDigest, s.sendDoseDigest},
		{"snapshot archive", s.schedules.Snapshot, s.archiveSnapshot},
		{"weekly report", s.schedules.WeeklyReport, s.sendWeeklyReport},
	}
	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
		s.logger.Info("job scheduled", zap.String("job", job.name), zap.String("spec", job.spec))
	}

	// The board is empty until the first tick otherwise.
	s.pollDoses()

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// pollDoses refreshes the dashboard for day rollover and rebuilds the
// notification board.
func (s *Scheduler) pollDoses() {
	s.farm.Recompute()
	board := s.reminders.Poll(s.now())
	s.logger.Debug("dose poll", zap.Int("notifications", len(board)))
}

func (s *Scheduler) sendDoseDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.reminders.SendDigest(ctx); err != nil {
		s.logger.Error("failed to send dose digest", zap.Error(err))
	}
}

func (s *Scheduler) archiveSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	s.farm.Recompute()
	if err := s.archiver.ArchiveSnapshot(ctx, s.farm.Dashboard()); err != nil {
		s.logger.Error("failed to archive dashboard snapshot", zap.Error(err))
	}
}

// weeklyReport gathers the data of the weekly summary.
func (s *Scheduler) weeklyReport() reporting.WeeklyReport {
	s.farm.Recompute()
	today := s.farm.Today()
	weekStart := dates.StartOfWeek(today, s.farm.WeekStart())

	pending := s.farm.UpcomingDoses(0)
	items := make([]dose.Item, 0, len(pending))
	for _, d := range pending {
		items = append(items, dose.Item{Record: d.HealthRecord, Assessment: d.Assessment})
	}

	return reporting.WeeklyReport{
		FarmName:  s.farmName,
		WeekStart: s.farm.WeekStart(),
		Snapshot:  s.farm.Dashboard(),
		TopProducers: s.farm.ProductionTotals(farm.ProductionFilter{
			Category: models.ProductionMilk,
			From:     &weekStart,
			To:       &today,
		}),
		Doses: items,
	}
}

func (s *Scheduler) sendWeeklyReport() {
	s.logger.Info("generating weekly report")
	if s.messagingSvc == nil || s.managerID == "" {
		s.logger.Debug("weekly report skipped, no recipient")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	req := models.OutboundMessageRequest{
		To:      s.managerID,
		Message: s.weeklyReport().Render(),
	}

	err := s.messagingSvc.SendOutbound(ctx, req)
	switch {
	case errors.Is(err, apperr.ErrDisabled):
		s.logger.Debug("weekly report skipped, messaging disabled")
	case err != nil:
		s.logger.Error("failed to send weekly report", zap.Error(err))
	default:
		s.logger.Info("weekly report sent successfully")
	}
}

// cronLogger routes robfig/cron's logging through zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
