package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/config"
	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/service/reporting"
)

const jobTimeout = 2 * time.Minute

// Reporter produces the daily summary and the spreadsheet snapshot.
type Reporter interface {
	DailyReport(ctx context.Context, src reporting.InventorySource, at time.Time) (string, []models.Item, error)
	ExportSnapshot(ctx context.Context, items []models.Item, at time.Time) error
	ExportEnabled() bool
}

// Sender delivers the summary to the report recipient.
type Sender interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	location  *time.Location
	reporter  Reporter
	inventory reporting.InventorySource
	sender    Sender
	recipient string
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. sender may be nil, which limits the job
// to the snapshot export.
func NewScheduler(cfg config.ReportingConfig, recipient string, reporter Reporter, inventory reporting.InventorySource, sender Sender, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		schedule:  cfg.CronSchedule,
		location:  loc,
		reporter:  reporter,
		inventory: inventory,
		sender:    sender,
		recipient: recipient,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start registers the daily report and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.location.String()))

	if _, err := s.cron.AddFunc(s.schedule, s.runDailyReport); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("daily report failed", zap.Error(err))
	}
}

// RunOnce builds the summary, sends it and exports the snapshot. Sending and exporting are
// independent; both are attempted.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	at := s.now().In(s.location)
	s.logger.Info("generating daily report", zap.Time("at", at))

	report, items, err := s.reporter.DailyReport(ctx, s.inventory, at)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	var errs []error

	if s.sender != nil && s.recipient != "" {
		req := models.OutboundMessageRequest{To: s.recipient, Message: report}
		if err := s.sender.SendOutbound(ctx, req); err != nil {
			errs = append(errs, fmt.Errorf("send report: %w", err))
		} else {
			s.logger.Info("daily report sent", zap.String("to", s.recipient))
		}
	}

	if s.reporter.ExportEnabled() {
		if err := s.reporter.ExportSnapshot(ctx, items, at); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
