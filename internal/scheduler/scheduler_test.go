package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/pantry/internal/config"
	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/service/reporting"
)

type fakeSource struct {
	items []models.Item
	err   error
}

func (f *fakeSource) Load(context.Context) ([]models.Item, error) { return f.items, f.err }

type fakeSender struct {
	sent []models.OutboundMessageRequest
	err  error
}

func (f *fakeSender) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	f.sent = append(f.sent, req)
	return f.err
}

type fakeSheet struct {
	rows [][]interface{}
	err  error
}

func (f *fakeSheet) AppendRows(_ context.Context, _ string, rows [][]interface{}) error {
	f.rows = append(f.rows, rows...)
	return f.err
}

var reportingCfg = config.ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "UTC", LowStockThreshold: 2}

func TestRunOnce_SendsAndExports(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sheet := &fakeSheet{}
	sender := &fakeSender{}
	src := &fakeSource{items: []models.Item{{Name: "rice", Quantity: 5}, {Name: "salt", Quantity: 1}}}

	s, err := NewScheduler(reportingCfg, "2246", reporting.NewService(sheet, 2, logger), src, sender, logger)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 8, 1, 20, 0, 0, 0, time.UTC) }

	require.NoError(t, s.RunOnce(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "2246", sender.sent[0].To)
	assert.Equal(t, "Pantry summary (2024-08-01): 2 items, 6 units.\nRunning low (<= 2):\n- Salt: 1", sender.sent[0].Message)
	assert.Equal(t, [][]interface{}{{"2024-08-01", "rice", 5}, {"2024-08-01", "salt", 1}}, sheet.rows)
}

func TestRunOnce_WithoutMessagingOrSheet(t *testing.T) {
	src := &fakeSource{items: []models.Item{{Name: "rice", Quantity: 5}}}
	s, err := NewScheduler(reportingCfg, "", reporting.NewService(nil, 2, nil), src, nil, nil)
	require.NoError(t, err)

	assert.NoError(t, s.RunOnce(context.Background()))
}

func TestRunOnce_Failures(t *testing.T) {
	logger := zaptest.NewLogger(t)

	s, err := NewScheduler(reportingCfg, "2246", reporting.NewService(nil, 2, logger), &fakeSource{err: errors.New("offline")}, &fakeSender{}, logger)
	require.NoError(t, err)
	assert.ErrorContains(t, s.RunOnce(context.Background()), "build report")

	sheet := &fakeSheet{}
	sender := &fakeSender{err: errors.New("graph api down")}
	s, err = NewScheduler(reportingCfg, "2246", reporting.NewService(sheet, 2, logger), &fakeSource{items: []models.Item{{Name: "rice", Quantity: 1}}}, sender, logger)
	require.NoError(t, err)

	err = s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "send report")
	assert.Len(t, sheet.rows, 1, "export still runs when sending fails")
}

func TestNewScheduler_Validation(t *testing.T) {
	_, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "Mars/Olympus"}, "", reporting.NewService(nil, 2, nil), &fakeSource{}, nil, nil)
	assert.Error(t, err)

	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "every day", Timezone: "UTC"}, "", reporting.NewService(nil, 2, nil), &fakeSource{}, nil, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s, err := NewScheduler(reportingCfg, "", reporting.NewService(nil, 2, nil), &fakeSource{}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
