package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restopos/internal/config"
	"github.com/mamadbah2/restopos/internal/domain/models"
)

type liveState struct {
	st  *models.State
	err error
}

func (l liveState) Read(_ context.Context, fn func(*models.State)) error {
	if l.err != nil {
		return l.err
	}
	fn(l.st)
	return nil
}

type dayReporter struct{}

func (dayReporter) DailyReport(st *models.State, day time.Time) models.DailyReport {
	return models.DailyReport{Date: day.Format("2006-01-02"), Orders: len(st.Orders)}
}

type pruner struct{ keep []int }

func (p *pruner) PruneBackups(keep int) (int, error) {
	p.keep = append(p.keep, keep)
	return 2, nil
}

func cfg() config.Config {
	var c config.Config
	c.Reporting.CronSchedule = "0 23 * * *"
	c.Reporting.BackupPruneSchedule = "30 3 * * *"
	c.Reporting.Timezone = "UTC"
	c.Storage.BackupRetention = 7
	return c
}

func TestRunDailyReportShipsToEverySink(t *testing.T) {
	st := models.NewState()
	st.Orders = append(st.Orders, models.Order{ID: "o1"}, models.Order{ID: "o2"})

	var got []models.DailyReport
	ok := SinkFunc(func(_ context.Context, r models.DailyReport) error {
		got = append(got, r)
		return nil
	})
	broken := SinkFunc(func(context.Context, models.DailyReport) error { return errors.New("mongo down") })

	s := NewScheduler(cfg(), liveState{st: st}, dayReporter{}, nil, map[string]Sink{"sheets": ok, "mongodb": broken, "webhook": ok}, nil)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC) }

	err := s.RunDailyReport(context.Background())
	require.ErrorContains(t, err, "mongodb: mongo down")
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, models.DailyReport{Date: "2024-05-01", Orders: 2}, r)
	}
}

func TestRunDailyReportStoppedLoop(t *testing.T) {
	called := false
	sink := SinkFunc(func(context.Context, models.DailyReport) error {
		called = true
		return nil
	})
	s := NewScheduler(cfg(), liveState{err: errors.New("hub stopped")}, dayReporter{}, nil, map[string]Sink{"x": sink}, nil)

	require.ErrorContains(t, s.RunDailyReport(context.Background()), "hub stopped")
	assert.False(t, called)
}

func TestPruneBackupsUsesRetention(t *testing.T) {
	p := &pruner{}
	s := NewScheduler(cfg(), liveState{st: models.NewState()}, dayReporter{}, p, nil, nil)

	removed, err := s.PruneBackups()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []int{7}, p.keep)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	c := cfg()
	c.Reporting.CronSchedule = "every day"
	s := NewScheduler(c, liveState{}, dayReporter{}, nil, nil, nil)
	require.Error(t, s.Start())

	s = NewScheduler(cfg(), liveState{}, dayReporter{}, &pruner{}, nil, nil)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()
}
