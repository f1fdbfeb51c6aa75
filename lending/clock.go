package lending

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// Clock is the process-wide day counter.
type Clock interface {
	CurrentDay() int
	AdvanceDay()
}

// DayCounter is a Clock safe for use from the day scheduler goroutine.
type DayCounter struct {
	day atomic.Int64
}

// NewDayCounter starts counting at day start.
func NewDayCounter(start int) *DayCounter {
	c := &DayCounter{}
	c.day.Store(int64(start))
	return c
}

func (c *DayCounter) CurrentDay() int { return int(c.day.Load()) }

func (c *DayCounter) AdvanceDay() { c.day.Add(1) }

// DayScheduler advances the day through a Manager on a cron schedule.
type DayScheduler struct {
	cron *cron.Cron
}

// NewDayScheduler registers mgr.AdvanceDay under the cron expression spec,
// e.g. "@midnight" or "0 0 * * *". The scheduler is not started.
func NewDayScheduler(mgr *Manager, spec string, logger *slog.Logger) (*DayScheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		from, to, err := mgr.AdvanceDay(context.Background())
		if err != nil {
			logger.Error("scheduled day advance failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("day advanced", slog.Int("from", from), slog.Int("to", to))
	})
	if err != nil {
		return nil, fmt.Errorf("parse day schedule %q: %w", spec, err)
	}
	return &DayScheduler{cron: c}, nil
}

func (s *DayScheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running advance to finish.
func (s *DayScheduler) Stop() {
	<-s.cron.Stop().Done()
}
