package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronEntry describes one registered schedule
type CronEntry struct {
	Kind     JobKind
	Schedule string
	Next     time.Time
	Prev     time.Time
}

// CronTrigger submits jobs to the scheduler on cron schedules
type CronTrigger struct {
	scheduler *Scheduler
	logger    *zap.Logger
	cron      *cron.Cron

	mu        sync.Mutex
	isRunning bool
	entries   map[cron.EntryID]CronEntry
}

// NewCronTrigger creates a trigger evaluating schedules in loc (UTC when nil)
func NewCronTrigger(scheduler *Scheduler, loc *time.Location, logger *zap.Logger) *CronTrigger {
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{sugar: logger.Sugar()}
	return &CronTrigger{
		scheduler: scheduler,
		logger:    logger,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		entries: make(map[cron.EntryID]CronEntry),
	}
}

// Add registers a standard five-field cron expression (or a descriptor such as @hourly) for kind
func (c *CronTrigger) Add(schedule string, kind JobKind) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, schedule, err)
	}
	id, err := c.cron.AddFunc(schedule, func() {
		if err := c.scheduler.Submit(kind); err != nil {
			c.logger.Warn("Cron trigger could not submit job",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, schedule, err)
	}

	c.mu.Lock()
	c.entries[id] = CronEntry{Kind: kind, Schedule: schedule}
	c.mu.Unlock()
	return nil
}

// Entries returns the registered schedules with their next fire time
func (c *CronTrigger) Entries() []CronEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CronEntry, 0, len(c.entries))
	for _, e := range c.cron.Entries() {
		info, ok := c.entries[e.ID]
		if !ok {
			continue
		}
		info.Next = e.Next
		info.Prev = e.Prev
		out = append(out, info)
	}
	return out
}

// Start starts the cron trigger
func (c *CronTrigger) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}
	c.isRunning = true
	c.cron.Start()

	c.logger.Info("Cron trigger started", zap.Int("entries", len(c.entries)))
	return nil
}

// Stop stops the cron trigger and waits for in-flight submissions
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	done := c.cron.Stop()
	select {
	case <-done.Done():
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zap to the cron.Logger interface
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
