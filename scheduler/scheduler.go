// Package scheduler repeats a monitoring run on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"parking-finder/utils"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler runs a job on a cron schedule until its context ends.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	logger   *utils.Logger
}

// New validates spec, a five-field cron expression or a descriptor such as
// "@every 15m".
func New(spec string, logger *utils.Logger) (*Scheduler, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{spec: spec, schedule: schedule, logger: logger}, nil
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run calls job once right away and then on every activation. Activations
// that fire while a run is in progress are skipped. Run returns once ctx is
// done and the running job, if any, has finished.
func (s *Scheduler) Run(ctx context.Context, job func(context.Context)) {
	job(ctx)
	if ctx.Err() != nil {
		return
	}

	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		job(ctx)
		s.logger.Info("[scheduler] next run at %s", s.Next(time.Now()).Format(time.DateTime))
	}))

	s.logger.Info("[scheduler] running on schedule '%s', next run at %s",
		s.spec, s.Next(time.Now()).Format(time.DateTime))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("[scheduler] stopped")
}

// cronLogger routes cron's own messages to the application logger.
type cronLogger struct {
	l *utils.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("[scheduler] %s %v", msg, keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("[scheduler] %s: %v %v", msg, err, keysAndValues)
}
