package worker

import (
    "context"
    "fmt"
    "time"

    "github.com/go-co-op/gocron/v2"
    "github.com/sirupsen/logrus"
)

// Job is a named task run at a fixed interval.
type Job struct {
    Name  string
    Every time.Duration
    Run   func(ctx context.Context)
}

// Schedule starts a gocron scheduler running jobs.  Jobs with a
// non-positive interval are skipped.  A run still busy when the next one is
// due is rescheduled, not stacked.  The caller shuts the scheduler down.
func Schedule(ctx context.Context, log logrus.FieldLogger, jobs ...Job) (gocron.Scheduler, error) {
    s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
    if err != nil {
        return nil, err
    }
    for _, j := range jobs {
        if j.Every <= 0 {
            continue
        }
        run := j.Run
        _, err = s.NewJob(
            gocron.DurationJob(j.Every),
            gocron.NewTask(func() { run(ctx) }),
            gocron.WithName(j.Name),
            gocron.WithSingletonMode(gocron.LimitModeReschedule),
        )
        if err != nil {
            _ = s.Shutdown()
            return nil, fmt.Errorf("schedule %s: %w", j.Name, err)
        }
        if log != nil {
            log.WithFields(logrus.Fields{"job": j.Name, "interval": j.Every}).Info("job scheduled")
        }
    }
    s.Start()
    return s, nil
}
