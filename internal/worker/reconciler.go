// Package worker runs background jobs next to the HTTP server.
package worker

import (
    "context"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/pranavOffl/EventBookingSystem/internal/repository"
)

// DriftFinder lists events whose seat counter disagrees with their
// confirmed bookings.
type DriftFinder interface {
    FindSeatDrift(ctx context.Context) ([]repository.SeatDrift, error)
}

// Reconciler audits seat counters.  It only reports drift; counters are
// never rewritten outside the seat ledger.
type Reconciler struct {
    events  DriftFinder
    log     logrus.FieldLogger
    timeout time.Duration
}

// NewReconciler returns a Reconciler.  A nil logger uses the standard one.
func NewReconciler(events DriftFinder, log logrus.FieldLogger) *Reconciler {
    if log == nil {
        log = logrus.StandardLogger()
    }
    return &Reconciler{events: events, log: log, timeout: 30 * time.Second}
}

// Run performs one audit and returns the number of drifting events.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
    ctx, cancel := context.WithTimeout(ctx, r.timeout)
    defer cancel()

    drift, err := r.events.FindSeatDrift(ctx)
    if err != nil {
        r.log.WithError(err).Error("seat audit failed")
        return 0, err
    }
    for _, d := range drift {
        r.log.WithFields(logrus.Fields{
            "event_id":     d.EventID,
            "title":        d.Title,
            "booked_seats": d.BookedSeats,
            "confirmed":    d.Confirmed,
        }).Warn("seat counter drift")
    }
    if len(drift) == 0 {
        r.log.Debug("seat audit clean")
    }
    return len(drift), nil
}

// Job returns the audit as a scheduler job running every interval.
func (r *Reconciler) Job(every time.Duration) Job {
    return Job{Name: "seat-audit", Every: every, Run: func(ctx context.Context) { _, _ = r.Run(ctx) }}
}
