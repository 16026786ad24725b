package worker

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/google/uuid"
    "github.com/sirupsen/logrus"
    "github.com/sirupsen/logrus/hooks/test"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/pranavOffl/EventBookingSystem/internal/repository"
)

func TestReconciler_ReportsDrift(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    id := uuid.New()
    mock.ExpectQuery("HAVING e.booked_seats <> COUNT").
        WillReturnRows(sqlmock.NewRows([]string{"id", "title", "booked_seats", "confirmed"}).AddRow(id.String(), "Go Meetup", 3, 2))

    log, hook := test.NewNullLogger()
    n, err := NewReconciler(repository.NewEventRepo(db), log).Run(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 1, n)

    require.Len(t, hook.Entries, 1)
    entry := hook.LastEntry()
    assert.Equal(t, logrus.WarnLevel, entry.Level)
    assert.Equal(t, "seat counter drift", entry.Message)
    assert.Equal(t, id, entry.Data["event_id"])
    assert.Equal(t, 3, entry.Data["booked_seats"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

type failingFinder struct{}

func (failingFinder) FindSeatDrift(context.Context) ([]repository.SeatDrift, error) {
    return nil, errors.New("db down")
}

func TestReconciler_Error(t *testing.T) {
    log, hook := test.NewNullLogger()
    _, err := NewReconciler(failingFinder{}, log).Run(context.Background())
    assert.EqualError(t, err, "db down")
    assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

type countingFinder struct{ calls chan struct{} }

func (f countingFinder) FindSeatDrift(context.Context) ([]repository.SeatDrift, error) {
    select {
    case f.calls <- struct{}{}:
    default:
    }
    return nil, nil
}

func TestSchedule_RunsJob(t *testing.T) {
    f := countingFinder{calls: make(chan struct{}, 1)}
    log, _ := test.NewNullLogger()

    s, err := Schedule(context.Background(), log, NewReconciler(f, log).Job(20*time.Millisecond))
    require.NoError(t, err)
    defer func() { _ = s.Shutdown() }()

    select {
    case <-f.calls:
    case <-time.After(2 * time.Second):
        t.Fatal("seat audit never ran")
    }
}

type fakePurger struct {
    cutoff time.Time
    n      int64
    err    error
}

func (f *fakePurger) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
    f.cutoff = cutoff
    return f.n, f.err
}

func TestTokenSweeper(t *testing.T) {
    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    p := &fakePurger{n: 3}
    log, hook := test.NewNullLogger()
    s := NewTokenSweeper(p, log)
    s.now = func() time.Time { return now }

    n, err := s.Run(context.Background())
    require.NoError(t, err)
    assert.Equal(t, int64(3), n)
    assert.Equal(t, now.Add(-24*time.Hour), p.cutoff)
    assert.Equal(t, "refresh tokens swept", hook.LastEntry().Message)

    p.err = errors.New("db down")
    _, err = s.Run(context.Background())
    assert.Error(t, err)
    assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestSchedule_SkipsDisabledJobs(t *testing.T) {
    log, hook := test.NewNullLogger()
    ran := make(chan struct{}, 1)
    s, err := Schedule(context.Background(), log,
        Job{Name: "off", Every: 0, Run: func(context.Context) { ran <- struct{}{} }},
    )
    require.NoError(t, err)
    defer func() { _ = s.Shutdown() }()

    assert.Empty(t, s.Jobs())
    assert.Empty(t, hook.Entries)
}
