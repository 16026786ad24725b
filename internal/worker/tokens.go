package worker

import (
    "context"
    "time"

    "github.com/sirupsen/logrus"
)

// TokenPurger deletes refresh tokens that stopped being usable before
// cutoff.
type TokenPurger interface {
    PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// TokenSweeper removes dead refresh tokens once they have been expired or
// revoked for longer than Grace.
type TokenSweeper struct {
    tokens TokenPurger
    log    logrus.FieldLogger
    now    func() time.Time
    Grace  time.Duration
}

func NewTokenSweeper(tokens TokenPurger, log logrus.FieldLogger) *TokenSweeper {
    if log == nil {
        log = logrus.StandardLogger()
    }
    return &TokenSweeper{tokens: tokens, log: log, now: time.Now, Grace: 24 * time.Hour}
}

// Run performs one sweep and returns the number of deleted rows.
func (s *TokenSweeper) Run(ctx context.Context) (int64, error) {
    ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
    defer cancel()

    n, err := s.tokens.PurgeExpired(ctx, s.now().Add(-s.Grace))
    if err != nil {
        s.log.WithError(err).Error("token sweep failed")
        return 0, err
    }
    if n > 0 {
        s.log.WithField("deleted", n).Info("refresh tokens swept")
    }
    return n, nil
}

// Job returns the sweep as a scheduler job running every interval.
func (s *TokenSweeper) Job(every time.Duration) Job {
    return Job{Name: "token-sweep", Every: every, Run: func(ctx context.Context) { _, _ = s.Run(ctx) }}
}
