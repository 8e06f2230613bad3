package policy

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type expirer interface {
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryWorker periodically flips active policies past their end date to expired.
type ExpiryWorker struct {
	policies expirer
	interval time.Duration
	log      *logrus.Logger
	now      func() time.Time
}

func NewExpiryWorker(policies expirer, interval time.Duration, log *logrus.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ExpiryWorker{policies: policies, interval: interval, log: log, now: time.Now}
}

func (w *ExpiryWorker) Run(ctx context.Context) {
	w.log.WithField("interval", w.interval).Info("policy expiry worker started")
	defer w.log.Info("policy expiry worker stopped")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ExpiryWorker) tick(ctx context.Context) {
	n, err := w.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.WithError(err).Error("expire policies")
		}
		return
	}
	if n > 0 {
		w.log.WithField("count", n).Info("policies expired")
	}
}

func (w *ExpiryWorker) RunOnce(ctx context.Context) (int64, error) {
	return w.policies.MarkExpired(ctx, w.now())
}
