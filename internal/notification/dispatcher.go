package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Dispatcher drains a Source and persists one NotificationHistory per event.
// A failed write is logged and the event dropped.
type Dispatcher struct {
	source  Source
	store   Store
	pusher  Pusher
	log     *logrus.Logger
	backoff time.Duration
}

func NewDispatcher(source Source, store Store, pusher Pusher, log *logrus.Logger) *Dispatcher {
	if pusher == nil {
		pusher = NopPusher{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		source:  source,
		store:   store,
		pusher:  pusher,
		log:     log,
		backoff: time.Second,
	}
}

// Run consumes events until ctx is done. Events still queued at that point are not drained.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("notification dispatcher started")
	defer d.log.Info("notification dispatcher stopped")

	for {
		ev, err := d.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			d.log.WithError(err).Warn("notification source failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.backoff):
			}
			continue
		}

		if err := d.Deliver(ctx, ev); err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"user_id":    ev.UserID,
				"event_kind": ev.Kind,
				"claim_id":   ev.ClaimID,
			}).Error("notification dropped")
		}
	}
}

// Deliver persists ev and pushes it to the recipient's live connections.
func (d *Dispatcher) Deliver(ctx context.Context, ev Event) error {
	h, err := ev.History()
	if err != nil {
		return err
	}
	if err := d.store.Create(ctx, h); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	d.pusher.Push(h.UserID, h)
	return nil
}
