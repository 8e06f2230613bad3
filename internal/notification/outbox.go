package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"healthinsure/internal/domain"

	"github.com/sirupsen/logrus"
)

type OutboxStore interface {
	Create(ctx context.Context, rows []domain.NotificationOutbox) error
	Pending(ctx context.Context, afterID int64, limit int) ([]domain.NotificationOutbox, error)
	Delete(ctx context.Context, id int64) error
	RecordFailure(ctx context.Context, row *domain.NotificationOutbox, lastErr string, maxAttempts int) error
}

type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Outbox publishes by inserting rows through the transaction carried by ctx, so events
// commit or roll back together with the state change that produced them.
type Outbox struct {
	store OutboxStore
}

func NewOutbox(store OutboxStore) *Outbox {
	return &Outbox{store: store}
}

func (o *Outbox) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]domain.NotificationOutbox, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode outbox event: %w", err)
		}
		rows = append(rows, domain.NotificationOutbox{
			Payload: payload,
			Status:  domain.OutboxPending,
		})
	}
	return o.store.Create(ctx, rows)
}

func (o *Outbox) Transactional() bool { return true }

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

// Relay moves pending outbox rows into NotificationHistory. The history insert and the
// outbox delete share one transaction; failures are retried on later polls until
// MaxAttempts, after which the row is left as dead.
type Relay struct {
	tx      TxRunner
	outbox  OutboxStore
	history Store
	pusher  Pusher
	cfg     RelayConfig
	log     *logrus.Logger
}

func NewRelay(tx TxRunner, outbox OutboxStore, history Store, pusher Pusher, cfg RelayConfig, log *logrus.Logger) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if pusher == nil {
		pusher = NopPusher{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Relay{tx: tx, outbox: outbox, history: history, pusher: pusher, cfg: cfg, log: log}
}

// Run drains once at start and then on every poll.
func (r *Relay) Run(ctx context.Context) {
	r.log.WithField("poll_interval", r.cfg.PollInterval).Info("notification outbox relay started")
	defer r.log.Info("notification outbox relay stopped")

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := r.Drain(ctx); err != nil && ctx.Err() == nil {
			r.log.WithError(err).Warn("outbox poll failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Drain makes one pass over the pending rows, batch by batch, and returns how many were
// delivered. Each row is tried at most once per pass, so a failing row uses one attempt
// per poll.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	var after int64
	delivered := 0
	for {
		rows, err := r.outbox.Pending(ctx, after, r.cfg.BatchSize)
		if err != nil {
			return delivered, fmt.Errorf("load pending outbox rows: %w", err)
		}

		for i := range rows {
			if ctx.Err() != nil {
				return delivered, ctx.Err()
			}
			if r.relay(ctx, &rows[i]) {
				delivered++
			}
			after = rows[i].ID
		}
		if len(rows) < r.cfg.BatchSize {
			return delivered, nil
		}
	}
}

func (r *Relay) relay(ctx context.Context, row *domain.NotificationOutbox) bool {
	var ev Event
	if err := json.Unmarshal(row.Payload, &ev); err != nil {
		r.fail(ctx, row, fmt.Errorf("decode payload: %w", err), row.Attempts+1)
		return false
	}

	h, err := ev.History()
	if err != nil {
		r.fail(ctx, row, err, row.Attempts+1)
		return false
	}

	err = r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.history.Create(ctx, h); err != nil {
			return err
		}
		return r.outbox.Delete(ctx, row.ID)
	})
	if err != nil {
		r.fail(ctx, row, err, r.cfg.MaxAttempts)
		return false
	}

	r.pusher.Push(h.UserID, h)
	return true
}

func (r *Relay) fail(ctx context.Context, row *domain.NotificationOutbox, cause error, maxAttempts int) {
	if err := r.outbox.RecordFailure(ctx, row, cause.Error(), maxAttempts); err != nil {
		r.log.WithError(err).WithField("outbox_id", row.ID).Error("record outbox failure")
		return
	}
	entry := r.log.WithError(cause).WithFields(logrus.Fields{
		"outbox_id": row.ID,
		"attempts":  row.Attempts,
	})
	if row.Status == domain.OutboxDead {
		entry.Error("outbox event dead")
		return
	}
	entry.Warn("outbox event failed, will retry")
}
