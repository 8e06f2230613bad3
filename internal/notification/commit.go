package notification

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Commit runs fn in a transaction and publishes the events it returns. A transactional
// publisher writes them inside the transaction; any other publisher gets them only after
// commit, so no notification is observable before the state it describes. A publish
// failure after commit is logged, not returned: the state change already happened.
func Commit(ctx context.Context, tx TxRunner, pub Publisher, log *logrus.Logger, fn func(ctx context.Context) ([]Event, error)) error {
	var events []Event
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		events, err = fn(ctx)
		if err != nil {
			return err
		}
		if pub.Transactional() {
			return pub.Publish(ctx, events...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !pub.Transactional() {
		if err := pub.Publish(context.WithoutCancel(ctx), events...); err != nil {
			log.WithError(err).WithField("events", len(events)).Error("publish notifications")
		}
	}
	return nil
}
