package notification

import (
	"context"
	"sync"
)

// Queue is an unbounded in-process FIFO. Any number of producers may publish; one
// consumer reads with Next. Publish never blocks on the consumer.
type Queue struct {
	mu     sync.Mutex
	items  []Event
	signal chan struct{}
}

func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

func (q *Queue) Publish(_ context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	q.mu.Lock()
	q.items = append(q.items, events...)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

func (q *Queue) Transactional() bool { return false }

// Next blocks until an event is available or ctx is done.
func (q *Queue) Next(ctx context.Context) (Event, error) {
	for {
		if ev, ok := q.pop(); ok {
			return ev, nil
		}
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-q.signal:
		}
	}
}

func (q *Queue) pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Event{}, false
	}
	ev := q.items[0]
	q.items[0] = Event{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return ev, true
}

// Len reports how many events are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
