package in_memory

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/olyamironova/order-execution-engine/internal/domain"
)

// Queue is the in-process, non-persistent substitute for the durable backend.
// Each enqueued job is dispatched by a one-shot timer after a fixed delay,
// which gives the client a window to attach its status stream before the
// first event fires. The timer is not cancellable once set.
type Queue struct {
	log   *zap.Logger
	delay time.Duration
	run   func(*domain.Order) error

	mu   sync.Mutex
	jobs []*domain.Order
}

func NewQueue(delay time.Duration, run func(*domain.Order) error, log *zap.Logger) *Queue {
	return &Queue{
		log:   log,
		delay: delay,
		run:   run,
	}
}

// Enqueue appends the job and schedules a single deferred worker invocation.
// Local enqueue cannot fail.
func (q *Queue) Enqueue(o *domain.Order) {
	q.mu.Lock()
	q.jobs = append(q.jobs, o)
	q.mu.Unlock()

	q.log.Info("job queued in memory, waiting for client to attach",
		zap.String("order_id", o.ID),
		zap.Duration("delay", q.delay))

	time.AfterFunc(q.delay, func() {
		q.remove(o.ID)
		if err := q.run(o); err != nil {
			q.log.Error("job failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	})
}

// Len reports how many jobs are queued but not yet dispatched.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *Queue) remove(orderID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, j := range q.jobs {
		if j.ID == orderID {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return
		}
	}
}
