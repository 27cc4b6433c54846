package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/olyamironova/order-execution-engine/internal/domain"
)

const (
	jobsKey     = "orders:jobs"     // hash: order ID -> serialized job
	pendingKey  = "orders:pending"  // list of order IDs awaiting a worker
	enqueuedKey = "orders:enqueued" // set guarding one queue entry per order ID
	deadKey     = "orders:dead"     // list of serialized jobs that failed
)

const popTimeout = 5 * time.Second

// Queue is the durable job backend on Redis. Jobs are keyed by order ID: the
// payload lives in a hash and a membership set guarantees at most one pending
// queue entry per ID, so a duplicate submission overwrites the payload
// without producing a second job.
type Queue struct {
	client *redis.Client
	log    *zap.Logger
}

func New(addr, password string, db int, log *zap.Logger) *Queue {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Queue{client: rdb, log: log}
}

// Ping probes backend reachability. The caller bounds it via ctx.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Enqueue stores the job and schedules it, idempotently by order ID.
func (q *Queue) Enqueue(ctx context.Context, o *domain.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", o.ID, err)
	}

	added, err := q.client.SAdd(ctx, enqueuedKey, o.ID).Result()
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", o.ID, err)
	}
	if err := q.client.HSet(ctx, jobsKey, o.ID, payload).Err(); err != nil {
		return fmt.Errorf("store job %s: %w", o.ID, err)
	}
	if added == 0 {
		// Duplicate submission: payload overwritten, no second queue entry.
		q.log.Info("duplicate enqueue, payload overwritten", zap.String("order_id", o.ID))
		return nil
	}
	if err := q.client.RPush(ctx, pendingKey, o.ID).Err(); err != nil {
		return fmt.Errorf("schedule job %s: %w", o.ID, err)
	}
	return nil
}

// Consume blocks on the pending list and runs each job through run. Failed
// jobs keep their payload on the dead-letter list; completed jobs are
// removed. Returns when ctx is canceled.
//
// Concurrency across jobs is bounded by run (the worker pool); each order ID
// appears at most once in the pending list, so no two workers ever hold the
// same order.
func (q *Queue) Consume(ctx context.Context, run func(*domain.Order) error) {
	for {
		res, err := q.client.BLPop(ctx, popTimeout, pendingKey).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			q.log.Warn("dequeue failed", zap.Error(err))
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		orderID := res[1]
		payload, err := q.client.HGet(ctx, jobsKey, orderID).Bytes()
		if err != nil {
			q.log.Error("job payload missing", zap.String("order_id", orderID), zap.Error(err))
			q.client.SRem(ctx, enqueuedKey, orderID)
			continue
		}

		var o domain.Order
		if err := json.Unmarshal(payload, &o); err != nil {
			q.log.Error("job payload corrupt", zap.String("order_id", orderID), zap.Error(err))
			q.client.RPush(ctx, deadKey, payload)
			q.client.HDel(ctx, jobsKey, orderID)
			q.client.SRem(ctx, enqueuedKey, orderID)
			continue
		}

		go q.dispatch(ctx, &o, payload, run)
	}
}

func (q *Queue) dispatch(ctx context.Context, o *domain.Order, payload []byte, run func(*domain.Order) error) {
	if err := run(o); err != nil {
		// Keep the payload for inspection; the job itself is not retried.
		q.client.RPush(ctx, deadKey, payload)
		q.log.Warn("job moved to dead letter", zap.String("order_id", o.ID), zap.Error(err))
	}
	q.client.HDel(ctx, jobsKey, o.ID)
	q.client.SRem(ctx, enqueuedKey, o.ID)
}
