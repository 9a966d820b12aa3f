package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yieldvault/invest-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Sender is the write side of a live connection.
type Sender interface {
	Send(frame []byte) error
}

// Job is one frame addressed to one connection.
type Job struct {
	UserID string
	Target Sender
	Frame  []byte
}

// Dispatcher delivers push frames on a fixed set of workers using consistent
// hashing on the user id, which keeps frames to one user in order while a
// slow socket only stalls its own shard.
type Dispatcher struct {
	workers []chan Job
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan Job, numWorkers),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan Job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands job to the worker responsible for its user. It never blocks:
// when the shard is full the frame is dropped, since the poll path still
// delivers it.
func (d *Dispatcher) Enqueue(job Job) bool {
	idx := d.shardIndex(job.UserID)
	select {
	case d.workers[idx] <- job:
		metrics.PushQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		metrics.ChatPushTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("user_id", job.UserID).Int("worker_id", idx).Msg("push queue full, frame dropped")
		return false
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan Job) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.PushQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := job.Target.Send(job.Frame); err != nil {
				metrics.ChatPushTotal.WithLabelValues("failed").Inc()
				d.log.Warn().Err(err).
					Str("user_id", job.UserID).
					Int("worker_id", id).
					Msg("push failed")
				continue
			}
			metrics.ChatPushTotal.WithLabelValues("sent").Inc()
		}
	}
}
