package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colisapp/shipping-core/internal/core/ports"
)

const (
	defaultWorkers        = 4
	channelBuffer         = 256
	defaultPublishTimeout = 10 * time.Second
)

var (
	// ErrQueueFull is returned when the worker owning a key has no buffer left.
	ErrQueueFull = errors.New("dispatch queue full")
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("dispatcher closed")
)

type message struct {
	key   string
	value any
}

// Dispatcher publishes events asynchronously through a fixed set of workers,
// routing on the message key with consistent hashing so the events of one
// shipment keep their order.
type Dispatcher struct {
	workers []chan message
	next    ports.EventPublisher
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers in front
// of next. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, next ports.EventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan message, numWorkers),
		next:    next,
		timeout: defaultPublishTimeout,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan message, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. They exit once Close drained them.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Publish enqueues value for the worker responsible for key. It never blocks:
// a full shard returns ErrQueueFull.
func (d *Dispatcher) Publish(_ context.Context, key string, value any) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	select {
	case d.workers[d.shardIndex(key)] <- message{key: key, value: value}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to be published,
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan message) {
	defer d.wg.Done()
	for msg := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.next.Publish(ctx, msg.key, msg.value); err != nil {
			d.log.Error().Err(err).
				Str("key", msg.key).
				Int("worker_id", id).
				Msg("event publication failed")
		}
		cancel()
	}
}
