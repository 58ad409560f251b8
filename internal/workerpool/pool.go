// Package workerpool runs fire-and-forget tasks, such as mail delivery, off
// the request path on a fixed set of goroutines.
package workerpool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/logging"
)

// Task is a unit of work. ctx is cancelled when the task exceeds the pool's
// task timeout.
type Task func(ctx context.Context)

var (
	// ErrPoolClosed is returned when submitting to a closed pool.
	ErrPoolClosed = errors.New("worker pool closed")
	// ErrQueueFull is returned when the queue has no room; the task is dropped.
	ErrQueueFull = errors.New("worker pool queue full")
)

// Options tunes a Pool. Zero values pick the defaults.
type Options struct {
	Workers         int
	QueueSize       int
	TaskTimeout     time.Duration
	ShutdownTimeout time.Duration
}

const (
	defaultTaskTimeout     = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Pool is a bounded worker pool executing submitted tasks.
type Pool struct {
	name     string
	opts     Options
	queue    chan Task
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	shutdown sync.Once
}

// New starts a pool named name, used in log lines.
func New(name string, opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = defaultTaskTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	p := &Pool{
		name:  name,
		opts:  opts,
		queue: make(chan Task, opts.QueueSize),
	}
	for i := 0; i < opts.Workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}
	return p
}

// work drains the queue until it is closed, so tasks accepted before Close
// still run.
func (p *Pool) work(id int) {
	defer p.wg.Done()
	for task := range p.queue {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.TaskTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorLog("workerpool '%s' worker %d recovered from panic: %v", p.name, id, r)
		}
	}()
	task(ctx)
}

// Submit enqueues a task without blocking.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.queue <- task:
		return nil
	default:
		logging.WarnLog("workerpool '%s' queue full; dropping task", p.name)
		return ErrQueueFull
	}
}

// Close stops accepting tasks and waits, up to the shutdown timeout, for
// queued ones to finish.
func (p *Pool) Close() {
	p.shutdown.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(p.opts.ShutdownTimeout):
			logging.WarnLog("workerpool '%s' shutdown timed out", p.name)
		}
	})
}
