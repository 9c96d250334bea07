package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrQueueFull is returned when no queue slot is free
	ErrQueueFull = errors.New("job queue is full")

	// ErrPoolStopped is returned when submitting to a stopped pool
	ErrPoolStopped = errors.New("worker pool stopped")
)

// Limits for the number of workers
const (
	MinWorkers = 1
	MaxWorkers = 10
)

// Task is a unit of work. ctx is cancelled when the pool stops.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed number of workers fed by a bounded queue
type Pool struct {
	size   int
	tasks  chan Task
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc
}

// NewPool creates a pool with size workers and room for queueSize pending tasks
func NewPool(size, queueSize int) *Pool {
	if size < MinWorkers {
		size = MinWorkers
	}
	if size > MaxWorkers {
		size = MaxWorkers
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		size:  size,
		tasks: make(chan Task, queueSize),
	}
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.size
}

// Start launches the workers
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.work(ctx, fmt.Sprintf("worker-%d", i+1))
	}
	log.Info().Int("workers", p.size).Int("queue", cap(p.tasks)).Msg("worker pool started")
}

// Submit enqueues t without blocking
func (p *Pool) Submit(t Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolStopped
	}
	select {
	case p.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop cancels running tasks, drains the queue and waits for the workers.
// Queued tasks still run, with an already cancelled context.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	log.Info().Msg("worker pool stopped")
}

func (p *Pool) work(ctx context.Context, id string) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(ctx, id, task)
	}
}

func (p *Pool) run(ctx context.Context, id string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("worker", id).Interface("panic", r).Msg("task panicked")
		}
	}()
	task(ctx)
}
