package tasks

import (
	"context"
	"log/slog"
	"sync"
)

// Pool runs tasks on a fixed number of workers in strict FIFO order. The
// queue is unbounded, so Enqueue never blocks and never fails: public entry
// points must be able to hand off work without waiting on background
// activity. A single-worker pool therefore serializes its tasks in
// first-enqueued-first-executed order.
type Pool struct {
	name        string
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	mu      sync.Mutex
	queue   []TaskInterface
	pending chan struct{}
}

// NewPool creates a pool named for logging with the given worker count.
func NewPool(name string, workerCount int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		name:        name,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		pending:     make(chan struct{}, 1),
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels in-flight task contexts and waits for the workers to drain.
// Queued tasks that have not started are discarded.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}

// Enqueue appends a task to the queue.
func (p *Pool) Enqueue(task TaskInterface) {
	p.mu.Lock()
	p.queue = append(p.queue, task)
	p.mu.Unlock()

	select {
	case p.pending <- struct{}{}:
	default:
	}
}

func (p *Pool) dequeue() TaskInterface {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return nil
	}
	task := p.queue[0]
	p.queue = p.queue[1:]

	// Keep the signal set while work remains so sibling workers wake up.
	if len(p.queue) > 0 {
		select {
		case p.pending <- struct{}{}:
		default:
		}
	}

	return task
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.pending:
			for {
				task := p.dequeue()
				if task == nil {
					break
				}
				p.executeTask(id, task)

				select {
				case <-p.ctx.Done():
					return
				default:
				}
			}
		}
	}
}

func (p *Pool) executeTask(workerID int, task TaskInterface) {
	task.Start()

	err := task.Execute(p.ctx)
	if err != nil {
		slog.Error("Worker task execution failed",
			"pool", p.name, "worker_id", workerID,
			"type", string(task.GetType()), "id", task.GetID(),
			"duration", task.GetDuration(), "error", err)
		return
	}

	slog.Debug("Worker task completed",
		"pool", p.name, "worker_id", workerID,
		"type", string(task.GetType()), "id", task.GetID(),
		"duration", task.GetDuration())
}
