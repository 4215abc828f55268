package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/ppiankov/truthscan/internal/model"
)

// Job is one analysis unit handed to the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is whatever a Job produced; GetError is nil on success
type Result interface {
	GetError() error
}

type panicResult struct {
	err error
}

func (r *panicResult) GetError() error { return r.err }

// Pool runs jobs on a fixed number of goroutines. A pool is single use:
// Start, Submit, then either Wait, or Close and drain Results.
// Workers never block on an unread result, so Submit only waits for a free
// worker and any number of jobs may be queued before Wait.
type Pool struct {
	workers int
	queue   chan Job
	results chan Result
	running sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	pending     []Result
	ready       chan struct{}
	workersDone chan struct{}
	forwarded   chan struct{}
	started     bool

	resultsClosed sync.Once
}

// NewPool returns a pool with at least one worker
func NewPool(workers int) *Pool {
	return NewPoolContext(context.Background(), workers)
}

// NewPoolContext ties job contexts to ctx; cancelling it stops the workers
func NewPoolContext(ctx context.Context, workers int) *Pool {
	workers = max(workers, 1)
	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:     workers,
		queue:       make(chan Job, workers*2),
		results:     make(chan Result, workers*2),
		ctx:         ctx,
		cancel:      cancel,
		ready:       make(chan struct{}, 1),
		workersDone: make(chan struct{}),
		forwarded:   make(chan struct{}),
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()

	p.running.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.loop()
	}
	go func() {
		p.running.Wait()
		close(p.workersDone)
	}()
	go p.forward()
}

func (p *Pool) loop() {
	defer p.running.Done()

	for {
		var job Job
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.queue:
			if !ok {
				return
			}
			job = j
		}

		p.push(p.run(job))
	}
}

// run executes job and turns a panic into a provider-unavailable result
func (p *Pool) run(job Job) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = &panicResult{err: fmt.Errorf("%w: job panicked: %v", model.ErrProviderUnavailable, r)}
		}
	}()
	return job.Execute(p.ctx)
}

func (p *Pool) push(res Result) {
	p.mu.Lock()
	p.pending = append(p.pending, res)
	p.mu.Unlock()

	select {
	case p.ready <- struct{}{}:
	default:
	}
}

func (p *Pool) takePending() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := p.pending
	p.pending = nil
	return batch
}

// forward moves finished results onto the Results channel and closes it
// once the workers have exited and nothing is left pending
func (p *Pool) forward() {
	defer close(p.forwarded)
	defer p.closeResults()

	finished := false
	for {
		batch := p.takePending()
		for _, res := range batch {
			select {
			case p.results <- res:
			case <-p.ctx.Done():
				return
			}
		}
		if len(batch) > 0 {
			continue
		}
		if finished {
			return
		}

		select {
		case <-p.ready:
		case <-p.workersDone:
			finished = true
		case <-p.ctx.Done():
			return
		}
	}
}

// Submit queues job. It returns false once the pool has been shut down.
func (p *Pool) Submit(job Job) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.queue <- job:
		return true
	}
}

// Results streams results in completion order
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Close ends submission; Results is closed after the last job finishes
func (p *Pool) Close() {
	close(p.queue)
	if !p.isStarted() {
		p.closeResults()
	}
}

// Wait closes the pool and collects every result
func (p *Pool) Wait() []Result {
	p.Close()

	var out []Result
	for res := range p.results {
		out = append(out, res)
	}
	return out
}

// Shutdown cancels in-flight jobs and stops the workers
func (p *Pool) Shutdown() {
	p.cancel()
	if !p.isStarted() {
		p.closeResults()
		return
	}
	p.running.Wait()
	<-p.forwarded
}

func (p *Pool) isStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *Pool) closeResults() {
	p.resultsClosed.Do(func() { close(p.results) })
}
