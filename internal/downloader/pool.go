package downloader

import (
	"context"
	"errors"
	"sync"
	"time"

	"smugmirror/pkg/logger"
)

// ErrPoolStopped is returned by Submit once the pool no longer accepts jobs
var ErrPoolStopped = errors.New("worker pool is shutting down")

// Handler processes one job. Failures stay local to the job.
type Handler[J, R any] func(ctx context.Context, job J) (R, error)

// Result is the outcome of one submitted job
type Result[J, R any] struct {
	// Index is the submission order of the job, starting at 0
	Index    int
	Job      J
	Value    R
	Err      error
	Duration time.Duration
	// Ran is false when the job was dropped because the context ended first
	Ran bool
}

type job[J any] struct {
	index   int
	payload J
}

// WorkerPool runs a fixed number of workers over a queue of jobs
type WorkerPool[J, R any] struct {
	numWorkers  int
	handler     Handler[J, R]
	jobQueue    chan job[J]
	resultQueue chan Result[J, R]
	wg          sync.WaitGroup
	ctx         context.Context
	next        int
	mu          sync.Mutex
	logger      logger.Logger
}

// NewWorkerPool creates a pool of numWorkers workers running handler
func NewWorkerPool[J, R any](ctx context.Context, numWorkers int, handler Handler[J, R], log logger.Logger) *WorkerPool[J, R] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool[J, R]{
		numWorkers:  numWorkers,
		handler:     handler,
		jobQueue:    make(chan job[J], numWorkers*2),
		resultQueue: make(chan Result[J, R], numWorkers),
		ctx:         ctx,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool[J, R]) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue and waits for every submitted job to finish.
// Results is closed once all workers have exited.
func (wp *WorkerPool[J, R]) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)

	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job and returns its index
func (wp *WorkerPool[J, R]) Submit(payload J) (int, error) {
	wp.mu.Lock()
	index := wp.next
	wp.next++
	wp.mu.Unlock()

	select {
	case wp.jobQueue <- job[J]{index: index, payload: payload}:
		return index, nil
	case <-wp.ctx.Done():
		return index, ErrPoolStopped
	}
}

// Results returns the result channel. It must be drained while jobs are submitted.
func (wp *WorkerPool[J, R]) Results() <-chan Result[J, R] {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool[J, R]) worker(id int) {
	defer wp.wg.Done()

	for j := range wp.jobQueue {
		result := Result[J, R]{Index: j.index, Job: j.payload}

		if err := wp.ctx.Err(); err != nil {
			result.Err = err
		} else {
			start := time.Now()
			result.Value, result.Err = wp.handler(wp.ctx, j.payload)
			result.Duration = time.Since(start)
			result.Ran = true
		}

		wp.resultQueue <- result
	}

	wp.logger.DebugWithFields("Worker stopping - job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}

// Run processes jobs with numWorkers workers and returns one result per job
// in submission order. It returns after every worker has exited.
func Run[J, R any](ctx context.Context, numWorkers int, jobs []J, handler Handler[J, R], log logger.Logger) []Result[J, R] {
	results := make([]Result[J, R], len(jobs))
	for i := range jobs {
		results[i] = Result[J, R]{Index: i, Job: jobs[i]}
	}
	if len(jobs) == 0 {
		return results
	}

	pool := NewWorkerPool(ctx, numWorkers, handler, log)
	pool.Start()

	go func() {
		defer pool.Stop()
		for _, j := range jobs {
			if _, err := pool.Submit(j); err != nil {
				return
			}
		}
	}()

	for result := range pool.Results() {
		results[result.Index] = result
	}

	if err := ctx.Err(); err != nil {
		for i := range results {
			if !results[i].Ran && results[i].Err == nil {
				results[i].Err = err
			}
		}
	}
	return results
}
