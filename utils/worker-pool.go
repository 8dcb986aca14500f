package utils

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tj/go-spin"
)

type job[T any] struct {
	Index int
	Item  T
}

type jobResult[R any] struct {
	Index  int
	Result R
}

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool[T, R any] struct {
	NumWorkers int
	JobQueue   chan job[T]
	Results    chan jobResult[R]
	wg         sync.WaitGroup
	started    bool
	mu         sync.Mutex
}

// NewWorkerPool creates a new worker pool with specified number of workers
func NewWorkerPool[T, R any](numWorkers int, jobBufferSize int, resultBufferSize int) *WorkerPool[T, R] {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	return &WorkerPool[T, R]{
		NumWorkers: numWorkers,
		JobQueue:   make(chan job[T], jobBufferSize),
		Results:    make(chan jobResult[R], resultBufferSize),
	}
}

// StartWorkers starts the worker goroutines with the given work function
func (wp *WorkerPool[T, R]) StartWorkers(workFunc func(int, T) R) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.started {
		return
	}

	wp.started = true
	wp.wg.Add(wp.NumWorkers)

	for i := 0; i < wp.NumWorkers; i++ {
		go wp.worker(workFunc)
	}
}

func (wp *WorkerPool[T, R]) worker(workFunc func(int, T) R) {
	defer wp.wg.Done()

	for j := range wp.JobQueue {
		wp.Results <- jobResult[R]{Index: j.Index, Result: workFunc(j.Index, j.Item)}
	}
}

// SubmitJob adds a job to the job queue
func (wp *WorkerPool[T, R]) SubmitJob(index int, item T) {
	wp.JobQueue <- job[T]{Index: index, Item: item}
}

// ProgressTracker tracks progress of concurrent operations
type ProgressTracker struct {
	Total     int64
	Processed int64
	StartTime time.Time
	Name      string

	out     io.Writer
	mu      sync.Mutex
	spinner *spin.Spinner
}

// NewProgressTracker creates a new progress tracker. A nil out disables output.
func NewProgressTracker(total int64, name string, out io.Writer) *ProgressTracker {
	return &ProgressTracker{
		Total:     total,
		StartTime: time.Now(),
		Name:      name,
		out:       out,
		spinner:   spin.New(),
	}
}

// Increment increments the processed count atomically
func (pt *ProgressTracker) Increment() {
	processed := atomic.AddInt64(&pt.Processed, 1)
	if pt.out == nil {
		return
	}

	elapsed := time.Since(pt.StartTime)
	rate := float64(processed) / elapsed.Seconds()
	percentage := float64(processed) / float64(pt.Total) * 100

	pt.mu.Lock()
	defer pt.mu.Unlock()
	fmt.Fprintf(pt.out, "\r%s %s: %d/%d (%.1f%%) - %.1f items/sec",
		pt.spinner.Next(), pt.Name, processed, pt.Total, percentage, rate)
	if processed == pt.Total {
		fmt.Fprintln(pt.out)
	}
}

// progress returns the processed and total counts and the percentage done.
func (pt *ProgressTracker) progress() (int64, int64, float64) {
	processed := atomic.LoadInt64(&pt.Processed)
	if pt.Total == 0 {
		return processed, pt.Total, 100
	}
	percentage := float64(processed) / float64(pt.Total) * 100
	return processed, pt.Total, percentage
}

// ParallelProcessor runs independent jobs on a bounded number of goroutines.
type ParallelProcessor struct {
	NumWorkers int
	Progress   io.Writer
}

// NewParallelProcessor creates a new parallel processor
func NewParallelProcessor(numWorkers int) *ParallelProcessor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	return &ParallelProcessor{
		NumWorkers: numWorkers,
	}
}

// ProcessBatch applies workFunc to every item in parallel and returns the
// results in item order.
func ProcessBatch[T, R any](pp *ParallelProcessor, items []T, workFunc func(int, T) R, progressName string) []R {
	if len(items) == 0 {
		return []R{}
	}

	tracker := NewProgressTracker(int64(len(items)), progressName, pp.Progress)

	numWorkers := pp.NumWorkers
	if numWorkers > len(items) {
		numWorkers = len(items)
	}
	wp := NewWorkerPool[T, R](numWorkers, len(items), len(items))

	wp.StartWorkers(func(index int, item T) R {
		result := workFunc(index, item)
		tracker.Increment()
		return result
	})

	for i, item := range items {
		wp.SubmitJob(i, item)
	}
	close(wp.JobQueue)

	results := make([]R, len(items))
	for range items {
		res := <-wp.Results
		results[res.Index] = res.Result
	}

	wp.wg.Wait()
	close(wp.Results)

	return results
}
