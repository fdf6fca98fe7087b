// Package workerpool provides a bounded-concurrency fan-out helper used by
// the hash engine, the full-copy emitter, and the patch scheduler.
package workerpool

import (
	"context"
	"runtime"
	"sync"
)

// DefaultMaxWorkers is used when New is given a non-positive worker count.
const DefaultMaxWorkers = 4

// Task is a unit of work submitted to a Pool. It receives the context given
// to Run, so long-running tasks can observe the caller's cancellation; the
// Pool itself never cancels it.
type Task[T any] func(ctx context.Context) (T, error)

// Result pairs a Task's return value with any error it produced.
type Result[T any] struct {
	Value T
	Error error
}

// Pool runs Tasks with bounded concurrency via a semaphore channel, mirroring
// the shape of the teacher's single-purpose worker pool but generalized over
// the result type so hashing, copying, and patch generation can all share it.
type Pool[T any] struct {
	maxWorkers int
	semaphore  chan struct{}
}

// New creates a Pool capped at maxWorkers, clamped to [1, runtime.NumCPU()].
func New[T any](maxWorkers int) *Pool[T] {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	if cpus := runtime.NumCPU(); maxWorkers > cpus {
		maxWorkers = cpus
	}
	return &Pool[T]{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Run executes every task, each in its own goroutine gated by the pool's
// semaphore, and returns results in the same order the tasks were given.
// Run does not itself stop early on error; callers that want fail-fast
// semantics should check ctx.Err() inside their Task and watch for it in
// the returned Results.
func (p *Pool[T]) Run(ctx context.Context, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))

	for i, task := range tasks {
		i, task := i, task
		go func() {
			defer wg.Done()

			p.semaphore <- struct{}{}
			defer func() { <-p.semaphore }()

			value, err := task(ctx)
			results[i] = Result[T]{Value: value, Error: err}
		}()
	}

	wg.Wait()
	return results
}
