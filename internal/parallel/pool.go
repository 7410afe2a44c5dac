// Package parallel provides the persistent worker pool and buffer pool
// behind the CPU-parallel renderer.
package parallel

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned when work is submitted to a closed pool.
var ErrPoolClosed = errors.New("parallel: worker pool is closed")

// TaskError reports the failure of one task in an ExecuteAll batch.
type TaskError struct {
	Index int
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("parallel: task %d: %v", e.Index, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// PanicError is a recovered task panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// WorkerPool is a fixed set of persistent worker goroutines.
//
// Each worker owns a queue and steals from the others when its own queue
// is empty, which balances tiles whose escape times differ widely.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewWorkerPool creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drainQueue(myQueue)
			return

		case work := <-myQueue:
			work()

		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drainQueue(myQueue)
				return
			case work := <-myQueue:
				work()
			}
		}
	}
}

// drainQueue runs whatever is left in a queue during shutdown so that no
// ExecuteAll caller waits forever.
func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll runs every task and blocks until all of them have returned.
//
// A task that returns an error or panics does not stop the others; the
// batch still joins. The result is nil when every task succeeded, otherwise
// a *TaskError for the lowest failing index. Panics surface as *PanicError
// inside the TaskError.
//
// If the pool is closed before every task is queued, ExecuteAll waits for
// the queued ones and returns ErrPoolClosed.
func (p *WorkerPool) ExecuteAll(work []func() error) error {
	if len(work) == 0 {
		return nil
	}
	if !p.running.Load() {
		return ErrPoolClosed
	}

	errs := make([]error, len(work))
	var completionWG sync.WaitGroup
	completionWG.Add(len(work))

	closed := false
	for i, fn := range work {
		if closed {
			completionWG.Done()
			continue
		}
		select {
		case <-p.done:
			closed = true
			completionWG.Done()
			continue
		default:
		}

		wrapped := func() {
			defer completionWG.Done()
			errs[i] = runTask(fn)
		}

		select {
		case p.workQueues[i%p.workers] <- wrapped:
		case <-p.done:
			closed = true
			completionWG.Done()
		}
	}

	completionWG.Wait()

	if closed {
		return ErrPoolClosed
	}
	for i, err := range errs {
		if err != nil {
			return &TaskError{Index: i, Err: err}
		}
	}
	return nil
}

func runTask(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Close stops accepting work, lets queued work finish and stops the
// workers. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// QueuedWork returns an approximate count of queued tasks.
func (p *WorkerPool) QueuedWork() int {
	total := 0
	for _, q := range p.workQueues {
		total += len(q)
	}
	return total
}
