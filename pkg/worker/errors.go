package worker

import "errors"

var (
	// ErrNilProcessor indicates a pool was constructed without a processor
	ErrNilProcessor = errors.New("worker pool requires a processor function")

	// ErrPoolNotStarted indicates work was submitted before Start
	ErrPoolNotStarted = errors.New("worker pool not started")

	// ErrPoolAlreadyStarted indicates Start was called twice
	ErrPoolAlreadyStarted = errors.New("worker pool already started")

	// ErrPoolStopped indicates work was submitted after Stop
	ErrPoolStopped = errors.New("worker pool stopped")

	// ErrQueueFull indicates the work queue is at capacity
	ErrQueueFull = errors.New("worker pool queue full")

	// ErrStopTimeout indicates workers did not drain within the timeout
	ErrStopTimeout = errors.New("worker pool stop timed out")
)
