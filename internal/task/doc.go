// Package task implements the worker's background task engine: the task
// model, an unbounded FIFO queue, a fixed handler registry, the
// single-consumer processing loop with its retry policy, and the worker
// lifecycle that ties them to a periodic health check, process signals and
// graceful shutdown.
package task
