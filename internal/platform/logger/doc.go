// Package logger provides structured logging functionality for the worker.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels.
package logger
